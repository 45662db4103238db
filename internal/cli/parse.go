package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"trivia-quiz-service/internal/parser"
)

// NewParseCmd checks a custom quiz file and prints the parsed questions as JSON.
func NewParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE|-",
		Short: "Parse a custom quiz file and print the questions as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readSource(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return runParse(cmd.OutOrStdout(), cmd.ErrOrStderr(), text)
		},
	}
}

func readSource(stdin io.Reader, name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(name)
	return string(data), err
}

func runParse(stdout, stderr io.Writer, text string) error {
	result, err := parser.Parse(text)
	if err != nil {
		var parseErr *parser.Error
		if errors.As(err, &parseErr) {
			for _, issue := range parseErr.Issues {
				fmt.Fprintln(stderr, issue)
			}
		}
		return err
	}
	for _, issue := range result.Issues {
		fmt.Fprintln(stderr, issue)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
