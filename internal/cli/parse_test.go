package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/parser"
)

func TestParseCommandPrintsQuestions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiz.txt")
	require.NoError(t, os.WriteFile(path, []byte("Q. Largest planet:\n1. Mars\n2. Jupiter (true)\nnot an option\n"), 0o600))

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"parse", path})
	require.NoError(t, cmd.Execute())

	var result parser.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	require.Len(t, result.Questions, 1)
	assert.Equal(t, "Largest planet", result.Questions[0].Text)
	assert.Equal(t, []string{"Jupiter"}, result.Questions[0].CorrectAnswers)
	assert.Contains(t, stderr.String(), "line 4: not a numbered option")
}

func TestParseCommandReadsStdin(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader("Q. Sky is blue:\n1. True (TRUE)\n2. False\n"))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"parse", "-"})
	require.NoError(t, cmd.Execute())

	var result parser.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	require.Len(t, result.Questions, 1)
	assert.Equal(t, "boolean", result.Questions[0].Type)
}

func TestParseCommandFailsWithoutQuestions(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader("hello\n"))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"parse", "-"})

	err := cmd.Execute()
	assert.ErrorIs(t, err, parser.ErrNoQuestions)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "line 1: text outside of a question")
}
