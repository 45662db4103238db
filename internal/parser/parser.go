// Package parser reads the plain-text authoring format for custom quizzes:
//
//	Q.Which of these are mammals:
//	1.Dolphin (true)
//	2.Shark
//	3.Elephant (true)
//
// Each question starts with "Q." and ends its text at the first colon. Options
// are numbered and correct ones carry a "(true)" marker in any case.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"trivia-quiz-service/internal/domain"
)

const (
	CustomCategory   = "Custom"
	CustomDifficulty = "medium"

	questionMarker = "q."
	correctMarker  = "(true)"
)

var (
	// ErrEmptyInput is returned when there is no text to parse.
	ErrEmptyInput = errors.New("please enter some questions in the specified format")
	// ErrNoQuestions is returned when no question in the text is valid.
	ErrNoQuestions = errors.New("could not parse any valid questions, please check your format and try again")

	optionLine    = regexp.MustCompile(`^(\d+)\.(.+)$`)
	correctRegexp = regexp.MustCompile(`(?i)\(true\)`)
)

// Issue describes a line or question that was skipped.
type Issue struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Reason)
}

// Result holds the parsed questions and everything that was skipped on the way.
type Result struct {
	Questions []domain.Question `json:"questions"`
	Issues    []Issue           `json:"issues,omitempty"`
}

// Error is returned when parsing produced nothing usable. It carries the issues
// so callers can show them inline.
type Error struct {
	Err    error
	Issues []Issue
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

type line struct {
	number int
	text   string
}

// Parse scans text for questions. Malformed lines and questions without
// options or without a correct answer are skipped and reported as issues.
func Parse(text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &Error{Err: ErrEmptyInput}
	}

	var lines []line
	for i, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		lines = append(lines, line{number: i + 1, text: trimmed})
	}

	result := &Result{}
	for i := 0; i < len(lines); i++ {
		if !isQuestionLine(lines[i].text) {
			result.Issues = append(result.Issues, Issue{Line: lines[i].number, Reason: "text outside of a question"})
			continue
		}

		j := i + 1
		for j < len(lines) && !isQuestionLine(lines[j].text) {
			j++
		}
		question, issues, ok := parseQuestion(lines[i], lines[i+1:j])
		result.Issues = append(result.Issues, issues...)
		if ok {
			result.Questions = append(result.Questions, question)
		}
		i = j - 1
	}

	if len(result.Questions) == 0 {
		return nil, &Error{Err: ErrNoQuestions, Issues: result.Issues}
	}
	return result, nil
}

func isQuestionLine(text string) bool {
	return strings.HasPrefix(strings.ToLower(text), questionMarker)
}

func parseQuestion(header line, body []line) (domain.Question, []Issue, bool) {
	var issues []Issue
	text, _, _ := strings.Cut(header.text[len(questionMarker):], ":")
	text = strings.TrimSpace(text)

	var options, correct, incorrect []string
	for _, l := range body {
		match := optionLine.FindStringSubmatch(l.text)
		if match == nil {
			issues = append(issues, Issue{Line: l.number, Reason: "not a numbered option"})
			continue
		}
		option := strings.TrimSpace(match[2])
		marked := correctRegexp.MatchString(option)
		if marked {
			option = strings.TrimSpace(correctRegexp.ReplaceAllString(option, ""))
		}
		if option == "" {
			issues = append(issues, Issue{Line: l.number, Reason: "option text is empty"})
			continue
		}
		if marked {
			correct = append(correct, option)
		} else {
			incorrect = append(incorrect, option)
		}
		options = append(options, option)
	}

	switch {
	case text == "":
		return domain.Question{}, append(issues, Issue{Line: header.number, Reason: "question text is empty"}), false
	case len(options) == 0:
		return domain.Question{}, append(issues, Issue{Line: header.number, Reason: "question has no options"}), false
	case len(correct) == 0:
		return domain.Question{}, append(issues, Issue{Line: header.number, Reason: "question has no option marked " + correctMarker}), false
	}

	multipleCorrect := len(correct) > 1
	questionType := domain.TypeMultiple
	switch {
	case isTrueFalsePair(options):
		questionType = domain.TypeBoolean
	case multipleCorrect:
		questionType = domain.TypeMultipleCorrect
	}

	return domain.Question{
		Category:         CustomCategory,
		Type:             questionType,
		Difficulty:       CustomDifficulty,
		Text:             text,
		CorrectAnswers:   correct,
		IncorrectAnswers: incorrect,
		Answers:          options,
		MultipleCorrect:  multipleCorrect,
	}, issues, true
}

func isTrueFalsePair(options []string) bool {
	if len(options) != 2 {
		return false
	}
	a, b := strings.ToLower(options[0]), strings.ToLower(options[1])
	return (a == "true" && b == "false") || (a == "false" && b == "true")
}
