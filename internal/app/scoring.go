package app

import (
	"fmt"

	"trivia-quiz-service/internal/domain"
)

// scoreAnswers validates answers against the displayed options and reports
// whether they are correct. Single-correct questions take at most one answer;
// multiple-correct questions need the exact set of correct answers.
func scoreAnswers(q domain.Question, answers []string) (bool, error) {
	for _, answer := range answers {
		if !q.HasAnswer(answer) {
			return false, fmt.Errorf("%w: %q", domain.ErrInvalidAnswer, answer)
		}
	}

	if !q.MultipleCorrect {
		if len(answers) > 1 {
			return false, fmt.Errorf("%w: question accepts a single answer", domain.ErrInvalidAnswer)
		}
		return len(answers) == 1 && answers[0] == q.CorrectAnswer(), nil
	}
	return sameSet(answers, q.CorrectAnswers), nil
}

func sameSet(selected, correct []string) bool {
	want := make(map[string]struct{}, len(correct))
	for _, c := range correct {
		want[c] = struct{}{}
	}
	got := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		if _, ok := want[s]; !ok {
			return false
		}
		got[s] = struct{}{}
	}
	return len(got) == len(want)
}

// dedupe keeps the first occurrence of each answer, preserving order.
// A nil input stays nil so callers can tell "no answers given" from "empty".
func dedupe(answers []string) []string {
	if answers == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(answers))
	out := make([]string, 0, len(answers))
	for _, a := range answers {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
