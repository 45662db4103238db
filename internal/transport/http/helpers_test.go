package http

import (
	"context"
	"sync"
	"testing"
	"time"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/infra/memory"
)

type stubSource struct {
	mu  sync.Mutex
	err error
}

func (s *stubSource) FetchQuestions(_ context.Context, cfg domain.QuizConfig) ([]domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	questions := sampleQuestions()
	if cfg.Amount < len(questions) {
		questions = questions[:cfg.Amount]
	}
	return questions, nil
}

func (s *stubSource) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func newTestService(t *testing.T, source app.QuestionSource) *app.QuizService {
	t.Helper()
	service := app.NewQuizService(source, memory.NewQuestionSetStore(), memory.NewSnapshotStore(), app.Options{
		TimeLimit:    10,
		TickInterval: time.Hour,
	})
	t.Cleanup(service.Shutdown)
	return service
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			Category:         "Science: Mathematics",
			Type:             domain.TypeMultiple,
			Difficulty:       "easy",
			Text:             "What is 2 + 2?",
			CorrectAnswers:   []string{"4"},
			IncorrectAnswers: []string{"3", "5"},
			Answers:          []string{"3", "4", "5"},
		},
		{
			Category:         "Science & Nature",
			Type:             domain.TypeBoolean,
			Difficulty:       "easy",
			Text:             "The sun is a star.",
			CorrectAnswers:   []string{"True"},
			IncorrectAnswers: []string{"False"},
			Answers:          []string{"False", "True"},
		},
	}
}
