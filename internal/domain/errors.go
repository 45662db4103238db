package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session is neither live nor persisted.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionSetNotFound indicates an authored question set could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrInvalidConfig is returned for quiz configs the trivia API would reject.
	ErrInvalidConfig = errors.New("invalid quiz config")
	// ErrInvalidAnswer indicates a submitted answer is not one of the displayed options.
	ErrInvalidAnswer = errors.New("answer is not one of the displayed options")
	// ErrAlreadyAnswered is returned when the current question already has a response.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrNotAnswered is returned when advancing past a question that has no response.
	ErrNotAnswered = errors.New("current question has not been answered")
	// ErrQuizFinished is returned for transitions attempted after the last question.
	ErrQuizFinished = errors.New("quiz already finished")
	// ErrQuizNotFinished is returned when results are requested mid-quiz.
	ErrQuizNotFinished = errors.New("quiz not finished")
	// ErrFetchFailed wraps network, status and decode failures from the trivia API.
	ErrFetchFailed = errors.New("failed to fetch questions")
	// ErrNoResults means the trivia API had no questions for the requested options.
	ErrNoResults = errors.New("no questions available for the selected options")
)
