package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Question types as reported by the trivia API, plus the authored multi-answer type.
const (
	TypeMultiple        = "multiple"
	TypeBoolean         = "boolean"
	TypeMultipleCorrect = "multiple_correct"
)

const (
	MaxAmount = 50
)

// Source records where a session's questions came from.
type Source string

const (
	SourceAPI    Source = "api"
	SourceCustom Source = "custom"
	SourceSet    Source = "set"
)

// Question is a single quiz item. Answers holds the display order and is a
// permutation of CorrectAnswers plus IncorrectAnswers.
type Question struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Text             string   `json:"question"`
	CorrectAnswers   []string `json:"correctAnswers"`
	IncorrectAnswers []string `json:"incorrectAnswers"`
	Answers          []string `json:"answers"`
	MultipleCorrect  bool     `json:"multipleCorrect"`
}

// CorrectAnswer returns the accepted answer of a single-correct question.
func (q Question) CorrectAnswer() string {
	if len(q.CorrectAnswers) == 0 {
		return ""
	}
	return q.CorrectAnswers[0]
}

// HasAnswer reports whether answer is one of the displayed options.
func (q Question) HasAnswer(answer string) bool {
	for _, a := range q.Answers {
		if a == answer {
			return true
		}
	}
	return false
}

// QuizConfig selects questions from the trivia API. Empty fields mean "any".
type QuizConfig struct {
	Amount     int    `json:"amount" yaml:"amount"`
	Category   string `json:"category" yaml:"category"`
	Difficulty string `json:"difficulty" yaml:"difficulty"`
	Type       string `json:"type" yaml:"type"`
}

// Normalize trims and lowercases the selectors and fills a missing amount.
func (c QuizConfig) Normalize(defaultAmount int) QuizConfig {
	c.Category = strings.TrimSpace(c.Category)
	c.Difficulty = strings.ToLower(strings.TrimSpace(c.Difficulty))
	c.Type = strings.ToLower(strings.TrimSpace(c.Type))
	if c.Amount == 0 {
		c.Amount = defaultAmount
	}
	return c
}

func (c QuizConfig) Validate() error {
	if c.Amount < 1 || c.Amount > MaxAmount {
		return fmt.Errorf("%w: amount must be between 1 and %d", ErrInvalidConfig, MaxAmount)
	}
	if c.Category != "" {
		if _, err := strconv.Atoi(c.Category); err != nil {
			return fmt.Errorf("%w: category must be a numeric id", ErrInvalidConfig)
		}
	}
	switch c.Difficulty {
	case "", "easy", "medium", "hard":
	default:
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfig, c.Difficulty)
	}
	switch c.Type {
	case "", TypeMultiple, TypeBoolean:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidConfig, c.Type)
	}
	return nil
}

// Response is the recorded outcome for one question.
type Response struct {
	Answered bool     `json:"answered"`
	Answers  []string `json:"answers,omitempty"`
	Correct  bool     `json:"correct"`
	TimedOut bool     `json:"timedOut,omitempty"`
}

// SessionState is the full, persistable state of a quiz session.
// Version grows with every persisted transition. TimeLeft is live only and is
// never saved; a restored question starts its countdown over.
type SessionState struct {
	ID            string     `json:"id"`
	Source        Source     `json:"source"`
	QuestionSetID string     `json:"questionSetId,omitempty"`
	Config        QuizConfig `json:"config"`
	Questions     []Question `json:"questions"`
	CurrentIndex  int        `json:"currentIndex"`
	Score         int        `json:"score"`
	Responses     []Response `json:"responses"`
	Selections    []string   `json:"selections,omitempty"`
	TimeLeft      int        `json:"-"`
	Finished      bool       `json:"finished"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Current returns the question at CurrentIndex, or false once out of range.
func (s SessionState) Current() (Question, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

// Clone copies the mutable slices so the result can leave the session lock.
// Questions are never mutated in place and are shared.
func (s SessionState) Clone() SessionState {
	out := s
	out.Responses = make([]Response, len(s.Responses))
	for i, r := range s.Responses {
		r.Answers = append([]string(nil), r.Answers...)
		out.Responses[i] = r
	}
	out.Selections = append([]string(nil), s.Selections...)
	return out
}

// QuestionView is the client-facing question; correct answers stay hidden until answered.
type QuestionView struct {
	Index           int      `json:"index"`
	Category        string   `json:"category"`
	Type            string   `json:"type"`
	Difficulty      string   `json:"difficulty"`
	Text            string   `json:"question"`
	Answers         []string `json:"answers"`
	MultipleCorrect bool     `json:"multipleCorrect"`
	CorrectAnswers  []string `json:"correctAnswers,omitempty"`
}

// SessionView is what clients see of a session.
type SessionView struct {
	ID           string        `json:"id"`
	Source       Source        `json:"source"`
	Total        int           `json:"total"`
	CurrentIndex int           `json:"currentIndex"`
	Score        int           `json:"score"`
	TimeLeft     int           `json:"timeLeft"`
	Finished     bool          `json:"finished"`
	Question     *QuestionView `json:"question,omitempty"`
	Selections   []string      `json:"selections"`
	Response     *Response     `json:"response,omitempty"`
}

// View projects the state for clients.
func (s SessionState) View() SessionView {
	view := SessionView{
		ID:           s.ID,
		Source:       s.Source,
		Total:        len(s.Questions),
		CurrentIndex: s.CurrentIndex,
		Score:        s.Score,
		TimeLeft:     s.TimeLeft,
		Finished:     s.Finished,
		Selections:   append([]string{}, s.Selections...),
	}
	q, ok := s.Current()
	if !ok {
		return view
	}
	view.Question = &QuestionView{
		Index:           s.CurrentIndex,
		Category:        q.Category,
		Type:            q.Type,
		Difficulty:      q.Difficulty,
		Text:            q.Text,
		Answers:         q.Answers,
		MultipleCorrect: q.MultipleCorrect,
	}
	if s.CurrentIndex < len(s.Responses) && s.Responses[s.CurrentIndex].Answered {
		resp := s.Responses[s.CurrentIndex]
		view.Response = &resp
		view.Question.CorrectAnswers = q.CorrectAnswers
	}
	return view
}

// AnswerResult summarizes the outcome of a submission.
type AnswerResult struct {
	QuestionIndex  int      `json:"questionIndex"`
	Correct        bool     `json:"correct"`
	Answers        []string `json:"answers"`
	CorrectAnswers []string `json:"correctAnswers"`
	Score          int      `json:"score"`
	TimedOut       bool     `json:"timedOut,omitempty"`
}

// CategoryResult aggregates correctness for one category.
type CategoryResult struct {
	Category   string `json:"category"`
	Total      int    `json:"total"`
	Correct    int    `json:"correct"`
	Percentage int    `json:"percentage"`
	Rating     string `json:"rating"`
}

// ReviewItem pairs a question with what the user answered.
type ReviewItem struct {
	Index           int      `json:"index"`
	Category        string   `json:"category"`
	Difficulty      string   `json:"difficulty"`
	Text            string   `json:"question"`
	Answers         []string `json:"answers"`
	UserAnswers     []string `json:"userAnswers"`
	CorrectAnswers  []string `json:"correctAnswers"`
	Correct         bool     `json:"correct"`
	MultipleCorrect bool     `json:"multipleCorrect"`
	TimedOut        bool     `json:"timedOut,omitempty"`
}

// Results is the end-of-quiz breakdown.
type Results struct {
	SessionID  string           `json:"sessionId"`
	Score      int              `json:"score"`
	Total      int              `json:"total"`
	Percentage int              `json:"percentage"`
	Message    string           `json:"message"`
	Badge      string           `json:"badge"`
	Categories []CategoryResult `json:"categories"`
	Review     []ReviewItem     `json:"review"`
}

// QuestionSet is a saved, authored quiz.
type QuestionSet struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Source    string     `json:"source"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
}

// EventType names the kinds of session events pushed to subscribers.
type EventType string

const (
	EventState     EventType = "state"
	EventTick      EventType = "tick"
	EventSelection EventType = "selection"
	EventAnswered  EventType = "answered"
	EventAdvanced  EventType = "advanced"
	EventFinished  EventType = "finished"
	EventRestarted EventType = "restarted"
	EventClosed    EventType = "closed"
)

// SessionEvent is broadcast on every session transition.
type SessionEvent struct {
	Type      EventType     `json:"type"`
	SessionID string        `json:"sessionId"`
	View      SessionView   `json:"view"`
	Answer    *AnswerResult `json:"answer,omitempty"`
}
