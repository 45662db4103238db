// Package opentdb fetches questions from the Open Trivia Database.
package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"trivia-quiz-service/internal/domain"
)

const (
	codeSuccess   = 0
	codeNoResults = 1
)

type envelope struct {
	ResponseCode int           `json:"response_code"`
	Results      []apiQuestion `json:"results"`
}

type apiQuestion struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// Client implements app.QuestionSource against the public trivia API.
type Client struct {
	baseURL  string
	http     *http.Client
	shuffler *domain.Shuffler
	log      *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithShuffler(s *domain.Shuffler) Option {
	return func(c *Client) { c.shuffler = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: timeout},
		shuffler: domain.NewShuffler(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchQuestions requests cfg.Amount questions. Entities are decoded and the
// answers of every question are shuffled into display order.
func (c *Client) FetchQuestions(ctx context.Context, cfg domain.QuizConfig) ([]domain.Question, error) {
	endpoint, err := c.endpoint(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	c.log.Debug("trivia api response",
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrFetchFailed, resp.StatusCode)
	}

	var body envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrFetchFailed, err)
	}
	switch body.ResponseCode {
	case codeSuccess:
	case codeNoResults:
		return nil, domain.ErrNoResults
	default:
		return nil, fmt.Errorf("%w: response code %d", domain.ErrFetchFailed, body.ResponseCode)
	}
	if len(body.Results) == 0 {
		return nil, domain.ErrNoResults
	}

	questions := make([]domain.Question, 0, len(body.Results))
	for _, r := range body.Results {
		questions = append(questions, c.toQuestion(r))
	}
	return questions, nil
}

func (c *Client) endpoint(cfg domain.QuizConfig) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("amount", strconv.Itoa(cfg.Amount))
	if cfg.Category != "" {
		q.Set("category", cfg.Category)
	}
	if cfg.Difficulty != "" {
		q.Set("difficulty", cfg.Difficulty)
	}
	if cfg.Type != "" {
		q.Set("type", cfg.Type)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) toQuestion(r apiQuestion) domain.Question {
	correct := html.UnescapeString(r.CorrectAnswer)
	incorrect := make([]string, len(r.IncorrectAnswers))
	for i, a := range r.IncorrectAnswers {
		incorrect[i] = html.UnescapeString(a)
	}
	return domain.Question{
		Category:         html.UnescapeString(r.Category),
		Type:             r.Type,
		Difficulty:       r.Difficulty,
		Text:             html.UnescapeString(r.Question),
		CorrectAnswers:   []string{correct},
		IncorrectAnswers: incorrect,
		Answers:          c.shuffler.Shuffle(append(append([]string{}, incorrect...), correct)),
	}
}
