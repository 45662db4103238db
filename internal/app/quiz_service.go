package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"trivia-quiz-service/internal/domain"
	"trivia-quiz-service/internal/parser"
)

const defaultSetTitle = "Custom quiz"

// QuestionSource fetches questions for a quiz config (the trivia API).
type QuestionSource interface {
	FetchQuestions(ctx context.Context, cfg domain.QuizConfig) ([]domain.Question, error)
}

// SnapshotStore persists session snapshots so sessions survive reloads and restarts.
// Delete must not fail for unknown ids.
type SnapshotStore interface {
	Save(ctx context.Context, state domain.SessionState) error
	Load(ctx context.Context, sessionID string) (domain.SessionState, error)
	Delete(ctx context.Context, sessionID string) error
}

// QuestionSetRepository stores authored question sets.
type QuestionSetRepository interface {
	SaveSet(ctx context.Context, set domain.QuestionSet) error
	GetSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

type Options struct {
	// TimeLimit is the countdown per question, in ticks.
	TimeLimit    int
	TickInterval time.Duration
	// SaveTimeout bounds each snapshot write made after a transition.
	SaveTimeout   time.Duration
	DefaultAmount int
	Now           func() time.Time
	NewID         func() string
	Logger        *zap.Logger
}

// QuizService contains the quiz use cases and owns the live sessions.
type QuizService struct {
	source    QuestionSource
	sets      QuestionSetRepository
	snapshots SnapshotStore
	opts      Options
	log       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	// restores in flight and closes in progress, by session id
	restoring map[string]*restoreTicket
	closing   map[string]int
	sf        singleflight.Group
}

type restoreTicket struct {
	cancelled bool
}

func NewQuizService(source QuestionSource, sets QuestionSetRepository, snapshots SnapshotStore, opts Options) *QuizService {
	if opts.TimeLimit <= 0 {
		opts.TimeLimit = 10
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 5 * time.Second
	}
	if opts.DefaultAmount <= 0 {
		opts.DefaultAmount = 3
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &QuizService{
		source:    source,
		sets:      sets,
		snapshots: snapshots,
		opts:      opts,
		log:       opts.Logger,
		sessions:  make(map[string]*Session),
		restoring: make(map[string]*restoreTicket),
		closing:   make(map[string]int),
	}
}

// Start fetches questions for cfg and opens a session. Nothing is created when the fetch fails.
func (s *QuizService) Start(ctx context.Context, cfg domain.QuizConfig) (domain.SessionView, error) {
	cfg = cfg.Normalize(s.opts.DefaultAmount)
	if err := cfg.Validate(); err != nil {
		return domain.SessionView{}, err
	}

	questions, err := s.source.FetchQuestions(ctx, cfg)
	if err != nil {
		s.log.Warn("question fetch failed", zap.Error(err), zap.Int("amount", cfg.Amount), zap.String("category", cfg.Category))
		return domain.SessionView{}, err
	}
	if len(questions) == 0 {
		return domain.SessionView{}, domain.ErrNoResults
	}
	return s.open(ctx, domain.SessionState{Source: domain.SourceAPI, Config: cfg, Questions: questions})
}

// StartCustom parses authored text and opens a session over it.
func (s *QuizService) StartCustom(ctx context.Context, text string) (domain.SessionView, error) {
	result, err := parser.Parse(text)
	if err != nil {
		return domain.SessionView{}, err
	}
	return s.open(ctx, domain.SessionState{
		Source:    domain.SourceCustom,
		Config:    domain.QuizConfig{Amount: len(result.Questions)},
		Questions: result.Questions,
	})
}

// SaveQuestionSet parses and stores an authored set for later sessions.
func (s *QuizService) SaveQuestionSet(ctx context.Context, title, text string) (domain.QuestionSet, []parser.Issue, error) {
	result, err := parser.Parse(text)
	if err != nil {
		return domain.QuestionSet{}, nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultSetTitle
	}

	set := domain.QuestionSet{
		ID:        s.opts.NewID(),
		Title:     title,
		Source:    text,
		Questions: result.Questions,
		CreatedAt: s.opts.Now().UTC(),
	}
	if err := s.sets.SaveSet(ctx, set); err != nil {
		return domain.QuestionSet{}, nil, err
	}
	s.log.Info("question set saved", zap.String("set_id", set.ID), zap.Int("questions", len(set.Questions)))
	return set, result.Issues, nil
}

func (s *QuizService) QuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	return s.sets.GetSet(ctx, setID)
}

// StartFromSet opens a session over a saved question set.
func (s *QuizService) StartFromSet(ctx context.Context, setID string) (domain.SessionView, error) {
	set, err := s.sets.GetSet(ctx, setID)
	if err != nil {
		return domain.SessionView{}, err
	}
	if len(set.Questions) == 0 {
		return domain.SessionView{}, domain.ErrNoResults
	}
	return s.open(ctx, domain.SessionState{
		Source:        domain.SourceSet,
		QuestionSetID: set.ID,
		Config:        domain.QuizConfig{Amount: len(set.Questions)},
		Questions:     set.Questions,
	})
}

func (s *QuizService) State(ctx context.Context, sessionID string) (domain.SessionView, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.SessionView{}, err
	}
	return session.view(), nil
}

// Select toggles an answer for multiple-correct questions and replaces the
// selection for single-correct ones.
func (s *QuizService) Select(ctx context.Context, sessionID, answer string) (domain.SessionView, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.SessionView{}, err
	}
	state, err := session.selectAnswer(answer)
	if err != nil {
		return domain.SessionView{}, err
	}
	return state.View(), nil
}

// Submit answers the current question; nil answers submits the pending selections.
func (s *QuizService) Submit(ctx context.Context, sessionID string, answers []string) (domain.AnswerResult, domain.SessionView, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.AnswerResult{}, domain.SessionView{}, err
	}
	result, state, err := session.submit(answers)
	if err != nil {
		return domain.AnswerResult{}, domain.SessionView{}, err
	}
	return result, state.View(), nil
}

// Next advances to the following question, or finishes the quiz after the last one.
func (s *QuizService) Next(ctx context.Context, sessionID string) (domain.SessionView, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.SessionView{}, err
	}
	state, err := session.next()
	if err != nil {
		return domain.SessionView{}, err
	}
	return state.View(), nil
}

// Restart replays a session from the first question. API sessions get a fresh
// set of questions for the same config.
func (s *QuizService) Restart(ctx context.Context, sessionID string) (domain.SessionView, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.SessionView{}, err
	}

	current := session.snapshot()
	questions := current.Questions
	if current.Source == domain.SourceAPI {
		questions, err = s.source.FetchQuestions(ctx, current.Config)
		if err != nil {
			return domain.SessionView{}, err
		}
		if len(questions) == 0 {
			return domain.SessionView{}, domain.ErrNoResults
		}
	}

	state, err := session.restart(questions)
	if err != nil {
		return domain.SessionView{}, err
	}
	return state.View(), nil
}

func (s *QuizService) Results(ctx context.Context, sessionID string) (domain.Results, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return domain.Results{}, err
	}
	state := session.snapshot()
	if !state.Finished {
		return domain.Results{}, domain.ErrQuizNotFinished
	}
	return Summarize(state), nil
}

// Subscribe returns a channel of session events, starting with the current state.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(ctx context.Context, sessionID string) (<-chan domain.SessionEvent, func(), error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return session.subscribe()
}

// Close ends a session and removes its snapshot. A restore of the same id that
// is in flight, or starts before Close returns, is refused.
func (s *QuizService) Close(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	session, live := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	if ticket, ok := s.restoring[sessionID]; ok {
		ticket.cancelled = true
	}
	s.closing[sessionID]++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.closing[sessionID]--
		if s.closing[sessionID] <= 0 {
			delete(s.closing, sessionID)
		}
		s.mu.Unlock()
	}()

	if live {
		session.close()
		session.dropSaves()
	} else if _, err := s.snapshots.Load(ctx, sessionID); err != nil {
		return err
	}
	if err := s.snapshots.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.log.Info("session closed", zap.String("session_id", sessionID))
	return nil
}

// Shutdown stops every countdown and waits for pending snapshot writes.
// Snapshots stay in the store for the next process.
func (s *QuizService) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		session.close()
	}
	for _, session := range sessions {
		session.flush()
	}
}

func (s *QuizService) open(ctx context.Context, state domain.SessionState) (domain.SessionView, error) {
	now := s.opts.Now().UTC()
	state.ID = s.opts.NewID()
	state.Responses = make([]domain.Response, len(state.Questions))
	state.TimeLeft = s.opts.TimeLimit
	state.CreatedAt = now
	state.UpdatedAt = now

	if err := s.snapshots.Save(ctx, state); err != nil {
		return domain.SessionView{}, err
	}

	session := s.newSession(state)
	s.mu.Lock()
	s.sessions[state.ID] = session
	s.mu.Unlock()
	session.resume()

	s.log.Info("session started",
		zap.String("session_id", state.ID),
		zap.String("source", string(state.Source)),
		zap.Int("questions", len(state.Questions)),
	)
	return session.view(), nil
}

// session returns the live session, restoring it from the snapshot store if needed.
func (s *QuizService) session(ctx context.Context, sessionID string) (*Session, error) {
	if session, ok := s.live(sessionID); ok {
		return session, nil
	}

	result, err, _ := s.sf.Do(sessionID, func() (interface{}, error) {
		s.mu.Lock()
		if session, ok := s.sessions[sessionID]; ok {
			s.mu.Unlock()
			return session, nil
		}
		if s.closing[sessionID] > 0 {
			s.mu.Unlock()
			return nil, domain.ErrSessionNotFound
		}
		ticket := &restoreTicket{}
		s.restoring[sessionID] = ticket
		s.mu.Unlock()

		state, err := s.snapshots.Load(ctx, sessionID)

		s.mu.Lock()
		delete(s.restoring, sessionID)
		if err == nil && ticket.cancelled {
			err = domain.ErrSessionNotFound
		}
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		state.TimeLeft = s.opts.TimeLimit
		session := s.newSession(state)
		s.sessions[sessionID] = session
		s.mu.Unlock()
		session.resume()

		s.log.Info("session restored", zap.String("session_id", sessionID), zap.Int("index", state.CurrentIndex))
		return session, nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.log.Error("session restore failed", zap.String("session_id", sessionID), zap.Error(err))
		}
		return nil, err
	}
	return result.(*Session), nil
}

func (s *QuizService) live(sessionID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *QuizService) newSession(state domain.SessionState) *Session {
	return newSession(state, sessionOptions{
		timeLimit: s.opts.TimeLimit,
		interval:  s.opts.TickInterval,
		now:       s.opts.Now,
		onChange:  s.persist,
	})
}

func (s *QuizService) persist(state domain.SessionState) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SaveTimeout)
	defer cancel()
	if err := s.snapshots.Save(ctx, state); err != nil {
		s.log.Warn("snapshot save failed", zap.String("session_id", state.ID), zap.Error(err))
	}
}
