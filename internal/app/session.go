package app

import (
	"sync"
	"time"

	"trivia-quiz-service/internal/domain"
)

// Session is the live, in-memory quiz state machine. Every transition happens
// under mu, bumps the state version, is broadcast to subscribers, and is handed
// to onChange for persistence after the lock is released.
type Session struct {
	id        string
	timeLimit int
	interval  time.Duration
	now       func() time.Time
	onChange  func(domain.SessionState)

	mu          sync.RWMutex
	state       domain.SessionState
	timer       *countdown
	closed      bool
	subscribers map[chan domain.SessionEvent]struct{}

	// saves reach onChange one at a time and in version order; a copy
	// superseded while another save is running is never written.
	saveMu   sync.Mutex
	saveIdle *sync.Cond
	pending  *domain.SessionState
	accepted int64
	saving   bool
	discard  bool
}

type sessionOptions struct {
	timeLimit int
	interval  time.Duration
	now       func() time.Time
	onChange  func(domain.SessionState)
}

func newSession(state domain.SessionState, opts sessionOptions) *Session {
	if opts.now == nil {
		opts.now = time.Now
	}
	if opts.interval <= 0 {
		opts.interval = time.Second
	}
	if len(state.Responses) != len(state.Questions) {
		responses := make([]domain.Response, len(state.Questions))
		copy(responses, state.Responses)
		state.Responses = responses
	}
	s := &Session{
		id:          state.ID,
		timeLimit:   opts.timeLimit,
		interval:    opts.interval,
		now:         opts.now,
		onChange:    opts.onChange,
		state:       state,
		subscribers: make(map[chan domain.SessionEvent]struct{}),
		accepted:    state.Version,
	}
	s.saveIdle = sync.NewCond(&s.saveMu)
	return s
}

func (s *Session) snapshot() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *Session) view() domain.SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.View()
}

// apply runs a transition under the lock, stamps it and persists the result.
func (s *Session) apply(fn func() error) (domain.SessionState, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	if err := fn(); err != nil {
		s.mu.Unlock()
		return domain.SessionState{}, err
	}
	snap := s.stampLocked()
	s.mu.Unlock()

	s.persist(snap)
	return snap, nil
}

func (s *Session) stampLocked() domain.SessionState {
	s.state.Version++
	s.state.UpdatedAt = s.now()
	return s.state.Clone()
}

// persist hands snap to onChange unless a newer version was already accepted.
// When a save is running the copy is queued and written by that caller, so a
// slow store never blocks later transitions.
func (s *Session) persist(snap domain.SessionState) {
	if s.onChange == nil {
		return
	}
	s.saveMu.Lock()
	if s.discard || snap.Version <= s.accepted {
		s.saveMu.Unlock()
		return
	}
	s.accepted = snap.Version
	s.pending = &snap
	if s.saving {
		s.saveMu.Unlock()
		return
	}

	s.saving = true
	for s.pending != nil && !s.discard {
		next := *s.pending
		s.pending = nil
		s.saveMu.Unlock()
		s.onChange(next)
		s.saveMu.Lock()
	}
	s.pending = nil
	s.saving = false
	s.saveIdle.Broadcast()
	s.saveMu.Unlock()
}

// flush waits until every accepted copy has been written.
func (s *Session) flush() {
	s.saveMu.Lock()
	for s.saving {
		s.saveIdle.Wait()
	}
	s.saveMu.Unlock()
}

// dropSaves discards queued copies, waits for a running save and refuses any
// later one. Nothing reaches onChange once it returns.
func (s *Session) dropSaves() {
	s.saveMu.Lock()
	s.discard = true
	s.pending = nil
	for s.saving {
		s.saveIdle.Wait()
	}
	s.saveMu.Unlock()
}

// resume starts the countdown when the current question is still open.
func (s *Session) resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.openLocked() != nil {
		return
	}
	if s.state.TimeLeft <= 0 {
		s.state.TimeLeft = s.timeLimit
	}
	s.startTimerLocked()
}

func (s *Session) selectAnswer(answer string) (domain.SessionState, error) {
	return s.apply(func() error {
		if err := s.openLocked(); err != nil {
			return err
		}
		q, _ := s.state.Current()
		if !q.HasAnswer(answer) {
			return domain.ErrInvalidAnswer
		}

		if q.MultipleCorrect {
			s.state.Selections = toggle(s.state.Selections, answer)
		} else if len(s.state.Selections) == 1 && s.state.Selections[0] == answer {
			s.state.Selections = nil
		} else {
			s.state.Selections = []string{answer}
		}
		s.emitLocked(domain.EventSelection, nil)
		return nil
	})
}

// submit records answers for the current question. nil answers submits the
// pending selections.
func (s *Session) submit(answers []string) (domain.AnswerResult, domain.SessionState, error) {
	var result domain.AnswerResult
	snap, err := s.apply(func() error {
		var err error
		result, err = s.submitLocked(answers, false)
		return err
	})
	return result, snap, err
}

func (s *Session) next() (domain.SessionState, error) {
	return s.apply(func() error {
		if _, ok := s.state.Current(); !ok || s.state.Finished {
			return domain.ErrQuizFinished
		}
		if !s.state.Responses[s.state.CurrentIndex].Answered {
			return domain.ErrNotAnswered
		}
		s.advanceLocked()
		return nil
	})
}

func (s *Session) restart(questions []domain.Question) (domain.SessionState, error) {
	return s.apply(func() error {
		s.state.Questions = questions
		s.state.CurrentIndex = 0
		s.state.Score = 0
		s.state.Responses = make([]domain.Response, len(questions))
		s.state.Selections = nil
		s.state.Finished = false
		s.state.TimeLeft = s.timeLimit
		s.startTimerLocked()
		s.emitLocked(domain.EventRestarted, nil)
		return nil
	})
}

// tick is the countdown callback. Plain decrements are broadcast but not
// persisted; reaching zero submits an empty answer and moves on.
func (s *Session) tick(c *countdown) bool {
	s.mu.Lock()
	if s.closed || s.timer != c || s.openLocked() != nil {
		s.mu.Unlock()
		return false
	}

	s.state.TimeLeft--
	if s.state.TimeLeft > 0 {
		s.emitLocked(domain.EventTick, nil)
		s.mu.Unlock()
		return true
	}

	s.state.TimeLeft = 0
	if _, err := s.submitLocked([]string{}, true); err != nil {
		s.mu.Unlock()
		return false
	}
	s.advanceLocked()
	snap := s.stampLocked()
	s.mu.Unlock()

	s.persist(snap)
	return false
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.stopTimerLocked()
	s.emitLocked(domain.EventClosed, nil)
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// openLocked reports why the current question cannot take an answer, if it can't.
func (s *Session) openLocked() error {
	if s.state.Finished {
		return domain.ErrQuizFinished
	}
	if _, ok := s.state.Current(); !ok {
		return domain.ErrQuizFinished
	}
	if s.state.Responses[s.state.CurrentIndex].Answered {
		return domain.ErrAlreadyAnswered
	}
	return nil
}

func (s *Session) submitLocked(answers []string, timedOut bool) (domain.AnswerResult, error) {
	if err := s.openLocked(); err != nil {
		return domain.AnswerResult{}, err
	}
	q, _ := s.state.Current()
	if answers == nil {
		answers = s.state.Selections
	}
	answers = dedupe(answers)
	if answers == nil {
		answers = []string{}
	}

	correct, err := scoreAnswers(q, answers)
	if err != nil {
		return domain.AnswerResult{}, err
	}

	s.state.Responses[s.state.CurrentIndex] = domain.Response{
		Answered: true,
		Answers:  answers,
		Correct:  correct,
		TimedOut: timedOut,
	}
	if correct {
		s.state.Score++
	}
	s.state.Selections = nil
	s.stopTimerLocked()

	result := domain.AnswerResult{
		QuestionIndex:  s.state.CurrentIndex,
		Correct:        correct,
		Answers:        append([]string{}, answers...),
		CorrectAnswers: q.CorrectAnswers,
		Score:          s.state.Score,
		TimedOut:       timedOut,
	}
	s.emitLocked(domain.EventAnswered, &result)
	return result, nil
}

func (s *Session) advanceLocked() {
	if s.state.CurrentIndex < len(s.state.Questions)-1 {
		s.state.CurrentIndex++
		s.state.TimeLeft = s.timeLimit
		s.state.Selections = nil
		s.startTimerLocked()
		s.emitLocked(domain.EventAdvanced, nil)
		return
	}
	s.state.Finished = true
	s.stopTimerLocked()
	s.emitLocked(domain.EventFinished, nil)
}

func (s *Session) startTimerLocked() {
	s.stopTimerLocked()
	s.timer = startCountdown(s.interval, s.tick)
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) subscribe() (<-chan domain.SessionEvent, func(), error) {
	ch := make(chan domain.SessionEvent, 16)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil, domain.ErrSessionNotFound
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.eventLocked(domain.EventState, nil)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

func (s *Session) eventLocked(typ domain.EventType, answer *domain.AnswerResult) domain.SessionEvent {
	return domain.SessionEvent{
		Type:      typ,
		SessionID: s.id,
		View:      s.state.View(),
		Answer:    answer,
	}
}

func (s *Session) emitLocked(typ domain.EventType, answer *domain.AnswerResult) {
	if len(s.subscribers) == 0 {
		return
	}
	event := s.eventLocked(typ, answer)
	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Drop the oldest queued event so a slow reader never blocks a transition.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

func toggle(selections []string, answer string) []string {
	out := make([]string, 0, len(selections)+1)
	found := false
	for _, s := range selections {
		if s == answer {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, answer)
	}
	return out
}
