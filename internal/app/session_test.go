package app

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/domain"
)

func singleQuestion(text, correct string, incorrect ...string) domain.Question {
	return domain.Question{
		Category:         "General Knowledge",
		Type:             domain.TypeMultiple,
		Difficulty:       "easy",
		Text:             text,
		CorrectAnswers:   []string{correct},
		IncorrectAnswers: incorrect,
		Answers:          append([]string{correct}, incorrect...),
	}
}

func multiQuestion(text string, correct, incorrect []string) domain.Question {
	return domain.Question{
		Category:         "Custom",
		Type:             domain.TypeMultipleCorrect,
		Difficulty:       "medium",
		Text:             text,
		CorrectAnswers:   correct,
		IncorrectAnswers: incorrect,
		Answers:          append(append([]string{}, correct...), incorrect...),
		MultipleCorrect:  true,
	}
}

type changeRecorder struct {
	mu     sync.Mutex
	states []domain.SessionState
}

func (r *changeRecorder) record(state domain.SessionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *changeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

// idleSession never ticks during a test, so transitions are deterministic.
func idleSession(questions ...domain.Question) (*Session, *changeRecorder) {
	rec := &changeRecorder{}
	s := newSession(domain.SessionState{ID: "s1", Questions: questions, TimeLeft: 10}, sessionOptions{
		timeLimit: 10,
		interval:  time.Hour,
		onChange:  rec.record,
	})
	s.resume()
	return s, rec
}

func TestSessionSubmitScoresSingleAnswer(t *testing.T) {
	s, rec := idleSession(
		singleQuestion("2+2?", "4", "3", "5"),
		singleQuestion("Capital of Peru?", "Lima", "Quito"),
	)
	defer s.close()

	result, state, err := s.submit([]string{"4"})
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, []string{"4"}, result.CorrectAnswers)
	assert.Equal(t, 1, state.Score)
	assert.Equal(t, 0, state.CurrentIndex, "submit does not advance")
	assert.Equal(t, 1, rec.count())

	_, _, err = s.submit([]string{"3"})
	assert.ErrorIs(t, err, domain.ErrAlreadyAnswered)

	state, err = s.next()
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentIndex)
	assert.Equal(t, 10, state.TimeLeft)

	result, state, err = s.submit([]string{"Quito"})
	require.NoError(t, err)
	assert.False(t, result.Correct)
	assert.Equal(t, 1, state.Score)

	state, err = s.next()
	require.NoError(t, err)
	assert.True(t, state.Finished)

	_, err = s.next()
	assert.ErrorIs(t, err, domain.ErrQuizFinished)
	_, _, err = s.submit([]string{"Lima"})
	assert.ErrorIs(t, err, domain.ErrQuizFinished)
}

func TestSessionNextRequiresAnswer(t *testing.T) {
	s, _ := idleSession(singleQuestion("2+2?", "4", "3"))
	defer s.close()

	_, err := s.next()
	assert.ErrorIs(t, err, domain.ErrNotAnswered)
}

func TestSessionRejectsUnknownAnswers(t *testing.T) {
	s, rec := idleSession(singleQuestion("2+2?", "4", "3"))
	defer s.close()

	_, _, err := s.submit([]string{"7"})
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)
	_, _, err = s.submit([]string{"4", "3"})
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)
	_, err = s.selectAnswer("7")
	assert.ErrorIs(t, err, domain.ErrInvalidAnswer)

	assert.Equal(t, 0, rec.count(), "rejected transitions are not persisted")
	assert.False(t, s.snapshot().Responses[0].Answered)
}

func TestSessionSelectionSingleReplaces(t *testing.T) {
	s, _ := idleSession(singleQuestion("2+2?", "4", "3", "5"))
	defer s.close()

	state, err := s.selectAnswer("3")
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, state.Selections)

	state, err = s.selectAnswer("4")
	require.NoError(t, err)
	assert.Equal(t, []string{"4"}, state.Selections)

	state, err = s.selectAnswer("4")
	require.NoError(t, err)
	assert.Empty(t, state.Selections)
}

func TestSessionMultipleCorrectNeedsExactSet(t *testing.T) {
	q := multiQuestion("Primes?", []string{"2", "3"}, []string{"4"})

	t.Run("exact set", func(t *testing.T) {
		s, _ := idleSession(q)
		defer s.close()

		_, err := s.selectAnswer("3")
		require.NoError(t, err)
		state, err := s.selectAnswer("2")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"2", "3"}, state.Selections)

		result, _, err := s.submit(nil)
		require.NoError(t, err)
		assert.True(t, result.Correct)
	})

	t.Run("subset", func(t *testing.T) {
		s, _ := idleSession(q)
		defer s.close()

		result, _, err := s.submit([]string{"2"})
		require.NoError(t, err)
		assert.False(t, result.Correct)
	})

	t.Run("superset", func(t *testing.T) {
		s, _ := idleSession(q)
		defer s.close()

		result, _, err := s.submit([]string{"2", "3", "4"})
		require.NoError(t, err)
		assert.False(t, result.Correct)
	})

	t.Run("toggle off", func(t *testing.T) {
		s, _ := idleSession(q)
		defer s.close()

		_, err := s.selectAnswer("2")
		require.NoError(t, err)
		state, err := s.selectAnswer("2")
		require.NoError(t, err)
		assert.Empty(t, state.Selections)
	})
}

func TestSessionTickCountsDownWithoutPersisting(t *testing.T) {
	s, rec := idleSession(singleQuestion("2+2?", "4", "3"))
	defer s.close()

	s.mu.RLock()
	timer := s.timer
	s.mu.RUnlock()
	require.NotNil(t, timer)

	assert.True(t, s.tick(timer))
	assert.Equal(t, 9, s.snapshot().TimeLeft)
	assert.Equal(t, 0, rec.count())

	assert.False(t, s.tick(&countdown{stop: make(chan struct{})}), "stale timers are ignored")
	assert.Equal(t, 9, s.snapshot().TimeLeft)
}

func TestSessionTimeoutSubmitsEmptyAnswerAndAdvances(t *testing.T) {
	rec := &changeRecorder{}
	s := newSession(domain.SessionState{
		ID:        "s1",
		Questions: []domain.Question{singleQuestion("2+2?", "4", "3"), singleQuestion("1+1?", "2", "11")},
		TimeLeft:  3,
	}, sessionOptions{timeLimit: 3, interval: 5 * time.Millisecond, onChange: rec.record})
	defer s.close()

	_, err := s.selectAnswer("4")
	require.NoError(t, err)
	s.resume()

	require.Eventually(t, func() bool {
		return s.snapshot().CurrentIndex == 1
	}, time.Second, 5*time.Millisecond)

	state := s.snapshot()
	first := state.Responses[0]
	assert.True(t, first.Answered)
	assert.True(t, first.TimedOut)
	assert.False(t, first.Correct, "pending selections are discarded on timeout")
	assert.Empty(t, first.Answers)
	assert.Equal(t, 0, state.Score)

	require.Eventually(t, func() bool {
		return s.snapshot().Finished
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, rec.count(), 3)
}

func TestSessionAnsweringStopsTimer(t *testing.T) {
	rec := &changeRecorder{}
	s := newSession(domain.SessionState{
		ID:        "s1",
		Questions: []domain.Question{singleQuestion("2+2?", "4", "3")},
		TimeLeft:  2,
	}, sessionOptions{timeLimit: 2, interval: 5 * time.Millisecond, onChange: rec.record})
	defer s.close()
	s.resume()

	_, _, err := s.submit([]string{"4"})
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)
	state := s.snapshot()
	assert.False(t, state.Finished, "an answered question waits for next")
	assert.False(t, state.Responses[0].TimedOut)
	assert.Equal(t, 1, state.Score)
}

func TestSessionRestartResetsProgress(t *testing.T) {
	s, _ := idleSession(singleQuestion("2+2?", "4", "3"))
	defer s.close()

	_, _, err := s.submit([]string{"4"})
	require.NoError(t, err)
	_, err = s.next()
	require.NoError(t, err)

	fresh := []domain.Question{singleQuestion("3+3?", "6", "5"), singleQuestion("1+1?", "2", "3")}
	state, err := s.restart(fresh)
	require.NoError(t, err)
	assert.False(t, state.Finished)
	assert.Equal(t, 0, state.CurrentIndex)
	assert.Equal(t, 0, state.Score)
	assert.Len(t, state.Responses, 2)
	assert.Equal(t, 10, state.TimeLeft)
	assert.Equal(t, "3+3?", state.Questions[0].Text)
}

func TestSessionSubscribersSeeTransitions(t *testing.T) {
	s, _ := idleSession(singleQuestion("2+2?", "4", "3"))

	events, cancel, err := s.subscribe()
	require.NoError(t, err)
	defer cancel()

	first := <-events
	assert.Equal(t, domain.EventState, first.Type)
	assert.Nil(t, first.View.Question.CorrectAnswers)

	_, _, err = s.submit([]string{"3"})
	require.NoError(t, err)
	answered := <-events
	assert.Equal(t, domain.EventAnswered, answered.Type)
	require.NotNil(t, answered.Answer)
	assert.False(t, answered.Answer.Correct)
	assert.Equal(t, []string{"4"}, answered.View.Question.CorrectAnswers)

	_, err = s.next()
	require.NoError(t, err)
	assert.Equal(t, domain.EventFinished, (<-events).Type)

	s.close()
	assert.Equal(t, domain.EventClosed, (<-events).Type)
	_, ok := <-events
	assert.False(t, ok, "channel closes with the session")

	_, _, err = s.subscribe()
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionSlowSubscriberDoesNotBlock(t *testing.T) {
	s, _ := idleSession(multiQuestion("Primes?", []string{"2", "3"}, []string{"4"}))
	defer s.close()

	events, cancel, err := s.subscribe()
	require.NoError(t, err)
	defer cancel()

	for i := 0; i < 40; i++ {
		_, err := s.selectAnswer("2")
		require.NoError(t, err)
	}
	assert.Len(t, events, cap(events))
}

func TestSessionPersistsInVersionOrder(t *testing.T) {
	s, rec := idleSession(singleQuestion("2+2?", "4", "3"), singleQuestion("1+1?", "2", "3"))
	defer s.close()

	selected, err := s.selectAnswer("3")
	require.NoError(t, err)
	_, _, err = s.submit(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), selected.Version)

	state := s.snapshot()
	assert.Equal(t, int64(2), state.Version)

	// a copy that arrives after a newer one was written is dropped
	s.persist(selected)
	assert.Equal(t, 2, rec.count())
	assert.Equal(t, int64(2), rec.states[1].Version)
}

func TestSessionDropSavesStopsPersistence(t *testing.T) {
	s, rec := idleSession(singleQuestion("2+2?", "4", "3"))

	_, err := s.selectAnswer("4")
	require.NoError(t, err)
	s.dropSaves()

	_, _, err = s.submit(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.count())

	s.close()
	s.flush()
	assert.Equal(t, 1, rec.count())
}
