package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trivia-quiz-service/internal/domain"
)

func TestSnapshotStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()

	state := domain.SessionState{
		ID:        "s1",
		Questions: sampleSet().Questions,
		Responses: []domain.Response{{Answered: true, Answers: []string{"Paris"}, Correct: true}},
		Score:     1,
	}
	require.NoError(t, store.Save(ctx, state))

	// mutations after Save must not leak into the store
	state.Responses[0].Answers[0] = "Rome"

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Paris", got.Responses[0].Answers[0])
	assert.Equal(t, 1, got.Score)
	assert.Equal(t, 1, store.Len())
}

func TestSnapshotStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore()
	require.NoError(t, store.Save(ctx, domain.SessionState{ID: "s1"}))

	require.NoError(t, store.Delete(ctx, "s1"))
	require.NoError(t, store.Delete(ctx, "s1"), "deleting twice is fine")

	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
