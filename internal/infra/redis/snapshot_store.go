package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-quiz-service/internal/domain"
)

// SnapshotStore keeps session snapshots in Redis as JSON so sessions survive
// a restart and can be resumed by any instance:
//
//	SET trivia:session:{id} <json> EX ttl
//
// Every save refreshes the TTL, so abandoned sessions expire on their own.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

func (s *SnapshotStore) Save(ctx context.Context, state domain.SessionState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key(state.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot %s: %w", state.ID, err)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context, sessionID string) (domain.SessionState, error) {
	payload, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SessionState{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("load snapshot %s: %w", sessionID, err)
	}

	var state domain.SessionState
	if err := json.Unmarshal(payload, &state); err != nil {
		return domain.SessionState{}, fmt.Errorf("decode snapshot %s: %w", sessionID, err)
	}
	return state, nil
}

func (s *SnapshotStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *SnapshotStore) key(sessionID string) string {
	return "trivia:session:" + sessionID
}
