package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-quiz-service/internal/domain"
)

// QuestionSetBackend is the durable store behind the cache (e.g., Postgres).
type QuestionSetBackend interface {
	SaveSet(ctx context.Context, set domain.QuestionSet) error
	GetSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// QuestionSetCache caches question sets in Redis and falls back to the backend on a miss.
// Sets are stored as: SET trivia:set:{id} <json> EX ttl+jitter
// Cache errors are treated as misses; the backend stays the source of truth.
type QuestionSetCache struct {
	client  *redis.Client
	backend QuestionSetBackend
	ttl     time.Duration
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionSetCache(client *redis.Client, backend QuestionSetBackend, ttl time.Duration) *QuestionSetCache {
	return &QuestionSetCache{
		client:  client,
		backend: backend,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionSetCache) SaveSet(ctx context.Context, set domain.QuestionSet) error {
	if err := r.backend.SaveSet(ctx, set); err != nil {
		return err
	}
	r.store(ctx, set)
	return nil
}

func (r *QuestionSetCache) GetSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	if set, ok := r.cached(ctx, setID); ok {
		return set, nil
	}

	result, err, _ := r.sf.Do(setID, func() (interface{}, error) {
		// Re-check cache in case another caller filled it.
		if set, ok := r.cached(ctx, setID); ok {
			return set, nil
		}

		set, err := r.backend.GetSet(ctx, setID)
		if err != nil {
			return domain.QuestionSet{}, err
		}
		r.store(ctx, set)
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func (r *QuestionSetCache) cached(ctx context.Context, setID string) (domain.QuestionSet, bool) {
	payload, err := r.client.Get(ctx, r.key(setID)).Bytes()
	if err != nil {
		return domain.QuestionSet{}, false
	}
	var set domain.QuestionSet
	if err := json.Unmarshal(payload, &set); err != nil {
		return domain.QuestionSet{}, false
	}
	return set, true
}

func (r *QuestionSetCache) store(ctx context.Context, set domain.QuestionSet) {
	ttl := r.ttlWithJitter()
	if ttl <= 0 {
		return
	}
	payload, err := json.Marshal(set)
	if err != nil {
		return
	}
	_ = r.client.Set(ctx, r.key(set.ID), payload, ttl).Err()
}

func (r *QuestionSetCache) key(setID string) string {
	return "trivia:set:" + setID
}

func (r *QuestionSetCache) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
