package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-quiz-service/internal/domain"
)

// QuestionSetBackend is the durable store behind the cache (e.g., Postgres).
type QuestionSetBackend interface {
	SaveSet(ctx context.Context, set domain.QuestionSet) error
	GetSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// CachedQuestionSets caches question sets with TTL to avoid repeated DB hits.
// Saves write through to the backend first.
type CachedQuestionSets struct {
	backend QuestionSetBackend
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	set       domain.QuestionSet
	expiresAt time.Time
}

func NewCachedQuestionSets(backend QuestionSetBackend, ttl time.Duration) *CachedQuestionSets {
	return &CachedQuestionSets{
		backend: backend,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedSet),
	}
}

func (r *CachedQuestionSets) SaveSet(ctx context.Context, set domain.QuestionSet) error {
	if err := r.backend.SaveSet(ctx, set); err != nil {
		return err
	}
	r.store(set, r.clock())
	return nil
}

func (r *CachedQuestionSets) GetSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	if set, ok := r.cached(setID, r.clock()); ok {
		return set, nil
	}

	result, err, _ := r.sf.Do(setID, func() (interface{}, error) {
		now := r.clock()
		if set, ok := r.cached(setID, now); ok {
			return set, nil
		}

		set, err := r.backend.GetSet(ctx, setID)
		if err != nil {
			return domain.QuestionSet{}, err
		}
		r.store(set, now)
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func (r *CachedQuestionSets) cached(setID string, now time.Time) (domain.QuestionSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[setID]
	if !ok || !entry.expiresAt.After(now) {
		return domain.QuestionSet{}, false
	}
	return entry.set, true
}

func (r *CachedQuestionSets) store(set domain.QuestionSet, now time.Time) {
	ttl := r.ttlWithJitter()
	if ttl <= 0 {
		return
	}
	r.mu.Lock()
	r.cache[set.ID] = cachedSet{set: set, expiresAt: now.Add(ttl)}
	r.mu.Unlock()
}

func (r *CachedQuestionSets) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// up to 10% jitter spreads expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// QuestionSetStore keeps question sets in a map. Used when no database is configured, and in tests.
type QuestionSetStore struct {
	mu   sync.RWMutex
	sets map[string]domain.QuestionSet
}

func NewQuestionSetStore(sets ...domain.QuestionSet) *QuestionSetStore {
	s := &QuestionSetStore{sets: make(map[string]domain.QuestionSet, len(sets))}
	for _, set := range sets {
		s.sets[set.ID] = set
	}
	return s
}

func (s *QuestionSetStore) SaveSet(_ context.Context, set domain.QuestionSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[set.ID] = set
	return nil
}

func (s *QuestionSetStore) GetSet(_ context.Context, setID string) (domain.QuestionSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if set, ok := s.sets[setID]; ok {
		return set, nil
	}
	return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
}
