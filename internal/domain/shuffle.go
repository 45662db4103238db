package domain

import (
	"math/rand"
	"sync"
	"time"
)

// Shuffler produces random display orders. It is safe for concurrent use.
type Shuffler struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewShuffler() *Shuffler {
	return NewShufflerWithSeed(time.Now().UnixNano())
}

// NewShufflerWithSeed gives tests a deterministic order.
func NewShufflerWithSeed(seed int64) *Shuffler {
	return &Shuffler{rnd: rand.New(rand.NewSource(seed))}
}

// Shuffle returns a Fisher–Yates permutation of a copy of values.
func (s *Shuffler) Shuffle(values []string) []string {
	shuffled := make([]string, len(values))
	copy(shuffled, values)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(shuffled) - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
