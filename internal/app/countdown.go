package app

import (
	"sync"
	"time"
)

// countdown drives a session's per-question timer. tick is called once per
// interval until it returns false or Stop is called. Stop never blocks, so it
// is safe to call while holding the session lock that tick also takes.
type countdown struct {
	stop chan struct{}
	once sync.Once
}

func startCountdown(interval time.Duration, tick func(*countdown) bool) *countdown {
	c := &countdown{stop: make(chan struct{})}
	go c.run(interval, tick)
	return c
}

func (c *countdown) run(interval time.Duration, tick func(*countdown) bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if !tick(c) {
				return
			}
		}
	}
}

func (c *countdown) Stop() {
	c.once.Do(func() { close(c.stop) })
}
