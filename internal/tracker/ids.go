package tracker

import (
	"sync"
	"time"
)

// IDGenerator hands out millisecond based workout ids that are strictly
// increasing, even for several saves within the same millisecond.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

func (g *IDGenerator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// Observe makes sure future ids are greater than the ones already stored.
func (g *IDGenerator) Observe(workouts []Workout) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, w := range workouts {
		if w.ID > g.last {
			g.last = w.ID
		}
	}
}
