package dispense

import (
	"sync"
	"time"
)

// DefaultDebounceWindow matches the cool-down a human double-scan fits in.
const DefaultDebounceWindow = 700 * time.Millisecond

// Guard is a mutual-exclusion timer over logical actions. The first
// TryAcquire starts a cool-down; calls during the cool-down are denied.
// Denied triggers are dropped, never queued. There is one guard per
// station session, not one per scan code.
type Guard struct {
	mu     sync.Mutex
	window time.Duration
	until  time.Time

	now func() time.Time // test hook
}

func NewGuard(window time.Duration) *Guard {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Guard{window: window, now: time.Now}
}

// TryAcquire reports whether the caller may dispatch. On success the
// cool-down window restarts.
func (g *Guard) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now.Before(g.until) {
		return false
	}
	g.until = now.Add(g.window)
	return true
}
