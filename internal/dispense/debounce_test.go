package dispense

import (
	"testing"
	"time"
)

// fakeClock advances only when told to.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGuard(window time.Duration) (*Guard, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	g := NewGuard(window)
	g.now = clock.now
	return g, clock
}

func TestGuard_FirstAcquireSucceeds(t *testing.T) {
	g, _ := newTestGuard(700 * time.Millisecond)

	if !g.TryAcquire() {
		t.Fatal("first TryAcquire should succeed")
	}
}

func TestGuard_DeniesInsideWindow(t *testing.T) {
	g, clock := newTestGuard(700 * time.Millisecond)

	if !g.TryAcquire() {
		t.Fatal("first TryAcquire should succeed")
	}

	clock.advance(699 * time.Millisecond)
	if g.TryAcquire() {
		t.Error("TryAcquire inside the window should be denied")
	}
}

func TestGuard_AllowsAfterWindow(t *testing.T) {
	g, clock := newTestGuard(700 * time.Millisecond)

	g.TryAcquire()
	clock.advance(700 * time.Millisecond)

	if !g.TryAcquire() {
		t.Error("TryAcquire after the window elapsed should succeed")
	}
}

func TestGuard_SuccessRestartsWindow(t *testing.T) {
	g, clock := newTestGuard(700 * time.Millisecond)

	g.TryAcquire()
	clock.advance(700 * time.Millisecond)
	g.TryAcquire()

	// The second acquisition opened a fresh window.
	clock.advance(300 * time.Millisecond)
	if g.TryAcquire() {
		t.Error("window should have restarted on the second acquisition")
	}
}

func TestGuard_DeniedTriggerDoesNotExtendWindow(t *testing.T) {
	g, clock := newTestGuard(700 * time.Millisecond)

	g.TryAcquire()
	clock.advance(500 * time.Millisecond)
	if g.TryAcquire() {
		t.Fatal("expected denial inside window")
	}

	// The denial at t=500ms must not push the deadline past t=700ms.
	clock.advance(200 * time.Millisecond)
	if !g.TryAcquire() {
		t.Error("denied trigger extended the window")
	}
}

func TestNewGuard_DefaultsWindow(t *testing.T) {
	g := NewGuard(0)
	if g.window != DefaultDebounceWindow {
		t.Errorf("got window %v, want %v", g.window, DefaultDebounceWindow)
	}
}
