package dispense

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// RemoteSync is the backend collaborator the pipeline calls. Implementations
// live outside this package; the session never invents state on its own.
type RemoteSync interface {
	// FetchCurrentOrder is idempotent and safe to call on every push
	// notification. ErrNoActiveOrder when the station has no order.
	FetchCurrentOrder(ctx context.Context) (*Prescription, error)

	// StartDispensing is not idempotent; the debounce guard is the only
	// thing keeping it to one call per human scan.
	StartDispensing(ctx context.Context, scanCode, machineID, sessionID string) (*Prescription, error)

	// PickupItem may double-register a pickup if called twice.
	PickupItem(ctx context.Context, prescriptionNo, drugCode, sessionID string) error

	ResetOrder(ctx context.Context, machineID, sessionID string) error
}

// SessionIDProvider supplies the station's push-channel session identifier,
// which the backend uses to address push notifications.
type SessionIDProvider interface {
	SessionID() string
}

// Service owns the single in-progress prescription for this station.
type Service interface {
	// Snapshot returns a copy of the active prescription, or false when the
	// session is empty.
	Snapshot() (*Prescription, bool)

	// HandleScan routes a completed scan code. Routing follows session
	// state only, never the code's shape: an empty session starts
	// dispensing, an active session registers a pickup.
	HandleScan(ctx context.Context, code string) error

	// Refresh re-derives the session from the backend, replacing the item
	// list wholesale.
	Refresh(ctx context.Context) error

	// Reset clears the session through the backend.
	Reset(ctx context.Context) error
}

type Config struct {
	MachineID      string
	DebounceWindow time.Duration
}

type service struct {
	remote    RemoteSync
	ids       SessionIDProvider
	guard     *Guard
	machineID string

	mu  sync.RWMutex
	cur *Prescription

	// refreshGen discards responses of refreshes that were overtaken by a
	// newer one, so a slow mount-triggered fetch cannot clobber the result
	// of a later push-triggered fetch.
	refreshGen atomic.Uint64
}

func New(remote RemoteSync, ids SessionIDProvider, cfg Config) Service {
	return &service{
		remote:    remote,
		ids:       ids,
		guard:     NewGuard(cfg.DebounceWindow),
		machineID: cfg.MachineID,
	}
}

func (s *service) Snapshot() (*Prescription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return nil, false
	}
	return s.cur.Clone(), true
}

func (s *service) active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur != nil
}

func (s *service) HandleScan(ctx context.Context, code string) error {
	if !s.guard.TryAcquire() {
		return ErrDebounced
	}
	if s.active() {
		return s.pickup(ctx, code)
	}
	return s.start(ctx, code)
}

func (s *service) start(ctx context.Context, code string) error {
	if s.machineID == "" {
		return ErrNoMachine
	}

	p, err := s.remote.StartDispensing(ctx, code, s.machineID, s.ids.SessionID())
	if err != nil {
		return fmt.Errorf("start dispensing: %w", err)
	}

	p.Items = Sequence(p.Items)

	s.mu.Lock()
	s.cur = p
	s.mu.Unlock()
	return nil
}

func (s *service) pickup(ctx context.Context, code string) error {
	// Split on the first '|' only; a code without one yields an empty drug
	// code and the backend rejects it.
	prescriptionNo, drugCode, _ := strings.Cut(code, "|")

	if err := s.remote.PickupItem(ctx, prescriptionNo, drugCode, s.ids.SessionID()); err != nil {
		return fmt.Errorf("pickup item: %w", err)
	}

	// Local state stays untouched on purpose: the next refresh is the
	// single source of truth for the pickup's effect.
	return nil
}

func (s *service) Refresh(ctx context.Context) error {
	gen := s.refreshGen.Add(1)

	p, err := s.remote.FetchCurrentOrder(ctx)
	if err != nil {
		return fmt.Errorf("fetch current order: %w", err)
	}

	items := ActiveItems(p.Items)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.refreshGen.Load() {
		// A newer refresh started while this one was in flight.
		return nil
	}

	if len(items) == 0 {
		s.cur = nil
		return nil
	}

	p.Items = Sequence(items)
	s.cur = p
	return nil
}

func (s *service) Reset(ctx context.Context) error {
	if s.machineID == "" {
		return ErrNoMachine
	}

	if err := s.remote.ResetOrder(ctx, s.machineID, s.ids.SessionID()); err != nil {
		return fmt.Errorf("reset order: %w", err)
	}

	s.mu.Lock()
	s.cur = nil
	s.mu.Unlock()
	return nil
}
