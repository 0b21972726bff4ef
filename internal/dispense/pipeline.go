package dispense

import (
	"context"
	"errors"
	"log/slog"
)

// Notifier receives an operator alert after a run of consecutive
// remote-sync failures.
type Notifier interface {
	DispenseFailure(ctx context.Context, consecutive int, err error)
}

// Pipeline is the single event loop multiplexing the two intake sources:
// completed scan codes from the keystroke aggregator and push notifications
// from the socket channel. All session mutations happen on this goroutine;
// the HTTP layer only reads snapshots and submits events.
type Pipeline struct {
	svc      Service
	notifier Notifier
	log      *slog.Logger

	codes chan string
	pings chan struct{}

	failureThreshold int
	failures         int
}

func NewPipeline(svc Service, notifier Notifier, failureThreshold int, log *slog.Logger) *Pipeline {
	if failureThreshold <= 0 {
		failureThreshold = 3
	}
	return &Pipeline{
		svc:              svc,
		notifier:         notifier,
		log:              log,
		codes:            make(chan string, 16),
		pings:            make(chan struct{}, 1),
		failureThreshold: failureThreshold,
	}
}

// Submit enqueues a completed scan code without blocking. A full queue
// drops the code, matching the aggregator's drop-not-defer contract.
func (p *Pipeline) Submit(code string) bool {
	select {
	case p.codes <- code:
		return true
	default:
		return false
	}
}

// Notify signals that a push notification arrived. Signals coalesce: the
// payload is never trusted, only the arrival, and one pending refresh
// covers any number of bursts.
func (p *Pipeline) Notify() {
	select {
	case p.pings <- struct{}{}:
	default:
	}
}

// Run drives the loop until ctx is cancelled. The initial refresh adopts
// whatever order the backend already holds for this station.
func (p *Pipeline) Run(ctx context.Context) error {
	p.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case code := <-p.codes:
			p.handleScan(ctx, code)
		case <-p.pings:
			p.refresh(ctx)
		}
	}
}

func (p *Pipeline) handleScan(ctx context.Context, code string) {
	err := p.svc.HandleScan(ctx, code)
	switch {
	case err == nil:
		p.failures = 0
		p.log.Info("scan handled", "code", code)
	case errors.Is(err, ErrDebounced):
		p.log.Debug("scan dropped inside debounce window", "code", code)
	case errors.Is(err, ErrNoMachine):
		p.log.Warn("scan ignored, no machine configured")
	default:
		p.remoteFailure(ctx, err)
	}
}

func (p *Pipeline) refresh(ctx context.Context) {
	err := p.svc.Refresh(ctx)
	switch {
	case err == nil:
		p.failures = 0
	case errors.Is(err, ErrNoActiveOrder):
		// Idle station; not a failure.
		p.log.Debug("refresh: no active order")
	default:
		p.remoteFailure(ctx, err)
	}
}

func (p *Pipeline) remoteFailure(ctx context.Context, err error) {
	p.failures++
	p.log.Warn("remote sync failed", "err", err, "consecutive", p.failures)

	if p.notifier != nil && p.failures == p.failureThreshold {
		p.notifier.DispenseFailure(ctx, p.failures, err)
	}
}
