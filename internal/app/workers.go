package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.uber.org/fx"

	"github.com/apotheka/dispense-station/config"
	"github.com/apotheka/dispense-station/internal/dispense"
	"github.com/apotheka/dispense-station/internal/push"
	"github.com/apotheka/dispense-station/internal/scanner"
)

// WorkerModule starts the long-running station loops: the intake pipeline,
// the push channel, and the hardware scanner source.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc       fx.Lifecycle
	Cfg      *config.Config
	Log      *slog.Logger
	Pipeline *dispense.Pipeline
	Push     *push.Channel
	Agg      *scanner.Aggregator
}

func RegisterWorkers(p WorkerParams) {
	var cancel context.CancelFunc
	var device *os.File

	p.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, c := context.WithCancel(context.Background())
			cancel = c

			go func() {
				if err := p.Push.Run(ctx); err != nil && ctx.Err() == nil {
					p.Log.Error("push channel stopped", "err", err)
				}
			}()

			go pumpPushEvents(ctx, p.Push, p.Pipeline, p.Log)

			go func() {
				if err := p.Pipeline.Run(ctx); err != nil && ctx.Err() == nil {
					p.Log.Error("intake pipeline stopped", "err", err)
				}
			}()

			if p.Cfg.Scanner.Device != "" {
				f, err := os.Open(p.Cfg.Scanner.Device)
				if err != nil {
					cancel()
					return fmt.Errorf("open scanner device: %w", err)
				}
				device = f
				if err := p.Agg.Attach(ctx, f); err != nil {
					cancel()
					f.Close()
					return err
				}
				p.Log.Info("scanner source attached", "device", p.Cfg.Scanner.Device)
			}

			return nil
		},
		OnStop: func(context.Context) error {
			if cancel != nil {
				cancel()
			}
			if device != nil {
				// Unblocks the aggregator's read loop.
				return device.Close()
			}
			return nil
		},
	})
}

// pumpPushEvents converts push arrivals into refresh signals. Payloads are
// logged and otherwise ignored.
func pumpPushEvents(ctx context.Context, ch *push.Channel, pipe *dispense.Pipeline, log *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch.Events():
			log.Debug("push event received", "order_id", ev.OrderID)
			pipe.Notify()
		}
	}
}
