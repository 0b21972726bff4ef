package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/apotheka/dispense-station/config"
	"github.com/apotheka/dispense-station/internal/backend"
	"github.com/apotheka/dispense-station/internal/catalog"
	"github.com/apotheka/dispense-station/internal/dispense"
	"github.com/apotheka/dispense-station/internal/push"
	"github.com/apotheka/dispense-station/internal/scanner"
	"github.com/apotheka/dispense-station/pkg/alert"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideSessionService,
		ProvideCatalogService,
		ProvidePipeline,
		ProvideAggregator,
	),
)

func ProvideSessionService(client *backend.Client, ch *push.Channel, cfg *config.Config) dispense.Service {
	return dispense.New(client, ch, dispense.Config{
		MachineID:      cfg.Station.MachineID,
		DebounceWindow: time.Duration(cfg.Dispense.DebounceWindowMS) * time.Millisecond,
	})
}

func ProvideCatalogService(rdb *redis.Client, client *backend.Client, cfg *config.Config, log *slog.Logger) catalog.Service {
	ttl := time.Duration(cfg.Catalog.TTLSeconds) * time.Second
	return catalog.New(rdb, client, ttl, log)
}

func ProvidePipeline(svc dispense.Service, alerts *alert.Client, cfg *config.Config, log *slog.Logger) *dispense.Pipeline {
	var notifier dispense.Notifier
	if alerts.Enabled() {
		notifier = &alertNotifier{client: alerts, machineID: cfg.Station.MachineID, log: log}
	}
	return dispense.NewPipeline(svc, notifier, cfg.Alert.FailureThreshold, log)
}

func ProvideAggregator(pipe *dispense.Pipeline, cfg *config.Config, log *slog.Logger) *scanner.Aggregator {
	return scanner.New(cfg.Scanner.MaxCodeLength, pipe.Submit, log)
}

// alertNotifier adapts the alert client to the pipeline's Notifier.
type alertNotifier struct {
	client    *alert.Client
	machineID string
	log       *slog.Logger
}

func (n *alertNotifier) DispenseFailure(ctx context.Context, consecutive int, err error) {
	if sendErr := n.client.RemoteSyncFailure(ctx, n.machineID, consecutive, err); sendErr != nil {
		n.log.Warn("operator alert failed", "err", sendErr)
	}
}
