package app

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/apotheka/dispense-station/config"
	"github.com/apotheka/dispense-station/internal/backend"
	"github.com/apotheka/dispense-station/internal/push"
	"github.com/apotheka/dispense-station/pkg/alert"
	"github.com/apotheka/dispense-station/pkg/observability"
	redispkg "github.com/apotheka/dispense-station/pkg/redis"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideBackendClient),
	fx.Provide(ProvidePushChannel),
	fx.Provide(ProvideAlertClient),
	fx.Provide(ProvideOTel),
)

// ProvideRedis connects the catalog cache and rate limiter storage. Redis
// is optional on a kiosk: no address means no cache, nothing else breaks.
func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}

	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideBackendClient(cfg *config.Config, log *slog.Logger) (*backend.Client, error) {
	return backend.NewClient(cfg.Backend, log)
}

func ProvidePushChannel(cfg *config.Config, log *slog.Logger) *push.Channel {
	return push.NewChannel(push.FromCentralConfig(cfg.Push), log)
}

func ProvideAlertClient(cfg *config.Config) (*alert.Client, error) {
	return alert.NewFromCentral(cfg.Alert)
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.Config{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		Environment:    cfg.Server.Environment,
		OTLPEndpoint:   cfg.Observability.Tracing.OTLPEndpoint,
		OTLPInsecure:   cfg.Observability.Tracing.OTLPInsecure,
		SamplingRate:   cfg.Observability.Tracing.SamplingRate,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
