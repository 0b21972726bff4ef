package station

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/apotheka/dispense-station/config"
	httpapi "github.com/apotheka/dispense-station/internal/api/http"
	"github.com/apotheka/dispense-station/internal/api/http/router"
	"github.com/apotheka/dispense-station/internal/app"
	"github.com/apotheka/dispense-station/pkg/logs"
)

func NewStartCommand() *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the station agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return err
			}

			cfg, err := config.ReadConfig(cfgPath)
			if err != nil {
				return err
			}

			// Set up structured logger before fx starts so all logs use it.
			logger := logs.New(cfg)
			slog.SetDefault(logger)

			fxApp := fx.New(
				fx.Supply(cfg),
				fx.Supply(logger),
				app.InfraModule,
				app.ServiceModule,
				router.Module,
				httpapi.Module,
				app.WorkerModule,
				fx.Invoke(func(*fiber.App) {}),
				fx.StopTimeout(shutdownTimeout),
				fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
			)

			fxApp.Run()
			return nil
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "Maximum time to wait for graceful shutdown")

	return cmd
}
