package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/apotheka/dispense-station/config"
	"github.com/apotheka/dispense-station/internal/api/http/handler"
	"github.com/apotheka/dispense-station/internal/catalog"
	"github.com/apotheka/dispense-station/internal/dispense"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg        *config.Config
	SessionSvc dispense.Service
	Pipeline   *dispense.Pipeline
	CatalogSvc catalog.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	r.registerSystemRoutes(app)

	sessionH := handler.NewSessionHandler(r.p.SessionSvc, r.p.Pipeline)
	catalogH := handler.NewCatalogHandler(r.p.CatalogSvc)

	api := app.Group("/api/v1")

	api.Get("/session", sessionH.Get)
	api.Post("/session/reset", sessionH.Reset)
	api.Post("/scan", sessionH.Scan)
	api.Get("/drugs/:code", catalogH.Get)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New())
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
