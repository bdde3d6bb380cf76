// Package main provides the Fleetflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/fleetflow/pkg/metrics"
	"github.com/dukex/fleetflow/pkg/persistence"
	"github.com/dukex/fleetflow/pkg/registry"
	"github.com/dukex/fleetflow/pkg/schema"
	"github.com/dukex/fleetflow/pkg/services"
	"github.com/dukex/fleetflow/pkg/web"
	"github.com/dukex/fleetflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	processor   web.EventProcessor
	store       *workflow.Store
	scope       string
	metrics     *metrics.Metrics
	gatherer    prometheus.Gatherer
	validate    *validator.Validate
}

// NewAPI wires the HTTP surface. store is refreshed by workflow writes so
// events submitted right after a change see it.
func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	registry *registry.Registry,
	processor web.EventProcessor,
	store *workflow.Store,
	scope string,
	metrics *metrics.Metrics,
	gatherer prometheus.Gatherer,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		registry:    registry,
		processor:   processor,
		store:       store,
		scope:       scope,
		metrics:     metrics,
		gatherer:    gatherer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() (*fiber.App, error) {
	schemas, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}

	workflowService := services.NewWorkflow(a.persistence,
		services.WithStore(a.store, a.scope),
		services.WithLogger(a.logger),
	)

	handlers := web.NewAPIHandlers(workflowService, a.processor, schemas, a.metrics, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Fleetflow API")
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})))

	handlers.Register(app)

	return app, nil
}

func (a *API) Start(port int) error {
	app, err := a.App()
	if err != nil {
		return err
	}

	return app.Listen(":" + strconv.Itoa(port))
}
