package main

import (
	"context"
	"os"
	"time"

	"github.com/dukex/fleetflow/pkg/alerts"
	"github.com/dukex/fleetflow/pkg/cmd"
	"github.com/dukex/fleetflow/pkg/config"
	"github.com/dukex/fleetflow/pkg/engine"
	"github.com/dukex/fleetflow/pkg/log"
	"github.com/dukex/fleetflow/pkg/metrics"
	"github.com/dukex/fleetflow/pkg/workflow"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	logger := log.WithModule("api")

	cmd := &cli.Command{
		Name:                  "fleetflow-api",
		Usage:                 "Manage fleet workflows and process fleet events",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file:// or postgres://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "scope",
				Usage:   "Only load workflows visible to this scope (empty loads every workflow)",
				Sources: cli.EnvVars("FLEETFLOW_SCOPE"),
			},
			&cli.StringFlag{
				Name:    "actions-config",
				Usage:   "Path to the actions YAML configuration",
				Sources: cli.EnvVars("ACTIONS_CONFIG"),
			},
			&cli.DurationFlag{
				Name:    "action-timeout",
				Usage:   "Maximum duration of a single action",
				Value:   engine.DefaultActionTimeout,
				Sources: cli.EnvVars("ACTION_TIMEOUT"),
			},
			&cli.IntFlag{
				Name:    "max-concurrency",
				Usage:   "Maximum workflow executions run in parallel per event",
				Value:   engine.DefaultMaxConcurrency,
				Sources: cli.EnvVars("MAX_CONCURRENCY"),
			},
			&cli.StringFlag{
				Name:    "reload-schedule",
				Usage:   "Cron schedule for reloading workflows from persistence",
				Value:   workflow.DefaultReloadSchedule,
				Sources: cli.EnvVars("RELOAD_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Fleetflow API")

			tracer, shutdownTracer, err := cmd.NewTracer(ctx, command.Bool("tracing"), "fleetflow-api")
			if err != nil {
				return err
			}

			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				if err := shutdownTracer(shutdownCtx); err != nil {
					logger.ErrorContext(ctx, "Failed to shutdown tracer", "error", err)
				}
			}()

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				err := persistence.Close(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), "fleetflow-api", command.String("kafka-brokers"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			actionsConfig, err := config.LoadActionsFile(command.String("actions-config"))
			if err != nil {
				return err
			}

			registry, err := cmd.NewRegistry(logger, cmd.ActionDependencies{
				Alerts:    alerts.NewService(persistence.AlertRepository(), eventBus, logger),
				Publisher: eventBus,
			}, actionsConfig)
			if err != nil {
				return err
			}

			promRegistry := prometheus.NewRegistry()
			promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(promRegistry)

			scope := command.String("scope")
			store := workflow.NewStore(logger)

			reloader, err := workflow.NewReloader(
				store,
				workflow.RepositoryLoader(persistence.WorkflowRepository(), scope),
				command.String("reload-schedule"),
				m.ObserveReload,
				logger,
			)
			if err != nil {
				return err
			}

			if err := reloader.Start(ctx); err != nil {
				return err
			}
			defer reloader.Stop()

			processor := cmd.NewEngine(store, registry, logger, engine.Config{
				ActionTimeout:  command.Duration("action-timeout"),
				MaxConcurrency: command.Int("max-concurrency"),
			}, cmd.EngineDependencies{
				Persistence: persistence,
				Metrics:     m,
				Publisher:   eventBus,
				Tracer:      tracer,
			})

			api := NewAPI(logger, persistence, registry, processor, store, scope, m, promRegistry)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return nil
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
