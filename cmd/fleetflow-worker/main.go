package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/fleetflow/pkg/alerts"
	"github.com/dukex/fleetflow/pkg/cmd"
	"github.com/dukex/fleetflow/pkg/config"
	"github.com/dukex/fleetflow/pkg/engine"
	"github.com/dukex/fleetflow/pkg/log"
	"github.com/dukex/fleetflow/pkg/metrics"
	"github.com/dukex/fleetflow/pkg/protocol"
	"github.com/dukex/fleetflow/pkg/receivers/redisqueue"
	"github.com/dukex/fleetflow/pkg/services"
	"github.com/dukex/fleetflow/pkg/workflow"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	cli "github.com/urfave/cli/v3"
)

var errInvalidWorkflows = errors.New("invalid workflows found")

func main() {
	cmd := &cli.Command{
		Name:                  "fleetflow-worker",
		EnableShellCompletion: true,
		Usage:                 "Run fleet events through the workflow engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("WORKER_ID"),
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
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis address to pop fleet events from (disabled when empty)",
				Sources: cli.EnvVars("REDIS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				Sources: cli.EnvVars("REDIS_PASSWORD"),
			},
			&cli.StringFlag{
				Name:    "redis-queue",
				Usage:   "Redis list holding queued fleet events",
				Value:   redisqueue.DefaultQueue,
				Sources: cli.EnvVars("REDIS_QUEUE"),
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
		Commands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "Validate every stored workflow and report errors and warnings",
				Action: func(ctx context.Context, command *cli.Command) error {
					log.Setup(command.String("log-level"))

					logger := log.WithModule("fleetflow-worker")

					persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
					if err != nil {
						return err
					}

					defer func() {
						if err := persistence.Close(ctx); err != nil {
							logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
						}
					}()

					invalid, err := validateWorkflows(ctx, services.NewWorkflow(persistence), os.Stdout)
					if err != nil {
						return err
					}

					if invalid > 0 {
						return fmt.Errorf("%w: %d", errInvalidWorkflows, invalid)
					}

					return nil
				},
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("fleetflow-worker").With("workerId", workerID)

			logger.InfoContext(ctx, "Initializing Fleetflow Worker")

			tracer, shutdownTracer, err := cmd.NewTracer(ctx, command.Bool("tracing"), "fleetflow-worker")
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

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), "fleetflow-worker", command.String("kafka-brokers"), logger)
			if err != nil {
				return err
			}

			defer func() {
				err := eventBus.Close()
				if err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
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

			m := metrics.New(prometheus.DefaultRegisterer)
			store := workflow.NewStore(logger)

			reloader, err := workflow.NewReloader(
				store,
				workflow.RepositoryLoader(persistence.WorkflowRepository(), command.String("scope")),
				command.String("reload-schedule"),
				m.ObserveReload,
				logger,
			)
			if err != nil {
				return err
			}

			processor := cmd.NewEngine(store, registry, logger, engine.Config{
				ActionTimeout:  command.Duration("action-timeout"),
				MaxConcurrency: command.Int("max-concurrency"),
			}, cmd.EngineDependencies{
				Persistence: persistence,
				Metrics:     m,
				Publisher:   eventBus,
				Tracer:      tracer,
			})

			var receivers []protocol.Receiver

			if addr := command.String("redis-addr"); addr != "" {
				receiver := redisqueue.NewReceiver(redisqueue.Config{
					Addr:     addr,
					Password: command.String("redis-password"),
					Queue:    command.String("redis-queue"),
				}, logger)

				if err := receiver.Validate(); err != nil {
					return err
				}

				receivers = append(receivers, receiver)
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := reloader.Start(ctx); err != nil {
				return err
			}
			defer reloader.Stop()

			worker := NewWorkerManager(workerID, processor, eventBus, m, logger, receivers...)

			err = worker.Start(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start event-driven worker", "error", err)

				return err
			}

			<-ctx.Done()

			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			return worker.Stop(stopCtx)
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
