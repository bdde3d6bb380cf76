// Package redisqueue receives fleet events pushed onto a Redis list by the
// telemetry ingestion pipeline.
package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/payload"
	"github.com/dukex/fleetflow/pkg/protocol"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const (
	DefaultQueue = "fleetflow:events"
	popTimeout   = time.Second
)

var (
	ErrMissingAddr  = errors.New("redis queue receiver address is required")
	ErrMissingQueue = errors.New("redis queue receiver queue name is required")
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Queue    string
}

type Receiver struct {
	config   Config
	client   redis.UniversalClient
	callback protocol.EventCallback
	logger   *slog.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewReceiver(config Config, logger *slog.Logger) *Receiver {
	if config.Queue == "" {
		config.Queue = DefaultQueue
	}

	return &Receiver{
		config: config,
		stopCh: make(chan struct{}),
		logger: logger.With(
			"module", "redis_queue_receiver",
			"queue", config.Queue,
		),
	}
}

func (r *Receiver) Validate() error {
	if r.config.Addr == "" {
		return ErrMissingAddr
	}

	if r.config.Queue == "" {
		return ErrMissingQueue
	}

	return nil
}

func (r *Receiver) Start(ctx context.Context, callback protocol.EventCallback) error {
	if err := r.Validate(); err != nil {
		return err
	}

	r.callback = callback
	r.client = redis.NewClient(&redis.Options{
		Addr:     r.config.Addr,
		Password: r.config.Password,
		DB:       r.config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	r.logger.InfoContext(ctx, "Connected to Redis", "addr", r.config.Addr, "db", r.config.DB)

	r.wg.Add(1)

	go r.consume(ctx)

	return nil
}

func (r *Receiver) consume(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-r.stopCh:
			r.logger.InfoContext(ctx, "Queue consumer stopped")

			return
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "Context cancelled, stopping queue consumer")

			return
		default:
			if err := r.processMessage(ctx); err != nil {
				r.logger.ErrorContext(ctx, "Error processing message", "error", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (r *Receiver) processMessage(ctx context.Context) error {
	result, err := r.client.BLPop(ctx, popTimeout, r.config.Queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	event, err := DecodeEvent([]byte(result[1]))
	if err != nil {
		// A malformed message is dropped; retrying it would fail the same way.
		r.logger.WarnContext(ctx, "Dropping undecodable message", "error", err)

		return nil
	}

	if err := r.callback(ctx, event); err != nil {
		r.logger.ErrorContext(ctx, "Error processing fleet event", "event_id", event.ID, "event_type", event.Type, "error", err)
	}

	return nil
}

func (r *Receiver) Stop(ctx context.Context) error {
	r.logger.InfoContext(ctx, "Stopping redis queue receiver")

	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()

	if r.client != nil {
		if err := r.client.Close(); err != nil {
			return fmt.Errorf("failed to close Redis client: %w", err)
		}
	}

	return nil
}

// DecodeEvent parses a queued message of the form
// {"id": ..., "event_type": ..., "payload": {...}, "scope": ...}.
// A missing id is generated and a missing payload becomes an empty object.
func DecodeEvent(data []byte) (models.Event, error) {
	var event models.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return models.Event{}, fmt.Errorf("invalid event message: %w", err)
	}

	if !event.Type.Valid() {
		return models.Event{}, fmt.Errorf("unknown event type '%s'", event.Type)
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	if event.Payload.IsAbsent() {
		event.Payload = payload.Object(nil)
	}

	return event, nil
}
