// Package alerts creates alert records on behalf of workflow actions.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/fleetflow/pkg/eventbus"
	"github.com/dukex/fleetflow/pkg/events"
	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/persistence"
	"github.com/google/uuid"
)

var (
	ErrInvalidSeverity = errors.New("invalid alert severity")
	ErrMissingTitle    = errors.New("alert title is required")
)

// Creator is the alert collaborator used by the create_alert action.
type Creator interface {
	CreateAlert(ctx context.Context, alert NewAlert) (string, error)
}

// NewAlert holds the fields supplied by the caller; ID and timestamp are assigned on creation.
type NewAlert struct {
	Title         string
	Content       string
	Severity      models.AlertSeverity
	RelatedEntity *models.RelatedEntity
	Scope         string
}

// Service stores alerts and announces them on the event bus.
type Service struct {
	repo      persistence.AlertRepository
	publisher eventbus.EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService returns an alert service. publisher may be nil.
func NewService(repo persistence.AlertRepository, publisher eventbus.EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger.With("module", "alerts"),
		now:       time.Now,
	}
}

func (s *Service) CreateAlert(ctx context.Context, in NewAlert) (string, error) {
	if strings.TrimSpace(in.Title) == "" {
		return "", ErrMissingTitle
	}

	if !in.Severity.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSeverity, in.Severity)
	}

	alert := &models.Alert{
		ID:            uuid.New().String(),
		Title:         in.Title,
		Content:       in.Content,
		Severity:      in.Severity,
		RelatedEntity: in.RelatedEntity,
		Scope:         in.Scope,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.repo.Save(ctx, alert); err != nil {
		return "", fmt.Errorf("failed to save alert: %w", err)
	}

	if s.publisher != nil {
		event := &events.AlertCreated{
			BaseEvent: events.NewBaseEvent(events.AlertCreatedEvent, alert.Scope),
			Alert:     *alert,
		}

		// Publication failures are logged only; the alert is already stored.
		if err := s.publisher.Publish(ctx, alert.ID, event); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish alert created event", "alert_id", alert.ID, "error", err)
		}
	}

	s.logger.DebugContext(ctx, "Alert created", "alert_id", alert.ID, "severity", alert.Severity)

	return alert.ID, nil
}
