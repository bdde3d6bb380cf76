package alerts_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukex/fleetflow/pkg/alerts"
	"github.com/dukex/fleetflow/pkg/events"
	"github.com/dukex/fleetflow/pkg/mocks"
	"github.com/dukex/fleetflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestService_CreateAlert(t *testing.T) {
	repo := &mocks.MockAlertRepository{}
	bus := &mocks.MockEventBus{}

	repo.On("Save", mock.Anything, mock.MatchedBy(func(a *models.Alert) bool {
		return a.Title == "Speed" && a.RelatedEntity != nil && a.RelatedEntity.ID == "v-1" && a.ID != ""
	})).Return(nil)
	bus.On("Publish", mock.Anything, mock.AnythingOfType("string"), mock.MatchedBy(func(e *events.AlertCreated) bool {
		return e.Alert.Severity == models.SeverityWarning && e.Scope == "fleet-a"
	})).Return(nil)

	service := alerts.NewService(repo, bus, slog.Default())

	id, err := service.CreateAlert(context.Background(), alerts.NewAlert{
		Title:         "Speed",
		Content:       "AB-123 at 120 km/h",
		Severity:      models.SeverityWarning,
		RelatedEntity: &models.RelatedEntity{Type: models.EntityVehicle, ID: "v-1"},
		Scope:         "fleet-a",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, id)
	repo.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestService_CreateAlert_Validation(t *testing.T) {
	service := alerts.NewService(&mocks.MockAlertRepository{}, nil, slog.Default())

	_, err := service.CreateAlert(context.Background(), alerts.NewAlert{Title: "x", Severity: "fatal"})
	require.ErrorIs(t, err, alerts.ErrInvalidSeverity)

	_, err = service.CreateAlert(context.Background(), alerts.NewAlert{Title: "  ", Severity: models.SeverityInfo})
	require.ErrorIs(t, err, alerts.ErrMissingTitle)
}

func TestService_CreateAlert_StorageFailure(t *testing.T) {
	repo := &mocks.MockAlertRepository{}
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	service := alerts.NewService(repo, nil, slog.Default())

	_, err := service.CreateAlert(context.Background(), alerts.NewAlert{Title: "Speed", Severity: models.SeverityError})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestService_CreateAlert_PublishFailureIsNotFatal(t *testing.T) {
	repo := &mocks.MockAlertRepository{}
	bus := &mocks.MockEventBus{}

	repo.On("Save", mock.Anything, mock.Anything).Return(nil)
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	service := alerts.NewService(repo, bus, slog.Default())

	id, err := service.CreateAlert(context.Background(), alerts.NewAlert{Title: "Speed", Severity: models.SeveritySuccess})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}
