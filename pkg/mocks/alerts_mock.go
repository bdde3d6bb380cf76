package mocks

import (
	"context"

	"github.com/dukex/fleetflow/pkg/alerts"
	"github.com/stretchr/testify/mock"
)

// MockAlertCreator is a mock implementation of alerts.Creator interface.
type MockAlertCreator struct {
	mock.Mock
}

func (m *MockAlertCreator) CreateAlert(ctx context.Context, alert alerts.NewAlert) (string, error) {
	args := m.Called(ctx, alert)

	return args.String(0), args.Error(1)
}
