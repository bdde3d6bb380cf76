package mocks

import (
	"context"
	"sync"

	"github.com/dukex/fleetflow/pkg/eventbus"
	"github.com/dukex/fleetflow/pkg/events"
	"github.com/stretchr/testify/mock"
)

// MockEventBus is a mock implementation of eventbus.EventBus interface.
// Handle stores the handler so tests can deliver events through Deliver.
type MockEventBus struct {
	mock.Mock

	handlersMu sync.Mutex
	handlers   map[events.EventType]eventbus.EventHandler
}

var _ eventbus.EventBus = (*MockEventBus)(nil)

func (m *MockEventBus) Publish(ctx context.Context, key string, event eventbus.Event) error {
	args := m.Called(ctx, key, event)

	return args.Error(0)
}

func (m *MockEventBus) Handle(eventType events.EventType, handler eventbus.EventHandler) error {
	args := m.Called(eventType, handler)

	m.handlersMu.Lock()
	defer m.handlersMu.Unlock()

	if m.handlers == nil {
		m.handlers = map[events.EventType]eventbus.EventHandler{}
	}

	m.handlers[eventType] = handler

	return args.Error(0)
}

// Deliver invokes the handler registered for event's type, as the bus would
// after decoding a message.
func (m *MockEventBus) Deliver(ctx context.Context, event eventbus.Event) error {
	m.handlersMu.Lock()
	handler, ok := m.handlers[event.GetType()]
	m.handlersMu.Unlock()

	if !ok {
		return nil
	}

	return handler(ctx, event)
}

func (m *MockEventBus) Subscribe(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()

	return args.Error(0)
}

func (m *MockEventBus) GenerateID() string {
	args := m.Called()

	return args.String(0)
}
