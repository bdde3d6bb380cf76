package protocol

import (
	"context"

	"github.com/dukex/fleetflow/pkg/models"
)

// EventCallback is invoked by a receiver for every decoded fleet event.
type EventCallback func(ctx context.Context, event models.Event) error

// Receiver listens to an external source of fleet events.
type Receiver interface {
	Start(ctx context.Context, callback EventCallback) error
	Stop(ctx context.Context) error
	Validate() error
}
