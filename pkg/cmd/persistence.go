package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/fleetflow/pkg/persistence"
	"github.com/dukex/fleetflow/pkg/persistence/file"
	"github.com/dukex/fleetflow/pkg/persistence/postgresql"
)

var ErrUnsupportedPersistence = errors.New("unsupported persistence provider")

// NewPersistence opens the store named by databaseURL: file://<dir> or
// postgres://... (postgresql:// is accepted too).
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider, location := parsePersistenceURL(databaseURL)

	switch provider {
	case "file":
		return file.NewPersistence(location), nil
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres persistence: %w", err)
		}

		return p, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPersistence, provider)
	}
}

// parsePersistenceURL splits databaseURL into its scheme and the remainder.
// A URL without a scheme is a file path.
func parsePersistenceURL(databaseURL string) (string, string) {
	provider, location, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file", databaseURL
	}

	return provider, location
}
