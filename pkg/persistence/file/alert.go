package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/persistence"
)

type AlertRepository struct {
	root string
}

func NewAlertRepository(root string) *AlertRepository {
	return &AlertRepository{root: root}
}

func (ar *AlertRepository) dir() string {
	return filepath.Join(ar.root, "alerts")
}

func (ar *AlertRepository) Save(_ context.Context, alert *models.Alert) error {
	if err := validateID(alert.ID); err != nil {
		return fmt.Errorf("invalid alert ID %q: %w", alert.ID, err)
	}

	if err := os.MkdirAll(ar.dir(), 0750); err != nil {
		return fmt.Errorf("failed to create alerts directory: %w", err)
	}

	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert %s: %w", alert.ID, err)
	}

	return writeFileAtomic(filepath.Join(ar.dir(), alert.ID+".json"), data)
}

func (ar *AlertRepository) ListByScope(_ context.Context, scope string, limit int) ([]*models.Alert, error) {
	if limit <= 0 {
		limit = persistence.DefaultExecutionLimit
	}

	jsonFiles, err := fs.Glob(os.DirFS(ar.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list alert files: %w", err)
	}

	alerts := make([]*models.Alert, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		data, err := os.ReadFile(filepath.Join(ar.dir(), file)) // #nosec G304 -- names come from Glob
		if err != nil {
			return nil, fmt.Errorf("failed to read alert %s: %w", file, err)
		}

		var alert models.Alert
		if err := json.Unmarshal(data, &alert); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert %s: %w", file, err)
		}

		if scope == "" || alert.Scope == scope {
			alerts = append(alerts, &alert)
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})

	if len(alerts) > limit {
		alerts = alerts[:limit]
	}

	return alerts, nil
}
