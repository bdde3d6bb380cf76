package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/persistence"
)

type AlertRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewAlertRepository(db *sql.DB, logger *slog.Logger) *AlertRepository {
	return &AlertRepository{db: db, logger: logger}
}

func (r *AlertRepository) Save(ctx context.Context, alert *models.Alert) error {
	var relatedType, relatedID sql.NullString

	if alert.RelatedEntity != nil {
		relatedType = sql.NullString{String: alert.RelatedEntity.Type, Valid: true}
		relatedID = sql.NullString{String: alert.RelatedEntity.ID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alerts (id, title, content, severity, related_type, related_id, scope, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		alert.ID,
		alert.Title,
		alert.Content,
		alert.Severity,
		relatedType,
		relatedID,
		alert.Scope,
		alert.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert %s: %w", alert.ID, err)
	}

	return nil
}

func (r *AlertRepository) ListByScope(ctx context.Context, scope string, limit int) ([]*models.Alert, error) {
	if limit <= 0 {
		limit = persistence.DefaultExecutionLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, content, severity, related_type, related_id, scope, created_at
		FROM alerts
		WHERE $1::text = '' OR scope = $1::text
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	alerts := make([]*models.Alert, 0)

	for rows.Next() {
		var (
			alert                 models.Alert
			relatedType, relateID sql.NullString
		)

		err := rows.Scan(&alert.ID, &alert.Title, &alert.Content, &alert.Severity,
			&relatedType, &relateID, &alert.Scope, &alert.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}

		if relatedType.Valid {
			alert.RelatedEntity = &models.RelatedEntity{Type: relatedType.String, ID: relateID.String}
		}

		alerts = append(alerts, &alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return alerts, nil
}
