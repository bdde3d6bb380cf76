package models

import "time"

// AlertSeverity is the severity of an alert record.
type AlertSeverity string

const (
	SeverityInfo    AlertSeverity = "info"
	SeverityWarning AlertSeverity = "warning"
	SeverityError   AlertSeverity = "error"
	SeveritySuccess AlertSeverity = "success"
)

// Valid reports whether s is a known severity.
func (s AlertSeverity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeveritySuccess:
		return true
	}

	return false
}

// RelatedEntity points an alert at the model it concerns.
type RelatedEntity struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Alert is an alert record created by the create_alert action.
type Alert struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	Severity      AlertSeverity  `json:"severity"`
	RelatedEntity *RelatedEntity `json:"related_entity,omitempty"`
	Scope         string         `json:"scope,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
