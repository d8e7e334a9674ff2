package notify

import (
	"context"
	"time"

	"storm-platform/internal/models"
)

// VerificationEvent is the payload published after an alert's verification
// outcome is committed. Downstream consumers (summarizer, webhook dispatch)
// pick it up from here; the engine never waits on them.
type VerificationEvent struct {
	AlertID         string    `json:"alert_id"`
	Event           string    `json:"event"`
	Verified        bool      `json:"verified"`
	MatchMethod     string    `json:"match_method"`
	ConfidenceScore float64   `json:"confidence_score"`
	ReportCount     int       `json:"report_count"`
	VerifiedAt      time.Time `json:"verified_at"`
}

// EventFromAlert builds a VerificationEvent from a verified alert
func EventFromAlert(alert *models.Alert) VerificationEvent {
	ev := VerificationEvent{
		AlertID:     alert.ID,
		Event:       alert.Event,
		Verified:    alert.IsVerified(),
		ReportCount: alert.ReportCount,
	}
	if alert.MatchMethod != nil {
		ev.MatchMethod = string(*alert.MatchMethod)
	}
	if alert.ConfidenceScore != nil {
		ev.ConfidenceScore = *alert.ConfidenceScore
	}
	if alert.VerifiedAt != nil {
		ev.VerifiedAt = *alert.VerifiedAt
	}
	return ev
}

// Notifier publishes verification events to downstream consumers
type Notifier interface {
	VerificationCompleted(ctx context.Context, alert *models.Alert) error
	Close() error
}

// NopNotifier discards events; used when no broker is configured
type NopNotifier struct{}

func (NopNotifier) VerificationCompleted(ctx context.Context, alert *models.Alert) error {
	return nil
}

func (NopNotifier) Close() error {
	return nil
}
