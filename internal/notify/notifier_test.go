package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"storm-platform/internal/models"
)

func TestEventFromAlert(t *testing.T) {
	verified := true
	method := models.MatchMethodFIPS
	confidence := 0.9
	verifiedAt := time.Date(2024, 5, 14, 22, 0, 0, 0, time.UTC)

	alert := &models.Alert{
		ID:              "urn:oid:2.49.0.1.840.0.alert-1",
		Event:           "Tornado Warning",
		Verified:        &verified,
		MatchMethod:     &method,
		ConfidenceScore: &confidence,
		ReportCount:     2,
		VerifiedAt:      &verifiedAt,
	}

	ev := EventFromAlert(alert)

	assert.Equal(t, alert.ID, ev.AlertID)
	assert.Equal(t, "Tornado Warning", ev.Event)
	assert.True(t, ev.Verified)
	assert.Equal(t, "fips", ev.MatchMethod)
	assert.Equal(t, 0.9, ev.ConfidenceScore)
	assert.Equal(t, 2, ev.ReportCount)
	assert.Equal(t, verifiedAt, ev.VerifiedAt)
}

func TestEventFromAlertUnverified(t *testing.T) {
	ev := EventFromAlert(&models.Alert{ID: "a1", Event: "Tornado Warning"})

	assert.False(t, ev.Verified)
	assert.Empty(t, ev.MatchMethod)
	assert.Zero(t, ev.ConfidenceScore)
	assert.True(t, ev.VerifiedAt.IsZero())
}

func TestNopNotifier(t *testing.T) {
	n := NopNotifier{}
	assert.NoError(t, n.VerificationCompleted(context.Background(), &models.Alert{}))
	assert.NoError(t, n.Close())
}
