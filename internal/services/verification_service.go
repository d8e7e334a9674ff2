package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"storm-platform/internal/matching"
	"storm-platform/internal/models"
	"storm-platform/internal/notify"
	"storm-platform/internal/repository"
	"storm-platform/pkg/logging"
	"storm-platform/pkg/metrics"
)

const (
	// DefaultBatchLimit caps the working set when the caller passes no limit
	DefaultBatchLimit = 100

	// selectionLookback bounds the working set to recent alerts. Alerts
	// marked 'none' that age past this horizon are not reconsidered, which
	// bounds per-run work at the cost of a known staleness gap.
	selectionLookback = 48 * time.Hour

	notifyTimeout = 10 * time.Second
)

// ErrBatchInProgress is returned when a run is requested while another is
// still executing. Overlapping runs could race on the same alert's write, so
// re-entry fails fast instead of queueing.
var ErrBatchInProgress = errors.New("verification batch already in progress")

// ErrIneligibleEvent is returned when an alert's event type maps to no
// report types; such alerts are skipped without a store write.
var ErrIneligibleEvent = errors.New("alert event is not eligible for verification")

// BatchResult contains aggregate counts for one verification run. Per-alert
// detail is intentionally not returned; callers needing it query the alerts.
type BatchResult struct {
	Processed int `json:"processed"`
	Matched   int `json:"matched"`
	Updated   int `json:"updated"`
}

// VerificationService cross-verifies alerts against SPC storm reports. It
// owns the full pipeline: geographic/temporal search space, two-phase
// candidate finding, scoring, and the idempotent verification write.
type VerificationService struct {
	alerts   repository.AlertRepository
	resolver *matching.GeoResolver
	finder   *matching.CandidateFinder
	notifier notify.Notifier
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
	clock    clockwork.Clock

	// runMu serializes batch runs; see ErrBatchInProgress
	runMu sync.Mutex
}

// NewVerificationService creates a new verification service. A nil clock
// defaults to the real clock; tests inject a fake for deterministic cutoffs.
func NewVerificationService(
	alerts repository.AlertRepository,
	reports matching.ReportStore,
	notifier notify.Notifier,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
	clock clockwork.Clock,
) *VerificationService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}

	return &VerificationService{
		alerts:   alerts,
		resolver: matching.NewGeoResolver(logger),
		finder:   matching.NewCandidateFinder(reports, logger),
		notifier: notifier,
		logger:   logger,
		metrics:  metricsCollector,
		clock:    clock,
	}
}

// RunBatch selects the unverified working set and verifies each alert,
// committing all outcomes in one batched write at the end. Per-alert
// failures are logged and counted in neither matched nor updated; they never
// stop the batch. A commit failure loses the whole batch's writes, which is
// acceptable because the next scheduled run recomputes them.
func (s *VerificationService) RunBatch(ctx context.Context, limit int) (*BatchResult, error) {
	if !s.runMu.TryLock() {
		return nil, ErrBatchInProgress
	}
	defer s.runMu.Unlock()

	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	startTime := time.Now()
	now := s.clock.Now().UTC()
	runID := uuid.NewString()
	log := s.logger.WithFields(logging.Fields{"run_id": runID})

	s.metrics.VerificationRunsTotal.Inc()

	log.Info(ctx, "[BATCH_START] Starting verification run", logging.Fields{
		"limit":  limit,
		"cutoff": now.Add(-selectionLookback).Format(time.RFC3339),
	})

	alerts, err := s.alerts.SelectUnverified(ctx, now.Add(-selectionLookback), limit)
	if err != nil {
		s.metrics.RecordVerificationError("selection_error")
		log.Error(ctx, "[BATCH_SELECT_ERROR] Failed to select working set", logging.Fields{}, err)
		return nil, fmt.Errorf("failed to select unverified alerts: %w", err)
	}

	s.metrics.VerificationBatchSize.Observe(float64(len(alerts)))

	result := &BatchResult{}
	var updates []*models.Alert

	for _, alert := range alerts {
		result.Processed++

		types := matching.EligibleReportTypes(alert.Event)
		if len(types) == 0 {
			log.Debug(ctx, "[BATCH_SKIP] Alert event not eligible for verification", logging.Fields{
				"alert_id": alert.ID,
				"event":    alert.Event,
			})
			continue
		}

		outcome, err := s.matchEligible(ctx, alert, types)
		if err != nil {
			s.metrics.RecordVerificationError("match_error")
			log.Error(ctx, "[BATCH_ALERT_ERROR] Alert verification failed", logging.Fields{
				"alert_id": alert.ID,
				"event":    alert.Event,
			}, err)
			continue
		}

		s.applyOutcome(alert, outcome, now)
		updates = append(updates, alert)

		if outcome.Matched() {
			result.Matched++
		}
		s.metrics.RecordVerificationOutcome(string(outcome.Method))
	}

	if err := s.alerts.UpdateVerificationBatch(ctx, updates); err != nil {
		s.metrics.RecordVerificationError("commit_error")
		log.Error(ctx, "[BATCH_COMMIT_ERROR] Batch write lost, outcomes will be recomputed next run", logging.Fields{
			"lost_count": len(updates),
		}, err)
	} else {
		result.Updated = len(updates)
		s.notifyMatched(updates)
	}

	duration := time.Since(startTime)
	s.metrics.VerificationRunDuration.Observe(duration.Seconds())

	log.Info(ctx, "[BATCH_COMPLETE] Verification run completed", logging.Fields{
		"processed":   result.Processed,
		"matched":     result.Matched,
		"updated":     result.Updated,
		"duration_ms": duration.Milliseconds(),
	})

	return result, nil
}

// MatchOne computes the verification outcome for a single alert without
// writing anything. Returns ErrIneligibleEvent when the alert's event maps
// to no report types.
func (s *VerificationService) MatchOne(ctx context.Context, alert *models.Alert) (matching.Outcome, error) {
	types := matching.EligibleReportTypes(alert.Event)
	if len(types) == 0 {
		return matching.Outcome{Method: models.MatchMethodNone}, ErrIneligibleEvent
	}

	return s.matchEligible(ctx, alert, types)
}

// VerifyAlert is the manual/debug entry point: verify one alert by ID and
// persist the outcome immediately. Ineligible alerts are returned unchanged.
func (s *VerificationService) VerifyAlert(ctx context.Context, id string) (*models.Alert, error) {
	alert, err := s.alerts.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}

	outcome, err := s.MatchOne(ctx, alert)
	if err != nil {
		return alert, err
	}

	s.applyOutcome(alert, outcome, s.clock.Now().UTC())

	if err := s.alerts.UpdateVerification(ctx, alert); err != nil {
		return nil, err
	}

	s.metrics.RecordVerificationOutcome(string(outcome.Method))
	s.notifyMatched([]*models.Alert{alert})

	s.logger.Info(ctx, "[VERIFY_ONE] Alert verified", logging.Fields{
		"alert_id":     alert.ID,
		"match_method": string(outcome.Method),
		"report_count": alert.ReportCount,
	})

	return alert, nil
}

// matchEligible runs the matching pipeline for an alert already known to be
// eligible: resolve the search space, find candidates, score.
func (s *VerificationService) matchEligible(ctx context.Context, alert *models.Alert, types []models.ReportType) (matching.Outcome, error) {
	area := s.resolver.Resolve(ctx, alert)
	window := matching.WindowAround(alert.Effective)

	candidates, method, err := s.finder.Find(ctx, area, types, window)
	if err != nil {
		return matching.Outcome{}, fmt.Errorf("failed to find candidates for alert %s: %w", alert.ID, err)
	}

	return matching.Score(candidates, method), nil
}

// applyOutcome writes the verification outcome onto the alert record. The
// assignment is a full overwrite of every verification field, which is what
// makes re-running verification idempotent.
func (s *VerificationService) applyOutcome(alert *models.Alert, outcome matching.Outcome, now time.Time) {
	verified := outcome.Matched()
	method := outcome.Method
	confidence := outcome.Confidence

	snapshots := make(models.ReportSnapshots, 0, len(outcome.Reports))
	for _, r := range outcome.Reports {
		snapshots = append(snapshots, models.SnapshotReport(r))
	}

	verifiedAt := now

	alert.Verified = &verified
	alert.MatchMethod = &method
	alert.ConfidenceScore = &confidence
	alert.Reports = snapshots
	alert.ReportCount = len(snapshots)
	alert.VerifiedAt = &verifiedAt
	alert.UpdatedAt = now
}

// notifyMatched publishes verification events for successfully matched
// alerts. Publishing is detached from the caller: it runs on its own
// goroutine with its own deadline, and failures are logged, never returned.
func (s *VerificationService) notifyMatched(alerts []*models.Alert) {
	for _, alert := range alerts {
		if !alert.IsVerified() {
			continue
		}

		a := alert
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
			defer cancel()

			if err := s.notifier.VerificationCompleted(ctx, a); err != nil {
				s.logger.Warn(ctx, "[NOTIFY_ERROR] Failed to publish verification event", logging.Fields{
					"alert_id": a.ID,
					"error":    err.Error(),
				})
			}
		}()
	}
}
