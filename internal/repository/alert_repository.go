package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storm-platform/internal/models"
	"storm-platform/pkg/database"
	"storm-platform/pkg/logging"
	"storm-platform/pkg/metrics"
)

// AlertRepository provides data access for severe-weather alerts
type AlertRepository interface {
	// Ingestion-side operations
	UpsertAlert(ctx context.Context, alert *models.Alert) error
	UpsertAlertsBatch(ctx context.Context, alerts []*models.Alert) error

	// Read operations
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	ListAlerts(ctx context.Context, filter AlertFilter) ([]*models.Alert, int, error)

	// Verification operations
	SelectUnverified(ctx context.Context, cutoff time.Time, limit int) ([]*models.Alert, error)
	UpdateVerification(ctx context.Context, alert *models.Alert) error
	UpdateVerificationBatch(ctx context.Context, alerts []*models.Alert) error

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// AlertFilter defines filters for querying alerts
type AlertFilter struct {
	Event       *string
	Verified    *bool
	MatchMethod *string
	StartDate   *time.Time
	EndDate     *time.Time
	Limit       int
	Offset      int
}

// alertRepository implements AlertRepository
type alertRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) AlertRepository {
	return &alertRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

const alertColumns = `
	id, event, area_desc, effective, expires,
	geometry, min_lat, min_lon, max_lat, max_lon,
	verified, match_method, confidence_score, report_count, reports, verified_at,
	summary, created_at, updated_at
`

// UpsertAlert inserts or refreshes an alert from ingestion. The verification
// fields and summary are never touched here; only this engine's verification
// path and the downstream summarizer write those.
func (r *alertRepository) UpsertAlert(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (
			id, event, area_desc, effective, expires,
			geometry, min_lat, min_lon, max_lat, max_lon,
			reports, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			event = EXCLUDED.event,
			area_desc = EXCLUDED.area_desc,
			effective = EXCLUDED.effective,
			expires = EXCLUDED.expires,
			geometry = EXCLUDED.geometry,
			min_lat = EXCLUDED.min_lat,
			min_lon = EXCLUDED.min_lon,
			max_lat = EXCLUDED.max_lat,
			max_lon = EXCLUDED.max_lon,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, "upsert_alert", query,
		alert.ID,
		alert.Event,
		alert.AreaDesc,
		alert.Effective,
		alert.Expires,
		alert.Geometry,
		alert.MinLat,
		alert.MinLon,
		alert.MaxLat,
		alert.MaxLon,
		alert.Reports,
		alert.CreatedAt,
		alert.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert alert: %w", err)
	}

	return nil
}

// UpsertAlertsBatch upserts multiple alerts in a single transaction
func (r *alertRepository) UpsertAlertsBatch(ctx context.Context, alerts []*models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.IngestionBatchSize.Observe(float64(len(alerts)))
		r.logger.Debug(ctx, "[REPO_BATCH_UPSERT_ALERTS] Batch upsert completed", logging.Fields{
			"count":       len(alerts),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO alerts (
			id, event, area_desc, effective, expires,
			geometry, min_lat, min_lon, max_lat, max_lon,
			reports, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			event = EXCLUDED.event,
			area_desc = EXCLUDED.area_desc,
			effective = EXCLUDED.effective,
			expires = EXCLUDED.expires,
			geometry = EXCLUDED.geometry,
			min_lat = EXCLUDED.min_lat,
			min_lon = EXCLUDED.min_lon,
			max_lat = EXCLUDED.max_lat,
			max_lon = EXCLUDED.max_lon,
			updated_at = EXCLUDED.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, alert := range alerts {
		_, err := stmt.ExecContext(ctx,
			alert.ID,
			alert.Event,
			alert.AreaDesc,
			alert.Effective,
			alert.Expires,
			alert.Geometry,
			alert.MinLat,
			alert.MinLon,
			alert.MaxLat,
			alert.MaxLon,
			alert.Reports,
			alert.CreatedAt,
			alert.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert alert %s: %w", alert.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(alerts)))

	return nil
}

// GetAlert retrieves an alert by ID
func (r *alertRepository) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`

	var alert models.Alert
	err := r.db.GetContext(ctx, "get_alert", &alert, query, id)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "alert",
			ID:       id,
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return &alert, nil
}

// ListAlerts retrieves alerts with filtering and pagination
func (r *alertRepository) ListAlerts(ctx context.Context, filter AlertFilter) ([]*models.Alert, int, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if filter.Event != nil {
		query += fmt.Sprintf(" AND event ILIKE $%d", argNum)
		args = append(args, "%"+*filter.Event+"%")
		argNum++
	}

	if filter.Verified != nil {
		query += fmt.Sprintf(" AND verified = $%d", argNum)
		args = append(args, *filter.Verified)
		argNum++
	}

	if filter.MatchMethod != nil {
		query += fmt.Sprintf(" AND match_method = $%d", argNum)
		args = append(args, *filter.MatchMethod)
		argNum++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND effective >= $%d", argNum)
		args = append(args, *filter.StartDate)
		argNum++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND effective <= $%d", argNum)
		args = append(args, *filter.EndDate)
		argNum++
	}

	// Get total count
	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_alerts", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	// Add ordering and pagination
	query += " ORDER BY effective DESC, id"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var alerts []*models.Alert
	err = r.db.SelectContext(ctx, "list_alerts", &alerts, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}

	return alerts, totalCount, nil
}

// SelectUnverified returns the verification working set: alerts not yet
// successfully verified whose effective time is at or after the cutoff.
// Alerts already marked with match_method 'none' stay eligible as long as
// they remain inside the cutoff; once they age out they are not reconsidered.
func (r *alertRepository) SelectUnverified(ctx context.Context, cutoff time.Time, limit int) ([]*models.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE verified IS NOT TRUE
		  AND effective >= $1
		ORDER BY effective
		LIMIT $2
	`

	var alerts []*models.Alert
	err := r.db.SelectContext(ctx, "select_unverified", &alerts, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select unverified alerts: %w", err)
	}

	return alerts, nil
}

const updateVerificationQuery = `
	UPDATE alerts SET
		verified = $2,
		match_method = $3,
		confidence_score = $4,
		report_count = $5,
		reports = $6,
		verified_at = $7,
		updated_at = $8
	WHERE id = $1
`

// UpdateVerification writes one alert's verification outcome. The write is a
// plain overwrite of the verification fields, so re-running verification for
// an already-processed alert is safe.
func (r *alertRepository) UpdateVerification(ctx context.Context, alert *models.Alert) error {
	result, err := r.db.ExecContext(ctx, "update_verification", updateVerificationQuery,
		alert.ID,
		alert.Verified,
		alert.MatchMethod,
		alert.ConfidenceScore,
		alert.ReportCount,
		alert.Reports,
		alert.VerifiedAt,
		alert.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update verification: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return &NotFoundError{
			Resource: "alert",
			ID:       alert.ID,
		}
	}

	return nil
}

// UpdateVerificationBatch writes a whole run's verification outcomes in one
// transaction, committed at the end. On failure the entire batch is rolled
// back; the outcomes are recomputed on the next scheduled run.
func (r *alertRepository) UpdateVerificationBatch(ctx context.Context, alerts []*models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.logger.Debug(ctx, "[REPO_BATCH_VERIFY] Batch verification write completed", logging.Fields{
			"count":       len(alerts),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, updateVerificationQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, alert := range alerts {
		_, err := stmt.ExecContext(ctx,
			alert.ID,
			alert.Verified,
			alert.MatchMethod,
			alert.ConfidenceScore,
			alert.ReportCount,
			alert.Reports,
			alert.VerifiedAt,
			alert.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to write verification for alert %s: %w", alert.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// HealthCheck performs a repository health check
func (r *alertRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
