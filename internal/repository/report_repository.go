package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"storm-platform/internal/models"
	"storm-platform/pkg/database"
	"storm-platform/pkg/logging"
	"storm-platform/pkg/metrics"
)

// ReportRepository provides data access for SPC storm reports. Reports are
// append-only: ingestion inserts them, the verification engine only reads.
type ReportRepository interface {
	CreateReport(ctx context.Context, report *models.Report) error
	CreateReportsBatch(ctx context.Context, reports []*models.Report) error

	GetReport(ctx context.Context, id int64) (*models.Report, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]*models.Report, int, error)

	// Matching queries (implements matching.ReportStore)
	FindByCountyState(ctx context.Context, dates []time.Time, types []models.ReportType, states, counties []string) ([]*models.Report, error)
	FindLocated(ctx context.Context, dates []time.Time, types []models.ReportType) ([]*models.Report, error)

	HealthCheck(ctx context.Context) error
}

// ReportFilter defines filters for querying storm reports
type ReportFilter struct {
	ReportType *string
	State      *string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

// reportRepository implements ReportRepository
type reportRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) ReportRepository {
	return &reportRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

const reportColumns = `
	id, report_type, report_date, time_utc, location, county, state,
	latitude, longitude, comments, magnitude, created_at
`

const insertReportQuery = `
	INSERT INTO storm_reports (
		report_type, report_date, time_utc, location, county, state,
		latitude, longitude, comments, magnitude, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (report_type, report_date, time_utc, county, state, location) DO NOTHING
`

// CreateReport inserts a single storm report. Re-ingesting the same CSV row
// is a no-op thanks to the natural-key conflict clause.
func (r *reportRepository) CreateReport(ctx context.Context, report *models.Report) error {
	_, err := r.db.ExecContext(ctx, "insert_report", insertReportQuery,
		report.ReportType,
		report.ReportDate,
		report.TimeUTC,
		report.Location,
		report.County,
		report.State,
		report.Latitude,
		report.Longitude,
		report.Comments,
		report.Magnitude,
		report.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	return nil
}

// CreateReportsBatch inserts multiple reports in a single transaction
func (r *reportRepository) CreateReportsBatch(ctx context.Context, reports []*models.Report) error {
	if len(reports) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.IngestionBatchSize.Observe(float64(len(reports)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT_REPORTS] Batch insert completed", logging.Fields{
			"count":       len(reports),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertReportQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, report := range reports {
		_, err := stmt.ExecContext(ctx,
			report.ReportType,
			report.ReportDate,
			report.TimeUTC,
			report.Location,
			report.County,
			report.State,
			report.Latitude,
			report.Longitude,
			report.Comments,
			report.Magnitude,
			report.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert report: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(reports)))

	return nil
}

// GetReport retrieves a storm report by ID
func (r *reportRepository) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM storm_reports WHERE id = $1`

	var report models.Report
	err := r.db.GetContext(ctx, "get_report", &report, query, id)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "storm_report",
			ID:       fmt.Sprintf("%d", id),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return &report, nil
}

// ListReports retrieves storm reports with filtering and pagination
func (r *reportRepository) ListReports(ctx context.Context, filter ReportFilter) ([]*models.Report, int, error) {
	query := `SELECT ` + reportColumns + ` FROM storm_reports WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if filter.ReportType != nil {
		query += fmt.Sprintf(" AND report_type = $%d", argNum)
		args = append(args, *filter.ReportType)
		argNum++
	}

	if filter.State != nil {
		query += fmt.Sprintf(" AND LOWER(state) = $%d", argNum)
		args = append(args, strings.ToLower(*filter.State))
		argNum++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND report_date >= $%d", argNum)
		args = append(args, *filter.StartDate)
		argNum++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND report_date <= $%d", argNum)
		args = append(args, *filter.EndDate)
		argNum++
	}

	// Get total count
	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_reports", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	// Add ordering and pagination
	query += " ORDER BY report_date DESC, time_utc, id"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var reports []*models.Report
	err = r.db.SelectContext(ctx, "list_reports", &reports, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}

	return reports, totalCount, nil
}

// FindByCountyState returns reports matching the county+state sets on the
// given dates. Text comparison is case-insensitive exact equality; the
// in-window time filter is applied by the caller.
func (r *reportRepository) FindByCountyState(ctx context.Context, dates []time.Time, types []models.ReportType, states, counties []string) ([]*models.Report, error) {
	if len(dates) == 0 || len(types) == 0 || len(states) == 0 || len(counties) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + reportColumns + `
		FROM storm_reports
		WHERE report_date = ANY($1)
		  AND report_type = ANY($2)
		  AND LOWER(state) = ANY($3)
		  AND LOWER(county) = ANY($4)
		ORDER BY report_date, time_utc, id
	`

	var reports []*models.Report
	err := r.db.SelectContext(ctx, "find_reports_by_county", &reports, query,
		pq.Array(dates),
		pq.Array(reportTypeStrings(types)),
		pq.Array(lowered(states)),
		pq.Array(lowered(counties)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find reports by county: %w", err)
	}

	return reports, nil
}

// FindLocated returns reports on the given dates that carry coordinates,
// for the proximity fallback. Distance filtering happens in the caller.
func (r *reportRepository) FindLocated(ctx context.Context, dates []time.Time, types []models.ReportType) ([]*models.Report, error) {
	if len(dates) == 0 || len(types) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + reportColumns + `
		FROM storm_reports
		WHERE report_date = ANY($1)
		  AND report_type = ANY($2)
		  AND latitude IS NOT NULL
		  AND longitude IS NOT NULL
		ORDER BY report_date, time_utc, id
	`

	var reports []*models.Report
	err := r.db.SelectContext(ctx, "find_located_reports", &reports, query,
		pq.Array(dates),
		pq.Array(reportTypeStrings(types)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find located reports: %w", err)
	}

	return reports, nil
}

// HealthCheck performs a repository health check
func (r *reportRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

func reportTypeStrings(types []models.ReportType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func lowered(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
