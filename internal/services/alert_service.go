package services

import (
	"context"

	"storm-platform/internal/models"
	"storm-platform/internal/repository"
	"storm-platform/pkg/logging"
	"storm-platform/pkg/metrics"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// AlertService handles read access to alerts and storm reports
type AlertService struct {
	alerts  repository.AlertRepository
	reports repository.ReportRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewAlertService creates a new alert service
func NewAlertService(alerts repository.AlertRepository, reports repository.ReportRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AlertService {
	return &AlertService{
		alerts:  alerts,
		reports: reports,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// GetAlert retrieves a single alert by ID
func (s *AlertService) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	return s.alerts.GetAlert(ctx, id)
}

// ListAlerts retrieves alerts with filtering and pagination
func (s *AlertService) ListAlerts(ctx context.Context, filter repository.AlertFilter) ([]*models.Alert, int, error) {
	filter.Limit = clampLimit(filter.Limit)
	return s.alerts.ListAlerts(ctx, filter)
}

// ListReports retrieves storm reports with filtering and pagination
func (s *AlertService) ListReports(ctx context.Context, filter repository.ReportFilter) ([]*models.Report, int, error) {
	filter.Limit = clampLimit(filter.Limit)
	return s.reports.ListReports(ctx, filter)
}

// HealthCheck verifies store connectivity
func (s *AlertService) HealthCheck(ctx context.Context) error {
	return s.alerts.HealthCheck(ctx)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}
