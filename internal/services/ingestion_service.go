package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"storm-platform/internal/matching"
	"storm-platform/internal/models"
	"storm-platform/internal/repository"
	"storm-platform/pkg/logging"
	"storm-platform/pkg/metrics"
)

// IngestionService loads SPC storm report CSVs and NWS alert GeoJSON feeds
// into the store
type IngestionService struct {
	alerts  repository.AlertRepository
	reports repository.ReportRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalFiles        int
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	Duration          time.Duration
	Errors            []string
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(alerts repository.AlertRepository, reports repository.ReportRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		alerts:  alerts,
		reports: reports,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestReportsDirectory ingests all SPC report CSV files from a directory.
// Files follow the SPC filtered-report naming convention
// (YYMMDD_rpts_<hazard>.csv); the hazard suffix selects the column layout.
func (s *IngestionService) IngestReportsDirectory(ctx context.Context, dataDir string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting report ingestion", logging.Fields{
		"data_dir":   dataDir,
		"batch_size": batchSize,
		"stage":      "INITIALIZATION",
	})

	result := &IngestionResult{
		Errors: make([]string, 0),
	}

	files, err := filepath.Glob(filepath.Join(dataDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no report files found in %s", dataDir)
	}

	result.TotalFiles = len(files)

	s.logger.Info(ctx, "[INGEST_FILES] Found report files", logging.Fields{
		"file_count": len(files),
		"stage":      "FILE_DISCOVERY",
	})

	for _, filePath := range files {
		fileResult, err := s.ingestReportFile(ctx, filePath, batchSize)
		if err != nil {
			errMsg := fmt.Sprintf("failed to ingest %s: %v", filePath, err)
			result.Errors = append(result.Errors, errMsg)
			s.logger.Error(ctx, "[INGEST_FILE_ERROR] File ingestion failed", logging.Fields{
				"file_path": filePath,
				"stage":     "FILE_PROCESSING",
			}, err)
			s.metrics.RecordIngestionError("file_error")
			continue
		}

		result.TotalRecords += fileResult.TotalRecords
		result.SuccessfulRecords += fileResult.SuccessfulRecords
		result.FailedRecords += fileResult.FailedRecords

		s.logger.Info(ctx, "[INGEST_FILE_SUCCESS] File ingested successfully", logging.Fields{
			"file_path":          filePath,
			"total_records":      fileResult.TotalRecords,
			"successful_records": fileResult.SuccessfulRecords,
			"failed_records":     fileResult.FailedRecords,
			"stage":              "FILE_COMPLETE",
		})
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Report ingestion completed", logging.Fields{
		"total_files":        result.TotalFiles,
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
		"error_count":        len(result.Errors),
		"stage":              "COMPLETE",
	})

	return result, nil
}

// FileIngestionResult contains per-file ingestion statistics
type FileIngestionResult struct {
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
}

// ingestReportFile ingests a single SPC report CSV file
func (s *IngestionService) ingestReportFile(ctx context.Context, filePath string, batchSize int) (*FileIngestionResult, error) {
	reportType, err := reportTypeFromFilename(filePath)
	if err != nil {
		return nil, err
	}

	reportDate, err := reportDateFromFilename(filePath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := headerIndex(header)

	result := &FileIngestionResult{}
	batch := make([]*models.Report, 0, batchSize)
	now := time.Now().UTC()

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.TotalRecords++
			result.FailedRecords++
			s.metrics.RecordIngestionError("parse_error")
			continue
		}

		result.TotalRecords++

		report, err := s.parseReportRow(row, columns, reportType, reportDate, now)
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("conversion_error")
			continue
		}

		batch = append(batch, report)

		if len(batch) >= batchSize {
			if err := s.reports.CreateReportsBatch(ctx, batch); err != nil {
				return nil, fmt.Errorf("failed to insert batch: %w", err)
			}
			result.SuccessfulRecords += len(batch)
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := s.reports.CreateReportsBatch(ctx, batch); err != nil {
			return nil, fmt.Errorf("failed to insert final batch: %w", err)
		}
		result.SuccessfulRecords += len(batch)
	}

	return result, nil
}

// parseReportRow converts one SPC CSV row into a Report. The magnitude column
// depends on the hazard: F_Scale for tornadoes, Speed (mph) for wind, Size
// (hundredths of an inch) for hail.
func (s *IngestionService) parseReportRow(row []string, columns map[string]int, reportType models.ReportType, reportDate time.Time, now time.Time) (*models.Report, error) {
	get := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	timeUTC := get("time")
	county := get("county")
	state := get("state")
	if county == "" || state == "" {
		return nil, fmt.Errorf("missing county or state")
	}

	report := &models.Report{
		ReportType: reportType,
		ReportDate: reportDate,
		TimeUTC:    timeUTC,
		Location:   get("location"),
		County:     county,
		State:      strings.ToUpper(state),
		Comments:   get("comments"),
		CreatedAt:  now,
	}

	if lat, err := strconv.ParseFloat(get("lat"), 64); err == nil {
		if lon, err := strconv.ParseFloat(get("lon"), 64); err == nil {
			report.Latitude = &lat
			report.Longitude = &lon
		}
	}

	switch reportType {
	case models.ReportTypeTornado:
		if scale := get("f_scale"); scale != "" {
			report.Magnitude = models.TornadoScale(scale)
		}
	case models.ReportTypeWind:
		if mph, err := strconv.Atoi(get("speed")); err == nil {
			report.Magnitude = models.WindSpeed(mph)
		}
	case models.ReportTypeHail:
		if hundredths, err := strconv.ParseFloat(get("size"), 64); err == nil {
			report.Magnitude = models.HailSize(hundredths / 100)
		}
	}

	return report, nil
}

// reportTypeFromFilename maps the SPC filename hazard suffix to a report type
func reportTypeFromFilename(filePath string) (models.ReportType, error) {
	name := strings.ToLower(filepath.Base(filePath))
	switch {
	case strings.Contains(name, "torn"):
		return models.ReportTypeTornado, nil
	case strings.Contains(name, "wind"):
		return models.ReportTypeWind, nil
	case strings.Contains(name, "hail"):
		return models.ReportTypeHail, nil
	}
	return "", fmt.Errorf("cannot determine report type from filename %s", filePath)
}

// reportDateFromFilename parses the YYMMDD prefix of an SPC report filename.
// SPC convention pivots two-digit years at 2000.
func reportDateFromFilename(filePath string) (time.Time, error) {
	name := filepath.Base(filePath)
	if len(name) < 6 {
		return time.Time{}, fmt.Errorf("filename %s too short for a date prefix", name)
	}

	t, err := time.ParseInLocation("060102", name[:6], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse date prefix from filename %s: %w", name, err)
	}

	return t, nil
}

func headerIndex(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return columns
}

// alertFeature mirrors the subset of an NWS CAP GeoJSON feature the engine
// stores
type alertFeature struct {
	ID         string          `json:"id"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties struct {
		ID        string `json:"id"`
		Event     string `json:"event"`
		AreaDesc  string `json:"areaDesc"`
		Effective string `json:"effective"`
		Expires   string `json:"expires"`
	} `json:"properties"`
}

type alertFeed struct {
	Features []alertFeature `json:"features"`
}

// IngestAlertsFile ingests one NWS alert feed file (a GeoJSON
// FeatureCollection). Re-ingesting a feed refreshes alert attributes but
// never touches verification state, so re-pulls are safe at any time.
func (s *IngestionService) IngestAlertsFile(ctx context.Context, filePath string) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_ALERTS_START] Starting alert ingestion", logging.Fields{
		"file_path": filePath,
		"stage":     "INITIALIZATION",
	})

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read alert feed: %w", err)
	}

	var feed alertFeed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse alert feed: %w", err)
	}

	result := &IngestionResult{
		TotalFiles: 1,
		Errors:     make([]string, 0),
	}

	now := time.Now().UTC()
	batch := make([]*models.Alert, 0, len(feed.Features))

	for _, feature := range feed.Features {
		result.TotalRecords++

		alert, err := s.alertFromFeature(feature, now)
		if err != nil {
			result.FailedRecords++
			result.Errors = append(result.Errors, err.Error())
			s.metrics.RecordIngestionError("conversion_error")
			continue
		}

		batch = append(batch, alert)
	}

	if err := s.alerts.UpsertAlertsBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to upsert alerts: %w", err)
	}
	result.SuccessfulRecords = len(batch)

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_ALERTS_COMPLETE] Alert ingestion completed", logging.Fields{
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
		"stage":              "COMPLETE",
	})

	return result, nil
}

// alertFromFeature converts one feed feature into an Alert row. The bounding
// box is denormalized from the geometry at ingest time so list endpoints
// never re-parse GeoJSON.
func (s *IngestionService) alertFromFeature(feature alertFeature, now time.Time) (*models.Alert, error) {
	id := feature.ID
	if id == "" {
		id = feature.Properties.ID
	}
	if id == "" {
		return nil, fmt.Errorf("alert feature missing id")
	}

	if feature.Properties.Event == "" {
		return nil, fmt.Errorf("alert %s missing event", id)
	}

	effective, err := time.Parse(time.RFC3339, feature.Properties.Effective)
	if err != nil {
		return nil, fmt.Errorf("alert %s has unparseable effective time: %w", id, err)
	}

	expires, err := time.Parse(time.RFC3339, feature.Properties.Expires)
	if err != nil {
		return nil, fmt.Errorf("alert %s has unparseable expires time: %w", id, err)
	}

	alert := &models.Alert{
		ID:        id,
		Event:     feature.Properties.Event,
		AreaDesc:  feature.Properties.AreaDesc,
		Effective: effective.UTC(),
		Expires:   expires.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if len(feature.Geometry) > 0 && string(feature.Geometry) != "null" {
		geometry := string(feature.Geometry)
		alert.Geometry = &geometry

		if minLat, minLon, maxLat, maxLon, ok := matching.GeometryBounds(feature.Geometry); ok {
			alert.MinLat = &minLat
			alert.MinLon = &minLon
			alert.MaxLat = &maxLat
			alert.MaxLon = &maxLon
		}
	}

	return alert, nil
}
