package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storm-platform/internal/models"
	"storm-platform/internal/repository"
)

// fakeReportRepo collects inserted reports
type fakeReportRepo struct {
	created []*models.Report
}

func (r *fakeReportRepo) CreateReport(ctx context.Context, report *models.Report) error {
	r.created = append(r.created, report)
	return nil
}

func (r *fakeReportRepo) CreateReportsBatch(ctx context.Context, reports []*models.Report) error {
	r.created = append(r.created, reports...)
	return nil
}

func (r *fakeReportRepo) GetReport(ctx context.Context, id int64) (*models.Report, error) {
	return nil, &repository.NotFoundError{Resource: "storm_report", ID: "0"}
}

func (r *fakeReportRepo) ListReports(ctx context.Context, filter repository.ReportFilter) ([]*models.Report, int, error) {
	return nil, 0, nil
}

func (r *fakeReportRepo) FindByCountyState(ctx context.Context, dates []time.Time, types []models.ReportType, states, counties []string) ([]*models.Report, error) {
	return nil, nil
}

func (r *fakeReportRepo) FindLocated(ctx context.Context, dates []time.Time, types []models.ReportType) ([]*models.Report, error) {
	return nil, nil
}

func (r *fakeReportRepo) HealthCheck(ctx context.Context) error {
	return nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestReportsDirectory(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "240514_rpts_torn.csv",
		"Time,F_Scale,Location,County,State,Lat,Lon,Comments\n"+
			"2130,EF1,2 N Cypress,Harris,TX,29.99,-95.68,Tornado touched down briefly.\n"+
			"2245,UNK,Hockley,Harris,TX,UNK,UNK,Spotter report.\n"+
			"bad row with,no county or state fields,,,,,,\n")

	writeFile(t, dir, "240514_rpts_hail.csv",
		"Time,Size,Location,County,State,Lat,Lon,Comments\n"+
			"0300,175,Amarillo,Potter,TX,35.22,-101.83,Golf ball size hail.\n")

	alertRepo := newFakeAlertRepo()
	reportRepo := &fakeReportRepo{}
	svc := NewIngestionService(alertRepo, reportRepo, testLogger(), testCollector())

	result, err := svc.IngestReportsDirectory(context.Background(), dir, 100)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalFiles)
	assert.Equal(t, 4, result.TotalRecords)
	assert.Equal(t, 3, result.SuccessfulRecords)
	assert.Equal(t, 1, result.FailedRecords)
	require.Len(t, reportRepo.created, 3)

	byLocation := make(map[string]*models.Report)
	for _, r := range reportRepo.created {
		byLocation[r.Location] = r
	}

	torn := byLocation["2 N Cypress"]
	require.NotNil(t, torn)
	assert.Equal(t, models.ReportTypeTornado, torn.ReportType)
	assert.Equal(t, time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC), torn.ReportDate)
	assert.Equal(t, "2130", torn.TimeUTC)
	assert.Equal(t, "Harris", torn.County)
	assert.Equal(t, "TX", torn.State)
	require.NotNil(t, torn.Latitude)
	assert.Equal(t, 29.99, *torn.Latitude)
	assert.Equal(t, models.MagnitudeTornado, torn.Magnitude.Kind)
	assert.Equal(t, "EF1", torn.Magnitude.FScale)

	// UNK coordinates stay nil
	spotter := byLocation["Hockley"]
	require.NotNil(t, spotter)
	assert.Nil(t, spotter.Latitude)
	assert.Nil(t, spotter.Longitude)

	// Hail size converts from hundredths of an inch
	hail := byLocation["Amarillo"]
	require.NotNil(t, hail)
	assert.Equal(t, models.ReportTypeHail, hail.ReportType)
	assert.Equal(t, 1.75, hail.Magnitude.SizeInches)
}

func TestReportTypeFromFilename(t *testing.T) {
	tests := []struct {
		file    string
		want    models.ReportType
		wantErr bool
	}{
		{"240514_rpts_torn.csv", models.ReportTypeTornado, false},
		{"240514_rpts_wind.csv", models.ReportTypeWind, false},
		{"240514_rpts_hail.csv", models.ReportTypeHail, false},
		{"240514_rpts.csv", "", true},
	}

	for _, tt := range tests {
		got, err := reportTypeFromFilename(tt.file)
		if tt.wantErr {
			assert.Error(t, err, tt.file)
			continue
		}
		require.NoError(t, err, tt.file)
		assert.Equal(t, tt.want, got, tt.file)
	}
}

func TestReportDateFromFilename(t *testing.T) {
	got, err := reportDateFromFilename("240514_rpts_torn.csv")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC), got)

	_, err = reportDateFromFilename("rpts.csv")
	assert.Error(t, err)

	_, err = reportDateFromFilename("999999_rpts_torn.csv")
	assert.Error(t, err)
}

func TestIngestAlertsFile(t *testing.T) {
	dir := t.TempDir()

	feed := `{
		"type": "FeatureCollection",
		"features": [
			{
				"id": "urn:oid:2.49.0.1.840.0.alert-1",
				"geometry": {"type":"Polygon","coordinates":[[[-96.0,30.0],[-95.0,30.0],[-95.0,31.0],[-96.0,31.0],[-96.0,30.0]]]},
				"properties": {
					"event": "Tornado Warning",
					"areaDesc": "Harris County, TX",
					"effective": "2024-05-14T21:00:00Z",
					"expires": "2024-05-14T22:00:00Z"
				}
			},
			{
				"id": "urn:oid:2.49.0.1.840.0.alert-2",
				"geometry": null,
				"properties": {
					"event": "Severe Thunderstorm Warning",
					"areaDesc": "Waller County, TX",
					"effective": "2024-05-14T20:30:00-05:00",
					"expires": "2024-05-14T21:30:00-05:00"
				}
			},
			{
				"id": "urn:oid:2.49.0.1.840.0.alert-3",
				"geometry": null,
				"properties": {
					"event": "Tornado Warning",
					"areaDesc": "Potter County, TX",
					"effective": "not-a-timestamp",
					"expires": "2024-05-14T22:00:00Z"
				}
			}
		]
	}`

	path := writeFile(t, dir, "alerts.json", feed)

	alertRepo := newFakeAlertRepo()
	svc := NewIngestionService(alertRepo, &fakeReportRepo{}, testLogger(), testCollector())

	result, err := svc.IngestAlertsFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRecords)
	assert.Equal(t, 2, result.SuccessfulRecords)
	assert.Equal(t, 1, result.FailedRecords)

	first := alertRepo.alerts["urn:oid:2.49.0.1.840.0.alert-1"]
	require.NotNil(t, first)
	assert.Equal(t, "Tornado Warning", first.Event)
	assert.Equal(t, time.Date(2024, 5, 14, 21, 0, 0, 0, time.UTC), first.Effective)
	require.NotNil(t, first.Geometry)
	require.NotNil(t, first.MinLat)
	assert.Equal(t, 30.0, *first.MinLat)
	assert.Equal(t, 31.0, *first.MaxLat)
	assert.Equal(t, -96.0, *first.MinLon)
	assert.Equal(t, -95.0, *first.MaxLon)

	// Offset timestamps normalize to UTC
	second := alertRepo.alerts["urn:oid:2.49.0.1.840.0.alert-2"]
	require.NotNil(t, second)
	assert.Equal(t, time.Date(2024, 5, 15, 1, 30, 0, 0, time.UTC), second.Effective)
	assert.Nil(t, second.Geometry)
	assert.Nil(t, second.MinLat)
}
