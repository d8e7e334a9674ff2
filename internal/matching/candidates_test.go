package matching

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"storm-platform/internal/models"
	"storm-platform/pkg/logging"
)

// fakeReportStore serves canned reports and records which queries ran
type fakeReportStore struct {
	byCounty      []*models.Report
	located       []*models.Report
	err           error
	countyCalled  bool
	locatedCalled bool
}

func (s *fakeReportStore) FindByCountyState(ctx context.Context, dates []time.Time, types []models.ReportType, states, counties []string) ([]*models.Report, error) {
	s.countyCalled = true
	return s.byCounty, s.err
}

func (s *fakeReportStore) FindLocated(ctx context.Context, dates []time.Time, types []models.ReportType) ([]*models.Report, error) {
	s.locatedCalled = true
	return s.located, s.err
}

func testLogger() *logging.StructuredLogger {
	return logging.NewStructuredLogger("test", "test", logging.ErrorLevel)
}

func coordPtr(v float64) *float64 { return &v }

func testReport(id int64, timeUTC string, lat, lon float64) *models.Report {
	return &models.Report{
		ID:         id,
		ReportType: models.ReportTypeTornado,
		ReportDate: time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC),
		TimeUTC:    timeUTC,
		County:     "Harris",
		State:      "TX",
		Latitude:   coordPtr(lat),
		Longitude:  coordPtr(lon),
	}
}

func TestFindPrefersCountyMatch(t *testing.T) {
	store := &fakeReportStore{
		byCounty: []*models.Report{testReport(1, "1200", 29.9, -95.5)},
		located:  []*models.Report{testReport(2, "1200", 29.9, -95.5)},
	}
	finder := NewCandidateFinder(store, testLogger())

	area := GeoArea{
		Counties: []string{"Harris"},
		States:   []string{"TX"},
		Centroid: &Coordinate{Lat: 29.9, Lon: -95.5},
	}
	w := WindowAround(time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC))

	candidates, method, err := finder.Find(context.Background(), area, []models.ReportType{models.ReportTypeTornado}, w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if method != models.MatchMethodFIPS {
		t.Errorf("method = %v, want %v", method, models.MatchMethodFIPS)
	}
	if len(candidates) != 1 || candidates[0].ID != 1 {
		t.Errorf("candidates = %v, want the county-matched report", candidates)
	}
	if store.locatedCalled {
		t.Error("proximity query must not run when county match succeeds")
	}
}

func TestFindFallsBackToProximity(t *testing.T) {
	centroid := Coordinate{Lat: 29.9, Lon: -95.5}

	// ~0.3615 degrees of latitude is just under 25 miles; ~0.3625 just over
	store := &fakeReportStore{
		located: []*models.Report{
			testReport(1, "1200", centroid.Lat+0.3615, centroid.Lon),
			testReport(2, "1200", centroid.Lat+0.3625, centroid.Lon),
		},
	}
	finder := NewCandidateFinder(store, testLogger())

	area := GeoArea{Centroid: &centroid}
	w := WindowAround(time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC))

	candidates, method, err := finder.Find(context.Background(), area, []models.ReportType{models.ReportTypeTornado}, w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if method != models.MatchMethodLatLon {
		t.Errorf("method = %v, want %v", method, models.MatchMethodLatLon)
	}
	if len(candidates) != 1 || candidates[0].ID != 1 {
		t.Errorf("candidates = %v, want only the report inside the radius", candidates)
	}
	if store.countyCalled {
		t.Error("county query must not run without county data")
	}
}

func TestFindEmptyCountyResultTriggersFallback(t *testing.T) {
	centroid := Coordinate{Lat: 29.9, Lon: -95.5}
	store := &fakeReportStore{
		byCounty: nil,
		located:  []*models.Report{testReport(1, "1200", centroid.Lat, centroid.Lon)},
	}
	finder := NewCandidateFinder(store, testLogger())

	area := GeoArea{
		Counties: []string{"Harris"},
		States:   []string{"TX"},
		Centroid: &centroid,
	}
	w := WindowAround(time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC))

	candidates, method, err := finder.Find(context.Background(), area, []models.ReportType{models.ReportTypeTornado}, w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !store.countyCalled {
		t.Error("county query should have run first")
	}
	if method != models.MatchMethodLatLon {
		t.Errorf("method = %v, want %v", method, models.MatchMethodLatLon)
	}
	if len(candidates) != 1 {
		t.Errorf("candidates = %v, want one proximity match", candidates)
	}
}

func TestFindNoCentroidNoFallback(t *testing.T) {
	store := &fakeReportStore{
		located: []*models.Report{testReport(1, "1200", 29.9, -95.5)},
	}
	finder := NewCandidateFinder(store, testLogger())

	w := WindowAround(time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC))

	candidates, method, err := finder.Find(context.Background(), GeoArea{}, []models.ReportType{models.ReportTypeTornado}, w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if method != models.MatchMethodNone {
		t.Errorf("method = %v, want %v", method, models.MatchMethodNone)
	}
	if candidates != nil {
		t.Errorf("candidates = %v, want none", candidates)
	}
	if store.locatedCalled {
		t.Error("proximity query must not run without a centroid")
	}
}

func TestFindWindowFiltering(t *testing.T) {
	store := &fakeReportStore{
		byCounty: []*models.Report{
			testReport(1, "1359", 29.9, -95.5), // just inside the +2h edge
			testReport(2, "1401", 29.9, -95.5), // just outside
			testReport(3, "", 29.9, -95.5),     // missing time is kept
			testReport(4, "25xx", 29.9, -95.5), // unparseable time is kept
		},
	}
	finder := NewCandidateFinder(store, testLogger())

	area := GeoArea{Counties: []string{"Harris"}, States: []string{"TX"}}
	w := WindowAround(time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC))

	candidates, method, err := finder.Find(context.Background(), area, []models.ReportType{models.ReportTypeTornado}, w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if method != models.MatchMethodFIPS {
		t.Errorf("method = %v, want %v", method, models.MatchMethodFIPS)
	}

	gotIDs := make(map[int64]bool)
	for _, c := range candidates {
		gotIDs[c.ID] = true
	}
	for _, want := range []int64{1, 3, 4} {
		if !gotIDs[want] {
			t.Errorf("report %d missing from candidates", want)
		}
	}
	if gotIDs[2] {
		t.Error("report 2 is outside the window and must be excluded")
	}
}

func TestFindStoreError(t *testing.T) {
	store := &fakeReportStore{err: errors.New("connection refused")}
	finder := NewCandidateFinder(store, testLogger())

	area := GeoArea{Counties: []string{"Harris"}, States: []string{"TX"}}
	w := WindowAround(time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC))

	_, _, err := finder.Find(context.Background(), area, []models.ReportType{models.ReportTypeTornado}, w)
	if err == nil {
		t.Fatal("expected store error to propagate")
	}
}

func TestHaversine(t *testing.T) {
	// Houston to Dallas is roughly 225 miles
	d := Haversine(29.7604, -95.3698, 32.7767, -96.7970)
	if d < 215 || d > 235 {
		t.Errorf("Houston-Dallas distance = %v, want ~225 miles", d)
	}

	if d := Haversine(29.76, -95.37, 29.76, -95.37); math.Abs(d) > 1e-9 {
		t.Errorf("zero distance = %v, want 0", d)
	}

	// Symmetry
	d1 := Haversine(29.76, -95.37, 30.5, -96.0)
	d2 := Haversine(30.5, -96.0, 29.76, -95.37)
	if math.Abs(d1-d2) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", d1, d2)
	}
}
