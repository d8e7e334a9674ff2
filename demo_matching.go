package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storm-platform/internal/matching"
	"storm-platform/internal/models"
	"storm-platform/pkg/logging"
)

// memoryReportStore serves storm reports from a slice so the matching
// pipeline can run without a database
type memoryReportStore struct {
	reports []*models.Report
}

func (s *memoryReportStore) FindByCountyState(ctx context.Context, dates []time.Time, types []models.ReportType, states, counties []string) ([]*models.Report, error) {
	var out []*models.Report
	for _, r := range s.reports {
		if !onDate(r.ReportDate, dates) || !hasType(r.ReportType, types) {
			continue
		}
		if containsFold(states, r.State) && containsFold(counties, r.County) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memoryReportStore) FindLocated(ctx context.Context, dates []time.Time, types []models.ReportType) ([]*models.Report, error) {
	var out []*models.Report
	for _, r := range s.reports {
		if onDate(r.ReportDate, dates) && hasType(r.ReportType, types) && r.HasCoordinates() {
			out = append(out, r)
		}
	}
	return out, nil
}

func onDate(d time.Time, dates []time.Time) bool {
	for _, candidate := range dates {
		if candidate.Year() == d.Year() && candidate.YearDay() == d.YearDay() {
			return true
		}
	}
	return false
}

func hasType(t models.ReportType, types []models.ReportType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}

func ptr(f float64) *float64 { return &f }

func main() {
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("STORM PLATFORM - ALERT MATCHING DEMONSTRATION")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()

	logger := logging.NewStructuredLogger("demo", "1.0.0", logging.WarnLevel)
	ctx := context.Background()

	day := time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)

	store := &memoryReportStore{
		reports: []*models.Report{
			{
				ID:         1,
				ReportType: models.ReportTypeTornado,
				ReportDate: day,
				TimeUTC:    "2130",
				Location:   "2 N Cypress",
				County:     "Harris",
				State:      "TX",
				Latitude:   ptr(29.99),
				Longitude:  ptr(-95.68),
				Magnitude:  models.TornadoScale("EF1"),
			},
			{
				ID:         2,
				ReportType: models.ReportTypeWind,
				ReportDate: day,
				TimeUTC:    "2145",
				Location:   "Katy",
				County:     "Fort Bend",
				State:      "TX",
				Latitude:   ptr(29.78),
				Longitude:  ptr(-95.82),
				Magnitude:  models.WindSpeed(65),
			},
			{
				ID:         3,
				ReportType: models.ReportTypeHail,
				ReportDate: day,
				TimeUTC:    "0300",
				Location:   "Amarillo",
				County:     "Potter",
				State:      "TX",
				Latitude:   ptr(35.22),
				Longitude:  ptr(-101.83),
				Magnitude:  models.HailSize(1.75),
			},
		},
	}

	resolver := matching.NewGeoResolver(logger)
	finder := matching.NewCandidateFinder(store, logger)

	geometry := `{"type":"Polygon","coordinates":[[[-95.8,29.9],[-95.5,29.9],[-95.5,30.1],[-95.8,30.1],[-95.8,29.9]]]}`

	alerts := []*models.Alert{
		{
			ID:        "urn:oid:2.49.0.1.840.0.demo-tornado",
			Event:     "Tornado Warning",
			AreaDesc:  "Harris County, TX; Montgomery County, TX",
			Effective: day.Add(21*time.Hour + 45*time.Minute),
		},
		{
			ID:        "urn:oid:2.49.0.1.840.0.demo-tstorm",
			Event:     "Severe Thunderstorm Warning",
			AreaDesc:  "Waller, TX",
			Effective: day.Add(21*time.Hour + 30*time.Minute),
			Geometry:  &geometry,
		},
		{
			ID:        "urn:oid:2.49.0.1.840.0.demo-flood",
			Event:     "Flood Warning",
			AreaDesc:  "Harris County, TX",
			Effective: day.Add(22 * time.Hour),
		},
	}

	for _, alert := range alerts {
		fmt.Printf("Alert: %s\n", alert.Event)
		fmt.Printf("  Area:      %s\n", alert.AreaDesc)
		fmt.Printf("  Effective: %s\n", alert.Effective.Format(time.RFC3339))

		types := matching.EligibleReportTypes(alert.Event)
		if len(types) == 0 {
			fmt.Println("  Outcome:   skipped (event not eligible for verification)")
			fmt.Println()
			continue
		}

		area := resolver.Resolve(ctx, alert)
		window := matching.WindowAround(alert.Effective)

		candidates, method, err := finder.Find(ctx, area, types, window)
		if err != nil {
			fmt.Printf("  Outcome:   error: %v\n\n", err)
			continue
		}

		outcome := matching.Score(candidates, method)

		fmt.Printf("  Window:    %s .. %s\n",
			window.Start.Format("15:04"), window.End.Format("15:04"))
		fmt.Printf("  Outcome:   method=%s confidence=%.1f reports=%d\n",
			outcome.Method, outcome.Confidence, len(outcome.Reports))

		for _, r := range outcome.Reports {
			fmt.Printf("    - %s %s %s, %s (%s)\n",
				r.ReportType, r.TimeUTC, r.County, r.State, r.Location)
		}
		fmt.Println()
	}

	fmt.Println("Demonstration complete.")
}
