package matching

import (
	"context"
	"math"
	"time"

	"storm-platform/internal/models"
	"storm-platform/pkg/logging"
)

// ProximityRadiusMiles bounds the phase-2 great-circle fallback. Inclusive:
// a report at exactly 25.0 miles is a candidate. Fixed by design, like the
// time window.
const ProximityRadiusMiles = 25.0

const earthRadiusMiles = 3958.8

// ReportStore is the read-only report access the finder needs
type ReportStore interface {
	// FindByCountyState returns reports on any of the given dates with a
	// county and state in the given sets. Matching is case-insensitive
	// exact equality on the text values.
	FindByCountyState(ctx context.Context, dates []time.Time, types []models.ReportType, states, counties []string) ([]*models.Report, error)

	// FindLocated returns reports on any of the given dates that carry
	// both latitude and longitude.
	FindLocated(ctx context.Context, dates []time.Time, types []models.ReportType) ([]*models.Report, error)
}

// CandidateFinder locates storm reports that may corroborate an alert using
// a two-phase strategy: exact county+state match first, great-circle
// proximity only as a fallback.
type CandidateFinder struct {
	reports ReportStore
	logger  *logging.StructuredLogger
}

// NewCandidateFinder creates a new candidate finder
func NewCandidateFinder(reports ReportStore, logger *logging.StructuredLogger) *CandidateFinder {
	return &CandidateFinder{
		reports: reports,
		logger:  logger,
	}
}

// Find returns the candidate reports for an alert's search space together
// with the method that produced them. Phase 2 runs only when phase 1 yields
// nothing: the 25-mile radius is deliberately loose and would produce false
// positives if always consulted, so the method is binary per alert, never a
// blend of both phases.
func (f *CandidateFinder) Find(ctx context.Context, area GeoArea, types []models.ReportType, w Window) ([]*models.Report, models.MatchMethod, error) {
	if len(types) == 0 {
		return nil, models.MatchMethodNone, nil
	}

	// Phase 1: exact county+state match
	if area.HasCountyData() {
		rows, err := f.reports.FindByCountyState(ctx, w.Dates, types, area.States, area.Counties)
		if err != nil {
			return nil, models.MatchMethodNone, err
		}

		if candidates := filterByWindow(rows, w); len(candidates) > 0 {
			f.logger.Debug(ctx, "[CANDIDATES_FIPS] County match found", logging.Fields{
				"candidate_count": len(candidates),
				"counties":        area.Counties,
				"states":          area.States,
			})
			return candidates, models.MatchMethodFIPS, nil
		}
	}

	// Phase 2: proximity fallback, needs a centroid to measure from
	if area.Centroid == nil {
		return nil, models.MatchMethodNone, nil
	}

	rows, err := f.reports.FindLocated(ctx, w.Dates, types)
	if err != nil {
		return nil, models.MatchMethodNone, err
	}

	var near []*models.Report
	for _, r := range rows {
		if !r.HasCoordinates() {
			continue
		}
		d := Haversine(area.Centroid.Lat, area.Centroid.Lon, *r.Latitude, *r.Longitude)
		if d <= ProximityRadiusMiles {
			near = append(near, r)
		}
	}

	if candidates := filterByWindow(near, w); len(candidates) > 0 {
		f.logger.Debug(ctx, "[CANDIDATES_LATLON] Proximity match found", logging.Fields{
			"candidate_count": len(candidates),
			"centroid_lat":    area.Centroid.Lat,
			"centroid_lon":    area.Centroid.Lon,
		})
		return candidates, models.MatchMethodLatLon, nil
	}

	return nil, models.MatchMethodNone, nil
}

// filterByWindow keeps reports whose reconstructed UTC instant falls inside
// the window. A report with a missing or unparseable time is kept: when time
// data is degraded the engine prefers a false positive over silently dropping
// a legitimate location-based match.
func filterByWindow(reports []*models.Report, w Window) []*models.Report {
	var kept []*models.Report
	for _, r := range reports {
		instant, ok := r.Instant()
		if !ok || w.Contains(instant) {
			kept = append(kept, r)
		}
	}
	return kept
}

// Haversine returns the great-circle distance in miles between two WGS-84
// coordinate pairs
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180

	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMiles * c
}
