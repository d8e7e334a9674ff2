package matching

import (
	"context"
	"strings"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"storm-platform/internal/models"
	"storm-platform/pkg/logging"
)

// Coordinate is a WGS-84 latitude/longitude pair
type Coordinate struct {
	Lat float64
	Lon float64
}

// GeoArea is the geographic search space extracted from an alert: county and
// state names parsed from the area description, and a centroid derived from
// the alert geometry when present. Partial results are normal; callers must
// handle counties without a centroid and vice versa.
type GeoArea struct {
	// Counties holds comparison names: the " County"/" Parish" suffix is
	// stripped so they line up with SPC report county text. The canonical
	// name, suffix included, stays in the alert's area description.
	Counties []string
	States   []string
	Centroid *Coordinate
}

// HasCountyData reports whether the area carries enough text data for an
// exact county+state match
func (a GeoArea) HasCountyData() bool {
	return len(a.Counties) > 0 && len(a.States) > 0
}

// GeoResolver extracts counties, states, and a centroid from a loosely
// structured alert
type GeoResolver struct {
	logger *logging.StructuredLogger
}

// NewGeoResolver creates a new geo resolver
func NewGeoResolver(logger *logging.StructuredLogger) *GeoResolver {
	return &GeoResolver{logger: logger}
}

// Resolve extracts the geographic search space for an alert. Malformed area
// text or geometry degrades to a partial result, never an error.
func (g *GeoResolver) Resolve(ctx context.Context, alert *models.Alert) GeoArea {
	area := GeoArea{}
	area.Counties, area.States = parseAreaDesc(alert.AreaDesc)

	if alert.Geometry != nil {
		if c, ok := GeometryCentroid([]byte(*alert.Geometry)); ok {
			area.Centroid = &c
		} else {
			g.logger.Debug(ctx, "[GEO_RESOLVE] Unusable alert geometry", logging.Fields{
				"alert_id": alert.ID,
			})
		}
	}

	return area
}

// parseAreaDesc splits a semicolon-separated area description into county and
// state lists. Each segment of the form "<name>, <2-letter-code>" contributes
// one pair; anything else is ignored.
func parseAreaDesc(areaDesc string) (counties, states []string) {
	seenCounty := make(map[string]bool)
	seenState := make(map[string]bool)

	for _, segment := range strings.Split(areaDesc, ";") {
		comma := strings.LastIndex(segment, ",")
		if comma < 0 {
			continue
		}

		name := strings.TrimSpace(segment[:comma])
		code := strings.TrimSpace(segment[comma+1:])
		if name == "" || !isStateCode(code) {
			continue
		}

		county := stripCountySuffix(name)
		state := strings.ToUpper(code)

		if !seenCounty[strings.ToLower(county)] {
			seenCounty[strings.ToLower(county)] = true
			counties = append(counties, county)
		}
		if !seenState[state] {
			seenState[state] = true
			states = append(states, state)
		}
	}

	return counties, states
}

// stripCountySuffix removes the " County"/" Parish" suffix for comparison
// against SPC report county text, which carries bare names.
func stripCountySuffix(name string) string {
	for _, suffix := range []string{" County", " Parish"} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSpace(strings.TrimSuffix(name, suffix))
		}
	}
	return name
}

func isStateCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, c := range code {
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

// GeometryCentroid derives a representative point from raw GeoJSON geometry.
// Points are used directly; Polygon and MultiPolygon use the arithmetic mean
// of the outer-ring vertices. That is knowingly not an area-weighted
// centroid: the value only feeds the coarse proximity filter, never output.
func GeometryCentroid(data []byte) (Coordinate, bool) {
	var g geom.T
	if err := geojson.Unmarshal(data, &g); err != nil {
		return Coordinate{}, false
	}

	switch t := g.(type) {
	case *geom.Point:
		return Coordinate{Lat: t.Y(), Lon: t.X()}, true
	case *geom.Polygon:
		return ringMean(outerRingCoords(t))
	case *geom.MultiPolygon:
		var coords []geom.Coord
		for i := 0; i < t.NumPolygons(); i++ {
			coords = append(coords, outerRingCoords(t.Polygon(i))...)
		}
		return ringMean(coords)
	}

	return Coordinate{}, false
}

// GeometryBounds derives the bounding box of raw GeoJSON geometry, for
// display purposes. Returns false for absent or malformed geometry.
func GeometryBounds(data []byte) (minLat, minLon, maxLat, maxLon float64, ok bool) {
	var g geom.T
	if err := geojson.Unmarshal(data, &g); err != nil {
		return 0, 0, 0, 0, false
	}

	b := g.Bounds()
	if b.IsEmpty() {
		return 0, 0, 0, 0, false
	}

	return b.Min(1), b.Min(0), b.Max(1), b.Max(0), true
}

// outerRingCoords returns the vertices of a polygon's outer ring, dropping
// the GeoJSON closing vertex so it is not counted twice.
func outerRingCoords(p *geom.Polygon) []geom.Coord {
	if p.NumLinearRings() == 0 {
		return nil
	}

	coords := p.LinearRing(0).Coords()
	if len(coords) > 1 && coords[0].Equal(geom.XY, coords[len(coords)-1]) {
		coords = coords[:len(coords)-1]
	}
	return coords
}

func ringMean(coords []geom.Coord) (Coordinate, bool) {
	if len(coords) == 0 {
		return Coordinate{}, false
	}

	var sumLat, sumLon float64
	for _, c := range coords {
		sumLon += c[0]
		sumLat += c[1]
	}

	n := float64(len(coords))
	return Coordinate{Lat: sumLat / n, Lon: sumLon / n}, true
}
