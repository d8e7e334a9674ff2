package models

import (
	"time"
)

// MatchMethod records how an alert was verified against storm reports
type MatchMethod string

const (
	// MatchMethodFIPS means an exact county+state match produced the reports
	MatchMethodFIPS MatchMethod = "fips"
	// MatchMethodLatLon means the great-circle proximity fallback produced them
	MatchMethodLatLon MatchMethod = "latlon"
	// MatchMethodNone means verification ran and found nothing
	MatchMethodNone MatchMethod = "none"
)

// Valid reports whether the method is one of the known tags
func (m MatchMethod) Valid() bool {
	switch m {
	case MatchMethodFIPS, MatchMethodLatLon, MatchMethodNone:
		return true
	}
	return false
}

// Alert is a severe-weather alert record. Created by ingestion; the
// verification fields (Verified, MatchMethod, ConfidenceScore, ReportCount,
// Reports, VerifiedAt) are written exclusively by the verification engine,
// and Summary exclusively by the downstream summarizer.
type Alert struct {
	ID        string    `json:"id" db:"id"`
	Event     string    `json:"event" db:"event"`
	AreaDesc  string    `json:"area_desc" db:"area_desc"`
	Effective time.Time `json:"effective" db:"effective"`
	Expires   time.Time `json:"expires" db:"expires"`

	// Raw GeoJSON geometry (Point, Polygon, or MultiPolygon), NULL when the
	// source alert carried none. The bounding box is derived at ingestion
	// time and used for display only, never for matching.
	Geometry *string  `json:"geometry,omitempty" db:"geometry"`
	MinLat   *float64 `json:"min_lat,omitempty" db:"min_lat"`
	MinLon   *float64 `json:"min_lon,omitempty" db:"min_lon"`
	MaxLat   *float64 `json:"max_lat,omitempty" db:"max_lat"`
	MaxLon   *float64 `json:"max_lon,omitempty" db:"max_lon"`

	Verified        *bool           `json:"verified,omitempty" db:"verified"`
	MatchMethod     *MatchMethod    `json:"match_method,omitempty" db:"match_method"`
	ConfidenceScore *float64        `json:"confidence_score,omitempty" db:"confidence_score"`
	ReportCount     int             `json:"report_count" db:"report_count"`
	Reports         ReportSnapshots `json:"reports" db:"reports"`
	VerifiedAt      *time.Time      `json:"verified_at,omitempty" db:"verified_at"`

	Summary *string `json:"summary,omitempty" db:"summary"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// VerificationAttempted distinguishes "attempted, found nothing" (method set
// to none) from "never attempted" (no method at all). Both are eligible for
// selection; only a successful run is terminal.
func (a *Alert) VerificationAttempted() bool {
	return a.MatchMethod != nil
}

// IsVerified reports whether verification succeeded
func (a *Alert) IsVerified() bool {
	return a.Verified != nil && *a.Verified
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
