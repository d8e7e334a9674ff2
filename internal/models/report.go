package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportType classifies a storm report by hazard
type ReportType string

const (
	ReportTypeTornado ReportType = "tornado"
	ReportTypeWind    ReportType = "wind"
	ReportTypeHail    ReportType = "hail"
)

// Valid reports whether the type is one of the known hazard classes
func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeTornado, ReportTypeWind, ReportTypeHail:
		return true
	}
	return false
}

// MagnitudeKind tags the variant carried by a Magnitude value
type MagnitudeKind string

const (
	MagnitudeTornado MagnitudeKind = "tornado"
	MagnitudeWind    MagnitudeKind = "wind"
	MagnitudeHail    MagnitudeKind = "hail"
)

// Magnitude is a tagged union of the per-hazard magnitude encodings:
// F/EF scale text for tornadoes, speed in mph for wind, size in inches for
// hail. The matching engine never inspects the payload; only downstream
// consumers do. Stored as JSONB.
type Magnitude struct {
	Kind       MagnitudeKind `json:"kind,omitempty"`
	FScale     string        `json:"f_scale,omitempty"`
	SpeedMPH   int           `json:"speed_mph,omitempty"`
	SizeInches float64       `json:"size_inches,omitempty"`
}

// TornadoScale builds a tornado magnitude from an F/EF scale string
func TornadoScale(scale string) Magnitude {
	return Magnitude{Kind: MagnitudeTornado, FScale: scale}
}

// WindSpeed builds a wind magnitude from a speed in mph
func WindSpeed(mph int) Magnitude {
	return Magnitude{Kind: MagnitudeWind, SpeedMPH: mph}
}

// HailSize builds a hail magnitude from a stone size in inches
func HailSize(inches float64) Magnitude {
	return Magnitude{Kind: MagnitudeHail, SizeInches: inches}
}

// IsZero reports whether the magnitude carries no value
func (m Magnitude) IsZero() bool {
	return m.Kind == ""
}

// Value implements driver.Valuer for JSONB storage
func (m Magnitude) Value() (driver.Value, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal magnitude: %w", err)
	}
	return data, nil
}

// Scan implements sql.Scanner for JSONB storage
func (m *Magnitude) Scan(src interface{}) error {
	if src == nil {
		*m = Magnitude{}
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Magnitude", src)
	}

	return json.Unmarshal(data, m)
}

// Report is a ground-truth storm report derived from an SPC CSV row.
// Reports are immutable once ingested; the verification engine only reads them.
type Report struct {
	ID         int64      `json:"id" db:"id"`
	ReportType ReportType `json:"report_type" db:"report_type"`
	ReportDate time.Time  `json:"report_date" db:"report_date"`
	TimeUTC    string     `json:"time_utc" db:"time_utc"`
	Location   string     `json:"location" db:"location"`
	County     string     `json:"county" db:"county"`
	State      string     `json:"state" db:"state"`
	Latitude   *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude  *float64   `json:"longitude,omitempty" db:"longitude"`
	Comments   string     `json:"comments" db:"comments"`
	Magnitude  Magnitude  `json:"magnitude" db:"magnitude"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// HasCoordinates reports whether both latitude and longitude are present
func (r *Report) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Instant combines ReportDate with the HHMM TimeUTC string into a UTC
// timestamp. The second return value is false when the time is missing or
// unparseable; the source format is same-day only, so no cross-midnight
// handling is needed.
func (r *Report) Instant() (time.Time, bool) {
	if len(r.TimeUTC) != 4 {
		return time.Time{}, false
	}

	hour := 0
	minute := 0
	for i, c := range r.TimeUTC {
		if c < '0' || c > '9' {
			return time.Time{}, false
		}
		digit := int(c - '0')
		if i < 2 {
			hour = hour*10 + digit
		} else {
			minute = minute*10 + digit
		}
	}

	if hour > 23 || minute > 59 {
		return time.Time{}, false
	}

	d := r.ReportDate.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC), true
}

// ReportSnapshot is a denormalized copy of a report taken at match time.
// Snapshots are stored on the alert so later edits to the report row never
// retroactively change historical verification results.
type ReportSnapshot struct {
	ID         int64      `json:"id"`
	ReportType ReportType `json:"report_type"`
	ReportDate time.Time  `json:"report_date"`
	TimeUTC    string     `json:"time_utc"`
	Location   string     `json:"location"`
	County     string     `json:"county"`
	State      string     `json:"state"`
	Latitude   *float64   `json:"latitude,omitempty"`
	Longitude  *float64   `json:"longitude,omitempty"`
	Comments   string     `json:"comments"`
	Magnitude  Magnitude  `json:"magnitude"`
}

// SnapshotReport copies the report's current field values into a snapshot
func SnapshotReport(r *Report) ReportSnapshot {
	snap := ReportSnapshot{
		ID:         r.ID,
		ReportType: r.ReportType,
		ReportDate: r.ReportDate,
		TimeUTC:    r.TimeUTC,
		Location:   r.Location,
		County:     r.County,
		State:      r.State,
		Comments:   r.Comments,
		Magnitude:  r.Magnitude,
	}

	// Copy coordinate values, not pointers, so the snapshot is detached
	// from the live report row.
	if r.Latitude != nil {
		lat := *r.Latitude
		snap.Latitude = &lat
	}
	if r.Longitude != nil {
		lon := *r.Longitude
		snap.Longitude = &lon
	}

	return snap
}

// ReportSnapshots is the ordered snapshot list stored as a JSONB column
type ReportSnapshots []ReportSnapshot

// Value implements driver.Valuer for JSONB storage
func (s ReportSnapshots) Value() (driver.Value, error) {
	if s == nil {
		s = ReportSnapshots{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report snapshots: %w", err)
	}
	return data, nil
}

// Scan implements sql.Scanner for JSONB storage
func (s *ReportSnapshots) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into ReportSnapshots", src)
	}

	return json.Unmarshal(data, s)
}
