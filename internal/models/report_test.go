package models

import (
	"testing"
	"time"
)

func TestReportInstant(t *testing.T) {
	date := time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		timeUTC string
		want    time.Time
		wantOK  bool
	}{
		{
			name:    "valid afternoon time",
			timeUTC: "2130",
			want:    time.Date(2024, 5, 14, 21, 30, 0, 0, time.UTC),
			wantOK:  true,
		},
		{
			name:    "midnight",
			timeUTC: "0000",
			want:    time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC),
			wantOK:  true,
		},
		{
			name:    "last minute of day",
			timeUTC: "2359",
			want:    time.Date(2024, 5, 14, 23, 59, 0, 0, time.UTC),
			wantOK:  true,
		},
		{
			name:    "empty time",
			timeUTC: "",
			wantOK:  false,
		},
		{
			name:    "too short",
			timeUTC: "930",
			wantOK:  false,
		},
		{
			name:    "non-digit characters",
			timeUTC: "21x0",
			wantOK:  false,
		},
		{
			name:    "hour out of range",
			timeUTC: "2460",
			wantOK:  false,
		},
		{
			name:    "minute out of range",
			timeUTC: "1260",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Report{ReportDate: date, TimeUTC: tt.timeUTC}

			got, ok := r.Instant()
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("Instant() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSnapshotReportDetachesCoordinates(t *testing.T) {
	lat := 29.99
	lon := -95.68
	report := &Report{
		ID:         7,
		ReportType: ReportTypeTornado,
		ReportDate: time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC),
		TimeUTC:    "2130",
		Location:   "2 N Cypress",
		County:     "Harris",
		State:      "TX",
		Latitude:   &lat,
		Longitude:  &lon,
		Magnitude:  TornadoScale("EF1"),
	}

	snap := SnapshotReport(report)

	if snap.ID != report.ID || snap.County != report.County || snap.TimeUTC != report.TimeUTC {
		t.Error("snapshot fields do not match source report")
	}
	if snap.Magnitude.Kind != MagnitudeTornado || snap.Magnitude.FScale != "EF1" {
		t.Errorf("snapshot magnitude = %+v, want tornado EF1", snap.Magnitude)
	}

	// Mutating the live report must not change the snapshot
	lat = 0
	lon = 0
	if *snap.Latitude != 29.99 || *snap.Longitude != -95.68 {
		t.Error("snapshot coordinates must be detached from the report's pointers")
	}
}

func TestMagnitudeJSONB(t *testing.T) {
	tests := []struct {
		name string
		mag  Magnitude
	}{
		{"tornado scale", TornadoScale("EF2")},
		{"wind speed", WindSpeed(70)},
		{"hail size", HailSize(1.75)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.mag.Value()
			if err != nil {
				t.Fatalf("Value() error: %v", err)
			}

			var got Magnitude
			if err := got.Scan(v); err != nil {
				t.Fatalf("Scan() error: %v", err)
			}

			if got != tt.mag {
				t.Errorf("round trip = %+v, want %+v", got, tt.mag)
			}
		})
	}

	var empty Magnitude
	if err := empty.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) error: %v", err)
	}
	if !empty.IsZero() {
		t.Error("scanning NULL should yield a zero magnitude")
	}
}

func TestReportTypeValid(t *testing.T) {
	for _, rt := range []ReportType{ReportTypeTornado, ReportTypeWind, ReportTypeHail} {
		if !rt.Valid() {
			t.Errorf("%v should be valid", rt)
		}
	}
	if ReportType("flood").Valid() {
		t.Error("unknown report type should be invalid")
	}
}
