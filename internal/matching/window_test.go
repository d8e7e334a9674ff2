package matching

import (
	"testing"
	"time"
)

func TestWindowAround(t *testing.T) {
	tests := []struct {
		name      string
		effective time.Time
		wantStart time.Time
		wantEnd   time.Time
		wantDates []time.Time
	}{
		{
			name:      "mid-day window stays on one date",
			effective: time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC),
			wantStart: time.Date(2024, 5, 14, 10, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 5, 14, 14, 0, 0, 0, time.UTC),
			wantDates: []time.Time{
				time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:      "window crossing midnight spans two dates",
			effective: time.Date(2024, 5, 14, 23, 30, 0, 0, time.UTC),
			wantStart: time.Date(2024, 5, 14, 21, 30, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 5, 15, 1, 30, 0, 0, time.UTC),
			wantDates: []time.Time{
				time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:      "window before midnight spans backwards",
			effective: time.Date(2024, 5, 14, 0, 30, 0, 0, time.UTC),
			wantStart: time.Date(2024, 5, 13, 22, 30, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 5, 14, 2, 30, 0, 0, time.UTC),
			wantDates: []time.Time{
				time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:      "non-UTC input is normalized to UTC days",
			effective: time.Date(2024, 5, 14, 18, 30, 0, 0, time.FixedZone("CDT", -5*3600)),
			wantStart: time.Date(2024, 5, 14, 21, 30, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 5, 15, 1, 30, 0, 0, time.UTC),
			wantDates: []time.Time{
				time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC),
				time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := WindowAround(tt.effective)

			if !w.Start.Equal(tt.wantStart) {
				t.Errorf("Start = %v, want %v", w.Start, tt.wantStart)
			}
			if !w.End.Equal(tt.wantEnd) {
				t.Errorf("End = %v, want %v", w.End, tt.wantEnd)
			}
			if len(w.Dates) != len(tt.wantDates) {
				t.Fatalf("Dates = %v, want %v", w.Dates, tt.wantDates)
			}
			for i := range w.Dates {
				if !w.Dates[i].Equal(tt.wantDates[i]) {
					t.Errorf("Dates[%d] = %v, want %v", i, w.Dates[i], tt.wantDates[i])
				}
			}
		})
	}
}

func TestWindowContains(t *testing.T) {
	effective := time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC)
	w := WindowAround(effective)

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"at effective time", effective, true},
		{"exactly at start boundary", effective.Add(-2 * time.Hour), true},
		{"exactly at end boundary", effective.Add(2 * time.Hour), true},
		{"just inside end", effective.Add(1*time.Hour + 59*time.Minute), true},
		{"one minute past end", effective.Add(2*time.Hour + time.Minute), false},
		{"one minute before start", effective.Add(-2*time.Hour - time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.t); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}
