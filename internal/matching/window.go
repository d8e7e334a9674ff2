package matching

import (
	"time"
)

// HalfWindow is the half-width of the verification search window around an
// alert's effective time. Fixed rather than configurable so verification
// windows stay comparable across the whole dataset.
const HalfWindow = 2 * time.Hour

// Window is the temporal search space for one alert: the inclusive
// [Start, End] range and every UTC calendar date it touches.
type Window struct {
	Start time.Time
	End   time.Time
	Dates []time.Time
}

// WindowAround computes the ±2h window for an alert effective time.
// Dates covers each UTC day in the range, which spans midnight whenever an
// alert falls within two hours of a day boundary.
func WindowAround(effective time.Time) Window {
	start := effective.UTC().Add(-HalfWindow)
	end := effective.UTC().Add(HalfWindow)

	w := Window{Start: start, End: end}

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	lastDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	for !day.After(lastDay) {
		w.Dates = append(w.Dates, day)
		day = day.AddDate(0, 0, 1)
	}

	return w
}

// Contains reports whether t falls inside the window, inclusive on both ends
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
