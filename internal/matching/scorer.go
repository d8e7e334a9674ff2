package matching

import (
	"storm-platform/internal/models"
)

// Fixed confidence per match method. Any county match is uniformly
// high-confidence and any proximity match uniformly medium-confidence,
// regardless of exact distance or time offset; a scope-limiting decision,
// not a measurement.
const (
	ConfidenceFIPS   = 0.9
	ConfidenceLatLon = 0.7
	ConfidenceNone   = 0.0
)

// Outcome is the explicit result of matching one alert. A "no match" outcome
// carries MatchMethodNone with zero confidence so that an attempted-but-failed
// verification is distinguishable from one that never ran.
type Outcome struct {
	Method     models.MatchMethod
	Confidence float64
	Reports    []*models.Report
}

// Matched reports whether any corroborating report was found
func (o Outcome) Matched() bool {
	return len(o.Reports) > 0
}

// ConfidenceFor maps a match method to its fixed confidence score
func ConfidenceFor(method models.MatchMethod) float64 {
	switch method {
	case models.MatchMethodFIPS:
		return ConfidenceFIPS
	case models.MatchMethodLatLon:
		return ConfidenceLatLon
	default:
		return ConfidenceNone
	}
}

// Score resolves the candidate set and finder method into a final outcome
func Score(candidates []*models.Report, method models.MatchMethod) Outcome {
	if len(candidates) == 0 || method == models.MatchMethodNone {
		return Outcome{
			Method:     models.MatchMethodNone,
			Confidence: ConfidenceNone,
		}
	}

	return Outcome{
		Method:     method,
		Confidence: ConfidenceFor(method),
		Reports:    candidates,
	}
}
