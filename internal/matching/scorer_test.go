package matching

import (
	"testing"

	"storm-platform/internal/models"
)

func TestScore(t *testing.T) {
	reports := []*models.Report{{ID: 1}, {ID: 2}}

	tests := []struct {
		name           string
		candidates     []*models.Report
		method         models.MatchMethod
		wantMethod     models.MatchMethod
		wantConfidence float64
		wantMatched    bool
	}{
		{
			name:           "county match scores 0.9",
			candidates:     reports,
			method:         models.MatchMethodFIPS,
			wantMethod:     models.MatchMethodFIPS,
			wantConfidence: 0.9,
			wantMatched:    true,
		},
		{
			name:           "proximity match scores 0.7",
			candidates:     reports,
			method:         models.MatchMethodLatLon,
			wantMethod:     models.MatchMethodLatLon,
			wantConfidence: 0.7,
			wantMatched:    true,
		},
		{
			name:           "no candidates scores zero",
			candidates:     nil,
			method:         models.MatchMethodNone,
			wantMethod:     models.MatchMethodNone,
			wantConfidence: 0.0,
			wantMatched:    false,
		},
		{
			name:           "candidates with method none still score zero",
			candidates:     reports,
			method:         models.MatchMethodNone,
			wantMethod:     models.MatchMethodNone,
			wantConfidence: 0.0,
			wantMatched:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Score(tt.candidates, tt.method)

			if outcome.Method != tt.wantMethod {
				t.Errorf("Method = %v, want %v", outcome.Method, tt.wantMethod)
			}
			if outcome.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %v, want %v", outcome.Confidence, tt.wantConfidence)
			}
			if outcome.Matched() != tt.wantMatched {
				t.Errorf("Matched() = %v, want %v", outcome.Matched(), tt.wantMatched)
			}
		})
	}
}

func TestConfidenceFor(t *testing.T) {
	if got := ConfidenceFor(models.MatchMethodFIPS); got != ConfidenceFIPS {
		t.Errorf("ConfidenceFor(fips) = %v, want %v", got, ConfidenceFIPS)
	}
	if got := ConfidenceFor(models.MatchMethodLatLon); got != ConfidenceLatLon {
		t.Errorf("ConfidenceFor(latlon) = %v, want %v", got, ConfidenceLatLon)
	}
	if got := ConfidenceFor(models.MatchMethodNone); got != ConfidenceNone {
		t.Errorf("ConfidenceFor(none) = %v, want %v", got, ConfidenceNone)
	}
}
