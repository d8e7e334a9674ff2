package matching

import (
	"testing"

	"storm-platform/internal/models"
)

func TestEligibleReportTypes(t *testing.T) {
	tests := []struct {
		name  string
		event string
		want  []models.ReportType
	}{
		{
			name:  "tornado warning",
			event: "Tornado Warning",
			want:  []models.ReportType{models.ReportTypeTornado},
		},
		{
			name:  "tornado watch",
			event: "Tornado Watch",
			want:  []models.ReportType{models.ReportTypeTornado},
		},
		{
			name:  "severe thunderstorm warning maps to wind and hail",
			event: "Severe Thunderstorm Warning",
			want:  []models.ReportType{models.ReportTypeWind, models.ReportTypeHail},
		},
		{
			name:  "severe weather statement maps to wind and hail",
			event: "Severe Weather Statement",
			want:  []models.ReportType{models.ReportTypeWind, models.ReportTypeHail},
		},
		{
			name:  "significant weather advisory maps to wind and hail",
			event: "Significant Weather Advisory",
			want:  []models.ReportType{models.ReportTypeWind, models.ReportTypeHail},
		},
		{
			name:  "case insensitive",
			event: "TORNADO WARNING",
			want:  []models.ReportType{models.ReportTypeTornado},
		},
		{
			name:  "substring match inside longer event text",
			event: "PDS Tornado Warning (observed)",
			want:  []models.ReportType{models.ReportTypeTornado},
		},
		{
			name:  "flood warning is not eligible",
			event: "Flood Warning",
			want:  nil,
		},
		{
			name:  "empty event",
			event: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EligibleReportTypes(tt.event)

			if len(got) != len(tt.want) {
				t.Fatalf("EligibleReportTypes(%q) = %v, want %v", tt.event, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("EligibleReportTypes(%q)[%d] = %v, want %v", tt.event, i, got[i], tt.want[i])
				}
			}
		})
	}
}
