package matching

import (
	"strings"

	"storm-platform/internal/models"
)

// reportTypeTriggers maps each report type to the alert event phrases that
// make it eligible, compared case-insensitively as substrings. A single
// event can be eligible for several report types at once (a Severe
// Thunderstorm Warning corroborates from both wind and hail reports).
var reportTypeTriggers = map[models.ReportType][]string{
	models.ReportTypeTornado: {
		"tornado warning",
		"tornado watch",
	},
	models.ReportTypeWind: {
		"severe thunderstorm warning",
		"severe weather statement",
		"significant weather advisory",
	},
	models.ReportTypeHail: {
		"severe thunderstorm warning",
		"severe weather statement",
		"significant weather advisory",
	},
}

// eligibilityOrder keeps EligibleReportTypes deterministic
var eligibilityOrder = []models.ReportType{
	models.ReportTypeTornado,
	models.ReportTypeWind,
	models.ReportTypeHail,
}

// EligibleReportTypes returns the set of report types an alert event can be
// verified against. An empty result means the alert is outside the scope of
// ground-truth verification (e.g. a Flood Warning) and must be skipped
// without a store write.
func EligibleReportTypes(event string) []models.ReportType {
	lowered := strings.ToLower(event)

	var eligible []models.ReportType
	for _, rt := range eligibilityOrder {
		for _, phrase := range reportTypeTriggers[rt] {
			if strings.Contains(lowered, phrase) {
				eligible = append(eligible, rt)
				break
			}
		}
	}

	return eligible
}
