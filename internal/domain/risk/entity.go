package risk

// Level is the risk tier derived from a score.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Urgency is the recommended response window for a tier.
type Urgency string

const (
	UrgencyWeekly    Urgency = "WEEKLY"
	Urgency48Hours   Urgency = "48_HOURS"
	Urgency24Hours   Urgency = "24_HOURS"
	UrgencyImmediate Urgency = "IMMEDIATE"
)

// Levels lists the tiers from least to most severe.
var Levels = []Level{LevelLow, LevelMedium, LevelHigh, LevelCritical}

// ParseLevel accepts a tier name in any case.
func ParseLevel(s string) (Level, bool) {
	for _, l := range Levels {
		if equalFold(string(l), s) {
			return l, true
		}
	}
	return "", false
}

// Input holds the counts the scoring rules look at.
// CompliancePercent is nil when the analysis did not report one.
type Input struct {
	Critical          int      `json:"critical"`
	HighWarnings      int      `json:"high_warnings"`
	MediumWarnings    int      `json:"medium_warnings"`
	CompliancePercent *float64 `json:"compliance_percent,omitempty"`
}

// Assessment is the scoring output consumed by the presentation layer.
type Assessment struct {
	Score                int      `json:"risk_score"`
	Level                Level    `json:"risk_level"`
	Urgency              Urgency  `json:"action_urgency"`
	Recommendation       string   `json:"recommendation"`
	Color                string   `json:"risk_color"`
	CriticalCount        int      `json:"critical_count"`
	WarningCount         int      `json:"warning_count"`
	CompliancePercentage *float64 `json:"compliance_percentage,omitempty"`
}
