package analysis

// Action is one corrective step in the site's action plan.
type Action struct {
	Priority      int    `json:"priority"`
	Urgency       string `json:"urgency"`
	Action        string `json:"action"`
	Violation     string `json:"violation"`
	Location      string `json:"location"`
	StandardCode  string `json:"bis_code"`
	EstimatedTime string `json:"estimated_time"`
	EstimatedCost string `json:"estimated_cost"`
}

type actionTier struct {
	urgency  string
	fallback string
	time     string
	cost     string
}

var (
	criticalTier = actionTier{"IMMEDIATE", "Address violation", "30 minutes", "Varies"}
	highTier     = actionTier{"HIGH", "Address warning", "1-2 hours", "Moderate"}
	mediumTier   = actionTier{"MEDIUM", "Address warning", "2-4 hours", "Low-Moderate"}
)

// PrioritizeActions orders fixes: critical violations, then HIGH warnings,
// then MEDIUM warnings. Priorities start at 1.
func PrioritizeActions(r *Result) []Action {
	out := make([]Action, 0, len(r.CriticalViolations)+len(r.Warnings))
	add := func(vs []Violation, tier actionTier) {
		for _, v := range vs {
			out = append(out, Action{
				Priority:      len(out) + 1,
				Urgency:       tier.urgency,
				Action:        orDefault(v.Recommendation, tier.fallback),
				Violation:     orDefault(v.Violation, "Unknown"),
				Location:      orDefault(v.Location, "Unknown"),
				StandardCode:  orDefault(v.StandardCode, "N/A"),
				EstimatedTime: tier.time,
				EstimatedCost: tier.cost,
			})
		}
	}
	add(r.CriticalViolations, criticalTier)
	add(r.WarningsBySeverity(SeverityHigh), highTier)
	add(r.WarningsBySeverity(SeverityMedium), mediumTier)
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
