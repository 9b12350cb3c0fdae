package analysis

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/constrite/internal/domain/risk"
)

// Severity tags a model finding may carry.
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
)

// Violation is a single finding reported by the vision model.
type Violation struct {
	Violation      string   `json:"violation"`
	Location       string   `json:"location"`
	StandardCode   string   `json:"bis_code"`
	RiskLevel      string   `json:"risk_level,omitempty"`
	Confidence     *float64 `json:"confidence,omitempty"`
	Recommendation string   `json:"recommendation"`
}

// Result is the structured answer for one uploaded image.
// It is not modified after parsing.
type Result struct {
	TotalWorkers            int         `json:"total_workers"`
	WorkersCompliant        int         `json:"workers_compliant"`
	WorkersNonCompliant     int         `json:"workers_non_compliant"`
	CriticalViolations      []Violation `json:"critical_violations"`
	Warnings                []Violation `json:"warnings"`
	CompliantItems          []string    `json:"compliant_items"`
	OverallComplianceScore  *float64    `json:"overall_compliance_score,omitempty"`
	RiskAssessment          string      `json:"risk_assessment"`
	ImmediateActions        []string    `json:"immediate_actions"`
	EstimatedComplianceCost string      `json:"estimated_compliance_cost"`
	PotentialFine           string      `json:"potential_fine_if_inspected"`

	// Degraded marks a placeholder built when the model answer was unusable.
	Degraded bool `json:"degraded,omitempty"`
}

// WarningSeverity normalises a warning tag. Untagged warnings count as MEDIUM.
func WarningSeverity(v Violation) string {
	tag := strings.ToUpper(strings.TrimSpace(v.RiskLevel))
	if tag == "" {
		return SeverityMedium
	}
	return tag
}

// Validate rejects counts a model should never produce.
func (r *Result) Validate() error {
	switch {
	case r.TotalWorkers < 0:
		return fmt.Errorf("%w: total_workers %d is negative", risk.ErrInvalidInput, r.TotalWorkers)
	case r.WorkersCompliant < 0:
		return fmt.Errorf("%w: workers_compliant %d is negative", risk.ErrInvalidInput, r.WorkersCompliant)
	case r.WorkersNonCompliant < 0:
		return fmt.Errorf("%w: workers_non_compliant %d is negative", risk.ErrInvalidInput, r.WorkersNonCompliant)
	}
	return r.RiskInput().Validate()
}

// RiskInput reduces the result to the counts used by scoring.
// Warnings tagged anything other than HIGH or MEDIUM are ignored.
func (r *Result) RiskInput() risk.Input {
	in := risk.Input{Critical: len(r.CriticalViolations)}
	for _, w := range r.Warnings {
		switch WarningSeverity(w) {
		case SeverityHigh:
			in.HighWarnings++
		case SeverityMedium:
			in.MediumWarnings++
		}
	}
	if r.OverallComplianceScore != nil {
		p := *r.OverallComplianceScore
		in.CompliancePercent = &p
	}
	return in
}

// Assess validates and scores the result.
func (r *Result) Assess(rounding risk.Rounding) (risk.Assessment, error) {
	if err := r.Validate(); err != nil {
		return risk.Assessment{}, err
	}
	return risk.ScoreWith(r.RiskInput(), rounding)
}

// WarningsBySeverity returns the warnings carrying the given tag, in order.
func (r *Result) WarningsBySeverity(severity string) []Violation {
	var out []Violation
	for _, w := range r.Warnings {
		if WarningSeverity(w) == severity {
			out = append(out, w)
		}
	}
	return out
}

// ComplianceOrZero is the reported compliance score or 0.
func (r *Result) ComplianceOrZero() float64 {
	if r.OverallComplianceScore == nil {
		return 0
	}
	return *r.OverallComplianceScore
}
