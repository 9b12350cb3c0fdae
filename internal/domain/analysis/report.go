package analysis

import (
	"fmt"

	"github.com/bryanwahyu/constrite/internal/domain/risk"
)

// Summary is the headline block of a safety report.
type Summary struct {
	TotalWorkers          int        `json:"total_workers"`
	ComplianceRate        string     `json:"compliance_rate"`
	RiskLevel             risk.Level `json:"risk_level"`
	CriticalIssues        int        `json:"critical_issues"`
	TotalWarnings         int        `json:"total_warnings"`
	ImmediateActionNeeded bool       `json:"immediate_action_needed"`
}

// Report bundles everything derived from one analysis.
type Report struct {
	Analysis   *Result         `json:"analysis"`
	Assessment risk.Assessment `json:"risk_assessment"`
	Actions    []Action        `json:"prioritized_actions"`
	Financial  risk.Financial  `json:"financial_impact"`
	Summary    Summary         `json:"summary"`
}

// BuildReport scores the result and assembles the full report.
func BuildReport(r *Result, rounding risk.Rounding) (*Report, error) {
	a, err := r.Assess(rounding)
	if err != nil {
		return nil, err
	}
	return &Report{
		Analysis:   r,
		Assessment: a,
		Actions:    PrioritizeActions(r),
		Financial:  risk.FinancialImpact(r.PotentialFine, r.EstimatedComplianceCost),
		Summary: Summary{
			TotalWorkers:          r.TotalWorkers,
			ComplianceRate:        fmt.Sprintf("%g%%", r.ComplianceOrZero()),
			RiskLevel:             a.Level,
			CriticalIssues:        len(r.CriticalViolations),
			TotalWarnings:         len(r.Warnings),
			ImmediateActionNeeded: a.Urgency == risk.UrgencyImmediate || a.Urgency == risk.Urgency24Hours,
		},
	}, nil
}
