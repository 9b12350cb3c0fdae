package inspection

import (
	"time"

	"github.com/bryanwahyu/constrite/internal/domain/analysis"
	"github.com/bryanwahyu/constrite/internal/domain/risk"
)

// Violation kinds stored with an event.
const (
	KindCritical = "critical"
	KindWarning  = "warning"
)

// EventViolation is one flattened finding of an event.
type EventViolation struct {
	Kind         string `json:"kind"`
	Description  string `json:"description"`
	StandardCode string `json:"bis_code,omitempty"`
	Severity     string `json:"severity,omitempty"`
}

// Event is the append-only analytics row written per inspection.
type Event struct {
	InspectionID        string           `json:"inspection_id"`
	Timestamp           time.Time        `json:"timestamp"`
	SiteID              string           `json:"site_id"`
	Location            string           `json:"location,omitempty"`
	Contractor          string           `json:"contractor,omitempty"`
	ProjectType         string           `json:"project_type,omitempty"`
	TotalWorkers        int              `json:"total_workers"`
	CompliantWorkers    int              `json:"compliant_workers"`
	NonCompliantWorkers int              `json:"non_compliant_workers"`
	ComplianceScore     *float64         `json:"compliance_score,omitempty"`
	RiskScore           int              `json:"risk_score"`
	RiskLevel           risk.Level       `json:"risk_level"`
	CriticalCount       int              `json:"critical_count"`
	WarningCount        int              `json:"warning_count"`
	ImageURL            string           `json:"image_url,omitempty"`
	ProcessingMS        int64            `json:"processing_ms"`
	Violations          []EventViolation `json:"violations,omitempty"`
}

// NewEvent flattens an inspection into an analytics event.
func NewEvent(in *Inspection, processing time.Duration) *Event {
	ev := &Event{
		InspectionID:  in.ID,
		Timestamp:     in.CreatedAt,
		SiteID:        in.Site.SiteID,
		Location:      in.Site.Location,
		Contractor:    in.Site.Contractor,
		ProjectType:   in.Site.ProjectType,
		RiskScore:     in.Assessment.Score,
		RiskLevel:     in.Assessment.Level,
		CriticalCount: in.Assessment.CriticalCount,
		WarningCount:  in.Assessment.WarningCount,
		ImageURL:      in.ImageURL,
		ProcessingMS:  processing.Milliseconds(),
	}
	r := in.Analysis
	if r == nil {
		return ev
	}
	ev.TotalWorkers = r.TotalWorkers
	ev.CompliantWorkers = r.WorkersCompliant
	ev.NonCompliantWorkers = r.WorkersNonCompliant
	if r.OverallComplianceScore != nil {
		p := *r.OverallComplianceScore
		ev.ComplianceScore = &p
	}
	for _, v := range r.CriticalViolations {
		ev.Violations = append(ev.Violations, EventViolation{
			Kind:         KindCritical,
			Description:  v.Violation,
			StandardCode: v.StandardCode,
			Severity:     analysis.SeverityCritical,
		})
	}
	for _, v := range r.Warnings {
		ev.Violations = append(ev.Violations, EventViolation{
			Kind:         KindWarning,
			Description:  v.Violation,
			StandardCode: v.StandardCode,
			Severity:     analysis.WarningSeverity(v),
		})
	}
	return ev
}

// AnalyticsSummary aggregates events over a time window.
type AnalyticsSummary struct {
	Days                int                `json:"days"`
	TotalInspections    int                `json:"total_inspections"`
	UniqueSites         int                `json:"unique_sites"`
	TotalWorkers        int                `json:"total_workers"`
	AverageCompliance   float64            `json:"average_compliance"`
	AverageRiskScore    float64            `json:"average_risk_score"`
	TotalCritical       int                `json:"total_critical_violations"`
	TotalWarnings       int                `json:"total_warnings"`
	RiskDistribution    map[risk.Level]int `json:"risk_distribution"`
	AverageProcessingMS float64            `json:"average_processing_ms"`
}

// ViolationCount is how often a finding was reported.
type ViolationCount struct {
	Description  string `json:"violation"`
	StandardCode string `json:"bis_code,omitempty"`
	Count        int    `json:"count"`
}
