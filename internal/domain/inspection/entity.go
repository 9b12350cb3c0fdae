package inspection

import (
	"strings"
	"time"

	"github.com/bryanwahyu/constrite/internal/domain/analysis"
	"github.com/bryanwahyu/constrite/internal/domain/risk"
)

// Status tracks follow-up on an inspection.
type Status string

const (
	StatusActive     Status = "active"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusArchived   Status = "archived"
)

// Statuses lists every valid status.
var Statuses = []Status{StatusActive, StatusInProgress, StatusResolved, StatusArchived}

// ParseStatus accepts a status name in any case.
func ParseStatus(s string) (Status, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// SiteInfo describes where a photo was taken.
type SiteInfo struct {
	SiteID      string `json:"site_id"`
	Location    string `json:"location,omitempty"`
	Contractor  string `json:"contractor,omitempty"`
	ProjectType string `json:"project_type,omitempty"`
}

// Inspection is one analysed photo with its score and follow-up state.
type Inspection struct {
	ID         string           `json:"id"`
	Site       SiteInfo         `json:"site"`
	CreatedBy  string           `json:"created_by,omitempty"`
	Analysis   *analysis.Result `json:"analysis"`
	Assessment risk.Assessment  `json:"risk_assessment"`
	Financial  risk.Financial   `json:"financial_impact"`
	ImageKey   string           `json:"image_key,omitempty"`
	ImageURL   string           `json:"image_url,omitempty"`
	Status     Status           `json:"status"`
	Notes      string           `json:"notes,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Statistics aggregates every stored inspection.
type Statistics struct {
	TotalInspections        int                `json:"total_inspections"`
	TotalWorkers            int                `json:"total_workers_monitored"`
	AverageCompliance       float64            `json:"average_compliance"`
	RiskDistribution        map[risk.Level]int `json:"risk_distribution"`
	TotalCriticalViolations int                `json:"total_critical_violations"`
	TotalWarnings           int                `json:"total_warnings"`
}

// NewStatistics returns zeroed statistics with every tier present.
func NewStatistics() Statistics {
	dist := make(map[risk.Level]int, len(risk.Levels))
	for _, l := range risk.Levels {
		dist[l] = 0
	}
	return Statistics{RiskDistribution: dist}
}

// Failure records an analysis that could not be completed.
type Failure struct {
	ID        int64     `json:"id"`
	SiteID    string    `json:"site_id,omitempty"`
	ImageName string    `json:"image_name,omitempty"`
	Stage     string    `json:"stage"` // vision | parse | score
	Message   string    `json:"message"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Failure stages.
const (
	StageVision = "vision"
	StageParse  = "parse"
	StageScore  = "score"
)
