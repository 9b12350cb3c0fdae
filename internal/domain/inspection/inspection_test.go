package inspection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/constrite/internal/domain/analysis"
	"github.com/bryanwahyu/constrite/internal/domain/risk"
)

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus(" In_Progress ")
	assert.True(t, ok)
	assert.Equal(t, StatusInProgress, s)

	_, ok = ParseStatus("closed")
	assert.False(t, ok)
}

func TestObjectKey(t *testing.T) {
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.FixedZone("IST", 19800))
	assert.Equal(t, "sites/site-9/20250303_233607_0f8fad5b.jpg",
		ObjectKey("site-9", "0f8fad5b-d9cb-469f-a165-70867728950e", ".jpg", at))
	assert.Equal(t, "uploads/20250303_233607_abc.png", ObjectKey("", "abc", ".png", at))
}

func TestNewStatisticsHasEveryTier(t *testing.T) {
	st := NewStatistics()
	assert.Len(t, st.RiskDistribution, 4)
	assert.Zero(t, st.RiskDistribution[risk.LevelCritical])
}

func TestNewEvent(t *testing.T) {
	p := 62.5
	in := &Inspection{
		ID:        "abc",
		Site:      SiteInfo{SiteID: "s1", Location: "Pune", Contractor: "ACME"},
		CreatedAt: time.Unix(1700000000, 0).UTC(),
		Analysis: &analysis.Result{
			TotalWorkers:           5,
			WorkersCompliant:       3,
			WorkersNonCompliant:    2,
			OverallComplianceScore: &p,
			CriticalViolations:     []analysis.Violation{{Violation: "No helmet", StandardCode: "IS_2925_1984"}},
			Warnings:               []analysis.Violation{{Violation: "No vest", RiskLevel: "high"}, {Violation: "Clutter"}},
		},
		Assessment: risk.Assessment{Score: 30, Level: risk.LevelMedium, CriticalCount: 1, WarningCount: 2},
	}

	ev := NewEvent(in, 1500*time.Millisecond)
	assert.Equal(t, "abc", ev.InspectionID)
	assert.Equal(t, "s1", ev.SiteID)
	assert.Equal(t, int64(1500), ev.ProcessingMS)
	assert.Equal(t, 3, ev.CompliantWorkers)
	require.NotNil(t, ev.ComplianceScore)
	assert.Equal(t, 62.5, *ev.ComplianceScore)
	require.Len(t, ev.Violations, 3)
	assert.Equal(t, EventViolation{Kind: KindCritical, Description: "No helmet", StandardCode: "IS_2925_1984", Severity: "CRITICAL"}, ev.Violations[0])
	assert.Equal(t, "HIGH", ev.Violations[1].Severity)
	assert.Equal(t, "MEDIUM", ev.Violations[2].Severity)
}

func TestNewEventWithoutAnalysis(t *testing.T) {
	ev := NewEvent(&Inspection{ID: "x"}, 0)
	assert.Empty(t, ev.Violations)
	assert.Nil(t, ev.ComplianceScore)
}
