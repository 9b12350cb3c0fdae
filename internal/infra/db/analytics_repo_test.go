package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/constrite/internal/domain/inspection"
	"github.com/bryanwahyu/constrite/internal/domain/risk"
)

func event(id, site string, at time.Time, level risk.Level, score int, compliance *float64, violations ...string) *inspection.Event {
	ev := &inspection.Event{
		InspectionID:    id,
		Timestamp:       at,
		SiteID:          site,
		TotalWorkers:    3,
		ComplianceScore: compliance,
		RiskScore:       score,
		RiskLevel:       level,
		ProcessingMS:    1000,
	}
	for _, v := range violations {
		ev.Violations = append(ev.Violations, inspection.EventViolation{Kind: inspection.KindCritical, Description: v, Severity: "CRITICAL"})
		ev.CriticalCount++
	}
	return ev
}

func newAnalytics(t *testing.T, now time.Time) *AnalyticsRepository {
	r := NewAnalyticsRepository(newTestDB(t), SQLite)
	r.Now = func() time.Time { return now }
	return r
}

func TestAnalyticsSummaryWindow(t *testing.T) {
	ctx := context.Background()
	now := base.AddDate(0, 0, 30)
	r := newAnalytics(t, now)

	require.NoError(t, r.Log(ctx, event("old", "a", base, risk.LevelLow, 10, pct(90))))
	require.NoError(t, r.Log(ctx, event("e1", "a", now.AddDate(0, 0, -2), risk.LevelHigh, 60, pct(40), "No helmet", "No harness")))
	require.NoError(t, r.Log(ctx, event("e2", "b", now.AddDate(0, 0, -1), risk.LevelCritical, 80, nil, "No helmet")))

	sum, err := r.Summary(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, sum.Days)
	assert.Equal(t, 2, sum.TotalInspections)
	assert.Equal(t, 2, sum.UniqueSites)
	assert.Equal(t, 6, sum.TotalWorkers)
	assert.Equal(t, 40.0, sum.AverageCompliance)
	assert.Equal(t, 70.0, sum.AverageRiskScore)
	assert.Equal(t, 3, sum.TotalCritical)
	assert.Equal(t, 1000.0, sum.AverageProcessingMS)
	assert.Equal(t, 1, sum.RiskDistribution[risk.LevelHigh])
	assert.Equal(t, 1, sum.RiskDistribution[risk.LevelCritical])
	assert.Equal(t, 0, sum.RiskDistribution[risk.LevelLow])

	all, err := r.Summary(ctx, 60)
	require.NoError(t, err)
	assert.Equal(t, 3, all.TotalInspections)
}

func TestAnalyticsHistoryAndEvents(t *testing.T) {
	ctx := context.Background()
	r := newAnalytics(t, base.AddDate(0, 0, 10))

	require.NoError(t, r.Log(ctx, event("e1", "a", base.Add(time.Hour), risk.LevelLow, 5, pct(95))))
	require.NoError(t, r.Log(ctx, event("e2", "a", base.Add(2*time.Hour), risk.LevelMedium, 30, nil)))
	require.NoError(t, r.Log(ctx, event("e3", "b", base.Add(3*time.Hour), risk.LevelHigh, 55, pct(50))))

	hist, err := r.SiteHistory(ctx, "a", 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "e2", hist[0].InspectionID)
	assert.Nil(t, hist[0].ComplianceScore)
	assert.Equal(t, 95.0, *hist[1].ComplianceScore)
	assert.True(t, base.Add(time.Hour).Equal(hist[1].Timestamp))

	evs, err := r.Events(ctx, base.Add(90*time.Minute))
	require.NoError(t, err)
	require.Len(t, evs, 2)
	assert.Equal(t, "e2", evs[0].InspectionID)
	assert.Equal(t, "e3", evs[1].InspectionID)
	assert.Equal(t, risk.LevelHigh, evs[1].RiskLevel)
}

func TestCommonViolations(t *testing.T) {
	ctx := context.Background()
	r := newAnalytics(t, base)

	require.NoError(t, r.Log(ctx, event("e1", "a", base, risk.LevelHigh, 60, nil, "No helmet", "Open trench")))
	require.NoError(t, r.Log(ctx, event("e2", "a", base, risk.LevelHigh, 60, nil, "No helmet")))
	require.NoError(t, r.Log(ctx, event("e3", "b", base, risk.LevelHigh, 60, nil, "No helmet", "Exposed wire", "")))

	top, err := r.CommonViolations(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, inspection.ViolationCount{Description: "No helmet", Count: 3}, top[0])
	assert.Equal(t, "Exposed wire", top[1].Description)
}

func TestLogRejectsDuplicateEvent(t *testing.T) {
	ctx := context.Background()
	r := newAnalytics(t, base)

	require.NoError(t, r.Log(ctx, event("dup", "a", base, risk.LevelLow, 0, nil, "x")))
	assert.Error(t, r.Log(ctx, event("dup", "a", base, risk.LevelLow, 0, nil, "y")))

	top, err := r.CommonViolations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1, "failed log must not leave violation rows")
	assert.Equal(t, "x", top[0].Description)
}
