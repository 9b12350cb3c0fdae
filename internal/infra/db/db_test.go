package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/constrite/internal/domain/analysis"
	"github.com/bryanwahyu/constrite/internal/domain/inspection"
	"github.com/bryanwahyu/constrite/internal/domain/risk"
)

var base = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := SQLiteDSN(filepath.Join(t.TempDir(), "constrite.db"))
	require.NoError(t, Migrate(SQLite, dsn, -1, nil))

	db, err := Connect(context.Background(), SQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func fixture(id, site string, level risk.Level, score int, compliance *float64, at time.Time) *inspection.Inspection {
	res := &analysis.Result{
		TotalWorkers:           4,
		CriticalViolations:     []analysis.Violation{{Violation: "No helmet", StandardCode: "IS_2925_1984"}},
		Warnings:               []analysis.Violation{{Violation: "No vest", RiskLevel: "MEDIUM"}},
		OverallComplianceScore: compliance,
		PotentialFine:          "₹50,000",
	}
	return &inspection.Inspection{
		ID:         id,
		Site:       inspection.SiteInfo{SiteID: site, Location: "Pune", Contractor: "ACME"},
		CreatedBy:  "ops",
		Analysis:   res,
		Assessment: risk.Assessment{Score: score, Level: level, Urgency: risk.UrgencyFor(level), CriticalCount: 1, WarningCount: 1},
		Financial:  risk.FinancialImpact(res.PotentialFine, res.EstimatedComplianceCost),
		ImageKey:   "sites/" + site + "/" + id + ".jpg",
		Status:     inspection.StatusActive,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

func pct(v float64) *float64 { return &v }

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("postgres")
	require.NoError(t, err)
	assert.Equal(t, Postgres, b)

	b, err = ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, None, b)

	_, err = ParseBackend("oracle")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := `SELECT a FROM t WHERE x = ? AND y IN (?,?) LIMIT ?`
	assert.Equal(t, q, MySQL.rebind(q))
	assert.Equal(t, q, SQLite.rebind(q))
	assert.Equal(t, `SELECT a FROM t WHERE x = $1 AND y IN ($2,$3) LIMIT $4`, Postgres.rebind(q))
}

func TestMigrateIsIdempotentAndReversible(t *testing.T) {
	dsn := SQLiteDSN(filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, Migrate(SQLite, dsn, -1, nil))
	require.NoError(t, Migrate(SQLite, dsn, -1, nil))
	require.NoError(t, Migrate(SQLite, dsn, 1, nil))
	require.NoError(t, Migrate(SQLite, dsn, 0, nil))
	require.NoError(t, Migrate(SQLite, dsn, -1, nil))

	assert.Error(t, Migrate(None, "", -1, nil))
}

func TestInspectionRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewInspectionRepository(newTestDB(t), SQLite)

	in := fixture("a1", "tower", risk.LevelHigh, 55, pct(40), base)
	in.ImageURL = "https://img/a1"
	require.NoError(t, repo.Save(ctx, in))

	got, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, in.Site, got.Site)
	assert.Equal(t, in.Assessment, got.Assessment)
	assert.Equal(t, in.Financial, got.Financial)
	assert.Equal(t, in.Analysis.CriticalViolations, got.Analysis.CriticalViolations)
	assert.Equal(t, 40.0, *got.Analysis.OverallComplianceScore)
	assert.Equal(t, "https://img/a1", got.ImageURL)
	assert.Equal(t, inspection.StatusActive, got.Status)
	assert.True(t, base.Equal(got.CreatedAt), "created_at %v", got.CreatedAt)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, inspection.ErrNotFound)
}

func TestInspectionListing(t *testing.T) {
	ctx := context.Background()
	repo := NewInspectionRepository(newTestDB(t), SQLite)

	seed := []*inspection.Inspection{
		fixture("c1", "tower", risk.LevelCritical, 80, pct(10), base.Add(1*time.Hour)),
		fixture("h1", "tower", risk.LevelHigh, 60, pct(30), base.Add(2*time.Hour)),
		fixture("h2", "bridge", risk.LevelHigh, 55, nil, base.Add(3*time.Hour)),
		fixture("l1", "bridge", risk.LevelLow, 5, pct(90), base.Add(4*time.Hour)),
		fixture("c2", "mall", risk.LevelCritical, 95, pct(0), base.Add(5*time.Hour)),
	}
	for _, in := range seed {
		require.NoError(t, repo.Save(ctx, in))
	}

	recent, err := repo.Recent(ctx, 3, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "l1", "h2"}, ids(recent))

	high, err := repo.Recent(ctx, 10, risk.LevelHigh)
	require.NoError(t, err)
	assert.Equal(t, []string{"h2", "h1"}, ids(high))

	tower, err := repo.ListBySite(ctx, "tower", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"h1", "c1"}, ids(tower))

	crit, err := repo.Critical(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c1", "h2"}, ids(crit))

	crit, err = repo.Critical(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c1"}, ids(crit))

	empty, err := repo.ListBySite(ctx, "nowhere", 10)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestInspectionStatusAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewInspectionRepository(newTestDB(t), SQLite)
	require.NoError(t, repo.Save(ctx, fixture("a1", "tower", risk.LevelLow, 10, nil, base)))

	later := base.Add(48 * time.Hour)
	require.NoError(t, repo.UpdateStatus(ctx, "a1", inspection.StatusInProgress, "crew assigned", later))

	got, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, inspection.StatusInProgress, got.Status)
	assert.Equal(t, "crew assigned", got.Notes)
	assert.True(t, later.Equal(got.UpdatedAt))

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "nope", inspection.StatusResolved, "", later), inspection.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "a1"))
	assert.ErrorIs(t, repo.Delete(ctx, "a1"), inspection.ErrNotFound)
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()
	repo := NewInspectionRepository(newTestDB(t), SQLite)

	st, err := repo.Statistics(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.TotalInspections)
	assert.Len(t, st.RiskDistribution, 4)

	require.NoError(t, repo.Save(ctx, fixture("a", "s", risk.LevelCritical, 80, pct(20), base)))
	require.NoError(t, repo.Save(ctx, fixture("b", "s", risk.LevelLow, 5, pct(70), base)))
	require.NoError(t, repo.Save(ctx, fixture("c", "s", risk.LevelLow, 5, pct(0), base)))
	require.NoError(t, repo.Save(ctx, fixture("d", "s", risk.LevelMedium, 30, nil, base)))

	st, err = repo.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.TotalInspections)
	assert.Equal(t, 16, st.TotalWorkers)
	assert.Equal(t, 45.0, st.AverageCompliance, "zero and missing scores are excluded")
	assert.Equal(t, 4, st.TotalCriticalViolations)
	assert.Equal(t, 4, st.TotalWarnings)
	assert.Equal(t, 1, st.RiskDistribution[risk.LevelCritical])
	assert.Equal(t, 2, st.RiskDistribution[risk.LevelLow])
	assert.Equal(t, 1, st.RiskDistribution[risk.LevelMedium])
	assert.Equal(t, 0, st.RiskDistribution[risk.LevelHigh])
}

func TestFailures(t *testing.T) {
	ctx := context.Background()
	repo := NewFailureRepository(newTestDB(t), SQLite)

	require.NoError(t, repo.Save(ctx, &inspection.Failure{SiteID: "s", Stage: inspection.StageVision, Message: "quota", CreatedAt: base}))
	require.NoError(t, repo.Save(ctx, &inspection.Failure{Stage: inspection.StageParse, Message: "bad json", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Save(ctx, &inspection.Failure{CreatedAt: base.Add(2 * time.Minute)}))

	got, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "-", got[0].Stage)
	assert.Equal(t, "-", got[0].Message)
	assert.Equal(t, inspection.StageParse, got[1].Stage)
	assert.NotZero(t, got[1].ID)
}

func ids(list []*inspection.Inspection) []string {
	out := make([]string, 0, len(list))
	for _, in := range list {
		out = append(out, in.ID)
	}
	return out
}
