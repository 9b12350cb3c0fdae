package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bryanwahyu/constrite/internal/domain/inspection"
	"github.com/bryanwahyu/constrite/internal/domain/risk"
)

const eventColumns = `inspection_id, ts, site_id, location, contractor, project_type,
  total_workers, compliant_workers, non_compliant_workers, compliance_score,
  risk_score, risk_level, critical_count, warning_count, image_url, processing_ms`

// AnalyticsRepository is the append-only analytics sink on SQL.
// Events read back from it carry counts only; violation rows are used for rankings.
type AnalyticsRepository struct {
	db      *sql.DB
	backend Backend
	Now     func() time.Time
}

func NewAnalyticsRepository(db *sql.DB, backend Backend) *AnalyticsRepository {
	return &AnalyticsRepository{db: db, backend: backend, Now: func() time.Time { return time.Now().UTC() }}
}

// Log writes the event and its violations in one transaction.
func (r *AnalyticsRepository) Log(ctx context.Context, ev *inspection.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const qe = `
INSERT INTO inspection_events (` + eventColumns + `)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	var compliance sql.NullFloat64
	if ev.ComplianceScore != nil {
		compliance = sql.NullFloat64{Float64: *ev.ComplianceScore, Valid: true}
	}
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = r.Now()
	}
	if _, err := tx.ExecContext(ctx, r.backend.rebind(qe),
		ev.InspectionID, ts.UTC(), ev.SiteID, ev.Location, ev.Contractor, ev.ProjectType,
		ev.TotalWorkers, ev.CompliantWorkers, ev.NonCompliantWorkers, compliance,
		ev.RiskScore, string(ev.RiskLevel), ev.CriticalCount, ev.WarningCount,
		nullString(ev.ImageURL), ev.ProcessingMS); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	const qv = `
INSERT INTO inspection_event_violations (inspection_id, kind, description, bis_code, severity)
VALUES (?,?,?,?,?)`
	for _, v := range ev.Violations {
		if _, err := tx.ExecContext(ctx, r.backend.rebind(qv),
			ev.InspectionID, v.Kind, truncate(v.Description, 512), truncate(v.StandardCode, 64), v.Severity); err != nil {
			return fmt.Errorf("insert event violation: %w", err)
		}
	}
	return tx.Commit()
}

// Summary aggregates events of the last days.
func (r *AnalyticsRepository) Summary(ctx context.Context, days int) (inspection.AnalyticsSummary, error) {
	sum := inspection.AnalyticsSummary{Days: days, RiskDistribution: map[risk.Level]int{}}
	for _, l := range risk.Levels {
		sum.RiskDistribution[l] = 0
	}
	since := r.Now().AddDate(0, 0, -days).UTC()

	const q = `
SELECT COUNT(*),
  COUNT(DISTINCT site_id),
  COALESCE(SUM(total_workers), 0),
  COALESCE(AVG(compliance_score), 0),
  COALESCE(AVG(risk_score), 0),
  COALESCE(SUM(critical_count), 0),
  COALESCE(SUM(warning_count), 0),
  COALESCE(AVG(processing_ms), 0)
FROM inspection_events
WHERE ts >= ?`
	var workers, critical, warnings int64
	var avgCompliance, avgRisk, avgMS float64
	err := r.db.QueryRowContext(ctx, r.backend.rebind(q), since).Scan(
		&sum.TotalInspections, &sum.UniqueSites, &workers, &avgCompliance, &avgRisk, &critical, &warnings, &avgMS)
	if err != nil {
		return sum, err
	}
	sum.TotalWorkers = int(workers)
	sum.AverageCompliance = round2(avgCompliance)
	sum.AverageRiskScore = round2(avgRisk)
	sum.TotalCritical = int(critical)
	sum.TotalWarnings = int(warnings)
	sum.AverageProcessingMS = round2(avgMS)

	const qd = `SELECT risk_level, COUNT(*) FROM inspection_events WHERE ts >= ? GROUP BY risk_level`
	rows, err := r.db.QueryContext(ctx, r.backend.rebind(qd), since)
	if err != nil {
		return sum, err
	}
	defer rows.Close()
	for rows.Next() {
		var level string
		var n int
		if err := rows.Scan(&level, &n); err != nil {
			return sum, err
		}
		sum.RiskDistribution[risk.Level(level)] = n
	}
	return sum, rows.Err()
}

// SiteHistory returns a site's events, newest first.
func (r *AnalyticsRepository) SiteHistory(ctx context.Context, siteID string, limit int) ([]*inspection.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM inspection_events
WHERE site_id = ?
ORDER BY ts DESC, inspection_id DESC
LIMIT ?`
	return r.queryEvents(ctx, q, siteID, orDefault(limit))
}

// Events returns every event since the given time, oldest first.
func (r *AnalyticsRepository) Events(ctx context.Context, since time.Time) ([]*inspection.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM inspection_events
WHERE ts >= ?
ORDER BY ts ASC, inspection_id ASC`
	return r.queryEvents(ctx, q, since.UTC())
}

// CommonViolations ranks violation descriptions by frequency.
func (r *AnalyticsRepository) CommonViolations(ctx context.Context, limit int) ([]inspection.ViolationCount, error) {
	const q = `
SELECT description, bis_code, COUNT(*) AS n
FROM inspection_event_violations
WHERE description <> ''
GROUP BY description, bis_code
ORDER BY n DESC, description ASC
LIMIT ?`
	rows, err := r.db.QueryContext(ctx, r.backend.rebind(q), orDefault(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []inspection.ViolationCount{}
	for rows.Next() {
		var vc inspection.ViolationCount
		if err := rows.Scan(&vc.Description, &vc.StandardCode, &vc.Count); err != nil {
			return nil, err
		}
		out = append(out, vc)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepository) queryEvents(ctx context.Context, q string, args ...any) ([]*inspection.Event, error) {
	rows, err := r.db.QueryContext(ctx, r.backend.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*inspection.Event{}
	for rows.Next() {
		var (
			ev         inspection.Event
			ts         time.Time
			compliance sql.NullFloat64
			imageURL   sql.NullString
			level      string
		)
		if err := rows.Scan(&ev.InspectionID, &ts, &ev.SiteID, &ev.Location, &ev.Contractor, &ev.ProjectType,
			&ev.TotalWorkers, &ev.CompliantWorkers, &ev.NonCompliantWorkers, &compliance,
			&ev.RiskScore, &level, &ev.CriticalCount, &ev.WarningCount, &imageURL, &ev.ProcessingMS); err != nil {
			return nil, err
		}
		ev.Timestamp = ts.UTC()
		ev.RiskLevel = risk.Level(level)
		ev.ImageURL = imageURL.String
		if compliance.Valid {
			p := compliance.Float64
			ev.ComplianceScore = &p
		}
		out = append(out, &ev)
	}
	return out, rows.Err()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
