package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bryanwahyu/constrite/internal/domain/analysis"
	"github.com/bryanwahyu/constrite/internal/domain/inspection"
	"github.com/bryanwahyu/constrite/internal/domain/risk"
)

const defaultLimit = 20

const inspectionColumns = `id, site_id, location, contractor, project_type, created_by,
  analysis_json, assessment_json, financial_json, image_key, image_url, status, notes,
  created_at, updated_at`

type InspectionRepository struct {
	db      *sql.DB
	backend Backend
}

func NewInspectionRepository(db *sql.DB, backend Backend) *InspectionRepository {
	return &InspectionRepository{db: db, backend: backend}
}

// Save inserts an inspection record
func (r *InspectionRepository) Save(ctx context.Context, in *inspection.Inspection) error {
	const q = `
INSERT INTO inspections
  (id, site_id, location, contractor, project_type, created_by,
   risk_score, risk_level, compliance_score, total_workers, critical_count, warning_count,
   analysis_json, assessment_json, financial_json, image_key, image_url, status, notes,
   created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`

	analysisJSON, err := marshalJSON(in.Analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	assessmentJSON, err := marshalJSON(in.Assessment)
	if err != nil {
		return fmt.Errorf("encode assessment: %w", err)
	}
	financialJSON, err := marshalJSON(in.Financial)
	if err != nil {
		return fmt.Errorf("encode financial impact: %w", err)
	}

	var compliance sql.NullFloat64
	workers := 0
	if in.Analysis != nil {
		workers = in.Analysis.TotalWorkers
		if p := in.Analysis.OverallComplianceScore; p != nil {
			compliance = sql.NullFloat64{Float64: *p, Valid: true}
		}
	}
	status := in.Status
	if status == "" {
		status = inspection.StatusActive
	}
	created := in.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	updated := in.UpdatedAt
	if updated.IsZero() {
		updated = created
	}

	_, err = r.db.ExecContext(ctx, r.backend.rebind(q),
		in.ID, in.Site.SiteID, in.Site.Location, in.Site.Contractor, in.Site.ProjectType, in.CreatedBy,
		in.Assessment.Score, string(in.Assessment.Level), compliance, workers,
		in.Assessment.CriticalCount, in.Assessment.WarningCount,
		analysisJSON, assessmentJSON, financialJSON, in.ImageKey, nullString(in.ImageURL),
		string(status), nullString(in.Notes), created.UTC(), updated.UTC())
	return err
}

// Get returns one inspection or inspection.ErrNotFound.
func (r *InspectionRepository) Get(ctx context.Context, id string) (*inspection.Inspection, error) {
	q := `SELECT ` + inspectionColumns + ` FROM inspections WHERE id = ?`
	in, err := scanInspection(r.db.QueryRowContext(ctx, r.backend.rebind(q), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", inspection.ErrNotFound, id)
	}
	return in, err
}

// ListBySite returns a site's inspections ordered by created_at desc
func (r *InspectionRepository) ListBySite(ctx context.Context, siteID string, limit int) ([]*inspection.Inspection, error) {
	q := `SELECT ` + inspectionColumns + ` FROM inspections
WHERE site_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`
	return r.query(ctx, q, siteID, orDefault(limit))
}

// Recent returns the newest inspections, optionally of one risk level.
func (r *InspectionRepository) Recent(ctx context.Context, limit int, level risk.Level) ([]*inspection.Inspection, error) {
	if level == "" {
		q := `SELECT ` + inspectionColumns + ` FROM inspections
ORDER BY created_at DESC, id DESC
LIMIT ?`
		return r.query(ctx, q, orDefault(limit))
	}
	q := `SELECT ` + inspectionColumns + ` FROM inspections
WHERE risk_level = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`
	return r.query(ctx, q, string(level), orDefault(limit))
}

// Critical returns CRITICAL inspections and fills the rest of limit with HIGH ones.
func (r *InspectionRepository) Critical(ctx context.Context, limit int) ([]*inspection.Inspection, error) {
	limit = orDefault(limit)
	out, err := r.Recent(ctx, limit, risk.LevelCritical)
	if err != nil {
		return nil, err
	}
	if len(out) >= limit {
		return out, nil
	}
	high, err := r.Recent(ctx, limit-len(out), risk.LevelHigh)
	if err != nil {
		return nil, err
	}
	return append(out, high...), nil
}

// UpdateStatus sets status and notes.
func (r *InspectionRepository) UpdateStatus(ctx context.Context, id string, status inspection.Status, notes string, at time.Time) error {
	const q = `UPDATE inspections SET status = ?, notes = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, r.backend.rebind(q), string(status), nullString(notes), at.UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	// MySQL reports 0 affected rows when nothing changed
	return r.exists(ctx, id)
}

// Delete removes an inspection.
func (r *InspectionRepository) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM inspections WHERE id = ?`
	res, err := r.db.ExecContext(ctx, r.backend.rebind(q), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", inspection.ErrNotFound, id)
	}
	return nil
}

// Statistics aggregates all inspections. Average compliance only counts positive scores.
func (r *InspectionRepository) Statistics(ctx context.Context) (inspection.Statistics, error) {
	st := inspection.NewStatistics()

	const q = `
SELECT COUNT(*),
  COALESCE(SUM(total_workers), 0),
  COALESCE(AVG(CASE WHEN compliance_score > 0 THEN compliance_score END), 0),
  COALESCE(SUM(critical_count), 0),
  COALESCE(SUM(warning_count), 0)
FROM inspections`
	var workers, critical, warnings int64
	var avg float64
	if err := r.db.QueryRowContext(ctx, q).Scan(&st.TotalInspections, &workers, &avg, &critical, &warnings); err != nil {
		return st, err
	}
	st.TotalWorkers = int(workers)
	st.AverageCompliance = round2(avg)
	st.TotalCriticalViolations = int(critical)
	st.TotalWarnings = int(warnings)

	rows, err := r.db.QueryContext(ctx, `SELECT risk_level, COUNT(*) FROM inspections GROUP BY risk_level`)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var level string
		var n int
		if err := rows.Scan(&level, &n); err != nil {
			return st, err
		}
		st.RiskDistribution[risk.Level(level)] = n
	}
	return st, rows.Err()
}

func (r *InspectionRepository) exists(ctx context.Context, id string) error {
	var one int
	err := r.db.QueryRowContext(ctx, r.backend.rebind(`SELECT 1 FROM inspections WHERE id = ?`), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", inspection.ErrNotFound, id)
	}
	return err
}

func (r *InspectionRepository) query(ctx context.Context, q string, args ...any) ([]*inspection.Inspection, error) {
	rows, err := r.db.QueryContext(ctx, r.backend.rebind(q), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*inspection.Inspection{}
	for rows.Next() {
		in, err := scanInspection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInspection(row rowScanner) (*inspection.Inspection, error) {
	var (
		in                                   inspection.Inspection
		analysisJSON, assessmentJSON, finJSON string
		imageURL, notes                      sql.NullString
		status                               string
		created, updated                     time.Time
	)
	err := row.Scan(&in.ID, &in.Site.SiteID, &in.Site.Location, &in.Site.Contractor, &in.Site.ProjectType,
		&in.CreatedBy, &analysisJSON, &assessmentJSON, &finJSON, &in.ImageKey, &imageURL, &status, &notes,
		&created, &updated)
	if err != nil {
		return nil, err
	}

	var res analysis.Result
	if err := json.Unmarshal([]byte(analysisJSON), &res); err != nil {
		return nil, fmt.Errorf("decode analysis of %s: %w", in.ID, err)
	}
	in.Analysis = &res
	if err := json.Unmarshal([]byte(assessmentJSON), &in.Assessment); err != nil {
		return nil, fmt.Errorf("decode assessment of %s: %w", in.ID, err)
	}
	if err := json.Unmarshal([]byte(finJSON), &in.Financial); err != nil {
		return nil, fmt.Errorf("decode financial impact of %s: %w", in.ID, err)
	}
	in.ImageURL = imageURL.String
	in.Notes = notes.String
	in.Status = inspection.Status(status)
	in.CreatedAt = created.UTC()
	in.UpdatedAt = updated.UTC()
	return &in, nil
}
