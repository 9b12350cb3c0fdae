package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/bryanwahyu/constrite/internal/domain/inspection"
)

type FailureRepository struct {
	db      *sql.DB
	backend Backend
}

func NewFailureRepository(db *sql.DB, backend Backend) *FailureRepository {
	return &FailureRepository{db: db, backend: backend}
}

func (r *FailureRepository) Save(ctx context.Context, f *inspection.Failure) error {
	const q = `
INSERT INTO inspection_failures
  (site_id, image_name, stage, message, created_by, created_at)
VALUES (?,?,?,?,?,?)`
	created := f.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, r.backend.rebind(q),
		f.SiteID, f.ImageName, dashIfEmpty(f.Stage), dashIfEmpty(f.Message), f.CreatedBy, created.UTC())
	return err
}

func (r *FailureRepository) Recent(ctx context.Context, limit int) ([]*inspection.Failure, error) {
	const q = `
SELECT id, site_id, image_name, stage, message, created_by, created_at
FROM inspection_failures
ORDER BY created_at DESC, id DESC
LIMIT ?`
	rows, err := r.db.QueryContext(ctx, r.backend.rebind(q), orDefault(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*inspection.Failure{}
	for rows.Next() {
		var f inspection.Failure
		var created time.Time
		if err := rows.Scan(&f.ID, &f.SiteID, &f.ImageName, &f.Stage, &f.Message, &f.CreatedBy, &created); err != nil {
			return nil, err
		}
		f.CreatedAt = created.UTC()
		out = append(out, &f)
	}
	return out, rows.Err()
}
