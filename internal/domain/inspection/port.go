package inspection

import (
	"context"
	"errors"
	"time"

	"github.com/bryanwahyu/constrite/internal/domain/risk"
)

var (
	// ErrNotFound is returned when an inspection id does not exist.
	ErrNotFound = errors.New("inspection not found")
	// ErrStoreDisabled is returned when the backing store is not configured.
	ErrStoreDisabled = errors.New("store disabled")
)

// Repository port for persisting and querying inspections.
type Repository interface {
	Save(ctx context.Context, in *Inspection) error
	Get(ctx context.Context, id string) (*Inspection, error)
	ListBySite(ctx context.Context, siteID string, limit int) ([]*Inspection, error)
	// Recent lists newest first; an empty level matches every tier.
	Recent(ctx context.Context, limit int, level risk.Level) ([]*Inspection, error)
	// Critical lists CRITICAL inspections, topped up with HIGH ones up to limit.
	Critical(ctx context.Context, limit int) ([]*Inspection, error)
	UpdateStatus(ctx context.Context, id string, status Status, notes string, at time.Time) error
	Delete(ctx context.Context, id string) error
	Statistics(ctx context.Context) (Statistics, error)
}

// FailureLog persists failed analyses for audit.
type FailureLog interface {
	Save(ctx context.Context, f *Failure) error
	Recent(ctx context.Context, limit int) ([]*Failure, error)
}

// ObjectInfo describes a stored image.
type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// StoreStats summarises the image bucket.
type StoreStats struct {
	Bucket      string  `json:"bucket"`
	TotalImages int     `json:"total_images"`
	TotalBytes  int64   `json:"total_bytes"`
	TotalMB     float64 `json:"total_size_mb"`
}

// ImageStore port for site photos.
type ImageStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Stats(ctx context.Context) (StoreStats, error)
}

// AnalyticsSink receives one event per inspection and answers trend queries.
type AnalyticsSink interface {
	Log(ctx context.Context, ev *Event) error
	Summary(ctx context.Context, days int) (AnalyticsSummary, error)
	SiteHistory(ctx context.Context, siteID string, limit int) ([]*Event, error)
	CommonViolations(ctx context.Context, limit int) ([]ViolationCount, error)
	Events(ctx context.Context, since time.Time) ([]*Event, error)
}
