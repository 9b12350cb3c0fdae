package analytics

import (
	"context"
	"time"

	"github.com/bryanwahyu/constrite/internal/application"
	"github.com/bryanwahyu/constrite/internal/domain/inspection"
)

// Service answers trend queries over the analytics sink.
type Service struct {
	Sink  inspection.AnalyticsSink
	Clock application.Clock
}

func (s *Service) sink() (inspection.AnalyticsSink, error) {
	if s == nil || s.Sink == nil {
		return nil, inspection.ErrStoreDisabled
	}
	return s.Sink, nil
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}

// Summary aggregates the last days of inspections.
func (s *Service) Summary(ctx context.Context, days int) (inspection.AnalyticsSummary, error) {
	sink, err := s.sink()
	if err != nil {
		return inspection.AnalyticsSummary{}, err
	}
	return sink.Summary(ctx, days)
}

// SiteHistory lists a site's events, newest first.
func (s *Service) SiteHistory(ctx context.Context, siteID string, limit int) ([]*inspection.Event, error) {
	sink, err := s.sink()
	if err != nil {
		return nil, err
	}
	return sink.SiteHistory(ctx, siteID, limit)
}

// CommonViolations ranks findings by how often they were reported.
func (s *Service) CommonViolations(ctx context.Context, limit int) ([]inspection.ViolationCount, error) {
	sink, err := s.sink()
	if err != nil {
		return nil, err
	}
	return sink.CommonViolations(ctx, limit)
}

// Events returns every event of the last days, oldest first.
func (s *Service) Events(ctx context.Context, days int) ([]*inspection.Event, error) {
	sink, err := s.sink()
	if err != nil {
		return nil, err
	}
	since := s.now().AddDate(0, 0, -days)
	return sink.Events(ctx, since)
}
