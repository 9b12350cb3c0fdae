package inspections

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/constrite/internal/application"
	appvision "github.com/bryanwahyu/constrite/internal/application/vision"
	"github.com/bryanwahyu/constrite/internal/domain/analysis"
	"github.com/bryanwahyu/constrite/internal/domain/inspection"
	"github.com/bryanwahyu/constrite/internal/domain/risk"
	"github.com/bryanwahyu/constrite/internal/domain/vision"
)

// DefaultImageURLExpiry is how long presigned image links stay valid.
const DefaultImageURLExpiry = 7 * 24 * time.Hour

// Analyzer is the vision use-case the service depends on.
type Analyzer interface {
	Analyze(ctx context.Context, img vision.Image, p vision.Prompt) (*analysis.Result, error)
	Provider() string
}

// Publisher receives every completed inspection, e.g. a live feed.
type Publisher interface {
	Publish(in *inspection.Inspection)
}

// Service implements use-cases untuk inspeksi foto site.
// Repo, Failures, Images and Analytics are optional; nil disables that concern.
// Service is safe for concurrent use.
type Service struct {
	Analyzer  Analyzer
	Prompt    func(site inspection.SiteInfo) vision.Prompt
	Repo      inspection.Repository
	Failures  inspection.FailureLog
	Images    inspection.ImageStore
	Analytics inspection.AnalyticsSink
	Live      Publisher
	Clock     application.Clock
	Log       *zap.Logger
	Rounding  risk.Rounding

	ImageURLExpiry time.Duration
}

// InspectCommand untuk upload satu foto site.
type InspectCommand struct {
	FileName  string
	Data      []byte
	Site      inspection.SiteInfo
	CreatedBy string
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) expiry() time.Duration {
	if s.ImageURLExpiry <= 0 {
		return DefaultImageURLExpiry
	}
	return s.ImageURLExpiry
}

// Inspect analyses a photo, scores it, stores the image and the inspection
// and logs an analytics event. Storage and analytics failures are logged
// and do not fail the inspection.
func (s *Service) Inspect(ctx context.Context, cmd InspectCommand) (*inspection.Inspection, error) {
	img, err := vision.NewImage(cmd.FileName, cmd.Data)
	if err != nil {
		return nil, err
	}

	start := s.clock().Now()
	id := uuid.New().String()
	log := s.log().With(zap.String("inspection_id", id), zap.String("site_id", cmd.Site.SiteID))

	var p vision.Prompt
	if s.Prompt != nil {
		p = s.Prompt(cmd.Site)
	}

	res, err := s.Analyzer.Analyze(ctx, img, p)
	if err != nil {
		if res == nil || !errors.Is(err, appvision.ErrUnparseable) {
			s.recordFailure(ctx, cmd, inspection.StageVision, err)
			return nil, err
		}
		// degraded placeholder; keep going so the user sees a retry hint
		s.recordFailure(ctx, cmd, inspection.StageParse, err)
	}

	assessment, err := res.Assess(s.Rounding)
	if err != nil {
		s.recordFailure(ctx, cmd, inspection.StageScore, err)
		return nil, err
	}

	in := &inspection.Inspection{
		ID:         id,
		Site:       cmd.Site,
		CreatedBy:  cmd.CreatedBy,
		Analysis:   res,
		Assessment: assessment,
		Financial:  risk.FinancialImpact(res.PotentialFine, res.EstimatedComplianceCost),
		Status:     inspection.StatusActive,
		CreatedAt:  start,
		UpdatedAt:  start,
	}

	if s.Images != nil {
		key := inspection.ObjectKey(cmd.Site.SiteID, id, img.Ext(), start)
		if err := s.Images.Upload(ctx, key, img.Data, img.MIMEType); err != nil {
			log.Warn("image upload failed", zap.String("key", key), zap.Error(err))
		} else {
			in.ImageKey = key
			in.ImageURL = s.presign(ctx, key)
		}
	}

	if s.Repo != nil {
		if err := s.Repo.Save(ctx, in); err != nil {
			log.Error("failed to save inspection", zap.Error(err))
		}
	}

	if s.Analytics != nil {
		elapsed := s.clock().Now().Sub(start)
		if err := s.Analytics.Log(ctx, inspection.NewEvent(in, elapsed)); err != nil {
			log.Warn("analytics log failed", zap.Error(err))
		}
	}

	if s.Live != nil {
		s.Live.Publish(in)
	}

	log.Info("inspection complete",
		zap.String("provider", s.Analyzer.Provider()),
		zap.Int("risk_score", assessment.Score),
		zap.String("risk_level", string(assessment.Level)),
		zap.Bool("degraded", res.Degraded))
	return in, nil
}

func (s *Service) presign(ctx context.Context, key string) string {
	url, err := s.Images.PresignedURL(ctx, key, s.expiry())
	if err != nil {
		s.log().Warn("presign failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return url
}

func (s *Service) recordFailure(ctx context.Context, cmd InspectCommand, stage string, cause error) {
	s.log().Warn("inspection failed",
		zap.String("stage", stage),
		zap.String("site_id", cmd.Site.SiteID),
		zap.Error(cause))
	if s.Failures == nil {
		return
	}
	f := &inspection.Failure{
		SiteID:    cmd.Site.SiteID,
		ImageName: cmd.FileName,
		Stage:     stage,
		Message:   cause.Error(),
		CreatedBy: cmd.CreatedBy,
		CreatedAt: s.clock().Now(),
	}
	if err := s.Failures.Save(ctx, f); err != nil {
		s.log().Error("failed to record failure", zap.Error(err))
	}
}

// Score validates a posted analysis and scores it without storing anything.
func (s *Service) Score(r *analysis.Result) (risk.Assessment, error) {
	if r == nil {
		return risk.Assessment{}, fmt.Errorf("%w: empty analysis", risk.ErrInvalidInput)
	}
	return r.Assess(s.Rounding)
}

func (s *Service) repo() (inspection.Repository, error) {
	if s.Repo == nil {
		return nil, inspection.ErrStoreDisabled
	}
	return s.Repo, nil
}

// Get loads one inspection and refreshes its image link.
func (s *Service) Get(ctx context.Context, id string) (*inspection.Inspection, error) {
	repo, err := s.repo()
	if err != nil {
		return nil, err
	}
	in, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Images != nil && in.ImageKey != "" {
		if url := s.presign(ctx, in.ImageKey); url != "" {
			in.ImageURL = url
		}
	}
	return in, nil
}

// Recent lists the newest inspections, optionally for one tier.
func (s *Service) Recent(ctx context.Context, limit int, level risk.Level) ([]*inspection.Inspection, error) {
	repo, err := s.repo()
	if err != nil {
		return nil, err
	}
	return repo.Recent(ctx, limit, level)
}

// BySite lists a site's inspections, newest first.
func (s *Service) BySite(ctx context.Context, siteID string, limit int) ([]*inspection.Inspection, error) {
	repo, err := s.repo()
	if err != nil {
		return nil, err
	}
	return repo.ListBySite(ctx, siteID, limit)
}

// Critical lists the riskiest inspections.
func (s *Service) Critical(ctx context.Context, limit int) ([]*inspection.Inspection, error) {
	repo, err := s.repo()
	if err != nil {
		return nil, err
	}
	return repo.Critical(ctx, limit)
}

// UpdateStatus moves an inspection through its follow-up states.
func (s *Service) UpdateStatus(ctx context.Context, id string, status inspection.Status, notes string) error {
	repo, err := s.repo()
	if err != nil {
		return err
	}
	return repo.UpdateStatus(ctx, id, status, notes, s.clock().Now())
}

// Delete removes an inspection and its stored image.
func (s *Service) Delete(ctx context.Context, id string) error {
	repo, err := s.repo()
	if err != nil {
		return err
	}
	in, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.Images != nil && in.ImageKey != "" {
		if err := s.Images.Delete(ctx, in.ImageKey); err != nil {
			s.log().Warn("image delete failed", zap.String("key", in.ImageKey), zap.Error(err))
		}
	}
	return nil
}

// Statistics aggregates every stored inspection.
func (s *Service) Statistics(ctx context.Context) (inspection.Statistics, error) {
	repo, err := s.repo()
	if err != nil {
		return inspection.Statistics{}, err
	}
	return repo.Statistics(ctx)
}

// Report builds the full safety report of a stored inspection.
func (s *Service) Report(ctx context.Context, id string) (*analysis.Report, error) {
	in, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Analysis == nil {
		return nil, fmt.Errorf("%w: inspection %s has no analysis", risk.ErrInvalidInput, id)
	}
	return analysis.BuildReport(in.Analysis, s.Rounding)
}

// RecentFailures lists recent failed analyses.
func (s *Service) RecentFailures(ctx context.Context, limit int) ([]*inspection.Failure, error) {
	if s.Failures == nil {
		return nil, inspection.ErrStoreDisabled
	}
	return s.Failures.Recent(ctx, limit)
}
