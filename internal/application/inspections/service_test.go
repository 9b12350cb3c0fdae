package inspections

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/constrite/internal/application"
	appvision "github.com/bryanwahyu/constrite/internal/application/vision"
	"github.com/bryanwahyu/constrite/internal/domain/analysis"
	"github.com/bryanwahyu/constrite/internal/domain/inspection"
	"github.com/bryanwahyu/constrite/internal/domain/risk"
	"github.com/bryanwahyu/constrite/internal/domain/vision"
)

var (
	pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	now     = time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
)

func result() *analysis.Result {
	p := 40.0
	return &analysis.Result{
		TotalWorkers:            5,
		CriticalViolations:      []analysis.Violation{{Violation: "No harness", StandardCode: "IS_3696_1966"}},
		Warnings:                []analysis.Violation{{Violation: "No vest", RiskLevel: "MEDIUM"}, {Violation: "Clutter"}, {Violation: "Trip hazard"}},
		OverallComplianceScore:  &p,
		PotentialFine:           "₹1,50,000",
		EstimatedComplianceCost: "₹10,000",
	}
}

type harness struct {
	svc       *Service
	analyzer  *fakeAnalyzer
	repo      *memRepo
	failures  *memFailures
	images    *memImages
	analytics *memAnalytics
}

func newHarness() *harness {
	h := &harness{
		analyzer:  &fakeAnalyzer{res: result()},
		repo:      newMemRepo(),
		failures:  &memFailures{},
		images:    newMemImages(),
		analytics: &memAnalytics{},
	}
	h.svc = &Service{
		Analyzer:  h.analyzer,
		Prompt:    func(site inspection.SiteInfo) vision.Prompt { return vision.Prompt{User: "site " + site.SiteID} },
		Repo:      h.repo,
		Failures:  h.failures,
		Images:    h.images,
		Analytics: h.analytics,
		Clock:     application.FixedClock{T: now},
		Rounding:  risk.RoundHalfUp,
	}
	return h
}

func cmd() InspectCommand {
	return InspectCommand{
		FileName:  "photo.png",
		Data:      pngData,
		Site:      inspection.SiteInfo{SiteID: "tower-a", Location: "Pune"},
		CreatedBy: "ops",
	}
}

func TestInspect(t *testing.T) {
	h := newHarness()

	in, err := h.svc.Inspect(context.Background(), cmd())
	require.NoError(t, err)

	// (20 + 3*5) * 0.6 = 21
	assert.Equal(t, 21, in.Assessment.Score)
	assert.Equal(t, risk.LevelLow, in.Assessment.Level)
	assert.Equal(t, 140000.0, in.Financial.PotentialSavings)
	assert.Equal(t, inspection.StatusActive, in.Status)
	assert.Equal(t, "ops", in.CreatedBy)
	assert.Equal(t, now, in.CreatedAt)
	assert.Equal(t, "site tower-a", h.analyzer.got.User)

	assert.True(t, strings.HasPrefix(in.ImageKey, "sites/tower-a/20250601_103000_"))
	assert.True(t, strings.HasSuffix(in.ImageKey, ".png"))
	assert.Contains(t, in.ImageURL, in.ImageKey)

	stored, err := h.repo.Get(context.Background(), in.ID)
	require.NoError(t, err)
	assert.Equal(t, in.Assessment, stored.Assessment)

	require.Len(t, h.analytics.events, 1)
	assert.Equal(t, in.ID, h.analytics.events[0].InspectionID)
	assert.Len(t, h.analytics.events[0].Violations, 4)
	assert.Empty(t, h.failures.saved)
}

func TestInspectRejectsNonImage(t *testing.T) {
	h := newHarness()
	c := cmd()
	c.Data = []byte("%PDF-1.4 not an image")

	_, err := h.svc.Inspect(context.Background(), c)
	assert.ErrorIs(t, err, vision.ErrUnsupportedImage)
	assert.Zero(t, h.analyzer.calls)
}

func TestInspectVisionFailureIsRecorded(t *testing.T) {
	h := newHarness()
	h.analyzer.res = nil
	h.analyzer.err = vision.ErrQuotaExceeded

	_, err := h.svc.Inspect(context.Background(), cmd())
	assert.ErrorIs(t, err, vision.ErrQuotaExceeded)

	require.Len(t, h.failures.saved, 1)
	assert.Equal(t, inspection.StageVision, h.failures.saved[0].Stage)
	assert.Equal(t, "tower-a", h.failures.saved[0].SiteID)
	assert.Empty(t, h.repo.byID)
	assert.Empty(t, h.analytics.events)
}

func TestInspectDegradedResultContinues(t *testing.T) {
	h := newHarness()
	h.analyzer.res = appvision.Degraded()
	h.analyzer.err = appvision.ErrUnparseable

	in, err := h.svc.Inspect(context.Background(), cmd())
	require.NoError(t, err)
	assert.True(t, in.Analysis.Degraded)

	require.Len(t, h.failures.saved, 1)
	assert.Equal(t, inspection.StageParse, h.failures.saved[0].Stage)
}

func TestInspectInvalidResult(t *testing.T) {
	h := newHarness()
	r := result()
	r.TotalWorkers = -1
	h.analyzer.res = r

	_, err := h.svc.Inspect(context.Background(), cmd())
	assert.ErrorIs(t, err, risk.ErrInvalidInput)
	require.Len(t, h.failures.saved, 1)
	assert.Equal(t, inspection.StageScore, h.failures.saved[0].Stage)
}

func TestInspectSurvivesUploadAndAnalyticsFailures(t *testing.T) {
	h := newHarness()
	h.images.uploadErr = errors.New("bucket gone")
	h.analytics.err = errors.New("sink down")

	in, err := h.svc.Inspect(context.Background(), cmd())
	require.NoError(t, err)
	assert.Empty(t, in.ImageKey)
	assert.Empty(t, in.ImageURL)
	assert.Len(t, h.repo.byID, 1)
}

func TestInspectWithoutOptionalStores(t *testing.T) {
	svc := &Service{Analyzer: &fakeAnalyzer{res: result()}}

	in, err := svc.Inspect(context.Background(), cmd())
	require.NoError(t, err)
	assert.NotEmpty(t, in.ID)

	_, err = svc.Get(context.Background(), in.ID)
	assert.ErrorIs(t, err, inspection.ErrStoreDisabled)
	_, err = svc.Statistics(context.Background())
	assert.ErrorIs(t, err, inspection.ErrStoreDisabled)
	_, err = svc.RecentFailures(context.Background(), 10)
	assert.ErrorIs(t, err, inspection.ErrStoreDisabled)
}

func TestUpdateStatusAndDelete(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	in, err := h.svc.Inspect(ctx, cmd())
	require.NoError(t, err)

	later := now.Add(time.Hour)
	h.svc.Clock = application.FixedClock{T: later}
	require.NoError(t, h.svc.UpdateStatus(ctx, in.ID, inspection.StatusResolved, "harness issued"))

	got, err := h.svc.Get(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, inspection.StatusResolved, got.Status)
	assert.Equal(t, "harness issued", got.Notes)
	assert.Equal(t, later, got.UpdatedAt)

	require.NoError(t, h.svc.Delete(ctx, in.ID))
	_, err = h.svc.Get(ctx, in.ID)
	assert.ErrorIs(t, err, inspection.ErrNotFound)
	assert.Empty(t, h.images.objects)

	assert.ErrorIs(t, h.svc.Delete(ctx, "missing"), inspection.ErrNotFound)
}

func TestReport(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	in, err := h.svc.Inspect(ctx, cmd())
	require.NoError(t, err)

	rep, err := h.svc.Report(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, 21, rep.Assessment.Score)
	assert.Len(t, rep.Actions, 4)
	assert.Equal(t, "40%", rep.Summary.ComplianceRate)
}

func TestScore(t *testing.T) {
	svc := &Service{Rounding: risk.RoundHalfEven}

	a, err := svc.Score(result())
	require.NoError(t, err)
	assert.Equal(t, 21, a.Score)

	_, err = svc.Score(nil)
	assert.ErrorIs(t, err, risk.ErrInvalidInput)
}

func TestInspectPublishesToLiveFeed(t *testing.T) {
	h := newHarness()
	pub := &memPublisher{}
	h.svc.Live = pub

	in, err := h.svc.Inspect(context.Background(), cmd())
	require.NoError(t, err)
	require.Len(t, pub.got, 1)
	assert.Equal(t, in.ID, pub.got[0].ID)

	h.analyzer.err = vision.ErrQuotaExceeded
	h.analyzer.res = nil
	_, err = h.svc.Inspect(context.Background(), cmd())
	require.Error(t, err)
	assert.Len(t, pub.got, 1, "failed inspections are not published")
}
