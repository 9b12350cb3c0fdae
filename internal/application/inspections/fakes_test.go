package inspections

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bryanwahyu/constrite/internal/domain/analysis"
	"github.com/bryanwahyu/constrite/internal/domain/inspection"
	"github.com/bryanwahyu/constrite/internal/domain/risk"
	"github.com/bryanwahyu/constrite/internal/domain/vision"
)

type fakeAnalyzer struct {
	res   *analysis.Result
	err   error
	calls int
	got   vision.Prompt
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, img vision.Image, p vision.Prompt) (*analysis.Result, error) {
	f.calls++
	f.got = p
	return f.res, f.err
}

func (f *fakeAnalyzer) Provider() string { return "fake" }

type memRepo struct {
	mu   sync.Mutex
	byID map[string]*inspection.Inspection
}

func newMemRepo() *memRepo { return &memRepo{byID: map[string]*inspection.Inspection{}} }

func (m *memRepo) Save(ctx context.Context, in *inspection.Inspection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *in
	m.byID[in.ID] = &cp
	return nil
}

func (m *memRepo) Get(ctx context.Context, id string) (*inspection.Inspection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.byID[id]
	if !ok {
		return nil, inspection.ErrNotFound
	}
	cp := *in
	return &cp, nil
}

func (m *memRepo) all() []*inspection.Inspection {
	var out []*inspection.Inspection
	for _, in := range m.byID {
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memRepo) ListBySite(ctx context.Context, site string, limit int) ([]*inspection.Inspection, error) {
	var out []*inspection.Inspection
	for _, in := range m.all() {
		if in.Site.SiteID == site {
			out = append(out, in)
		}
	}
	return out, nil
}

func (m *memRepo) Recent(ctx context.Context, limit int, level risk.Level) ([]*inspection.Inspection, error) {
	return m.all(), nil
}

func (m *memRepo) Critical(ctx context.Context, limit int) ([]*inspection.Inspection, error) {
	return nil, nil
}

func (m *memRepo) UpdateStatus(ctx context.Context, id string, st inspection.Status, notes string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.byID[id]
	if !ok {
		return inspection.ErrNotFound
	}
	in.Status, in.Notes, in.UpdatedAt = st, notes, at
	return nil
}

func (m *memRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

func (m *memRepo) Statistics(ctx context.Context) (inspection.Statistics, error) {
	st := inspection.NewStatistics()
	st.TotalInspections = len(m.byID)
	return st, nil
}

type memFailures struct{ saved []*inspection.Failure }

func (m *memFailures) Save(ctx context.Context, f *inspection.Failure) error {
	m.saved = append(m.saved, f)
	return nil
}

func (m *memFailures) Recent(ctx context.Context, limit int) ([]*inspection.Failure, error) {
	return m.saved, nil
}

type memImages struct {
	objects   map[string][]byte
	uploadErr error
}

func newMemImages() *memImages { return &memImages{objects: map[string][]byte{}} }

func (m *memImages) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	m.objects[key] = data
	return nil
}

func (m *memImages) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if _, ok := m.objects[key]; !ok {
		return "", errors.New("no such key")
	}
	return "https://images.test/" + key + "?exp=" + expiry.String(), nil
}

func (m *memImages) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memImages) List(ctx context.Context, prefix string) ([]inspection.ObjectInfo, error) {
	var out []inspection.ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, inspection.ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memImages) Stats(ctx context.Context) (inspection.StoreStats, error) {
	return inspection.StoreStats{TotalImages: len(m.objects)}, nil
}

type memAnalytics struct {
	events []*inspection.Event
	err    error
}

func (m *memAnalytics) Log(ctx context.Context, ev *inspection.Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *memAnalytics) Summary(ctx context.Context, days int) (inspection.AnalyticsSummary, error) {
	return inspection.AnalyticsSummary{Days: days, TotalInspections: len(m.events)}, nil
}

func (m *memAnalytics) SiteHistory(ctx context.Context, site string, limit int) ([]*inspection.Event, error) {
	return m.events, nil
}

func (m *memAnalytics) CommonViolations(ctx context.Context, limit int) ([]inspection.ViolationCount, error) {
	return nil, nil
}

func (m *memAnalytics) Events(ctx context.Context, since time.Time) ([]*inspection.Event, error) {
	return m.events, nil
}

type memPublisher struct{ got []*inspection.Inspection }

func (m *memPublisher) Publish(in *inspection.Inspection) { m.got = append(m.got, in) }
