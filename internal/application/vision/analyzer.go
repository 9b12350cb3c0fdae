package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/constrite/internal/domain/analysis"
	"github.com/bryanwahyu/constrite/internal/domain/vision"
)

const (
	// DefaultMaxRetries is the number of attempts made on timeouts.
	DefaultMaxRetries = 3
	// DefaultBackoff is the first wait; attempt n waits n times this.
	DefaultBackoff = 2 * time.Second
	// MinResponseLength is the shortest answer treated as a real analysis.
	MinResponseLength = 50
)

// Analyzer wraps a vision client with retries and response parsing.
type Analyzer struct {
	client     vision.Client
	log        *zap.Logger
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithRetries sets the attempt count and the linear backoff step.
func WithRetries(max int, backoff time.Duration) Option {
	return func(a *Analyzer) {
		if max > 0 {
			a.maxRetries = max
		}
		if backoff >= 0 {
			a.backoff = backoff
		}
	}
}

// WithAttemptTimeout bounds every single call to the client. Zero means no bound.
func WithAttemptTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

// WithSleep replaces the wait between attempts.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(a *Analyzer) { a.sleep = fn }
}

// NewAnalyzer builds an Analyzer. A nil logger disables logging.
func NewAnalyzer(client vision.Client, log *zap.Logger, opts ...Option) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Analyzer{
		client:     client,
		log:        log,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		sleep:      sleepCtx,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Provider names the underlying client.
func (a *Analyzer) Provider() string { return a.client.Name() }

// Analyze sends the image and parses the answer. Only ErrTimeout is retried.
// A non-nil result with Degraded set is returned alongside ErrUnparseable when
// the answer could not be decoded.
func (a *Analyzer) Analyze(ctx context.Context, img vision.Image, p vision.Prompt) (*analysis.Result, error) {
	text, err := a.call(ctx, img, p)
	if err != nil {
		return nil, err
	}
	res, err := ParseOrDegrade(text)
	if err != nil {
		a.log.Warn("vision response could not be parsed",
			zap.String("provider", a.client.Name()),
			zap.Int("length", len(text)),
			zap.Error(err))
		return res, err
	}
	return res, nil
}

func (a *Analyzer) call(ctx context.Context, img vision.Image, p vision.Prompt) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		text, err := a.attempt(ctx, img, p)
		if err == nil {
			if len(strings.TrimSpace(text)) < MinResponseLength {
				return "", fmt.Errorf("%w: %d chars", vision.ErrEmptyResponse, len(text))
			}
			return text, nil
		}
		if !errors.Is(err, vision.ErrTimeout) {
			return "", err
		}
		lastErr = err
		if attempt == a.maxRetries {
			break
		}
		wait := time.Duration(attempt) * a.backoff
		a.log.Warn("vision request timed out, retrying",
			zap.String("provider", a.client.Name()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", a.maxRetries),
			zap.Duration("wait", wait))
		if err := a.sleep(ctx, wait); err != nil {
			return "", fmt.Errorf("%w: %v", vision.ErrTimeout, err)
		}
	}
	return "", fmt.Errorf("all %d attempts failed: %w", a.maxRetries, lastErr)
}

func (a *Analyzer) attempt(ctx context.Context, img vision.Image, p vision.Prompt) (string, error) {
	if a.timeout <= 0 {
		return a.client.Analyze(ctx, img, p)
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	text, err := a.client.Analyze(ctx, img, p)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, vision.ErrTimeout) {
		err = fmt.Errorf("%w: %v", vision.ErrTimeout, err)
	}
	return text, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
