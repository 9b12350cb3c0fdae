package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appanalytics "github.com/bryanwahyu/constrite/internal/application/analytics"
	appinspections "github.com/bryanwahyu/constrite/internal/application/inspections"
	"github.com/bryanwahyu/constrite/internal/domain/inspection"
	"github.com/bryanwahyu/constrite/internal/domain/risk"
	"github.com/bryanwahyu/constrite/internal/domain/standards"
	"github.com/bryanwahyu/constrite/internal/domain/vision"
	"github.com/bryanwahyu/constrite/internal/middleware"
)

// DefaultMaxUploadBytes applies when Deps.MaxUploadBytes is zero.
const DefaultMaxUploadBytes = 10 << 20

// Deps wires the router. Optional parts may be nil.
type Deps struct {
	Inspections *appinspections.Service
	Analytics   *appanalytics.Service
	Standards   *standards.Reference
	Images      inspection.ImageStore
	Live        *Hub
	Log         *zap.Logger
	Version     string

	APIKeys        map[string]string       // empty disables auth
	Limiter        *middleware.RateLimiter // nil disables rate limiting
	Checkers       map[string]middleware.HealthChecker
	MaxUploadBytes int64
	CORSOrigins    []string
}

type Router struct {
	inspections *appinspections.Service
	analytics   *appanalytics.Service
	standards   *standards.Reference
	images      inspection.ImageStore
	log         *zap.Logger
	maxUpload   int64
}

func NewRouter(d Deps) http.Handler {
	r := &Router{
		inspections: d.Inspections,
		analytics:   d.Analytics,
		standards:   d.Standards,
		images:      d.Images,
		log:         d.Log,
		maxUpload:   d.MaxUploadBytes,
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	if r.maxUpload <= 0 {
		r.maxUpload = DefaultMaxUploadBytes
	}
	if r.standards == nil {
		r.standards = standards.Default()
	}
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.HealthHandler(d.Version, d.Checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Use(middleware.AccessLog(r.log))
		if len(d.APIKeys) > 0 {
			rt.Use(middleware.APIKeyAuth(d.APIKeys))
		}
		if d.Limiter != nil {
			rt.Use(middleware.RateLimitMiddleware(d.Limiter))
		}

		rt.Post("/inspections", r.wrap(r.handleInspect))
		rt.Get("/inspections", r.wrap(r.handleRecent))
		rt.Get("/inspections/critical", r.wrap(r.handleCritical))
		if d.Live != nil {
			rt.Get("/inspections/live", d.Live.ServeHTTP)
		}
		rt.Get("/inspections/{id}", r.wrap(r.handleGet))
		rt.Get("/inspections/{id}/report", r.wrap(r.handleReport))
		rt.Patch("/inspections/{id}/status", r.wrap(r.handleUpdateStatus))
		rt.Delete("/inspections/{id}", r.wrap(r.handleDelete))
		rt.Get("/sites/{site}/inspections", r.wrap(r.handleBySite))

		rt.Post("/risk/score", r.wrap(r.handleScore))

		rt.Get("/standards", r.wrap(r.handleStandards))
		rt.Get("/standards/summary", r.wrap(r.handleStandardsSummary))
		rt.Get("/standards/{code}", r.wrap(r.handleStandard))

		rt.Get("/statistics", r.wrap(r.handleStatistics))
		rt.Get("/failures", r.wrap(r.handleFailures))
		rt.Get("/storage/stats", r.wrap(r.handleStorageStats))

		rt.Get("/analytics/summary", r.wrap(r.handleAnalyticsSummary))
		rt.Get("/analytics/sites/{site}", r.wrap(r.handleSiteHistory))
		rt.Get("/analytics/violations", r.wrap(r.handleCommonViolations))
		rt.Get("/analytics/export", r.wrap(r.handleExport))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// httpError carries a status for request validation failures.
type httpError struct {
	code int
	msg  string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &httpError{code: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

var errUploadTooLarge = errors.New("image exceeds upload limit")

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		code := statusFor(err)
		msg := err.Error()
		switch {
		case code >= http.StatusInternalServerError && code != http.StatusServiceUnavailable && code != http.StatusGatewayTimeout:
			r.log.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
			msg = "internal error"
		case code == http.StatusTooManyRequests:
			w.Header().Set("Retry-After", "60")
		}
		writeJSON(w, code, map[string]string{"error": msg})
	}
}

func statusFor(err error) int {
	var he *httpError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &he):
		return he.code
	case errors.As(err, &tooLarge), errors.Is(err, errUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, inspection.ErrNotFound), errors.Is(err, standards.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, vision.ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, risk.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, vision.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, inspection.ErrStoreDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, vision.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

// queryInt reads an optional integer query parameter.
func queryInt(req *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(req.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("%s must be an integer", name)
	}
	return n, nil
}
