package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/constrite/internal/domain/analysis"
	"github.com/bryanwahyu/constrite/internal/infra/export"
	"github.com/bryanwahyu/constrite/internal/middleware"
)

const maxScoreBody = 1 << 20

// POST /v1/risk/score
// Body: analysis result JSON; unknown fields are ignored.
func (r *Router) handleScore(w http.ResponseWriter, req *http.Request) error {
	var res analysis.Result
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxScoreBody)).Decode(&res); err != nil {
		return badRequest("invalid analysis JSON: %v", err)
	}
	a, err := r.inspections.Score(&res)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, a)
}

// GET /v1/standards?category=&severity=
func (r *Router) handleStandards(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	list := r.standards.Search(trimmed(q.Get("category")), trimmed(q.Get("severity")))
	return writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(list),
		"standards":  list,
		"categories": r.standards.Categories(),
	})
}

// GET /v1/standards/summary
func (r *Router) handleStandardsSummary(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, r.standards.Summary())
}

// GET /v1/standards/{code}
func (r *Router) handleStandard(w http.ResponseWriter, req *http.Request) error {
	st, err := r.standards.Get(chi.URLParam(req, "code"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, st)
}

// GET /v1/analytics/summary?days=7
func (r *Router) handleAnalyticsSummary(w http.ResponseWriter, req *http.Request) error {
	days, err := queryInt(req, "days")
	if err != nil {
		return err
	}
	sum, err := r.analytics.Summary(req.Context(), middleware.ValidateDays(days))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sum)
}

// GET /v1/analytics/sites/{site}?limit=
func (r *Router) handleSiteHistory(w http.ResponseWriter, req *http.Request) error {
	site := chi.URLParam(req, "site")
	if err := middleware.ValidateSiteID(site); err != nil {
		return badRequest("%v", err)
	}
	limit, err := queryInt(req, "limit")
	if err != nil {
		return err
	}
	events, err := r.analytics.SiteHistory(req.Context(), site, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"site_id": site, "count": len(events), "history": events})
}

// GET /v1/analytics/violations?limit=
func (r *Router) handleCommonViolations(w http.ResponseWriter, req *http.Request) error {
	limit, err := queryInt(req, "limit")
	if err != nil {
		return err
	}
	list, err := r.analytics.CommonViolations(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"count": len(list), "violations": list})
}

// GET /v1/analytics/export?days=30 returns a Parquet file.
func (r *Router) handleExport(w http.ResponseWriter, req *http.Request) error {
	days, err := queryInt(req, "days")
	if err != nil {
		return err
	}
	days = middleware.ValidateDays(days)
	events, err := r.analytics.Events(req.Context(), days)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteEvents(&buf, events); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/vnd.apache.parquet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName(time.Now(), days)))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(buf.Bytes())
	return err
}
