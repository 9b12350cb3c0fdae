package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	appinspections "github.com/bryanwahyu/constrite/internal/application/inspections"
	"github.com/bryanwahyu/constrite/internal/domain/inspection"
	"github.com/bryanwahyu/constrite/internal/domain/vision"
	"github.com/bryanwahyu/constrite/internal/middleware"
)

// multipartOverhead covers form fields and boundaries around the image.
const multipartOverhead = 1 << 20

// POST /v1/inspections (multipart: image, site_id, location, contractor, project_type)
func (r *Router) handleInspect(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload+multipartOverhead)
	if err := req.ParseMultipartForm(r.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return badRequest("invalid multipart form: %v", err)
	}
	defer func() { _ = req.MultipartForm.RemoveAll() }()

	file, header, err := req.FormFile("image")
	if err != nil {
		return badRequest("image file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, r.maxUpload+1))
	if err != nil {
		return err
	}
	if int64(len(data)) > r.maxUpload {
		return errUploadTooLarge
	}

	site := inspection.SiteInfo{
		SiteID:      middleware.SanitizeString(req.FormValue("site_id")),
		Location:    middleware.SanitizeString(req.FormValue("location")),
		Contractor:  middleware.SanitizeString(req.FormValue("contractor")),
		ProjectType: middleware.SanitizeString(req.FormValue("project_type")),
	}
	if site.SiteID != "" {
		if err := middleware.ValidateSiteID(site.SiteID); err != nil {
			return badRequest("%v", err)
		}
	}

	in, err := r.inspections.Inspect(req.Context(), appinspections.InspectCommand{
		FileName:  header.Filename,
		Data:      data,
		Site:      site,
		CreatedBy: middleware.GetCallerFromContext(req.Context()),
	})
	if err != nil {
		middleware.IncrementInspectionsFailed()
		if isVisionFailure(err) {
			middleware.IncrementVisionFailures()
		}
		return err
	}

	middleware.IncrementInspections()
	if in.Analysis != nil && in.Analysis.Degraded {
		middleware.IncrementDegraded()
	}
	return writeJSON(w, http.StatusCreated, in)
}

func isVisionFailure(err error) bool {
	return errors.Is(err, vision.ErrQuotaExceeded) ||
		errors.Is(err, vision.ErrTimeout) ||
		errors.Is(err, vision.ErrEmptyResponse) ||
		errors.Is(err, vision.ErrBlocked)
}

// GET /v1/inspections?limit=&risk_level=
func (r *Router) handleRecent(w http.ResponseWriter, req *http.Request) error {
	limit, err := queryInt(req, "limit")
	if err != nil {
		return err
	}
	level, err := middleware.ValidateRiskLevel(req.URL.Query().Get("risk_level"))
	if err != nil {
		return badRequest("%v", err)
	}
	list, err := r.inspections.Recent(req.Context(), middleware.ValidateLimit(limit), level)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"count": len(list), "inspections": list})
}

// GET /v1/inspections/critical?limit=
func (r *Router) handleCritical(w http.ResponseWriter, req *http.Request) error {
	limit, err := queryInt(req, "limit")
	if err != nil {
		return err
	}
	list, err := r.inspections.Critical(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"count": len(list), "inspections": list})
}

func inspectionID(req *http.Request) (string, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateInspectionID(id); err != nil {
		return "", badRequest("%v", err)
	}
	return id, nil
}

// GET /v1/inspections/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := inspectionID(req)
	if err != nil {
		return err
	}
	in, err := r.inspections.Get(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, in)
}

// GET /v1/inspections/{id}/report
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	id, err := inspectionID(req)
	if err != nil {
		return err
	}
	rep, err := r.inspections.Report(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rep)
}

// PATCH /v1/inspections/{id}/status
// Body: {"status": "resolved", "notes": "..."}
func (r *Router) handleUpdateStatus(w http.ResponseWriter, req *http.Request) error {
	id, err := inspectionID(req)
	if err != nil {
		return err
	}
	var body struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, 64<<10)).Decode(&body); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	status, err := middleware.ValidateStatus(body.Status)
	if err != nil {
		return badRequest("%v", err)
	}
	notes := middleware.SanitizeString(body.Notes)
	if err := r.inspections.UpdateStatus(req.Context(), id, status, notes); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": status, "notes": notes})
}

// DELETE /v1/inspections/{id}
func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) error {
	id, err := inspectionID(req)
	if err != nil {
		return err
	}
	if err := r.inspections.Delete(req.Context(), id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/sites/{site}/inspections?limit=
func (r *Router) handleBySite(w http.ResponseWriter, req *http.Request) error {
	site := chi.URLParam(req, "site")
	if err := middleware.ValidateSiteID(site); err != nil {
		return badRequest("%v", err)
	}
	limit, err := queryInt(req, "limit")
	if err != nil {
		return err
	}
	list, err := r.inspections.BySite(req.Context(), site, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"site_id": site, "count": len(list), "inspections": list})
}

// GET /v1/statistics
func (r *Router) handleStatistics(w http.ResponseWriter, req *http.Request) error {
	st, err := r.inspections.Statistics(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, st)
}

// GET /v1/failures?limit=
func (r *Router) handleFailures(w http.ResponseWriter, req *http.Request) error {
	limit, err := queryInt(req, "limit")
	if err != nil {
		return err
	}
	list, err := r.inspections.RecentFailures(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"count": len(list), "failures": list})
}

// GET /v1/storage/stats
func (r *Router) handleStorageStats(w http.ResponseWriter, req *http.Request) error {
	if r.images == nil {
		return inspection.ErrStoreDisabled
	}
	st, err := r.images.Stats(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, st)
}

func trimmed(s string) string { return strings.TrimSpace(s) }
