package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vos/internal/apperr"
	"github.com/starford/vos/internal/site"
	"github.com/starford/vos/internal/siteservice"
)

const maxBody = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *siteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *siteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListArtifacts handles GET /api/artifacts.
//
//	@Summary		List built artifacts
//	@Tags			artifacts
//	@Produce		json
//	@Param			tag	query		string	false	"Filter by tag"
//	@Success		200	{object}	ArtifactListResponse
//	@Failure		503	{object}	errResponse
//	@Router			/artifacts [get]
func (h *Handler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListArtifacts(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		h.fail(w, "list artifacts failed", err)
		return
	}
	writeJSON(w, http.StatusOK, ArtifactListResponse{Artifacts: items, Total: len(items)})
}

// GetArtifact handles GET /api/artifacts/{name}.
//
//	@Summary		Get a built artifact by name
//	@Tags			artifacts
//	@Produce		json
//	@Param			name	path		string	true	"Artifact name"
//	@Success		200		{object}	siteservice.ArtifactDetail
//	@Failure		404		{object}	errResponse
//	@Router			/artifacts/{name} [get]
func (h *Handler) GetArtifact(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("name is required"))
		return
	}
	a, err := h.svc.GetArtifact(r.Context(), name)
	if err != nil {
		h.fail(w, "get artifact failed", err, slog.String("name", name))
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// LogSummary handles GET /api/log/summary.
//
//	@Summary		Aggregate the productivity log
//	@Tags			log
//	@Produce		json
//	@Param			project	query		string	false	"Limit to one project"
//	@Success		200		{object}	siteservice.LogSummary
//	@Router			/log/summary [get]
func (h *Handler) LogSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.LogSummary(r.Context(), r.URL.Query().Get("project"))
	if err != nil {
		h.fail(w, "log summary failed", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// RecentLogs handles GET /api/log/recent.
//
//	@Summary		Leading rows of the productivity log
//	@Tags			log
//	@Produce		json
//	@Param			count	query		int	false	"Number of rows"	default(10)
//	@Success		200		{array}		models.LogEntry
//	@Router			/log/recent [get]
func (h *Handler) RecentLogs(w http.ResponseWriter, r *http.Request) {
	count := 10
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody("count must be a non-negative integer"))
			return
		}
		count = n
	}
	rows, err := h.svc.RecentLogs(r.Context(), count)
	if err != nil {
		h.fail(w, "recent logs failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": rows})
}

// Render handles POST /api/render.
//
//	@Summary		Render a markup fragment against the current site
//	@Tags			render
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RenderRequest	true	"Markup to render"
//	@Success		200		{object}	RenderResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/render [post]
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("text is required"))
		return
	}
	html, err := h.svc.RenderMarkup(r.Context(), req.Text)
	if err != nil {
		h.fail(w, "render failed", err)
		return
	}
	writeJSON(w, http.StatusOK, RenderResponse{HTML: html})
}

// Evaluate handles POST /api/evaluate.
//
//	@Summary		Evaluate an inline expression
//	@Tags			render
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EvaluateRequest	true	"Expression"
//	@Success		200		{object}	EvaluateResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/evaluate [post]
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Expression == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("expression is required"))
		return
	}
	out, err := h.svc.Evaluate(r.Context(), req.Expression)
	if err != nil {
		h.fail(w, "evaluate failed", err)
		return
	}
	writeJSON(w, http.StatusOK, EvaluateResponse{Result: out})
}

// Rebuild handles POST /api/rebuild.
//
//	@Summary		Rebuild the whole site
//	@Tags			build
//	@Produce		json
//	@Success		200	{object}	RebuildResponse
//	@Security		BearerAuth
//	@Router			/rebuild [post]
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Rebuild(r.Context())
	if err != nil {
		h.fail(w, "rebuild failed", err)
		return
	}
	resp := RebuildResponse{
		Written:    report.Written,
		Unchanged:  len(report.Unchanged),
		Failed:     report.Failed,
		DurationMS: report.Duration.Milliseconds(),
	}
	if resp.Written == nil {
		resp.Written = []string{}
	}
	if resp.Failed == nil {
		resp.Failed = []site.Failure{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// fail maps service errors onto status codes.
func (h *Handler) fail(w http.ResponseWriter, msg string, err error, attrs ...any) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrNotReady):
		writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrEvaluation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		slog.Error(msg, append(attrs, slog.String("error", err.Error()))...)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
