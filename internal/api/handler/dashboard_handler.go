package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"aging-dashboard/internal/pipeline"
	"aging-dashboard/internal/session"
	"aging-dashboard/internal/store"
	"aging-dashboard/pkg/utils"
)

// Row paging limits of the detail view.
const (
	DefaultRowLimit = 100
	MaxRowLimit     = 1000
)

// History reads the persisted session history. *store.Store implements it.
type History interface {
	ListSessions(ctx context.Context) ([]store.SessionRecord, error)
	GetSession(ctx context.Context, id string) (*store.SessionRecord, error)
	Ping(ctx context.Context) error
}

// DashboardHandler serves the aging dashboard API.
type DashboardHandler struct {
	sessions  *session.Manager
	history   History
	validate  *validator.Validate
	maxUpload int64
	logger    *slog.Logger
}

// NewDashboardHandler creates the handler. history may be nil.
func NewDashboardHandler(sessions *session.Manager, history History, maxUpload int64, logger *slog.Logger) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		sessions:  sessions,
		history:   history,
		validate:  validator.New(),
		maxUpload: maxUpload,
		logger:    logger.With(slog.String("handler", "dashboard")),
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
	Detail  string   `json:"detail,omitempty"`
	CSVURL  string   `json:"csv_url,omitempty"`
}

// UploadResponse describes a freshly loaded session.
type UploadResponse struct {
	SessionID   string              `json:"session_id"`
	Layout      string              `json:"layout"`
	Rows        int                 `json:"rows"`
	ZeroedCells int                 `json:"zeroed_cells"`
	Coercions   []pipeline.Coercion `json:"coercions"`
}

// FilterRequest selects one value of a categorical column.
type FilterRequest struct {
	Column string `json:"column" validate:"required"`
	Value  string `json:"value" validate:"required"`
}

// Bind implements render.Binder.
func (f *FilterRequest) Bind(r *http.Request) error {
	f.Column = strings.TrimSpace(f.Column)
	return nil
}

// SegmentRequest is a chart click. An empty or unknown label clears the
// selection.
type SegmentRequest struct {
	Label string `json:"label"`
}

// Bind implements render.Binder.
func (s *SegmentRequest) Bind(r *http.Request) error { return nil }

// SegmentResponse reports the bucket a click selected.
type SegmentResponse struct {
	ActiveBucket string `json:"active_bucket"`
}

// Upload loads a sheet into a new session
// @Summary Upload an aging sheet
// @Description Reads an XLSX or CSV file, validates its columns and opens a dashboard session
// @Tags sessions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Aging sheet"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} ErrorResponse "Unreadable file or missing columns"
// @Failure 413 {object} ErrorResponse "File too large"
// @Router /sessions [post]
func (h *DashboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, r, err)
			return
		}
		h.respond(w, r, http.StatusBadRequest, ErrorResponse{Error: "expected a multipart/form-data upload", Detail: err.Error()})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respond(w, r, http.StatusBadRequest, ErrorResponse{Error: "a file field named \"file\" is required"})
		return
	}
	defer file.Close()

	info, err := h.sessions.Load(r.Context(), header.Filename, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.respond(w, r, http.StatusCreated, UploadResponse{
		SessionID:   info.ID,
		Layout:      info.Layout,
		Rows:        info.Rows,
		ZeroedCells: info.ZeroedCells,
		Coercions:   info.Coercions,
	})
}

// ListSessions returns the session history
// @Summary List sessions
// @Description Stored sessions, newest first. Without a history store only live sessions are listed.
// @Tags sessions
// @Produce json
// @Success 200 {array} store.SessionRecord
// @Failure 500 {object} ErrorResponse
// @Router /sessions [get]
func (h *DashboardHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.respond(w, r, http.StatusOK, h.sessions.List())
		return
	}

	records, err := h.history.ListSessions(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []store.SessionRecord{}
	}
	h.respond(w, r, http.StatusOK, records)
}

// GetSession returns one session
// @Summary Get session
// @Description Live session state, or the stored record of a closed session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.Info
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *DashboardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	info, err := h.sessions.Get(id)
	if err == nil {
		h.respond(w, r, http.StatusOK, info)
		return
	}
	if !errors.Is(err, session.ErrSessionNotFound) || h.history == nil {
		h.writeError(w, r, err)
		return
	}

	rec, err := h.history.GetSession(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, rec)
}

// CloseSession drops a live session
// @Summary Close session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [delete]
func (h *DashboardHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetFilters returns the filter options
// @Summary Filter options
// @Description Distinct values of every categorical column, each list starting with "All", plus the current selection
// @Tags filters
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {array} session.FilterOption
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/filters [get]
func (h *DashboardHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := h.sessions.Options(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, opts)
}

// SetFilter selects one filter value
// @Summary Set filter
// @Tags filters
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param filter body FilterRequest true "Column and value"
// @Success 200 {array} session.FilterOption
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/filters [put]
func (h *DashboardHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if !h.bind(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.sessions.SetFilter(id, req.Column, req.Value); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.GetFilters(w, r)
}

// ResetFilters clears every filter
// @Summary Reset filters
// @Description Returns every filter to "All" and clears the chart selection
// @Tags filters
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {array} session.FilterOption
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/filters [delete]
func (h *DashboardHandler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Reset(chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.GetFilters(w, r)
}

// SelectSegment applies a chart click
// @Summary Select chart segment
// @Description Maps a segment label to its bucket; rows are then restricted to a positive value in that bucket. Unknown labels clear the selection.
// @Tags dashboard
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param segment body SegmentRequest true "Segment label"
// @Success 200 {object} SegmentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/segment [post]
func (h *DashboardHandler) SelectSegment(w http.ResponseWriter, r *http.Request) {
	var req SegmentRequest
	if !h.bind(w, r, &req) {
		return
	}

	bucket, err := h.sessions.SelectSegment(chi.URLParam(r, "id"), req.Label)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, SegmentResponse{ActiveBucket: bucket})
}

// GetDashboard recomputes the dashboard
// @Summary Dashboard
// @Description Cards, chart proportions and breakdown tables for the current selection
// @Tags dashboard
// @Produce json
// @Param id path string true "Session ID"
// @Param format query string false "currency or millions"
// @Param group query string false "Comma separated breakdown columns"
// @Success 200 {object} session.Dashboard
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/dashboard [get]
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	var groups []string
	for _, g := range r.URL.Query()["group"] {
		for _, col := range strings.Split(g, ",") {
			if col = strings.TrimSpace(col); col != "" {
				groups = append(groups, col)
			}
		}
	}

	dash, err := h.sessions.Dashboard(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("format"), groups)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, dash)
}

// GetRows returns the filtered detail view
// @Summary Filtered rows
// @Tags dashboard
// @Produce json
// @Param id path string true "Session ID"
// @Param limit query int false "Page size (default 100, max 1000)"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} session.Page
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/rows [get]
func (h *DashboardHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", DefaultRowLimit)
	if err != nil || limit < 1 {
		h.respond(w, r, http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
		return
	}
	if limit > MaxRowLimit {
		limit = MaxRowLimit
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		h.respond(w, r, http.StatusBadRequest, ErrorResponse{Error: "offset must be a non-negative integer"})
		return
	}

	page, err := h.sessions.Rows(chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, page)
}

// ExportCSV downloads the filtered rows as CSV
// @Summary Export CSV
// @Tags export
// @Produce text/csv
// @Param id path string true "Session ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/export.csv [get]
func (h *DashboardHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "csv")
}

// ExportXLSX downloads the filtered rows as a workbook
// @Summary Export XLSX
// @Description On failure the response is 409 with a warning pointing to the CSV export
// @Tags export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Session ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Workbook could not be generated"
// @Router /sessions/{id}/export.xlsx [get]
func (h *DashboardHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "xlsx")
}

func (h *DashboardHandler) export(w http.ResponseWriter, r *http.Request, fileType string) {
	id := chi.URLParam(r, "id")
	file, err := h.sessions.Export(r.Context(), id, fileType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !file.Success {
		h.respond(w, r, http.StatusConflict, ErrorResponse{
			Error:  file.Warning,
			Detail: file.Error,
			CSVURL: fmt.Sprintf("/api/v1/sessions/%s/export.csv", id),
		})
		return
	}

	w.Header().Set("Content-Type", utils.ContentType(fileType))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Path))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		h.logger.WarnContext(r.Context(), "export write failed", slog.String("error", err.Error()))
	}
}

// Health reports service health
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *DashboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.history != nil {
		if err := h.history.Ping(r.Context()); err != nil {
			h.respond(w, r, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "store": err.Error()})
			return
		}
	}
	h.respond(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// bind decodes and validates a JSON body, answering 400 on failure.
func (h *DashboardHandler) bind(w http.ResponseWriter, r *http.Request, v render.Binder) bool {
	if err := render.Bind(r, v); err != nil {
		h.respond(w, r, http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Detail: err.Error()})
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field())+" is "+fe.Tag())
			}
			h.respond(w, r, http.StatusBadRequest, ErrorResponse{Error: "validation failed", Detail: strings.Join(fields, "; ")})
			return false
		}
		h.writeError(w, r, err)
		return false
	}
	return true
}

// writeError maps domain errors to status codes.
func (h *DashboardHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		schemaErr *pipeline.SchemaError
		tooLarge  *http.MaxBytesError
	)

	switch {
	case errors.As(err, &schemaErr):
		h.respond(w, r, http.StatusBadRequest, ErrorResponse{Error: schemaErr.Error(), Missing: schemaErr.Missing})
	case errors.Is(err, pipeline.ErrUnreadable):
		h.respond(w, r, http.StatusBadRequest, ErrorResponse{Error: pipeline.ErrUnreadable.Error(), Detail: err.Error()})
	case errors.As(err, &tooLarge):
		h.respond(w, r, http.StatusRequestEntityTooLarge, ErrorResponse{Error: fmt.Sprintf("file exceeds %d bytes", tooLarge.Limit)})
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, store.ErrNotFound):
		h.respond(w, r, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrInvalidFilter),
		errors.Is(err, session.ErrInvalidFormat),
		errors.Is(err, pipeline.ErrUnknownGroup):
		h.respond(w, r, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("path", r.URL.Path))
		h.respond(w, r, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func (h *DashboardHandler) respond(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
