/*
handlers.go - HTTP API handlers for the quota tracker

PURPOSE:
  Exposes the tracker to the dashboard front end. Parses the segment
  selection, runs one full derivation and serializes the result.

ENDPOINTS:
  GET    /api/health                     Liveness
  GET    /api/segments                   Selector options and default segment
  GET    /api/dashboard                  Summary, forecast and all three charts
  GET    /api/charts/{granularity}.png   One chart as a PNG
  POST   /api/refresh                    Drop the cached snapshot
  POST   /api/admin/import               Load rows into the local SQLite source

SEGMENT PARAMETERS:
  ?nationality=filipina&location=outside_uae&active=yes
  Missing nationality or location falls back to the default segment.
  active accepts yes/no, true/false, 1/0; anything else is 400.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid segment, granularity or body
  - 404: Nothing to render
  - 502: Data source unavailable
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/warp/quota-tracker/generic"
	"github.com/warp/quota-tracker/render"
	"github.com/warp/quota-tracker/store/sqlite"
	"github.com/warp/quota-tracker/tracker"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Invalidator drops a cached snapshot.
type Invalidator interface {
	Invalidate()
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *tracker.Service
	Cache   Invalidator
	// Store is set only when the source is the local SQLite file.
	Store *sqlite.Store
	Log   zerolog.Logger
}

// NewHandler creates a new handler. store may be nil.
func NewHandler(service *tracker.Service, cache Invalidator, store *sqlite.Store, log zerolog.Logger) *Handler {
	return &Handler{Service: service, Cache: cache, Store: store, Log: log}
}

// =============================================================================
// DASHBOARD HANDLERS
// =============================================================================

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListSegments returns the selector options.
func (h *Handler) ListSegments(w http.ResponseWriter, r *http.Request) {
	opts, err := h.Service.Options(r.Context())
	if err != nil {
		h.fail(w, "Failed to load segments", err)
		return
	}
	writeJSON(w, http.StatusOK, SegmentOptionsDTO{
		Nationalities: nonNil(opts.Nationalities),
		Locations:     nonNil(opts.Locations),
		Default:       toSegmentDTO(opts.Default),
	})
}

// GetDashboard runs the full derivation for the requested segment.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboard(r)
	if err != nil {
		h.fail(w, "Failed to build dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(d))
}

// GetChartPNG renders one granularity's chart.
func (h *Handler) GetChartPNG(w http.ResponseWriter, r *http.Request) {
	g, err := generic.ParseGranularity(chi.URLParam(r, "granularity"))
	if err != nil {
		h.fail(w, "Invalid granularity", err)
		return
	}
	width, _ := strconv.Atoi(r.URL.Query().Get("width"))
	height, _ := strconv.Atoi(r.URL.Query().Get("height"))

	d, err := h.dashboard(r)
	if err != nil {
		h.fail(w, "Failed to build dashboard", err)
		return
	}
	chart, ok := d.Chart(g)
	if !ok {
		h.fail(w, "Chart not found", generic.ErrNoData)
		return
	}

	var buf bytes.Buffer
	if err := render.PNG(&buf, chart, width, height); err != nil {
		if !generic.IsNotFound(err) {
			h.Log.Error().Err(err).Str("granularity", string(g)).Str("segment", d.Segment.String()).Msg("chart render failed")
		}
		h.fail(w, "Failed to render chart", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Refresh drops the cached snapshot; the next request refetches.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.Cache.Invalidate()
	h.Log.Info().Msg("snapshot invalidated")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "invalidated"})
}

func (h *Handler) dashboard(r *http.Request) (*tracker.Dashboard, error) {
	seg, err := parseSegment(r)
	if err != nil {
		return nil, err
	}
	seg, err = h.Service.Resolve(r.Context(), seg)
	if err != nil {
		return nil, err
	}
	return h.Service.Dashboard(r.Context(), seg)
}

func parseSegment(r *http.Request) (generic.Segment, error) {
	q := r.URL.Query()
	seg := generic.Segment{
		Nationality: q.Get("nationality"),
		Location:    q.Get("location"),
	}
	active, err := parseBool(q.Get("active"))
	if err != nil {
		return generic.Segment{}, err
	}
	seg.ActiveOnly = active
	return seg, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "no", "false", "0":
		return false, nil
	case "yes", "true", "1":
		return true, nil
	}
	return false, fmt.Errorf("%w: active must be yes or no, got %q", generic.ErrInvalidSegment, s)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// Import loads rows into the SQLite source and invalidates the cache.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusBadRequest, "Import requires the sqlite source", nil)
		return
	}

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	apps := make([]sqlite.Application, len(req.Applications))
	for i, a := range req.Applications {
		apps[i] = sqlite.Application{
			Created:          a.ApplicationCreated,
			Nationality:      a.Nationality,
			Location:         a.Location,
			ActiveVisaStatus: a.ActiveVisaStatus,
		}
	}

	var result ImportResultDTO
	n, err := h.Store.ImportEvents(r.Context(), apps)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to import applications", err)
		return
	}
	result.Applications = n

	if req.Quotas != nil {
		quotas := make([]generic.QuotaRow, len(req.Quotas))
		for i, q := range req.Quotas {
			quotas[i] = generic.QuotaRow{
				NationalityCategory: q.Nationality,
				LocationCategory:    q.Location,
				QuotaAll:            q.QuotaAll,
				QuotaActive:         q.QuotaActive,
			}
		}
		if result.Quotas, err = h.Store.ImportQuotas(r.Context(), quotas); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to import quotas", err)
			return
		}
	}

	h.Cache.Invalidate()
	h.Log.Info().Int("applications", result.Applications).Int("quotas", result.Quotas).Msg("import complete")
	writeJSON(w, http.StatusCreated, result)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Log.Error().Err(err).Msg(message)
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case generic.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, generic.ErrSourceUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
