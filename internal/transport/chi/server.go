// Package chi exposes the extraction pipeline and run artifacts over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mapbook/mapbook/internal/domain"
	runrepo "github.com/mapbook/mapbook/internal/repository/run"
	"github.com/mapbook/mapbook/internal/usecase/export"
	healthuc "github.com/mapbook/mapbook/internal/usecase/health"
	"github.com/mapbook/mapbook/internal/usecase/mapview"
	"github.com/mapbook/mapbook/internal/usecase/pipeline"
)

// Processor runs the extraction pipeline over one document.
type Processor interface {
	Process(ctx context.Context, text, addressLanguage string, store *domain.EventStore) (pipeline.Result, error)
}

// ReverseGeocoder resolves coordinates back to an address.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Location, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeRunNotFound      = "run_not_found"
	codeEmptyRun         = "empty_run"
	codeUnsupportedCRS   = "unsupported_crs"
	codeAddressNotFound  = "address_not_found"
	codeProviderError    = "provider_error"
	codeInternalError    = "internal_error"
)

// Server handles the HTTP API: starting runs, reading their map artifacts
// and exports, and ad-hoc reverse geocoding.
type Server struct {
	processor     Processor
	runs          runrepo.Repository
	health        *healthuc.Service
	reverse       ReverseGeocoder
	logger        *zap.Logger
	language      string
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. language is the default address
// output language for runs that do not specify one.
func NewServer(
	processor Processor,
	runs runrepo.Repository,
	health *healthuc.Service,
	reverse ReverseGeocoder,
	language string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		processor: processor,
		runs:      runs,
		health:    health,
		reverse:   reverse,
		language:  language,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrRunNotFound, http.StatusNotFound, codeRunNotFound),
		sentinelHandler(domain.ErrEmptyStore, http.StatusUnprocessableEntity, codeEmptyRun),
		sentinelHandler(domain.ErrUnsupportedCRS, http.StatusBadRequest, codeUnsupportedCRS),
		sentinelHandler(domain.ErrAddressNotFound, http.StatusNotFound, codeAddressNotFound),
		sentinelHandler(domain.ErrGeocodeService, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrCompletionService, http.StatusBadGateway, codeProviderError),
	}
	return s
}

// Routes mounts all API handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/runs", s.createRun)
		r.Route("/runs/{id}", func(r chi.Router) {
			r.Get("/", s.getRun)
			r.Delete("/", s.deleteRun)
			r.Get("/map", s.getMap)
			r.Get("/export/geojson", s.exportGeoJSON)
			r.Get("/export/shapefile", s.exportShapefile)
		})
		r.Get("/geocode/reverse", s.reverseGeocode)
	})
	r.Get("/health", s.healthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

type createRunRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// createRun handles POST /api/v1/runs: runs the whole pipeline synchronously
// and persists the result.
func (s *Server) createRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "text is required")
		return
	}
	language := req.Language
	if language == "" {
		language = s.language
	}

	store := domain.NewEventStore()
	res, err := s.processor.Process(r.Context(), req.Text, language, store)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	run := domain.Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Language:  language,
		Segments:  res.Segments,
		Events:    res.Events,
		Skipped:   res.Skipped,
	}
	if err := s.runs.Save(r.Context(), run); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/runs/"+run.ID)
	writeJSON(w, http.StatusCreated, run)
}

// getRun handles GET /api/v1/runs/{id}.
func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// deleteRun handles DELETE /api/v1/runs/{id}.
func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.runs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type mapResponse struct {
	Markers []mapview.Marker `json:"markers"`
	Route   mapview.Route    `json:"route"`
}

// getMap handles GET /api/v1/runs/{id}/map: markers plus the directional route.
func (s *Server) getMap(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapResponse{
		Markers: mapview.Markers(run.Events),
		Route:   mapview.BuildRoute(run.Events),
	})
}

// exportGeoJSON handles GET /api/v1/runs/{id}/export/geojson.
func (s *Server) exportGeoJSON(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	data, err := export.GeoJSON(run.Events)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.ID+".geojson"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// exportShapefile handles GET /api/v1/runs/{id}/export/shapefile?crs=.
func (s *Server) exportShapefile(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	data, err := export.Shapefile(run.Events, r.URL.Query().Get("crs"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.ID+".zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// reverseGeocode handles GET /api/v1/geocode/reverse?lat=&lon=.
func (s *Server) reverseGeocode(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "lat must be a number")
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "lon must be a number")
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "coordinates out of range")
		return
	}

	loc, err := s.reverse.ReverseGeocode(r.Context(), lat, lon)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrRunNotFound,
		domain.ErrEmptyStore,
		domain.ErrUnsupportedCRS,
		domain.ErrAddressNotFound,
		domain.ErrGeocodeService,
		domain.ErrCompletionService,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
