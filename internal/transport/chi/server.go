// Package chi serves the trial query API over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Josconicme/trial-insight/internal/domain"
	"github.com/Josconicme/trial-insight/internal/domain/trial"
	"github.com/Josconicme/trial-insight/internal/logger"
	healthuc "github.com/Josconicme/trial-insight/internal/usecase/health"
)

// TrialQuerier is the read side the handlers depend on.
type TrialQuerier interface {
	List(ctx context.Context, f trial.ListFilter, p trial.Pagination) (trial.Page, error)
	Search(ctx context.Context, q string, p trial.Pagination) (trial.Page, error)
	Nearby(ctx context.Context, lat, lng, radiusKm float64, p trial.Pagination) (trial.Page, error)
	Get(ctx context.Context, nctID string) (*trial.Trial, error)
	Summary(ctx context.Context, nctID string) (string, error)
	Related(ctx context.Context, nctID string) ([]trial.RelatedTrial, error)
	Prediction(ctx context.Context, nctID string) (trial.Prediction, error)
	Stats(ctx context.Context) (trial.Stats, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	trials TrialQuerier
	health HealthChecker
	logger *zap.Logger
}

// NewServer creates the HTTP API server.
func NewServer(trials TrialQuerier, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{trials: trials, health: health, logger: logger}
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

type healthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// ListTrials handles GET /api/trials.
func (s *Server) ListTrials(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := trial.ListFilter{
		Status:    q.Get("status"),
		Phase:     q.Get("phase"),
		Condition: q.Get("condition"),
		Sponsor:   q.Get("sponsor"),
	}
	if v := q.Get("hasResults"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, `Query parameter "hasResults" must be true or false`)
			return
		}
		f.HasResults = &b
	}

	page, err := s.trials.List(r.Context(), f, pagination(r))
	if err != nil {
		s.handleError(w, r, err, "Error retrieving trials")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// SearchTrials handles GET /api/trials/search.
func (s *Server) SearchTrials(w http.ResponseWriter, r *http.Request) {
	page, err := s.trials.Search(r.Context(), r.URL.Query().Get("q"), pagination(r))
	if err != nil {
		s.handleError(w, r, err, "Error searching trials")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// NearbyTrials handles GET /api/trials/nearby.
func (s *Server) NearbyTrials(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, `Query parameter "lat" is required and must be a number`)
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, `Query parameter "lng" is required and must be a number`)
		return
	}
	var radius float64
	if v := q.Get("radius"); v != "" {
		if radius, err = strconv.ParseFloat(v, 64); err != nil {
			writeMessage(w, http.StatusBadRequest, `Query parameter "radius" must be a number`)
			return
		}
	}

	page, err := s.trials.Nearby(r.Context(), lat, lng, radius, pagination(r))
	if err != nil {
		s.handleError(w, r, err, "Error finding nearby trials")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// TrialStats handles GET /api/trials/stats/overview.
func (s *Server) TrialStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.trials.Stats(r.Context())
	if err != nil {
		s.handleError(w, r, err, "Error getting trial statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetTrial handles GET /api/trials/{nctId}.
func (s *Server) GetTrial(w http.ResponseWriter, r *http.Request) {
	t, err := s.trials.Get(r.Context(), chi.URLParam(r, "nctId"))
	if err != nil {
		s.handleError(w, r, err, "Error retrieving trial")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// GetTrialSummary handles GET /api/trials/{nctId}/summary.
func (s *Server) GetTrialSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.trials.Summary(r.Context(), chi.URLParam(r, "nctId"))
	if err != nil {
		s.handleError(w, r, err, "Error retrieving summary")
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Summary: sum})
}

// GetRelatedTrials handles GET /api/trials/{nctId}/related.
func (s *Server) GetRelatedTrials(w http.ResponseWriter, r *http.Request) {
	related, err := s.trials.Related(r.Context(), chi.URLParam(r, "nctId"))
	if err != nil {
		s.handleError(w, r, err, "Error finding related trials")
		return
	}
	writeJSON(w, http.StatusOK, related)
}

// PredictTrial handles GET /api/trials/{nctId}/predict.
func (s *Server) PredictTrial(w http.ResponseWriter, r *http.Request) {
	p, err := s.trials.Prediction(r.Context(), chi.URLParam(r, "nctId"))
	if err != nil {
		s.handleError(w, r, err, "Error retrieving prediction")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Root handles GET / as a liveness banner.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "TrialInsight API is running!", "status": "OK"})
}

// HealthCheck handles GET /health. Only an unreachable store fails the check.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Status: report.Status, Checks: report.Checks})
}

// pagination reads page and limit leniently: anything that is not a positive
// integer falls back to the default.
func pagination(r *http.Request) trial.Pagination {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return trial.Pagination{Page: page, Limit: limit}
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log := logger.FromContext(r.Context())
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeMessage(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Trial not found")
	default:
		log.Error(msg, zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: msg, Error: err.Error()})
	}
}

func validationMessage(err error) string {
	if errors.Is(err, domain.ErrQueryRequired) {
		return `Query parameter "q" is required`
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return `Query parameter "` + ve.Field + `" ` + ve.Reason
	}
	return strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: msg})
}
