package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Josconicme/trial-insight/internal/metrics"
)

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	APIKeys        []string
	AllowedOrigins []string
}

// NewRouter mounts the API under /api/trials plus /health and /metrics.
// Static routes are registered before /{nctId} so they are never captured
// as an id.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEvent(s.logger))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
	r.Use(BearerAuthMiddleware(opts.APIKeys))
	r.Use(metrics.Middleware())

	r.Get("/", s.Root)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/trials", func(r chi.Router) {
		r.Get("/", s.ListTrials)
		r.Get("/search", s.SearchTrials)
		r.Get("/nearby", s.NearbyTrials)
		r.Get("/stats/overview", s.TrialStats)
		r.Route("/{nctId}", func(r chi.Router) {
			r.Get("/", s.GetTrial)
			r.Get("/summary", s.GetTrialSummary)
			r.Get("/related", s.GetRelatedTrials)
			r.Get("/predict", s.PredictTrial)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeMessage(w, http.StatusNotFound, "Route not found")
	})
	return r
}
