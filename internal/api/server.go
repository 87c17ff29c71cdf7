// Package api serves the similarity and crop queries over JSON HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/distancia360/agroanalytics/internal/app"
	"github.com/distancia360/agroanalytics/internal/monitoring"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Options configures the server. Zero values disable the optional parts.
type Options struct {
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
	RequestTimeout time.Duration

	Metrics  *monitoring.Metrics
	Gatherer prometheus.Gatherer // defaults to the global registry
	Ready    ReadinessChecker
	Clock    clockwork.Clock
}

// Server exposes the query API plus /healthz, /readyz, and /metrics.
type Server struct {
	app        *app.App
	opts       Options
	httpServer *http.Server
}

// NewServer creates an HTTP server over a.
func NewServer(addr string, a *app.App, opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{app: a, opts: opts}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
			ExposedHeaders: []string{requestIDHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		if s.opts.RateLimitRPS > 0 {
			r.Use(newClientLimiter(s.opts.RateLimitRPS, s.opts.RateLimitBurst).middleware)
		}
		if s.opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.opts.RequestTimeout))
		}

		r.Get("/municipios", s.handleMunicipalities)
		r.Get("/municipios/buscar", s.handleSearchNames)

		r.Route("/municipio/{cvegeo}", func(r chi.Router) {
			r.Get("/perfil", s.handleProfile)
			r.Get("/similar", s.handleSimilar)
			r.Get("/comparacion/{otro}", s.handleComparison)
			r.Get("/cultivos", s.handleCropsGrown)
			r.Get("/cultivos/{otro}", s.handleCropProfile)
			r.Get("/recomendaciones", s.handleRecommendations)
			r.Get("/produccion_anual", s.handleAnnualProduction)
			r.Get("/sequia", s.handleDrought)
		})

		r.Get("/cultivos", s.handleCropCatalog)
		r.Get("/cultivos/{id}/municipios", s.handleBestMunicipalities)
		r.Get("/cultivos/{id}/productores", s.handleTopProducers)
	})

	return r
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	zap.L().Info("http server starting", zap.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if len(s.app.Ref.CandidateIDs()) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "no reference data loaded",
		})
		return
	}
	if s.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.opts.Ready.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
