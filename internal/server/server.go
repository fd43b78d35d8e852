// Package server provides the HTTP server and routing for Loonie.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/loonie/internal/config"
	"github.com/aristath/loonie/internal/di"
	"github.com/aristath/loonie/internal/metrics"
	currencyhandlers "github.com/aristath/loonie/internal/modules/currency/handlers"
	locationhandlers "github.com/aristath/loonie/internal/modules/location/handlers"
)

const (
	defaultWriteTimeout = 15 * time.Second
	writeTimeoutMargin  = 5 * time.Second
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container // DI container with all services
	Port      int
	DevMode   bool
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	systemHandlers := NewSystemHandlers(
		cfg.Log,
		cfg.Config.DataDir,
		cfg.Config.Cache.Backend,
		cfg.Container.ClientDataDB,
		cfg.Container.Scheduler,
		cfg.Container.ExchangeRateService,
	)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		container:      cfg.Container,
		systemHandlers: systemHandlers,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(cfg.Config),
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// writeTimeout must outlast a first request that waits for GPS coordinates
// and then falls back to the IP lookup before it can answer.
func writeTimeout(cfg *config.Config) time.Duration {
	timeout := defaultWriteTimeout
	if cfg == nil {
		return timeout
	}
	if detect := cfg.Location.GPSTimeout + cfg.HTTPClient.Timeout + writeTimeoutMargin; detect > timeout {
		timeout = detect
	}
	return timeout
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	if s.cfg.MetricsEnabled {
		s.router.Get("/metrics", metrics.Handler)
	}

	s.router.Route("/api", func(r chi.Router) {
		c := s.container

		// Currency preference, conversion and breakdowns
		currencyHandler := currencyhandlers.NewHandler(
			c.PreferenceStore,
			c.LocationService,
			c.PriceConversionService,
			c.ExchangeRateService,
			c.BreakdownEstimator,
			s.log,
		)
		currencyHandler.RegisterRoutes(r)

		// Location detection
		var relay locationhandlers.CoordinateRelay
		if c.CoordinateRelay != nil {
			relay = c.CoordinateRelay
		}
		locationHandler := locationhandlers.NewHandler(c.LocationService, relay, c.PreferenceStore, s.log)
		locationHandler.RegisterRoutes(r)

		// System monitoring and operations
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/jobs", s.systemHandlers.HandleJobsStatus)
			r.Post("/jobs/{name}", s.systemHandlers.HandleTriggerJob)
			r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
		})
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
