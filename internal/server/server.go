package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"EarningsChart/internal/analysis"
	"EarningsChart/internal/metrics"
)

// Options holds the HTTP server settings.
type Options struct {
	Host           string
	Port           int
	CORSOrigins    []string
	RequestTimeout time.Duration
	StaticDir      string
}

// ProviderStatus reports the active price provider; *collector.Collector
// satisfies it.
type ProviderStatus interface {
	Name() string
	Period() string
	BreakerState() string
}

// Server is the chart HTTP API.
type Server struct {
	router   *mux.Router
	server   *http.Server
	service  *analysis.Service
	provider ProviderStatus
	metrics  *metrics.Registry
	opts     Options
}

// New creates a Server and registers its routes.
func New(opts Options, svc *analysis.Service, provider ProviderStatus, m *metrics.Registry) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	s := &Server{
		router:   mux.NewRouter(),
		service:  svc,
		provider: provider,
		metrics:  m,
		opts:     opts,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.accessLogMiddleware)
	s.router.Use(s.corsMiddleware)
	s.router.Use(s.timeoutMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(jsonContentTypeMiddleware)
	api.HandleFunc("/chart/{ticker}", s.handleChart).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet, http.MethodOptions)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodOptions)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	if s.opts.StaticDir != "" {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.opts.StaticDir))).Methods(http.MethodGet)
	}
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.Addr()).Str("provider", s.provider.Name()).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down http server")
	return s.server.Shutdown(ctx)
}
