package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	apperrors "github.com/providerkit/providerkit/internal/errors"
	"github.com/providerkit/providerkit/internal/llm"
	"github.com/providerkit/providerkit/internal/observability"
	servermw "github.com/providerkit/providerkit/internal/server/middleware"
)

// Server is the admin HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	host   string
	port   int

	manager     *llm.Manager
	cooldown    func() time.Duration
	adminToken  string
	metricsPort int
	timeouts    Timeouts
}

// Timeouts configures the underlying http.Server.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// DefaultTimeouts match the server section defaults.
var DefaultTimeouts = Timeouts{
	Read:  30 * time.Second,
	Write: 30 * time.Second,
	Idle:  120 * time.Second,
}

// Option configures a Server.
type Option func(*Server)

// WithManager mounts the /v1 provider and cooldown routes backed by m.
// cooldown is read per request; nil means a zero window.
func WithManager(m *llm.Manager, cooldown func() time.Duration) Option {
	return func(s *Server) {
		s.manager = m
		s.cooldown = cooldown
	}
}

// WithAdminToken enables POST /admin/signal guarded by token.
func WithAdminToken(token string) Option {
	return func(s *Server) { s.adminToken = token }
}

// WithMetricsPort sets the exporter port /metrics proxies to when the
// exporter has not reported one.
func WithMetricsPort(port int) Option {
	return func(s *Server) { s.metricsPort = port }
}

// WithTimeouts overrides DefaultTimeouts. Zero fields keep the default.
func WithTimeouts(t Timeouts) Option {
	return func(s *Server) {
		if t.Read > 0 {
			s.timeouts.Read = t.Read
		}
		if t.Write > 0 {
			s.timeouts.Write = t.Write
		}
		if t.Idle > 0 {
			s.timeouts.Idle = t.Idle
		}
	}
}

// New creates a new HTTP server instance
func New(host string, port int, opts ...Option) *Server {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	// RequestID first so metrics and recovery can correlate; Recovery sits
	// inside RequestMetrics so a panic is still counted as a 500.
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		apperrors.RespondWithError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		apperrors.RespondWithError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s := &Server{
		router:   r,
		host:     host,
		port:     port,
		timeouts: DefaultTimeouts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.registerRoutes()

	return s
}

// Start listens and serves until Shutdown. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.host, fmt.Sprint(s.port))

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.timeouts.Read,
		WriteTimeout: s.timeouts.Write,
		IdleTimeout:  s.timeouts.Idle,
	}

	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Starting HTTP server",
			zap.String("host", s.host),
			zap.Int("port", s.port),
			zap.String("addr", addr))
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Shutting down HTTP server")
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}
