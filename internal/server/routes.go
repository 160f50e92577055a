package server

import (
	"net/http"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/providerkit/providerkit/internal/observability"
	"github.com/providerkit/providerkit/internal/server/handlers"
)

const adminSignalPath = "/admin/signal"

func (s *Server) registerRoutes() {
	s.router.Get("/health", handlers.Global(func(hm *handlers.HealthManager) http.HandlerFunc { return hm.HealthHandler }))
	s.router.Get("/health/live", handlers.Global(func(hm *handlers.HealthManager) http.HandlerFunc { return hm.LivenessHandler }))
	s.router.Get("/health/ready", handlers.Global(func(hm *handlers.HealthManager) http.HandlerFunc { return hm.ReadinessHandler }))
	s.router.Get("/health/startup", handlers.Global(func(hm *handlers.HealthManager) http.HandlerFunc { return hm.StartupHandler }))

	s.router.Get("/version", handlers.VersionHandler)
	s.router.Get("/metrics", s.metricsHandler)

	if s.manager != nil {
		llmHandler := &handlers.LLMHandler{Manager: s.manager, Cooldown: s.cooldown}
		s.router.Route("/v1", func(r chi.Router) {
			llmHandler.Register(r)
		})
		if hm := handlers.GetHealthManager(); hm != nil {
			hm.RegisterChecker("credentials", llmHandler)
		}
	}

	s.registerAdminEndpoint()
}

// registerAdminEndpoint exposes gofulmen's signal endpoint so operators can
// trigger a credential reload without shell access to the process.
func (s *Server) registerAdminEndpoint() {
	logger := observability.ServerLogger

	if s.adminToken == "" {
		if logger != nil {
			logger.Debug("Admin signal endpoint disabled (no admin token configured)")
		}
		return
	}

	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.adminToken,
		RateLimit: 10,
		RateBurst: 5,
		Manager:   nil,
	})
	s.router.Post(adminSignalPath, handler.ServeHTTP)

	if logger != nil {
		logger.Info("Admin signal endpoint enabled",
			zap.String("path", adminSignalPath),
			zap.String("auth", "bearer token"),
			zap.String("rate_limit", "10/min, burst 5"))
		logger.Warn("Admin endpoint enabled - ensure this server is not exposed to public internet")
	}
}
