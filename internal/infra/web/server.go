// File: internal/infra/web/server.go
package web

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"hostilerust-bot/internal/config"
	"hostilerust-bot/internal/usecase"
)

// HealthCheck reports one dependency's liveness.
type HealthCheck func(ctx context.Context) error

// Server is the admin HTTP API: stats, users and pool management behind JWT
// auth, plus unauthenticated health and metrics endpoints.
type Server struct {
	statsUC usecase.StatsUseCase
	userUC  usecase.UserUseCase
	promoUC usecase.PromoUseCase
	auth    *AuthManager
	apiKey  string
	checks  map[string]HealthCheck
	log     *zerolog.Logger

	httpServer *http.Server
}

func NewServer(
	cfg *config.WebConfig,
	statsUC usecase.StatsUseCase,
	userUC usecase.UserUseCase,
	promoUC usecase.PromoUseCase,
	checks map[string]HealthCheck,
	logger *zerolog.Logger,
) *Server {
	webLog := logger.With().Str("component", "WebServer").Logger()
	s := &Server{
		statsUC: statsUC,
		userUC:  userUC,
		promoUC: promoUC,
		auth:    NewAuthManager(cfg.JWTSecret, cfg.TokenTTL),
		apiKey:  cfg.APIKey,
		checks:  checks,
		log:     &webLog,
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthzHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/token", s.tokenHandler)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/stats", s.statsHandler)
			r.Get("/users", s.usersListHandler)
			r.Get("/codes", s.codesListHandler)
			r.Post("/codes", s.codesCreateHandler)
			r.Delete("/codes/{code}", s.codesDeleteHandler)
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("admin api listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) validAPIKey(candidate string) bool {
	if s.apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(s.apiKey)) == 1
}
