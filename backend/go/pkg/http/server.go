package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"OnboardingBuddy/backend/go/internal/config"
	"OnboardingBuddy/backend/go/pkg/circuitbreaker"
	"OnboardingBuddy/backend/go/pkg/httpmiddleware"
	"OnboardingBuddy/backend/go/pkg/logger"
	"OnboardingBuddy/backend/go/pkg/ratelimiter"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Server is an http.Server with the configured middleware chain in front of a mux.
type Server struct {
	httpServer *http.Server   // Handler is the middleware chain around mux
	mux        *http.ServeMux // routes registered through Handle
	log        *logger.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddress sets the listen address.
func WithAddress(addr string) ServerOption {
	return func(s *Server) {
		s.httpServer.Addr = addr
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *logger.Logger) ServerOption {
	return func(s *Server) {
		s.log = l
	}
}

// NewServer applies rate limiting and circuit breaking when enabled in cfg.
func NewServer(cfg *config.AppConfig, opts ...ServerOption) (*Server, error) {
	srv := &Server{
		httpServer: &http.Server{
			ReadHeaderTimeout: 10 * time.Second,
		},
		mux: http.NewServeMux(),
		log: logger.New("dashboard", "", ""),
	}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.httpServer.Addr == "" {
		srv.httpServer.Addr = ":8080"
	}

	var middlewares []Middleware
	if cfg.Middleware.RateLimiter.Enabled {
		limiter, err := ratelimiter.FromConfig(cfg.Middleware.RateLimiter)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		srv.log.WithPayload(map[string]interface{}{"algorithm": cfg.Middleware.RateLimiter.Algorithm}).
			Info("rate limiter middleware enabled")
		middlewares = append(middlewares, httpmiddleware.RateLimit(limiter))
	}
	if cfg.Middleware.CircuitBreaker.Enabled {
		breaker, err := circuitbreaker.FromConfig(cfg.Middleware.CircuitBreaker,
			circuitbreaker.OnStateChange(func(from, to circuitbreaker.State) {
				srv.log.WithPayload(map[string]interface{}{"from": from.String(), "to": to.String()}).
					Warn("dashboard circuit breaker state changed")
			}))
		if err != nil {
			return nil, fmt.Errorf("failed to create circuit breaker: %w", err)
		}
		srv.log.Info("circuit breaker middleware enabled")
		middlewares = append(middlewares, httpmiddleware.CircuitBreak(breaker))
	}

	var handler http.Handler = srv.mux
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	srv.httpServer.Handler = handler
	return srv, nil
}

func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

func (s *Server) HandleFunc(pattern string, handler http.HandlerFunc) {
	s.mux.HandleFunc(pattern, handler)
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe blocks until the server stops. A graceful Shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	s.log.WithPayload(map[string]interface{}{"address": s.httpServer.Addr}).Info("starting dashboard server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
