package httpmiddleware

import (
	"errors"
	"fmt"
	"net/http"

	"OnboardingBuddy/backend/go/pkg/circuitbreaker"
	"OnboardingBuddy/backend/go/pkg/ratelimiter"
)

// RateLimit answers 429 when the limiter rejects the request.
func RateLimit(limiter ratelimiter.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int // http.StatusOK until the handler writes a header
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// CircuitBreak counts 5xx responses as failures and answers 503 while the
// circuit is open.
func CircuitBreak(breaker circuitbreaker.CircuitBreaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			_, err := breaker.Execute(func() (interface{}, error) {
				next.ServeHTTP(rw, r)
				if rw.status >= http.StatusInternalServerError {
					return nil, fmt.Errorf("server error: status code %d", rw.status)
				}
				return nil, nil
			})
			// Handler errors were already written to the response.
			if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
				http.Error(w, "Service Unavailable: Circuit Breaker is open", http.StatusServiceUnavailable)
			}
		})
	}
}
