package http

import (
	"fmt"
	"net/http"
	"time"

	"OnboardingBuddy/backend/go/internal/config"
	"OnboardingBuddy/backend/go/pkg/circuitbreaker"
)

// Client is an http.Client whose calls pass through a circuit breaker. It
// satisfies the Do-only client interface expected by API SDKs.
type Client struct {
	httpClient *http.Client
	breaker    circuitbreaker.CircuitBreaker
}

// NewClient returns a plain client when the breaker is disabled.
func NewClient(cfg config.CircuitBreakerConfig, timeout time.Duration, opts ...circuitbreaker.Option) (*Client, error) {
	c := &Client{httpClient: &http.Client{Timeout: timeout}}
	if !cfg.Enabled {
		return c, nil
	}
	breaker, err := circuitbreaker.FromConfig(cfg, opts...)
	if err != nil {
		return nil, err
	}
	c.breaker = breaker
	return c, nil
}

// Do sends req. Transport errors and 5xx responses count as failures; a
// rejected call returns circuitbreaker.ErrCircuitOpen.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}

	var resp *http.Response
	_, err := c.breaker.Execute(func() (interface{}, error) {
		r, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		resp = r
		if r.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("server error: received status code %d", r.StatusCode)
		}
		return r, nil
	})
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	return resp, nil
}

// State exposes the breaker state, Closed when no breaker is configured.
func (c *Client) State() circuitbreaker.State {
	if c.breaker == nil {
		return circuitbreaker.Closed
	}
	return c.breaker.State()
}
