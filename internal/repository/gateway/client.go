package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"abayaStore/pkg/logger"
	"abayaStore/pkg/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the circuit breaker in front of each gateway.
type BreakerConfig struct {
	MaxFailures uint32
	OpenTimeout time.Duration
	HTTPTimeout time.Duration
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.MaxFailures == 0 {
		c.MaxFailures = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 15 * time.Second
	}
	return c
}

// APIError is a non-2xx answer from a gateway.
type APIError struct {
	Gateway string
	Status  int
	Body    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Gateway, e.Status, e.Body)
}

// client sends gateway requests through a circuit breaker. Client errors
// (4xx) do not count against the breaker.
type client struct {
	name string
	http *http.Client
	cb   *gobreaker.CircuitBreaker[[]byte]
}

func newClient(name string, cfg BreakerConfig) *client {
	cfg = cfg.withDefaults()
	metrics.GatewayBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Gateway circuit breaker state changed", "gateway", name, "from", from.String(), "to", to.String())
			metrics.GatewayBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &client{
		name: name,
		http: &http.Client{Timeout: cfg.HTTPTimeout},
		cb:   cb,
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}

// do executes req and returns the response body of a 2xx answer.
func (c *client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	req = req.WithContext(ctx)
	body, err := c.cb.Execute(func() ([]byte, error) {
		res, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer res.Body.Close()

		body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if res.StatusCode < 200 || res.StatusCode > 299 {
			return nil, &APIError{Gateway: c.name, Status: res.StatusCode, Body: string(body)}
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logger.Warn("Gateway request rejected by circuit breaker", "gateway", c.name)
			return nil, fmt.Errorf("%s unavailable: %w", c.name, err)
		}
		return nil, err
	}
	return body, nil
}
