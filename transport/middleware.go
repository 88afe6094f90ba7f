package transport

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines client-side rate limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// RateLimit blocks each request until the token bucket allows it. A
// cancelled context aborts the wait with the context's error.
func RateLimit(cfg RateLimitConfig) Middleware {
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(limit, burst)

	return func(next Transport) Transport {
		return &wrapped{
			inner: next,
			name:  "ratelimit",
			do: func(ctx context.Context, req *Request) (*Response, error) {
				if err := limiter.Wait(ctx); err != nil {
					return nil, fmt.Errorf("rate limit: %w", err)
				}
				return next.Do(ctx, req)
			},
		}
	}
}

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-ID"

// RequestID stamps every request with a fresh UUID unless one is already set.
func RequestID() Middleware {
	return func(next Transport) Transport {
		return &wrapped{
			inner: next,
			name:  "requestid",
			do: func(ctx context.Context, req *Request) (*Response, error) {
				if req.Header.Get(RequestIDHeader) == "" {
					r := *req
					r.Header = req.Header.Clone()
					if r.Header == nil {
						r.Header = make(http.Header)
					}
					r.Header.Set(RequestIDHeader, uuid.NewString())
					req = &r
				}
				return next.Do(ctx, req)
			},
		}
	}
}

// Metrics holds the Prometheus collectors used by Instrument.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beanbag_requests_total",
				Help: "Total number of requests sent",
			},
			[]string{"method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "beanbag_request_duration_seconds",
				Help:    "Request round trip duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		ResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "beanbag_response_size_bytes",
				Help:    "Response body size in bytes",
				Buckets: prometheus.ExponentialBuckets(64, 4, 8),
			},
			[]string{"method"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.ResponseSize)
	}
	return m
}

// Instrument records request counts, durations and response sizes. Transport
// failures are counted with status "error".
func Instrument(m *Metrics) Middleware {
	return func(next Transport) Transport {
		return &wrapped{
			inner: next,
			name:  "metrics",
			do: func(ctx context.Context, req *Request) (*Response, error) {
				start := time.Now()
				resp, err := next.Do(ctx, req)
				m.RequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

				if err != nil {
					m.RequestsTotal.WithLabelValues(req.Method, "error").Inc()
					return nil, err
				}
				m.RequestsTotal.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()
				m.ResponseSize.WithLabelValues(req.Method).Observe(float64(len(resp.Body)))
				return resp, nil
			},
		}
	}
}
