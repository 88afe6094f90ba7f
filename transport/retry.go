package transport

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// RetryConfig configures retry behavior with exponential backoff.
type RetryConfig struct {
	MaxRetries     int           // Maximum number of retries (0 = no retries)
	InitialBackoff time.Duration // Initial backoff duration
	MaxBackoff     time.Duration // Maximum backoff duration
	Multiplier     float64       // Backoff multiplier (e.g., 2.0 for doubling)
	JitterFactor   float64       // Jitter factor (0.0-1.0)
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2.0,
		JitterFactor:   0.2,
	}
}

// Retryable implements Transport with hashicorp/go-retryablehttp.
//
// Connection errors and 429/5xx responses are retried. Once retries are
// exhausted the last response is returned as-is, so status classification
// stays with the caller.
type Retryable struct {
	client *retryablehttp.Client
}

// RetryOption configures a Retryable transport.
type RetryOption func(*Retryable)

// WithRetryLogger logs retry attempts through logger.
func WithRetryLogger(logger *zap.Logger) RetryOption {
	return func(r *Retryable) {
		r.client.Logger = leveledLogger{logger.Sugar()}
	}
}

// WithRetrySigner wraps the underlying round tripper with s.
func WithRetrySigner(s RequestSigner) RetryOption {
	return func(r *Retryable) {
		hc := r.client.HTTPClient
		hc.Transport = s.Wrap(roundTripper(hc.Transport))
	}
}

// WithRetryTimeout sets the per-attempt timeout.
func WithRetryTimeout(d time.Duration) RetryOption {
	return func(r *Retryable) {
		r.client.HTTPClient.Timeout = d
	}
}

// WithRetryPolicy replaces the retry decision function.
func WithRetryPolicy(p retryablehttp.CheckRetry) RetryOption {
	return func(r *Retryable) {
		r.client.CheckRetry = p
	}
}

// NewRetryable creates a retrying transport.
func NewRetryable(cfg RetryConfig, opts ...RetryOption) *Retryable {
	c := retryablehttp.NewClient()
	c.RetryMax = cfg.MaxRetries
	c.RetryWaitMin = cfg.InitialBackoff
	c.RetryWaitMax = cfg.MaxBackoff
	c.Backoff = JitterBackoff(cfg)
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.Logger = nil
	c.HTTPClient.Timeout = 30 * time.Second

	r := &Retryable{client: c}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Retryable) Name() string { return "retryable" }

// Close releases idle connections.
func (r *Retryable) Close() error {
	r.client.HTTPClient.CloseIdleConnections()
	return nil
}

// Do sends the request, retrying per the configured policy.
func (r *Retryable) Do(ctx context.Context, req *Request) (*Response, error) {
	var body any
	if req.Body != nil {
		body = req.Body
	}
	rreq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.FullURL(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			rreq.Header.Add(k, v)
		}
	}

	resp, err := r.client.Do(rreq)
	if err != nil {
		return nil, fmt.Errorf("retryable request: %w", err)
	}
	return readResponse(req, resp)
}

// JitterBackoff returns a retryablehttp.Backoff that grows by
// cfg.Multiplier per attempt, caps at max and applies ±cfg.JitterFactor.
// A Retry-After header on 429/503 responses takes precedence.
func JitterBackoff(cfg RetryConfig) retryablehttp.Backoff {
	var (
		mu  sync.Mutex
		rng = rand.New(rand.NewSource(seed()))
	)
	return func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
		if after, ok := retryAfter(resp); ok {
			return after
		}

		mult := cfg.Multiplier
		if mult < 1 {
			mult = 1
		}
		backoff := float64(min)
		for i := 0; i < attemptNum; i++ {
			backoff *= mult
		}
		if backoff > float64(max) {
			backoff = float64(max)
		}

		if cfg.JitterFactor > 0 {
			mu.Lock()
			jitter := (rng.Float64()*2 - 1) * cfg.JitterFactor * backoff
			mu.Unlock()
			backoff += jitter
		}
		if backoff < 0 {
			backoff = 0
		}
		return time.Duration(backoff)
	}
}

// retryAfter reads a seconds-valued Retry-After header from 429/503
// responses.
func retryAfter(resp *http.Response) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
		return 0, false
	}
	secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// seed reads a random seed so backoff timing is not predictable across
// processes.
func seed() int64 {
	var s int64
	if err := binary.Read(cryptorand.Reader, binary.BigEndian, &s); err != nil {
		s = time.Now().UnixNano()
	}
	return s
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
