// Package negotiate attaches HTTP Negotiate (SPNEGO) authorization headers
// to outgoing requests.
//
// A single Signer can serve many hosts. The header for each host is reused
// for Timeout (default 180s) before a fresh token is requested:
//
//	cl, err := negotiate.LoadKerberosClient("", "")
//	signer := negotiate.New(negotiate.KerberosSource(cl))
//	api, err := beanbag.New(url, beanbag.WithSigner(signer))
package negotiate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ajtowns/beanbag/transport"
	"go.uber.org/zap"
)

// DefaultTimeout is how long a header is reused for one host.
const DefaultTimeout = 180 * time.Second

// TokenSource produces a base64 SPNEGO token for a host.
type TokenSource interface {
	Token(ctx context.Context, host string) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context, host string) (string, error)

// Token implements TokenSource.
func (f TokenSourceFunc) Token(ctx context.Context, host string) (string, error) {
	return f(ctx, host)
}

// Signer is a transport.RequestSigner that caches one Authorization header
// per host. It is safe for concurrent use.
type Signer struct {
	source  TokenSource
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	header   string
	obtained time.Time
}

// Option configures a Signer.
type Option func(*Signer)

// WithTimeout sets how long a header is reused (default: 180s).
func WithTimeout(d time.Duration) Option {
	return func(s *Signer) {
		s.timeout = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// WithLogger logs token acquisition at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(s *Signer) {
		s.logger = l
	}
}

// New creates a Signer drawing tokens from source.
func New(source TokenSource, opts ...Option) *Signer {
	s := &Signer{
		source:  source,
		timeout: DefaultTimeout,
		now:     time.Now,
		logger:  zap.NewNop(),
		entries: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Header returns the Authorization header value for host, reusing a cached
// one while it is younger than the timeout.
func (s *Signer) Header(ctx context.Context, host string) (string, error) {
	key := normalizeHost(host)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Sub(e.obtained) < s.timeout {
		return e.header, nil
	}

	tok, err := s.source.Token(ctx, key)
	if err != nil {
		return "", fmt.Errorf("negotiate token for %s: %w", key, err)
	}
	s.logger.Debug("obtained negotiate token", zap.String("host", key))

	s.evictExpired(now)
	h := "Negotiate " + tok
	s.entries[key] = cacheEntry{header: h, obtained: now}
	return h, nil
}

// Clear drops every cached header.
func (s *Signer) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]cacheEntry)
	s.mu.Unlock()
}

// Wrap implements transport.RequestSigner.
func (s *Signer) Wrap(next http.RoundTripper) http.RoundTripper {
	return transport.RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		h, err := s.Header(req.Context(), req.URL.Hostname())
		if err != nil {
			return nil, err
		}
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", h)
		return next.RoundTrip(req)
	})
}

// evictExpired removes stale entries. Must be called with lock held.
func (s *Signer) evictExpired(now time.Time) {
	for k, e := range s.entries {
		if now.Sub(e.obtained) >= s.timeout {
			delete(s.entries, k)
		}
	}
}

func normalizeHost(host string) string {
	return strings.ToLower(strings.TrimSuffix(host, "."))
}
