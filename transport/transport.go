// Package transport provides HTTP transport implementations for beanbag.
//
// A Transport performs exactly one HTTP exchange per call. Everything the
// request pipeline deliberately does not do (retries, rate limiting,
// metrics, authentication) is layered here, either inside a concrete
// Transport or as Middleware around one.
package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// DefaultSeparator joins query parameters on the wire.
const DefaultSeparator = "&"

// Transport defines the interface for HTTP transports.
type Transport interface {
	// Name returns the transport name (e.g., "resty", "http", "retryable").
	Name() string

	// Do sends a request and returns the raw response. A non-2xx status is
	// not an error at this layer.
	Do(ctx context.Context, req *Request) (*Response, error)

	// Close releases any resources held by the transport.
	Close() error
}

// Request represents a single HTTP request.
type Request struct {
	Method    string            // HTTP verb
	URL       string            // Absolute URL without query string
	Params    map[string]string // Query parameters
	Separator string            // Joins query pairs; DefaultSeparator if empty
	Header    http.Header       // Request headers
	Body      []byte            // Encoded body; nil means no body
}

// Response represents a raw HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Request    *Request
}

// FullURL returns the URL with the encoded query string appended.
func (r *Request) FullURL() string {
	q := EncodeQuery(r.Params, r.Separator)
	if q == "" {
		return r.URL
	}
	if strings.Contains(r.URL, "?") {
		return r.URL + r.separator() + q
	}
	return r.URL + "?" + q
}

func (r *Request) separator() string {
	if r.Separator == "" {
		return DefaultSeparator
	}
	return r.Separator
}

// httpRequest converts r into a *http.Request bound to ctx.
func (r *Request) httpRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.FullURL(), body)
	if err != nil {
		return nil, err
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// EncodeQuery renders params as sorted, escaped key=value pairs joined by sep.
func EncodeQuery(params map[string]string, sep string) string {
	if len(params) == 0 {
		return ""
	}
	if sep == "" {
		sep = DefaultSeparator
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, url.QueryEscape(k)+"="+url.QueryEscape(params[k]))
	}
	return strings.Join(pairs, sep)
}

// RequestSigner attaches credentials to outgoing requests by wrapping the
// round tripper that sends them.
type RequestSigner interface {
	Wrap(next http.RoundTripper) http.RoundTripper
}

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip implements http.RoundTripper.
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Func adapts a function to Transport.
type Func func(ctx context.Context, req *Request) (*Response, error)

func (f Func) Name() string { return "func" }

func (f Func) Do(ctx context.Context, req *Request) (*Response, error) { return f(ctx, req) }

func (f Func) Close() error { return nil }

// Middleware decorates a Transport.
type Middleware func(Transport) Transport

// Chain wraps t with middleware. The first middleware is the outermost.
func Chain(t Transport, mw ...Middleware) Transport {
	for i := len(mw) - 1; i >= 0; i-- {
		t = mw[i](t)
	}
	return t
}

// wrapped forwards Name and Close to an inner transport.
type wrapped struct {
	inner Transport
	name  string
	do    func(ctx context.Context, req *Request) (*Response, error)
}

func (w *wrapped) Name() string {
	return w.name + "(" + w.inner.Name() + ")"
}

func (w *wrapped) Do(ctx context.Context, req *Request) (*Response, error) {
	return w.do(ctx, req)
}

func (w *wrapped) Close() error {
	return w.inner.Close()
}
