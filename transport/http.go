package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTP implements Transport on top of a plain *http.Client.
type HTTP struct {
	client *http.Client
}

// HTTPOption configures an HTTP transport.
type HTTPOption func(*HTTP)

// WithClient uses a copy of client. Later options such as WithHTTPSigner
// and WithHTTPTimeout change the copy, never the caller's client.
func WithClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		cl := *client
		h.client = &cl
	}
}

// WithHTTPTimeout sets the client timeout.
func WithHTTPTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		h.client.Timeout = d
	}
}

// WithHTTPSigner wraps the client's round tripper with s.
func WithHTTPSigner(s RequestSigner) HTTPOption {
	return func(h *HTTP) {
		h.client.Transport = s.Wrap(roundTripper(h.client.Transport))
	}
}

// NewHTTP creates a new net/http transport.
func NewHTTP(opts ...HTTPOption) *HTTP {
	h := &HTTP{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HTTP) Name() string { return "http" }

// Close releases idle connections.
func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

// Do sends the request with the underlying client.
func (h *HTTP) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := req.httpRequest(ctx)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	return readResponse(req, resp)
}

// readResponse drains and closes resp into a Response.
func readResponse(req *Request, resp *http.Response) (*Response, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
		Request:    req,
	}, nil
}

func roundTripper(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}
