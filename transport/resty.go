package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Resty implements Transport with go-resty. It is the default transport.
// Resty's own retries are switched off; use Retryable when retries are
// wanted.
type Resty struct {
	client *resty.Client
}

// RestyOption configures a Resty transport.
type RestyOption func(*Resty)

// WithRestyClient sets a preconfigured resty client. The client is used as
// is: options applied after this one, including WithRestySigner, modify it
// and its underlying *http.Client. Give each Resty its own client.
func WithRestyClient(c *resty.Client) RestyOption {
	return func(r *Resty) {
		r.client = c
	}
}

// WithRestyTimeout sets the request timeout.
func WithRestyTimeout(d time.Duration) RestyOption {
	return func(r *Resty) {
		r.client.SetTimeout(d)
	}
}

// WithRestySigner wraps resty's round tripper with s.
func WithRestySigner(s RequestSigner) RestyOption {
	return func(r *Resty) {
		r.client.SetTransport(s.Wrap(roundTripper(r.client.GetClient().Transport)))
	}
}

// WithRestyLogger routes resty's internal warnings to logger.
func WithRestyLogger(logger *zap.Logger) RestyOption {
	return func(r *Resty) {
		r.client.SetLogger(logger.Sugar())
	}
}

// NewResty creates a new resty transport.
func NewResty(opts ...RestyOption) *Resty {
	r := &Resty{
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetRetryCount(0).
			SetLogger(zap.NewNop().Sugar()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resty) Name() string { return "resty" }

// Close releases idle connections.
func (r *Resty) Close() error {
	r.client.GetClient().CloseIdleConnections()
	return nil
}

// Client exposes the underlying resty client for further tuning.
func (r *Resty) Client() *resty.Client {
	return r.client
}

// Do sends the request through resty.
func (r *Resty) Do(ctx context.Context, req *Request) (*Response, error) {
	rr := r.client.R().SetContext(ctx)
	if len(req.Header) > 0 {
		rr.SetHeaderMultiValues(req.Header)
	}
	if req.Body != nil {
		rr.SetBody(req.Body)
	}

	resp, err := rr.Execute(req.Method, req.FullURL())
	if err != nil {
		return nil, fmt.Errorf("resty request: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Header:     resp.Header(),
		Body:       resp.Body(),
		Request:    req,
	}, nil
}
