// Package transporttest provides a scripted in-memory Transport for tests.
package transporttest

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"sync"

	"github.com/ajtowns/beanbag/transport"
	"github.com/bytedance/sonic"
)

// Any matches every value in an expectation.
const Any = "\x00any"

// ErrUnexpected is returned for requests that match no expectation.
var ErrUnexpected = errors.New("transporttest: unexpected request")

// Echo is the body the default reply carries: the request as received.
type Echo struct {
	Method string            `json:"method"`
	URL    string            `json:"url"`
	Params map[string]string `json:"params"`
	Data   *string           `json:"data"`
}

// Recorder is a Transport that serves scripted replies in order. Every
// request must match the next pending expectation.
type Recorder struct {
	mu       sync.Mutex
	pending  []*Call
	requests []*transport.Request
}

// Call is one expected request and its scripted reply.
type Call struct {
	method, url string
	params      map[string]string
	anyParams   bool
	data        *string
	anyData     bool

	resp *transport.Response
	err  error
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{}
}

// Expect queues a request expectation. Params and data default to Any.
func (r *Recorder) Expect(method, url string) *Call {
	c := &Call{method: method, url: url, anyParams: true, anyData: true}
	r.mu.Lock()
	r.pending = append(r.pending, c)
	r.mu.Unlock()
	return c
}

// WithParams requires the request to carry exactly params.
func (c *Call) WithParams(params map[string]string) *Call {
	c.params, c.anyParams = params, false
	return c
}

// WithData requires the request body to equal data. A nil data requires
// the request to have no body.
func (c *Call) WithData(data *string) *Call {
	c.data, c.anyData = data, false
	return c
}

// Respond replaces the default echo reply.
func (c *Call) Respond(status int, contentType, body string) *Call {
	h := http.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	c.resp = &transport.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     h,
		Body:       []byte(body),
	}
	return c
}

// Fail makes the call return err instead of a response.
func (c *Call) Fail(err error) *Call {
	c.err = err
	return c
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) Close() error { return nil }

// Do matches req against the next pending expectation.
func (r *Recorder) Do(_ context.Context, req *transport.Request) (*transport.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests = append(r.requests, req)
	if len(r.pending) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrUnexpected, req.Method, req.URL)
	}
	c := r.pending[0]
	r.pending = r.pending[1:]

	if err := c.match(req); err != nil {
		return nil, err
	}
	if c.err != nil {
		return nil, c.err
	}
	if c.resp != nil {
		resp := *c.resp
		resp.Request = req
		return &resp, nil
	}
	return echo(req)
}

// Pending reports how many expectations have not been consumed.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Requests returns every request seen so far.
func (r *Recorder) Requests() []*transport.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*transport.Request(nil), r.requests...)
}

// Last returns the most recent request, or nil.
func (r *Recorder) Last() *transport.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.requests) == 0 {
		return nil
	}
	return r.requests[len(r.requests)-1]
}

func (c *Call) match(req *transport.Request) error {
	if c.method != Any && c.method != req.Method {
		return fmt.Errorf("%w: method %s, want %s", ErrUnexpected, req.Method, c.method)
	}
	if c.url != Any && c.url != req.URL {
		return fmt.Errorf("%w: url %s, want %s", ErrUnexpected, req.URL, c.url)
	}
	if !c.anyParams && !maps.Equal(c.params, req.Params) {
		return fmt.Errorf("%w: params %v, want %v", ErrUnexpected, req.Params, c.params)
	}
	if !c.anyData {
		got := body(req)
		switch {
		case c.data == nil && got != nil:
			return fmt.Errorf("%w: unexpected body %q", ErrUnexpected, *got)
		case c.data != nil && (got == nil || *got != *c.data):
			return fmt.Errorf("%w: body mismatch, want %q", ErrUnexpected, *c.data)
		}
	}
	return nil
}

func echo(req *transport.Request) (*transport.Response, error) {
	b, err := sonic.ConfigStd.Marshal(Echo{
		Method: req.Method,
		URL:    req.URL,
		Params: req.Params,
		Data:   body(req),
	})
	if err != nil {
		return nil, err
	}
	return &transport.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       b,
		Request:    req,
	}, nil
}

func body(req *transport.Request) *string {
	if req.Body == nil {
		return nil
	}
	s := string(req.Body)
	return &s
}

// String is a convenience for WithData.
func String(s string) *string { return &s }
