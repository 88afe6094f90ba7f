package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type headerSigner struct {
	key, value string
}

func (s headerSigner) Wrap(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		req = req.Clone(req.Context())
		req.Header.Set(s.key, s.value)
		return next.RoundTrip(req)
	})
}

// seen captures what an httptest server received.
type seen struct {
	method, query, body string
	header             http.Header
}

func echoServer(t *testing.T, got *seen) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*got = seen{method: r.Method, query: r.URL.RawQuery, body: string(b), header: r.Header.Clone()}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEncodeQuery(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		sep    string
		want   string
	}{
		{"empty", nil, "&", ""},
		{"sorted", map[string]string{"b": "2", "a": "1"}, "&", "a=1&b=2"},
		{"semicolon", map[string]string{"b": "2", "a": "1"}, ";", "a=1;b=2"},
		{"default separator", map[string]string{"x": "1", "y": "2"}, "", "x=1&y=2"},
		{"escaped", map[string]string{"q": "a b&c"}, "&", "q=a+b%26c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeQuery(tt.params, tt.sep))
		})
	}
}

func TestRequestFullURL(t *testing.T) {
	r := &Request{URL: "http://h/a"}
	assert.Equal(t, "http://h/a", r.FullURL())

	r.Params = map[string]string{"x": "1", "y": "2"}
	assert.Equal(t, "http://h/a?x=1&y=2", r.FullURL())

	r.URL = "http://h/a?z=0"
	r.Separator = ";"
	assert.Equal(t, "http://h/a?z=0;x=1;y=2", r.FullURL())
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Transport) Transport {
			return &wrapped{inner: next, name: name, do: func(ctx context.Context, req *Request) (*Response, error) {
				order = append(order, name)
				return next.Do(ctx, req)
			}}
		}
	}
	base := Func(func(context.Context, *Request) (*Response, error) {
		order = append(order, "base")
		return &Response{StatusCode: 200}, nil
	})

	tr := Chain(base, mark("outer"), mark("inner"))
	_, err := tr.Do(context.Background(), &Request{Method: "GET"})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "base"}, order)
	assert.Equal(t, "outer(inner(func))", tr.Name())
	assert.NoError(t, tr.Close())
}

func TestTransportsAgainstServer(t *testing.T) {
	signer := headerSigner{key: "Authorization", value: "Test xyz"}
	transports := map[string]func() Transport{
		"http":      func() Transport { return NewHTTP(WithHTTPSigner(signer)) },
		"resty":     func() Transport { return NewResty(WithRestySigner(signer)) },
		"retryable": func() Transport { return NewRetryable(DefaultRetryConfig(), WithRetrySigner(signer)) },
	}

	for name, mk := range transports {
		t.Run(name, func(t *testing.T) {
			var got seen
			srv := echoServer(t, &got)
			tr := mk()
			defer tr.Close()

			resp, err := tr.Do(context.Background(), &Request{
				Method: http.MethodPost,
				URL:    srv.URL + "/things",
				Params: map[string]string{"a": "1", "b": "2"},
				Header: http.Header{"Content-Type": {"application/json"}, "Accept": {"application/json"}},
				Body:   []byte(`{"x":1}`),
			})
			require.NoError(t, err)

			assert.Equal(t, http.StatusCreated, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			assert.JSONEq(t, `{"ok":true}`, string(resp.Body))

			assert.Equal(t, http.MethodPost, got.method)
			assert.Equal(t, "a=1&b=2", got.query)
			assert.Equal(t, `{"x":1}`, got.body)
			assert.Equal(t, "Test xyz", got.header.Get("Authorization"))
			assert.Equal(t, "application/json", got.header.Get("Accept"))
		})
	}
}

func TestHTTPNoBody(t *testing.T) {
	var got seen
	srv := echoServer(t, &got)

	resp, err := NewHTTP().Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "", got.body)
	assert.Empty(t, got.header.Get("Content-Type"))
}

func TestHTTPCopiesCallerClient(t *testing.T) {
	var got seen
	srv := echoServer(t, &got)

	shared := &http.Client{}
	tr := NewHTTP(WithClient(shared), WithHTTPTimeout(time.Second), WithHTTPSigner(headerSigner{key: "Authorization", value: "Test xyz"}))
	_, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "Test xyz", got.header.Get("Authorization"))

	assert.Nil(t, shared.Transport)
	assert.Zero(t, shared.Timeout)
}

func TestRestyClientOption(t *testing.T) {
	var got seen
	srv := echoServer(t, &got)

	c := resty.New().SetHeader("X-Custom", "1")
	tr := NewResty(WithRestyClient(c))
	assert.Same(t, c, tr.Client())

	_, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "1", got.header.Get("X-Custom"))
}

func TestRetryPolicy(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	never := func(context.Context, *http.Response, error) (bool, error) { return false, nil }
	tr := NewRetryable(RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}, WithRetryPolicy(never))
	resp, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestRetryableRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("done"))
	}))
	defer srv.Close()

	tr := NewRetryable(RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 2})
	resp, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "done", string(resp.Body))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRetryableReturnsLastResponse(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("broken"))
	}))
	defer srv.Close()

	tr := NewRetryable(RetryConfig{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond})
	resp, err := tr.Do(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err, "exhausted retries hand the response back for classification")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "broken", string(resp.Body))
	assert.Equal(t, int32(2), attempts.Load())
}

func TestJitterBackoff(t *testing.T) {
	t.Run("exponential without jitter", func(t *testing.T) {
		b := JitterBackoff(RetryConfig{Multiplier: 2})
		assert.Equal(t, 100*time.Millisecond, b(100*time.Millisecond, time.Second, 0, nil))
		assert.Equal(t, 400*time.Millisecond, b(100*time.Millisecond, time.Second, 2, nil))
		assert.Equal(t, time.Second, b(100*time.Millisecond, time.Second, 10, nil))
	})

	t.Run("jitter stays in bounds", func(t *testing.T) {
		b := JitterBackoff(RetryConfig{Multiplier: 2, JitterFactor: 0.2})
		for i := 0; i < 100; i++ {
			d := b(100*time.Millisecond, time.Second, 1, nil)
			assert.GreaterOrEqual(t, d, 160*time.Millisecond)
			assert.LessOrEqual(t, d, 240*time.Millisecond)
		}
	})

	t.Run("retry-after wins", func(t *testing.T) {
		b := JitterBackoff(RetryConfig{Multiplier: 2})
		resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{"Retry-After": {"3"}}}
		assert.Equal(t, 3*time.Second, b(time.Millisecond, time.Second, 0, resp))
	})
}

func okTransport(calls *int) Transport {
	return Func(func(_ context.Context, req *Request) (*Response, error) {
		*calls++
		return &Response{StatusCode: http.StatusOK, Body: []byte("abc"), Request: req}, nil
	})
}

func TestRateLimitHonoursContext(t *testing.T) {
	var calls int
	tr := Chain(okTransport(&calls), RateLimit(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}))

	_, err := tr.Do(context.Background(), &Request{Method: http.MethodGet})
	require.NoError(t, err, "burst allows the first request")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = tr.Do(ctx, &Request{Method: http.MethodGet})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRateLimitUnlimited(t *testing.T) {
	var calls int
	tr := Chain(okTransport(&calls), RateLimit(RateLimitConfig{}))
	for i := 0; i < 50; i++ {
		_, err := tr.Do(context.Background(), &Request{Method: http.MethodGet})
		require.NoError(t, err)
	}
	assert.Equal(t, 50, calls)
}

func TestRequestID(t *testing.T) {
	var got []string
	base := Func(func(_ context.Context, req *Request) (*Response, error) {
		got = append(got, req.Header.Get(RequestIDHeader))
		return &Response{StatusCode: http.StatusOK}, nil
	})
	tr := Chain(base, RequestID())

	orig := &Request{Method: http.MethodGet}
	_, err := tr.Do(context.Background(), orig)
	require.NoError(t, err)
	_, err = tr.Do(context.Background(), &Request{Method: http.MethodGet, Header: http.Header{RequestIDHeader: {"fixed"}}})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Len(t, got[0], 36)
	assert.Equal(t, "fixed", got[1])
	assert.Nil(t, orig.Header, "the caller's request is not modified")
}

func TestInstrument(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	var calls int
	tr := Chain(okTransport(&calls), Instrument(m))
	for i := 0; i < 2; i++ {
		_, err := tr.Do(context.Background(), &Request{Method: http.MethodGet})
		require.NoError(t, err)
	}

	failing := Chain(Func(func(context.Context, *Request) (*Response, error) {
		return nil, assert.AnError
	}), Instrument(m))
	_, err := failing.Do(context.Background(), &Request{Method: http.MethodPost})
	require.ErrorIs(t, err, assert.AnError)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))
}
