package negotiate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls map[string]int
}

func (f *fakeSource) Token(_ context.Context, host string) (string, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[host]++
	return fmt.Sprintf("%s-%d", host, f.calls[host]), nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestHeaderCachePerHost(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	clk := &clock{t: time.Unix(1000, 0)}
	s := New(src, WithClock(clk.now))

	h, err := s.Header(ctx, "api.example.com")
	require.NoError(t, err)
	assert.Equal(t, "Negotiate api.example.com-1", h)

	h, err = s.Header(ctx, "API.example.com")
	require.NoError(t, err)
	assert.Equal(t, "Negotiate api.example.com-1", h, "hosts are case-insensitive")

	h, err = s.Header(ctx, "other.example.com")
	require.NoError(t, err)
	assert.Equal(t, "Negotiate other.example.com-1", h)

	clk.advance(DefaultTimeout - time.Second)
	h, err = s.Header(ctx, "api.example.com")
	require.NoError(t, err)
	assert.Equal(t, "Negotiate api.example.com-1", h)

	clk.advance(time.Second)
	h, err = s.Header(ctx, "api.example.com")
	require.NoError(t, err)
	assert.Equal(t, "Negotiate api.example.com-2", h, "refreshed once the timeout elapses")

	assert.Equal(t, map[string]int{"api.example.com": 2, "other.example.com": 1}, src.calls)
}

func TestCustomTimeoutAndClear(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	clk := &clock{t: time.Unix(0, 0)}
	s := New(src, WithClock(clk.now), WithTimeout(time.Minute))

	_, err := s.Header(ctx, "h")
	require.NoError(t, err)
	clk.advance(time.Minute)
	_, err = s.Header(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls["h"])

	s.Clear()
	_, err = s.Header(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, 3, src.calls["h"])
}

func TestSourceError(t *testing.T) {
	boom := errors.New("no ticket")
	s := New(TokenSourceFunc(func(context.Context, string) (string, error) {
		return "", boom
	}))

	_, err := s.Header(context.Background(), "h")
	assert.ErrorIs(t, err, boom)
}

func TestWrapSetsAuthorization(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	src := &fakeSource{}
	client := &http.Client{Transport: New(src).Wrap(http.DefaultTransport)}
	for i := 0; i < 2; i++ {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, []string{"Negotiate 127.0.0.1-1", "Negotiate 127.0.0.1-1"}, got)
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("KRB5_CONFIG", "/custom/krb5.conf")
	t.Setenv("KRB5CCNAME", "FILE:/custom/cc")
	assert.Equal(t, "/custom/krb5.conf", DefaultConfigPath())
	assert.Equal(t, "/custom/cc", DefaultCCachePath())

	_, err := LoadKerberosClient("/nonexistent/krb5.conf", "/nonexistent/cc")
	assert.Error(t, err)
}
