package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ajtowns/beanbag"
	"github.com/ajtowns/beanbag/internal/config"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/request_token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("oauth_token=rt&oauth_token_secret=rs&oauth_callback_confirmed=true"))
	})
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Authorization"), `oauth_verifier="v123"`) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("oauth_token=at&oauth_token_secret=as"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(r.Header.Get("Accept"), "yaml") {
			w.Header().Set("Content-Type", "application/yaml")
			fmt.Fprintf(w, "method: %s\nbody: %q\n", r.Method, body)
			return
		}
		out, _ := sonic.ConfigStd.Marshal(map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"query":      r.URL.RawQuery,
			"body":       string(body),
			"auth":       r.Header.Get("Authorization"),
			"request_id": r.Header.Get("X-Request-ID") != "",
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(out)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func run(cfg *config.Config, stdin string, args ...string) (string, error) {
	root := New(cfg).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func decode(t *testing.T, out string) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, sonic.ConfigStd.UnmarshalFromString(out, &v), out)
	return v
}

func TestVerbCommands(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name   string
		args   []string
		method string
		path   string
		query  string
		body   string
	}{
		{"get", []string{"get", "users", "42"}, "GET", "/users/42", "", ""},
		{"params", []string{"get", "users", "-p", "a=1", "-p", "b=x y"}, "GET", "/users", "a=1&b=x+y", ""},
		{"trailing slash", []string{"get", "users", "_"}, "GET", "/users/", "", ""},
		{"post", []string{"post", "users", "-d", `{"name":"x"}`}, "POST", "/users", "", `{"name":"x"}`},
		{"put", []string{"put", "users", "1", "-d", `[1,2]`}, "PUT", "/users/1", "", `[1,2]`},
		{"patch", []string{"patch", "users", "1", "-d", `{"a":true}`}, "PATCH", "/users/1", "", `{"a":true}`},
		{"delete", []string{"delete", "users", "1"}, "DELETE", "/users/1", "", ""},
		{"call", []string{"call", "purge", "cache"}, "PURGE", "/cache", "", ""},
		{"extension", []string{"--ext", ".json", "get", "users"}, "GET", "/users.json", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--base-url", srv.URL + "/"}, tt.args...)
			out, err := run(config.Default(), "", args...)
			require.NoError(t, err)

			got := decode(t, out)
			assert.Equal(t, tt.method, got["method"])
			assert.Equal(t, tt.path, got["path"])
			assert.Equal(t, tt.query, got["query"])
			assert.Equal(t, tt.body, got["body"])
			assert.Equal(t, true, got["request_id"])
		})
	}
}

func TestRetriesAndRate(t *testing.T) {
	srv := newServer(t)
	out, err := run(config.Default(), "", "--base-url", srv.URL, "--retries", "2", "--rate", "100", "get", "x")
	require.NoError(t, err)
	assert.Equal(t, "/x", decode(t, out)["path"])
}

func TestYAML(t *testing.T) {
	srv := newServer(t)
	out, err := run(config.Default(), "", "--base-url", srv.URL, "--yaml", "post", "x", "-d", "x: 1")
	require.NoError(t, err)

	got := decode(t, out)
	assert.Equal(t, "POST", got["method"])
	assert.Equal(t, "x: 1\n", got["body"])
}

func TestURLCommand(t *testing.T) {
	out, err := run(config.Default(), "", "--base-url", "http://h/api", "--ext", ".json", "url", "users", "1", "-p", "q=x")
	require.NoError(t, err)
	assert.Equal(t, "http://h/api/users/1.json?q=x\n", out)

	cfg := config.Default()
	cfg.BaseURL = "http://env/"
	out, err = run(cfg, "", "url", "a")
	require.NoError(t, err)
	assert.Equal(t, "http://env/a\n", out, "base URL from the environment")
}

func TestEnvCommand(t *testing.T) {
	out, err := run(config.Default(), "", "env")
	require.NoError(t, err)
	assert.Contains(t, out, "BEANBAG_BASE_URL")
	assert.Contains(t, out, "BEANBAG_PASSPHRASE")
}

func TestCommandErrors(t *testing.T) {
	srv := newServer(t)

	_, err := run(config.Default(), "", "get", "x")
	assert.ErrorIs(t, err, errNoBaseURL)

	_, err = run(config.Default(), "", "--base-url", srv.URL, "get", "x", "-d", "{}")
	assert.ErrorContains(t, err, "does not take --data")

	_, err = run(config.Default(), "", "--base-url", srv.URL, "get", "-p", "novalue")
	assert.ErrorContains(t, err, "invalid parameter")

	_, err = run(config.Default(), "", "--base-url", srv.URL, "post", "x", "-d", "{not json")
	assert.ErrorContains(t, err, "--data")

	_, err = run(config.Default(), "", "--base-url", srv.URL, "get", "missing")
	code, ok := beanbag.IsBadStatus(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, code)

	_, err = run(config.Default(), "", "--base-url", srv.URL, "call")
	assert.Error(t, err)
}

func TestOAuthFlow(t *testing.T) {
	srv := newServer(t)
	store := filepath.Join(t.TempDir(), "oauth.bin")

	cfg := func() *config.Config {
		c := config.Default()
		c.OAuthRequestTokenURL = srv.URL + "/oauth/request_token"
		c.OAuthAuthorizeURL = srv.URL + "/oauth/authorize"
		c.OAuthAccessTokenURL = srv.URL + "/oauth/access_token"
		c.Passphrase = "pw"
		return c
	}

	out, err := run(cfg(), "ck\ncs\nv123\n", "oauth", "--store", store)
	require.NoError(t, err)
	assert.Contains(t, out, "/oauth/authorize?oauth_token=rt")
	assert.Contains(t, out, "Credentials saved to "+store)

	out, err = run(cfg(), "", "--base-url", srv.URL, "--store", store, "get", "things")
	require.NoError(t, err)
	auth, _ := decode(t, out)["auth"].(string)
	assert.True(t, strings.HasPrefix(auth, "OAuth "), auth)
	assert.Contains(t, auth, `oauth_token="at"`)
	assert.Contains(t, auth, `oauth_consumer_key="ck"`)

	out, err = run(cfg(), "", "oauth", "--store", store)
	require.NoError(t, err, "stored credentials are reused without prompting")
	assert.NotContains(t, out, "Please")

	noPass := cfg()
	noPass.Passphrase = ""
	_, err = run(noPass, "", "--base-url", srv.URL, "--store", store, "get", "things")
	assert.ErrorIs(t, err, errNoPassphrase)
}
