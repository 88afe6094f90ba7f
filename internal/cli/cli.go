// Package cli implements the beanbag command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/ajtowns/beanbag"
	"github.com/ajtowns/beanbag/auth/negotiate"
	"github.com/ajtowns/beanbag/auth/oauth1"
	"github.com/ajtowns/beanbag/internal/config"
	"github.com/ajtowns/beanbag/internal/logging"
	"github.com/ajtowns/beanbag/transport"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	errNoBaseURL    = errors.New("base URL required (--base-url or BEANBAG_BASE_URL)")
	errNoPassphrase = errors.New("passphrase required for the credential store (BEANBAG_PASSPHRASE)")
)

// CLI holds flag values and shared state for all commands.
type CLI struct {
	cfg    *config.Config
	logger *zap.Logger

	params  []string
	data    string
	verbose bool
}

// New creates a CLI whose flag defaults come from cfg.
func New(cfg *config.Config) *CLI {
	return &CLI{cfg: cfg, logger: zap.NewNop()}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "beanbag",
		Short:             "beanbag sends requests to REST APIs",
		Long:              `beanbag navigates a REST API from a base URL, one path segment per argument, and prints the decoded response as JSON. A segment of "_" adds a trailing slash.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	f := root.PersistentFlags()
	f.StringVar(&c.cfg.BaseURL, "base-url", c.cfg.BaseURL, "API base URL")
	f.StringVar(&c.cfg.Ext, "ext", c.cfg.Ext, "extension appended to every URL path")
	f.StringArrayVarP(&c.params, "param", "p", nil, "query parameter as key=value (repeatable)")
	f.StringVarP(&c.data, "data", "d", "", "request body, in the request format")
	f.BoolVar(&c.cfg.YAML, "yaml", c.cfg.YAML, "exchange YAML instead of JSON")
	f.DurationVar(&c.cfg.Timeout, "timeout", c.cfg.Timeout, "request timeout")
	f.IntVar(&c.cfg.Retries, "retries", c.cfg.Retries, "retry failed requests up to this many times")
	f.Float64Var(&c.cfg.RateLimit, "rate", c.cfg.RateLimit, "maximum requests per second (0 = unlimited)")
	f.BoolVar(&c.cfg.Kerberos, "kerberos", c.cfg.Kerberos, "authenticate with Kerberos (Negotiate)")
	f.StringVar(&c.cfg.OAuthStore, "store", c.cfg.OAuthStore, "sealed OAuth 1.0a credential file")
	f.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.verbCommand("get", http.MethodGet, false))
	root.AddCommand(c.verbCommand("post", http.MethodPost, true))
	root.AddCommand(c.verbCommand("put", http.MethodPut, true))
	root.AddCommand(c.verbCommand("patch", http.MethodPatch, true))
	root.AddCommand(c.verbCommand("delete", http.MethodDelete, false))
	root.AddCommand(c.callCommand())
	root.AddCommand(c.urlCommand())
	root.AddCommand(c.oauthCommand())
	root.AddCommand(c.envCommand())
	return root
}

func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	lc := logging.DefaultConfig()
	lc.Level = c.cfg.LogLevel
	lc.Development = c.cfg.LogDev
	if c.verbose {
		lc.Level = "debug"
	}
	logger, err := logging.New(lc)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	c.logger = logger
	return nil
}

func (c *CLI) format() beanbag.Format {
	if c.cfg.YAML {
		return beanbag.YAML
	}
	return beanbag.JSON
}

// open builds a BeanBag from the current configuration.
func (c *CLI) open() (*beanbag.BeanBag, error) {
	if c.cfg.BaseURL == "" {
		return nil, errNoBaseURL
	}
	signer, err := c.signer()
	if err != nil {
		return nil, err
	}
	return beanbag.New(c.cfg.BaseURL,
		beanbag.WithTransport(c.transport(signer)),
		beanbag.WithExtension(c.cfg.Ext),
		beanbag.WithFormat(c.format()),
		beanbag.WithTimeout(c.cfg.Timeout),
		beanbag.WithLogger(c.logger),
	)
}

func (c *CLI) transport(signer transport.RequestSigner) transport.Transport {
	var t transport.Transport
	if c.cfg.Retries > 0 {
		rc := transport.DefaultRetryConfig()
		rc.MaxRetries = c.cfg.Retries
		opts := []transport.RetryOption{
			transport.WithRetryLogger(c.logger),
			transport.WithRetryTimeout(c.cfg.Timeout),
		}
		if signer != nil {
			opts = append(opts, transport.WithRetrySigner(signer))
		}
		t = transport.NewRetryable(rc, opts...)
	} else {
		opts := []transport.RestyOption{
			transport.WithRestyLogger(c.logger),
			transport.WithRestyTimeout(c.cfg.Timeout),
		}
		if signer != nil {
			opts = append(opts, transport.WithRestySigner(signer))
		}
		t = transport.NewResty(opts...)
	}

	var mw []transport.Middleware
	if c.cfg.RateLimit > 0 {
		mw = append(mw, transport.RateLimit(transport.RateLimitConfig{RequestsPerSecond: c.cfg.RateLimit, Burst: 1}))
	}
	mw = append(mw, transport.RequestID())
	return transport.Chain(t, mw...)
}

// signer returns the configured credentials, or nil for anonymous access.
func (c *CLI) signer() (transport.RequestSigner, error) {
	if c.cfg.Kerberos {
		cl, err := negotiate.LoadKerberosClient(c.cfg.Krb5Config, c.cfg.Krb5CCache)
		if err != nil {
			return nil, err
		}
		return negotiate.New(negotiate.KerberosSource(cl), negotiate.WithLogger(c.logger)), nil
	}
	if c.cfg.OAuthStore != "" {
		d, err := c.loadDance()
		if err != nil {
			return nil, fmt.Errorf("%w (run \"beanbag oauth\" first)", err)
		}
		return d.Signer()
	}
	return nil, nil
}

func (c *CLI) dance() *oauth1.Dance {
	return &oauth1.Dance{
		RequestTokenURL: c.cfg.OAuthRequestTokenURL,
		AuthorizeURL:    c.cfg.OAuthAuthorizeURL,
		AccessTokenURL:  c.cfg.OAuthAccessTokenURL,
		ClientKey:       c.cfg.OAuthClientKey,
		ClientSecret:    c.cfg.OAuthClientSecret,
	}
}

func (c *CLI) store() (*oauth1.Store, error) {
	if c.cfg.Passphrase == "" {
		return nil, errNoPassphrase
	}
	return &oauth1.Store{Path: c.cfg.OAuthStore, Passphrase: c.cfg.Passphrase}, nil
}

func (c *CLI) loadDance() (*oauth1.Dance, error) {
	s, err := c.store()
	if err != nil {
		return nil, err
	}
	d := c.dance()
	if err := s.Load(d); err != nil {
		return nil, err
	}
	return d, nil
}

// resource navigates from the root of b through segments and applies
// --param values.
func (c *CLI) resource(b *beanbag.BeanBag, segments []string) (beanbag.Resource, error) {
	r := b.Resource()
	for _, s := range segments {
		r = r.Attr(s)
	}
	if len(c.params) == 0 {
		return r, nil
	}
	params, err := parseParams(c.params)
	if err != nil {
		return r, err
	}
	return r.With(params)
}

// body decodes --data with the request format.
func (c *CLI) body() (any, error) {
	if c.data == "" {
		return nil, nil
	}
	v, err := c.format().Decode([]byte(c.data))
	if err != nil {
		return nil, fmt.Errorf("--data: %w", err)
	}
	return v, nil
}

func parseParams(kvs []string) (beanbag.Params, error) {
	params := make(beanbag.Params, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", kv)
		}
		params[k] = v
	}
	return params, nil
}

func printResult(w io.Writer, v any) error {
	if v == nil {
		return nil
	}
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("format result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
