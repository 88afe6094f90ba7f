package beanbag

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ajtowns/beanbag/transport"
	"go.uber.org/zap"
)

// Option configures a BeanBag.
type Option func(*config)

// config holds BeanBag configuration.
type config struct {
	ext        string
	transport  transport.Transport
	httpClient *http.Client
	timeout    time.Duration
	signer     transport.RequestSigner
	format     Format
	header     http.Header
	separator  string
	attrDict   bool
	logger     *zap.Logger
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		timeout:   30 * time.Second,
		format:    JSON,
		header:    http.Header{},
		separator: transport.DefaultSeparator,
		logger:    zap.NewNop(),
	}
}

// WithExtension sets a suffix appended to every resource URL, eg ".json".
func WithExtension(ext string) Option {
	return func(c *config) {
		c.ext = ext
	}
}

// WithTransport sets the transport used for every request. It takes
// precedence over WithHTTPClient, WithTimeout and WithSigner.
func WithTransport(t transport.Transport) Option {
	return func(c *config) {
		c.transport = t
	}
}

// WithHTTPClient sends requests through a plain net/http client instead of
// the default resty transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// WithTimeout sets the request timeout of the default transport (default: 30s).
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithSigner attaches credentials to every request made by the default
// transport, eg a negotiate.Signer or an oauth1 signer.
func WithSigner(s transport.RequestSigner) Option {
	return func(c *config) {
		c.signer = s
	}
}

// WithFormat sets the body encoding policy (default: JSON).
func WithFormat(f Format) Option {
	return func(c *config) {
		c.format = f
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *config) {
		c.header.Add(key, value)
	}
}

// WithQuerySeparator sets the separator between query parameters on the
// wire (default: "&").
func WithQuerySeparator(sep string) Option {
	return func(c *config) {
		c.separator = sep
	}
}

// WithAttrDict returns decoded objects and arrays as attrdict views.
func WithAttrDict(enabled bool) Option {
	return func(c *config) {
		c.attrDict = enabled
	}
}

// WithLogger sets the logger for request tracing (default: no-op).
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// validateConfig validates the configuration.
func validateConfig(c *config) error {
	if c.format == nil {
		return fmt.Errorf("format cannot be nil")
	}
	if c.format.ContentType() == "" {
		return fmt.Errorf("format content type cannot be empty")
	}
	if c.timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if c.separator == "" {
		return fmt.Errorf("query separator cannot be empty")
	}
	if c.logger == nil {
		return fmt.Errorf("logger cannot be nil")
	}
	return nil
}
