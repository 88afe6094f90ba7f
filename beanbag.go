package beanbag

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ajtowns/beanbag/attrdict"
	"github.com/ajtowns/beanbag/namespace"
	"github.com/ajtowns/beanbag/transport"
	"go.uber.org/zap"
)

// TrailingSlash is the attribute name that forces a trailing slash.
const TrailingSlash = "_"

// Resource is a navigable handle on a BeanBag.
type Resource = namespace.Proxy[*BeanBag, Path]

// Params are query parameters passed to Invoke. They are merged into the
// resource's path before the request and do not count as arguments.
type Params map[string]any

// BeanBag is the base of a REST API: it owns the base URL, the transport
// and the body format. It is immutable after construction and safe for
// concurrent use when its transport is.
type BeanBag struct {
	baseURL   string
	config    *config
	transport transport.Transport
}

// New creates a BeanBag rooted at baseURL.
//
// Example:
//
//	api, err := beanbag.New("https://example.com/api",
//	    beanbag.WithExtension(".json"),
//	    beanbag.WithTimeout(10*time.Second),
//	)
func New(baseURL string, opts ...Option) (*BeanBag, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	t := cfg.transport
	if t == nil {
		t = defaultTransport(cfg)
	}

	return &BeanBag{
		baseURL:   strings.TrimRight(baseURL, "/") + "/",
		config:    cfg,
		transport: t,
	}, nil
}

// MustNew is like New but panics if the configuration is invalid.
func MustNew(baseURL string, opts ...Option) *BeanBag {
	b, err := New(baseURL, opts...)
	if err != nil {
		panic(err)
	}
	return b
}

// Open creates a BeanBag and returns its root Resource.
//
//	gh, _ := beanbag.Open("https://api.github.com")
//	repo, err := gh.Attr("repos").Attr("golang").Attr("go").Invoke(ctx)
func Open(baseURL string, opts ...Option) (Resource, error) {
	b, err := New(baseURL, opts...)
	if err != nil {
		return Resource{}, err
	}
	return b.Resource(), nil
}

func defaultTransport(cfg *config) transport.Transport {
	if cfg.httpClient != nil {
		opts := []transport.HTTPOption{transport.WithClient(cfg.httpClient)}
		if cfg.signer != nil {
			opts = append(opts, transport.WithHTTPSigner(cfg.signer))
		}
		return transport.NewHTTP(opts...)
	}

	opts := []transport.RestyOption{
		transport.WithRestyTimeout(cfg.timeout),
		transport.WithRestyLogger(cfg.logger),
	}
	if cfg.signer != nil {
		opts = append(opts, transport.WithRestySigner(cfg.signer))
	}
	return transport.NewResty(opts...)
}

// Resource returns the root Resource.
func (b *BeanBag) Resource() Resource {
	return namespace.New[*BeanBag, Path](b)
}

// BaseURL returns the normalised base URL, always ending in "/".
func (b *BeanBag) BaseURL() string { return b.baseURL }

// Close releases resources held by the transport.
func (b *BeanBag) Close() error {
	return b.transport.Close()
}

// Root returns the empty path.
func (b *BeanBag) Root() Path { return Path{} }

// Attr maps TrailingSlash to "/" and returns other names unchanged.
func (b *BeanBag) Attr(name string) any {
	if name == TrailingSlash {
		return "/"
	}
	return name
}

// Item returns key unchanged; index access never applies TrailingSlash.
func (b *BeanBag) Item(key any) any { return key }

// Navigate appends el to p.
func (b *BeanBag) Navigate(p Path, el any) Path { return p.Join(el) }

// Format renders the resource URL, with parameters as "?k=v;k=v".
func (b *BeanBag) Format(p Path) string { return p.URL(b.baseURL, b.config.ext) }

// SamePath reports whether x and y have equal segments and parameters.
func (b *BeanBag) SamePath(x, y Path) bool { return x.Equal(y) }

// WithParams merges params into the query parameters of p.
func (b *BeanBag) WithParams(p Path, params map[string]any) Path { return p.WithParams(params) }

// Invoke maps call arity to a request: no arguments is a GET, one is a
// POST of that body and two are a verb and a body. Params arguments are
// merged into the query string at any arity.
func (b *BeanBag) Invoke(ctx context.Context, p Path, args ...any) (any, error) {
	var positional []any
	for _, a := range args {
		if params, ok := a.(Params); ok {
			p = p.WithParams(params)
			continue
		}
		positional = append(positional, a)
	}

	switch len(positional) {
	case 0:
		return b.MakeRequest(ctx, p, http.MethodGet, nil)
	case 1:
		return b.MakeRequest(ctx, p, http.MethodPost, positional[0])
	case 2:
		verb, ok := positional[0].(string)
		if !ok || verb == "" {
			return nil, &Error{Kind: KindArguments, Message: fmt.Sprintf("verb must be a non-empty string, got %T", positional[0])}
		}
		return b.MakeRequest(ctx, p, strings.ToUpper(verb), positional[1])
	default:
		return nil, &Error{Kind: KindArguments, Message: fmt.Sprintf("expected up to 2 arguments, got %d", len(positional))}
	}
}

// Assign PUTs value to the resource.
func (b *BeanBag) Assign(ctx context.Context, p Path, value any) (any, error) {
	return b.MakeRequest(ctx, p, http.MethodPut, value)
}

// Remove DELETEs the resource.
func (b *BeanBag) Remove(ctx context.Context, p Path) (any, error) {
	return b.MakeRequest(ctx, p, http.MethodDelete, nil)
}

// Augment PATCHes the resource with value. The response body is discarded;
// use Patch to read it.
func (b *BeanBag) Augment(ctx context.Context, p Path, value any) error {
	_, err := b.MakeRequest(ctx, p, http.MethodPatch, value)
	return err
}

// MakeRequest sends one request and returns the decoded response body. A
// nil result with a nil error means the response had no body.
func (b *BeanBag) MakeRequest(ctx context.Context, p Path, verb string, body any) (any, error) {
	req, err := b.encode(p, verb, body)
	if err != nil {
		return nil, err
	}

	log := b.config.logger.With(zap.String("method", req.Method), zap.String("url", req.URL))
	start := time.Now()

	resp, err := b.transport.Do(ctx, req)
	if err != nil {
		log.Debug("request failed",
			zap.Stringer("kind", KindTransport),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, &Error{Kind: KindTransport, Message: "request failed", Request: req, Err: err}
	}

	log.Debug("request complete",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
		zap.Int("bytes", len(resp.Body)),
	)

	v, err := b.decode(req, resp)
	if err != nil {
		if e, ok := err.(*Error); ok {
			log.Debug("response rejected", zap.Stringer("kind", e.Kind), zap.Int("status", resp.StatusCode))
		}
		return nil, err
	}
	return v, nil
}

// encode builds the transport request for p.
func (b *BeanBag) encode(p Path, verb string, body any) (*transport.Request, error) {
	ct := b.config.format.ContentType()
	req := &transport.Request{
		Method:    verb,
		URL:       p.Resolve(b.baseURL, b.config.ext),
		Params:    p.Params(),
		Separator: b.config.separator,
		Header:    b.config.header.Clone(),
	}
	req.Header.Set("Accept", ct)

	switch v := body.(type) {
	case nil:
	case Raw:
		req.Body = v.Body
		if req.Body == nil {
			req.Body = []byte{}
		}
		rct := v.ContentType
		if rct == "" {
			rct = RawDefaultContentType
		}
		req.Header.Set("Content-Type", rct)
	case *Raw:
		return b.encode(p, verb, *v)
	default:
		data, err := b.config.format.Encode(body)
		if err != nil {
			return nil, &Error{Kind: KindEncode, Message: "could not encode request body", Request: req, Err: err}
		}
		req.Body = data
		req.Header.Set("Content-Type", ct)
	}
	return req, nil
}

// decode classifies resp and decodes its body.
func (b *BeanBag) decode(req *transport.Request, resp *transport.Response) (any, error) {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Kind:       KindBadStatus,
			Message:    fmt.Sprintf("bad response code: %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Request:    req,
			Response:   resp,
		}
	}

	if len(resp.Body) == 0 {
		return nil, nil
	}

	want := b.config.format.ContentType()
	if ct := resp.Header.Get("Content-Type"); ct != "" && mediaType(ct) != mediaType(want) {
		return nil, &Error{
			Kind:       KindBadContentType,
			Message:    fmt.Sprintf("bad content-type in response (Content-Type: %s; wanted %s)", mediaType(ct), want),
			StatusCode: resp.StatusCode,
			Request:    req,
			Response:   resp,
		}
	}

	v, err := b.config.format.Decode(resp.Body)
	if err != nil {
		return nil, &Error{
			Kind:       KindDecode,
			Message:    "could not decode response",
			StatusCode: resp.StatusCode,
			Request:    req,
			Response:   resp,
			Err:        err,
		}
	}

	v = unwrapResult(v)
	if b.config.attrDict {
		return attrdict.Wrap(v), nil
	}
	return v, nil
}

// unwrapResult unwraps the {"result": X} envelope.
func unwrapResult(v any) any {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return v
	}
	if r, ok := m["result"]; ok {
		return r
	}
	return v
}
