package beanbag

import (
	"fmt"
	"maps"
	"strings"

	"github.com/ajtowns/beanbag/transport"
)

// Path is an immutable URL path relative to a BeanBag's base URL, plus the
// query parameters that travel with it. The zero value is the root.
type Path struct {
	segments string
	params   map[string]string
}

// EmptyPath returns the root path.
func EmptyPath() Path { return Path{} }

// Join returns p extended by el. Leading slashes are stripped from el,
// repeated trailing slashes of el collapse to one and trailing slashes of p
// are stripped, so joining never produces "//". Joining "/" leaves a
// single trailing slash.
func (p Path) Join(el any) Path {
	s := strings.TrimLeft(fmt.Sprint(el), "/")
	if strings.HasSuffix(s, "//") {
		s = strings.TrimRight(s, "/") + "/"
	}
	if p.segments == "" {
		return Path{segments: s, params: p.params}
	}
	return Path{segments: strings.TrimRight(p.segments, "/") + "/" + s, params: p.params}
}

// WithParams returns p with params merged in. A nil value removes the key;
// other values are stringified.
func (p Path) WithParams(params map[string]any) Path {
	merged := maps.Clone(p.params)
	if merged == nil {
		merged = make(map[string]string, len(params))
	}
	for k, v := range params {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = fmt.Sprint(v)
	}
	if len(merged) == 0 {
		merged = nil
	}
	return Path{segments: p.segments, params: merged}
}

// Segments returns the joined path segments.
func (p Path) Segments() string { return p.segments }

// Params returns a copy of the query parameters.
func (p Path) Params() map[string]string { return maps.Clone(p.params) }

// Equal reports whether p and o have the same segments and parameters.
func (p Path) Equal(o Path) bool {
	return p.segments == o.segments && maps.Equal(p.params, o.params)
}

// Resolve returns base + segments + ext, without the query string.
func (p Path) Resolve(base, ext string) string {
	return base + p.segments + ext
}

// URL returns the resolved URL with parameters rendered as "?k=v;k=v".
func (p Path) URL(base, ext string) string {
	u := p.Resolve(base, ext)
	if len(p.params) > 0 {
		u += "?" + p.Encode(";")
	}
	return u
}

// Encode renders the parameters as sorted, escaped pairs joined by sep.
func (p Path) Encode(sep string) string {
	return transport.EncodeQuery(p.params, sep)
}
