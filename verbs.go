package beanbag

import (
	"context"
	"net/http"

	"github.com/ajtowns/beanbag/namespace"
)

// Requester is a base that can send a request for a path. *BeanBag and any
// type embedding it satisfy it.
type Requester interface {
	namespace.Base[Path]
	MakeRequest(ctx context.Context, p Path, verb string, body any) (any, error)
}

// Do sends a request with an arbitrary verb to the resource behind r.
// Unlike Invoke it never interprets its arguments, so it also suits verbs
// like HEAD and OPTIONS that Invoke cannot express without a body.
func Do[B Requester](ctx context.Context, r namespace.Proxy[B, Path], verb string, body any) (any, error) {
	base, p := r.Invert()
	return base.MakeRequest(ctx, p, verb, body)
}

// Get sends a GET request.
func Get[B Requester](ctx context.Context, r namespace.Proxy[B, Path]) (any, error) {
	return Do(ctx, r, http.MethodGet, nil)
}

// Head sends a HEAD request.
func Head[B Requester](ctx context.Context, r namespace.Proxy[B, Path]) (any, error) {
	return Do(ctx, r, http.MethodHead, nil)
}

// Post sends a POST request with body.
func Post[B Requester](ctx context.Context, r namespace.Proxy[B, Path], body any) (any, error) {
	return Do(ctx, r, http.MethodPost, body)
}

// Put sends a PUT request with body.
func Put[B Requester](ctx context.Context, r namespace.Proxy[B, Path], body any) (any, error) {
	return Do(ctx, r, http.MethodPut, body)
}

// Patch sends a PATCH request with body and returns the decoded response,
// which Augment discards.
func Patch[B Requester](ctx context.Context, r namespace.Proxy[B, Path], body any) (any, error) {
	return Do(ctx, r, http.MethodPatch, body)
}

// Delete sends a DELETE request.
func Delete[B Requester](ctx context.Context, r namespace.Proxy[B, Path]) (any, error) {
	return Do(ctx, r, http.MethodDelete, nil)
}
