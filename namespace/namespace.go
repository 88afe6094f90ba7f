// Package namespace binds immutable path values to a stateful base object.
//
// A Proxy is a cheap (base, path) pair. Navigating a Proxy only computes a
// new path through the base's Attr/Item/Navigate methods; terminal
// operations (Invoke, Assign, Remove, Augment, ...) are forwarded to the
// base together with the accumulated path. Bases opt into terminal
// operations by implementing the capability interfaces in this package.
//
// Proxy is generic over the base type, so a type that embeds an existing
// base and adds methods gets proxies typed to itself:
//
//	type API struct{ *beanbag.BeanBag }
//
//	root := namespace.New[*API, beanbag.Path](api)
//	api2, path := root.Attr("users").Invert() // api2 is *API
package namespace

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupported is returned when the base does not implement an operation.
var ErrUnsupported = errors.New("namespace: operation not supported")

// Base is the set of methods every base must provide for navigation.
type Base[P any] interface {
	// Root returns the path a fresh Proxy starts at.
	Root() P

	// Attr converts an attribute name into a path element.
	Attr(name string) any

	// Item converts an index key into a path element.
	Item(key any) any

	// Navigate returns path extended by el. It must not modify path.
	Navigate(path P, el any) P

	// Format renders path for display.
	Format(path P) string

	// SamePath reports whether two paths are structurally equal.
	SamePath(a, b P) bool
}

// Parameterizer attaches parameters to a path.
type Parameterizer[P any] interface {
	WithParams(path P, params map[string]any) P
}

// Invoker handles calling a proxy.
type Invoker[P any] interface {
	Invoke(ctx context.Context, path P, args ...any) (any, error)
}

// Assigner handles assigning a value at a path.
type Assigner[P any] interface {
	Assign(ctx context.Context, path P, value any) (any, error)
}

// Remover handles deleting the value at a path.
type Remover[P any] interface {
	Remove(ctx context.Context, path P) (any, error)
}

// Augmenter handles in-place addition at a path. It is a distinct
// operation, never a read followed by an Assign.
type Augmenter[P any] interface {
	Augment(ctx context.Context, path P, value any) error
}

// Unwrapper exposes the raw value behind a path.
type Unwrapper[P any] interface {
	Unwrap(path P) (any, error)
}

// Lener reports the length of the value behind a path.
type Lener[P any] interface {
	Len(path P) (int, error)
}

// Ranger lists the elements of the value behind a path. Elements of type P
// are returned to callers as proxies.
type Ranger[P any] interface {
	Elements(path P) ([]any, error)
}

// Proxy is an immutable (base, path) handle.
type Proxy[B Base[P], P any] struct {
	base B
	path P
}

// New returns a Proxy positioned at the base's root path.
func New[B Base[P], P any](base B) Proxy[B, P] {
	return Proxy[B, P]{base: base, path: base.Root()}
}

// At returns a Proxy positioned at path.
func At[B Base[P], P any](base B, path P) Proxy[B, P] {
	return Proxy[B, P]{base: base, path: path}
}

// Attr navigates to an attribute-style child.
func (p Proxy[B, P]) Attr(name string) Proxy[B, P] {
	return p.Get(p.base.Attr(name))
}

// Item navigates to an index-style child.
func (p Proxy[B, P]) Item(key any) Proxy[B, P] {
	return p.Get(p.base.Item(key))
}

// Get navigates by a raw path element, bypassing Attr/Item conversion.
func (p Proxy[B, P]) Get(el any) Proxy[B, P] {
	return At(p.base, p.base.Navigate(p.path, el))
}

// With returns a Proxy whose path carries params.
func (p Proxy[B, P]) With(params map[string]any) (Proxy[B, P], error) {
	pz, ok := any(p.base).(Parameterizer[P])
	if !ok {
		return p, unsupported("with")
	}
	return At(p.base, pz.WithParams(p.path, params)), nil
}

// Invoke calls the proxy. The meaning of args is defined by the base.
func (p Proxy[B, P]) Invoke(ctx context.Context, args ...any) (any, error) {
	inv, ok := any(p.base).(Invoker[P])
	if !ok {
		return nil, unsupported("invoke")
	}
	v, err := inv.Invoke(ctx, p.path, args...)
	if err != nil {
		return nil, err
	}
	return p.lift(v), nil
}

// Assign stores value at the proxy's path.
func (p Proxy[B, P]) Assign(ctx context.Context, value any) (any, error) {
	as, ok := any(p.base).(Assigner[P])
	if !ok {
		return nil, unsupported("assign")
	}
	v, err := as.Assign(ctx, p.path, value)
	if err != nil {
		return nil, err
	}
	return p.lift(v), nil
}

// SetAttr assigns value to the named attribute child.
func (p Proxy[B, P]) SetAttr(ctx context.Context, name string, value any) (any, error) {
	return p.Attr(name).Assign(ctx, value)
}

// SetItem assigns value to the indexed child.
func (p Proxy[B, P]) SetItem(ctx context.Context, key, value any) (any, error) {
	return p.Item(key).Assign(ctx, value)
}

// Remove deletes the value at the proxy's path.
func (p Proxy[B, P]) Remove(ctx context.Context) (any, error) {
	rm, ok := any(p.base).(Remover[P])
	if !ok {
		return nil, unsupported("remove")
	}
	v, err := rm.Remove(ctx, p.path)
	if err != nil {
		return nil, err
	}
	return p.lift(v), nil
}

// DelAttr deletes the named attribute child.
func (p Proxy[B, P]) DelAttr(ctx context.Context, name string) (any, error) {
	return p.Attr(name).Remove(ctx)
}

// DelItem deletes the indexed child.
func (p Proxy[B, P]) DelItem(ctx context.Context, key any) (any, error) {
	return p.Item(key).Remove(ctx)
}

// Augment performs an in-place add and returns the same proxy.
func (p Proxy[B, P]) Augment(ctx context.Context, value any) (Proxy[B, P], error) {
	au, ok := any(p.base).(Augmenter[P])
	if !ok {
		return p, unsupported("augment")
	}
	if err := au.Augment(ctx, p.path, value); err != nil {
		return p, err
	}
	return p, nil
}

// Unwrap returns the raw value behind the proxy.
func (p Proxy[B, P]) Unwrap() (any, error) {
	un, ok := any(p.base).(Unwrapper[P])
	if !ok {
		return nil, unsupported("unwrap")
	}
	return un.Unwrap(p.path)
}

// Len returns the length of the value behind the proxy.
func (p Proxy[B, P]) Len() (int, error) {
	l, ok := any(p.base).(Lener[P])
	if !ok {
		return 0, unsupported("len")
	}
	return l.Len(p.path)
}

// Elements lists the elements behind the proxy.
func (p Proxy[B, P]) Elements() ([]any, error) {
	r, ok := any(p.base).(Ranger[P])
	if !ok {
		return nil, unsupported("elements")
	}
	els, err := r.Elements(p.path)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(els))
	for i, el := range els {
		out[i] = p.lift(el)
	}
	return out, nil
}

// Invert exposes the base and path behind the proxy.
func (p Proxy[B, P]) Invert() (B, P) {
	return p.base, p.path
}

// Equal reports whether o shares p's base and has an equal path.
func (p Proxy[B, P]) Equal(o Proxy[B, P]) bool {
	if any(p.base) != any(o.base) {
		return false
	}
	return p.base.SamePath(p.path, o.path)
}

// String renders the proxy through the base's Format.
func (p Proxy[B, P]) String() string {
	return p.base.Format(p.path)
}

// lift wraps path results into proxies on the same base.
func (p Proxy[B, P]) lift(v any) any {
	if np, ok := v.(P); ok {
		return At(p.base, np)
	}
	return v
}

func unsupported(op string) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, op)
}
