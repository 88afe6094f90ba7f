// Package attrdict provides a navigable view over decoded JSON-like values.
//
// A View is a namespace.Proxy over an AttrDict, so navigation works the
// same way as on a beanbag Resource, but lookups and mutations act on the
// in-memory container instead of making requests:
//
//	v := attrdict.New(map[string]any{"c": map[string]any{"d": "e"}})
//	d, _ := v.Attr("c").Attr("d").Unwrap() // "e"
//	v.Attr("foo").SetAttr(ctx, "bar", "hello") // creates "foo"
//
// Containers are map[string]any and []any. AttrDict is not safe for
// concurrent mutation.
package attrdict

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/ajtowns/beanbag/namespace"
)

var (
	// ErrKeyNotFound is matched by every *KeyError.
	ErrKeyNotFound = errors.New("attrdict: key not found")

	// ErrType is returned when an operation does not apply to the value.
	ErrType = errors.New("attrdict: unsupported type")
)

// KeyError reports a missing key or index.
type KeyError struct {
	Key  any
	Path Keys
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("attrdict: key not found: %v (at %q)", e.Key, e.Path.String())
}

func (e *KeyError) Unwrap() error { return ErrKeyNotFound }

// Keys is a path into a container: strings index objects, ints index lists.
type Keys []any

func (k Keys) String() string {
	parts := make([]string, len(k))
	for i, el := range k {
		parts[i] = fmt.Sprint(el)
	}
	return strings.Join(parts, ".")
}

// View is a navigable handle on an AttrDict.
type View = namespace.Proxy[*AttrDict, Keys]

// AttrDict owns the container a View navigates.
type AttrDict struct {
	root any
}

// New returns a View at the root of container. A nil container starts as
// an empty object.
func New(container any) View {
	if container == nil {
		container = map[string]any{}
	}
	return namespace.New[*AttrDict, Keys](&AttrDict{root: container})
}

// Wrap returns a View for objects and lists and v itself for anything else.
func Wrap(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		return New(v)
	default:
		return v
	}
}

type mode int

const (
	lookup mode = iota // missing keys are KeyErrors
	create             // missing object keys become empty objects
)

func (a *AttrDict) Root() Keys { return nil }

func (a *AttrDict) Attr(name string) any { return name }

func (a *AttrDict) Item(key any) any { return key }

func (a *AttrDict) Navigate(p Keys, el any) Keys {
	out := make(Keys, 0, len(p)+1)
	out = append(out, p...)
	return append(out, el)
}

func (a *AttrDict) Format(p Keys) string { return p.String() }

func (a *AttrDict) SamePath(x, y Keys) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// descend walks p from the root.
func (a *AttrDict) descend(p Keys, m mode) (any, error) {
	cur := a.root
	for i, k := range p {
		switch c := cur.(type) {
		case map[string]any:
			key := fmt.Sprint(k)
			next, ok := c[key]
			if !ok {
				if m != create {
					return nil, &KeyError{Key: k, Path: p[:i]}
				}
				next = map[string]any{}
				c[key] = next
			}
			cur = next
		case []any:
			idx, ok := index(k, len(c))
			if !ok {
				return nil, &KeyError{Key: k, Path: p[:i]}
			}
			cur = c[idx]
		default:
			return nil, &KeyError{Key: k, Path: p[:i]}
		}
	}
	return cur, nil
}

// set stores v at p, creating intermediate objects.
func (a *AttrDict) set(p Keys, v any) error {
	if len(p) == 0 {
		a.root = v
		return nil
	}
	parent, err := a.descend(p[:len(p)-1], create)
	if err != nil {
		return err
	}
	k := p[len(p)-1]
	switch c := parent.(type) {
	case map[string]any:
		c[fmt.Sprint(k)] = v
	case []any:
		idx, ok := index(k, len(c))
		if !ok {
			return &KeyError{Key: k, Path: p[:len(p)-1]}
		}
		c[idx] = v
	default:
		return &KeyError{Key: k, Path: p[:len(p)-1]}
	}
	return nil
}

// Assign stores value at p. Views are stored as their raw containers.
func (a *AttrDict) Assign(_ context.Context, p Keys, value any) (any, error) {
	return nil, a.set(p, raw(value))
}

// Remove deletes the key or list element at p.
func (a *AttrDict) Remove(_ context.Context, p Keys) (any, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("%w: cannot remove the root", ErrType)
	}
	parentPath, k := p[:len(p)-1], p[len(p)-1]
	parent, err := a.descend(parentPath, lookup)
	if err != nil {
		return nil, err
	}
	switch c := parent.(type) {
	case map[string]any:
		key := fmt.Sprint(k)
		if _, ok := c[key]; !ok {
			return nil, &KeyError{Key: k, Path: parentPath}
		}
		delete(c, key)
		return nil, nil
	case []any:
		idx, ok := index(k, len(c))
		if !ok {
			return nil, &KeyError{Key: k, Path: parentPath}
		}
		shrunk := append(append(make([]any, 0, len(c)-1), c[:idx]...), c[idx+1:]...)
		return nil, a.set(parentPath, shrunk)
	default:
		return nil, &KeyError{Key: k, Path: parentPath}
	}
}

// Augment adds value in place: numbers add, strings concatenate, lists
// extend and objects merge. A missing target takes value.
func (a *AttrDict) Augment(ctx context.Context, p Keys, value any) error {
	value = raw(value)
	cur, err := a.descend(p, lookup)
	if errors.Is(err, ErrKeyNotFound) {
		_, err = a.Assign(ctx, p, value)
		return err
	}
	if err != nil {
		return err
	}

	switch c := cur.(type) {
	case string:
		s, ok := value.(string)
		if !ok {
			return mismatch(c, value)
		}
		return a.set(p, c+s)
	case []any:
		switch v := value.(type) {
		case []any:
			return a.set(p, append(c, v...))
		default:
			return a.set(p, append(c, v))
		}
	case map[string]any:
		v, ok := value.(map[string]any)
		if !ok {
			return mismatch(c, value)
		}
		for k, x := range v {
			c[k] = x
		}
		return nil
	default:
		sum, ok := addNumbers(cur, value)
		if !ok {
			return mismatch(cur, value)
		}
		return a.set(p, sum)
	}
}

// Unwrap returns the raw value at p.
func (a *AttrDict) Unwrap(p Keys) (any, error) {
	return a.descend(p, lookup)
}

// Len returns the length of the object, list or string at p.
func (a *AttrDict) Len(p Keys) (int, error) {
	cur, err := a.descend(p, lookup)
	if err != nil {
		return 0, err
	}
	switch c := cur.(type) {
	case map[string]any:
		return len(c), nil
	case []any:
		return len(c), nil
	case string:
		return len(c), nil
	default:
		return 0, fmt.Errorf("%w: len of %T", ErrType, cur)
	}
}

// Elements lists a list's elements as paths and an object's keys in
// sorted order.
func (a *AttrDict) Elements(p Keys) ([]any, error) {
	cur, err := a.descend(p, lookup)
	if err != nil {
		return nil, err
	}
	switch c := cur.(type) {
	case []any:
		out := make([]any, len(c))
		for i := range c {
			out[i] = a.Navigate(p, i)
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(c))
		for k := range c {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: elements of %T", ErrType, cur)
	}
}

// Contains reports whether the object at v has key x, the list contains
// an element equal to x, or the string contains substring x.
func Contains(v View, x any) (bool, error) {
	cur, err := v.Unwrap()
	if err != nil {
		return false, err
	}
	x = raw(x)
	switch c := cur.(type) {
	case map[string]any:
		_, ok := c[fmt.Sprint(x)]
		return ok, nil
	case []any:
		for _, el := range c {
			if reflect.DeepEqual(el, x) {
				return true, nil
			}
		}
		return false, nil
	case string:
		s, ok := x.(string)
		return ok && strings.Contains(c, s), nil
	default:
		return false, fmt.Errorf("%w: contains on %T", ErrType, cur)
	}
}

// ValueEqual reports whether the value at v deeply equals other. A missing
// key is never equal to anything.
func ValueEqual(v View, other any) bool {
	cur, err := v.Unwrap()
	if err != nil {
		return false
	}
	return reflect.DeepEqual(cur, raw(other))
}

// raw unwraps views into their underlying values.
func raw(v any) any {
	if view, ok := v.(View); ok {
		if r, err := view.Unwrap(); err == nil {
			return r
		}
	}
	return v
}

func index(k any, n int) (int, bool) {
	var i int
	switch v := k.(type) {
	case int:
		i = v
	case int64:
		i = int(v)
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		i = int(v)
	default:
		return 0, false
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

func addNumbers(x, y any) (any, bool) {
	if xi, ok := x.(int); ok {
		if yi, ok := y.(int); ok {
			return xi + yi, true
		}
	}
	xf, ok1 := toFloat(x)
	yf, ok2 := toFloat(y)
	if !ok1 || !ok2 {
		return nil, false
	}
	return xf + yf, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func mismatch(cur, value any) error {
	return fmt.Errorf("%w: cannot add %T to %T", ErrType, value, cur)
}
