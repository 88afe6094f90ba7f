package beanbag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathJoin(t *testing.T) {
	tests := []struct {
		name  string
		steps []any
		want  string
	}{
		{"empty", nil, ""},
		{"single", []any{"a"}, "a"},
		{"numbers", []any{"a", 1, 2.5}, "a/1/2.5"},
		{"leading slash", []any{"/a", "/b"}, "a/b"},
		{"trailing slash", []any{"a/", "b//"}, "a/b/"},
		{"only slashes", []any{"a", "///"}, "a/"},
		{"slash element", []any{"a", "/", "b"}, "a/b"},
		{"slash at end", []any{"a", "/"}, "a/"},
		{"inner slashes kept", []any{"a/b", "c"}, "a/b/c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := EmptyPath()
			for _, s := range tt.steps {
				p = p.Join(s)
			}
			assert.Equal(t, tt.want, p.Segments())
		})
	}
}

func TestPathImmutable(t *testing.T) {
	a := EmptyPath().Join("a").WithParams(map[string]any{"x": 1})
	b := a.Join("b").WithParams(map[string]any{"y": 2})

	assert.Equal(t, "a", a.Segments())
	assert.Equal(t, map[string]string{"x": "1"}, a.Params())
	assert.Equal(t, map[string]string{"x": "1", "y": "2"}, b.Params())

	params := b.Params()
	params["z"] = "3"
	assert.NotContains(t, b.Params(), "z", "Params returns a copy")
}

func TestPathParams(t *testing.T) {
	p := EmptyPath().WithParams(map[string]any{"a": 1}).
		WithParams(map[string]any{"b": true}).
		WithParams(map[string]any{"a": nil, "c": "x y"})

	assert.Equal(t, map[string]string{"b": "true", "c": "x y"}, p.Params())
	assert.Equal(t, "b=true&c=x+y", p.Encode("&"))
	assert.Equal(t, "http://h/v.json?b=true;c=x+y", p.URL("http://h/", "v.json"))

	cleared := p.WithParams(map[string]any{"b": nil, "c": nil})
	assert.True(t, cleared.Equal(EmptyPath()))
	assert.Equal(t, "http://h/", cleared.URL("http://h/", ""))
}
