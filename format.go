package beanbag

import (
	"fmt"
	"mime"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Format is the body encoding policy of a BeanBag: the content type it
// sends and accepts, and how bodies are encoded and decoded.
type Format interface {
	ContentType() string
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// Built-in formats.
var (
	JSON Format = NewFormat("application/json", encodeJSON, decodeJSON)
	YAML Format = NewFormat("application/yaml", encodeYAML, decodeYAML)
	TOML Format = NewFormat("application/toml", encodeTOML, decodeTOML)
)

// NewFormat builds a Format from a content type and codec functions.
func NewFormat(contentType string, encode func(any) ([]byte, error), decode func([]byte) (any, error)) Format {
	return funcFormat{contentType: contentType, encode: encode, decode: decode}
}

type funcFormat struct {
	contentType string
	encode      func(any) ([]byte, error)
	decode      func([]byte) (any, error)
}

func (f funcFormat) ContentType() string             { return f.contentType }
func (f funcFormat) Encode(v any) ([]byte, error)    { return f.encode(v) }
func (f funcFormat) Decode(data []byte) (any, error) { return f.decode(data) }

// RawDefaultContentType is sent for a Raw body without a ContentType.
const RawDefaultContentType = "application/octet-stream"

// Raw is a pre-encoded request body. It is sent verbatim with its own
// content type instead of going through the BeanBag's Format. An empty
// ContentType means RawDefaultContentType.
type Raw struct {
	ContentType string
	Body        []byte
}

func encodeJSON(v any) ([]byte, error) {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return data, nil
}

func decodeJSON(data []byte) (any, error) {
	var v any
	if err := sonic.ConfigStd.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return v, nil
}

func encodeYAML(v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("yaml marshal: %w", err)
	}
	return data, nil
}

func decodeYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	return v, nil
}

// TOML documents are always tables, so only maps and structs encode.
func encodeTOML(v any) ([]byte, error) {
	data, err := toml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("toml marshal: %w", err)
	}
	return data, nil
}

func decodeTOML(data []byte) (any, error) {
	var v map[string]any
	if err := toml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("toml unmarshal: %w", err)
	}
	return v, nil
}

// mediaType strips parameters from a Content-Type value and lowercases it.
func mediaType(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
