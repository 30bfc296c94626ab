package activerest

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Codec decodes a raw response body into a structured value: an object
// graph (map), an array, or a scalar.
type Codec interface {
	Decode(data []byte) (interface{}, error)
}

// JSONCodec decodes application/json bodies. Numbers are normalized so
// that integral values come back as int rather than float64, which keeps
// identifiers intact.
type JSONCodec struct{}

// Decode implements Codec.Decode.
func (JSONCodec) Decode(data []byte) (interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	return normalizeNumbers(value), nil
}

// YAMLCodec decodes application/yaml and text/yaml bodies.
type YAMLCodec struct{}

// Decode implements Codec.Decode.
func (YAMLCodec) Decode(data []byte) (interface{}, error) {
	var value interface{}
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, err
	}

	return value, nil
}

// CodecRegistry selects a Codec by declared content type.
type CodecRegistry struct {
	codecs map[string]Codec
}

// NewCodecRegistry creates a registry with the JSON and YAML codecs
// registered under their usual content types.
func NewCodecRegistry() *CodecRegistry {
	registry := &CodecRegistry{
		codecs: make(map[string]Codec),
	}

	registry.Register("application/json", JSONCodec{})
	registry.Register("application/yaml", YAMLCodec{})
	registry.Register("text/yaml", YAMLCodec{})

	return registry
}

// Register adds or replaces the codec for a content type.
func (r *CodecRegistry) Register(contentType string, codec Codec) {
	r.codecs[normalizeContentType(contentType)] = codec
}

// Decode unserializes the body using the codec matching the content type.
// When the type is unrecognized or decoding fails, the raw body is
// returned as a string; decoding never fails hard.
func (r *CodecRegistry) Decode(contentType string, body []byte) interface{} {
	codec, ok := r.codecs[normalizeContentType(contentType)]
	if !ok {
		return string(body)
	}

	value, err := codec.Decode(body)
	if err != nil {
		return string(body)
	}

	return value
}

func normalizeContentType(contentType string) string {
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}

	return strings.ToLower(strings.TrimSpace(contentType))
}

// normalizeNumbers walks a decoded JSON value converting json.Number
// leaves to int where possible, float64 otherwise.
func normalizeNumbers(value interface{}) interface{} {
	switch v := value.(type) {
	case json.Number:
		if n, err := strconv.Atoi(v.String()); err == nil {
			return n
		}

		if f, err := v.Float64(); err == nil {
			return f
		}

		return v.String()
	case map[string]interface{}:
		for key, item := range v {
			v[key] = normalizeNumbers(item)
		}

		return v
	case []interface{}:
		for i, item := range v {
			v[i] = normalizeNumbers(item)
		}

		return v
	default:
		return v
	}
}
