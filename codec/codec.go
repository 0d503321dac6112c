// Package codec centralizes the structured encoding used for shard payloads
// and the shard index document.
//
// Codec selection is a compatibility boundary: blobs written by one codec are
// decoded with the codec configured on the store that reads them. Both
// built-in codecs speak JSON, so they are interchangeable on disk.
package codec

import (
	"encoding/json"
	"fmt"

	gojson "github.com/goccy/go-json"
)

// Codec encodes and decodes structured values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used when none is configured.
var Default Codec = GoJSON{}

// GoJSON is a JSON codec backed by github.com/goccy/go-json. It is the
// default: drop-in compatible with encoding/json and measurably faster on
// the map-heavy documents shards are made of.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

// Name returns "go-json".
func (GoJSON) Name() string { return "go-json" }

// JSON is the standard-library codec. The most portable option; pick it when
// dependency count matters more than throughput.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns "json".
func (JSON) Name() string { return "json" }

// ByName maps a stable codec name, as carried by a config file or flag, to
// its implementation.
func ByName(name string) (Codec, bool) {
	switch name {
	case "go-json":
		return GoJSON{}, true
	case "json":
		return JSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal encodes v with c, falling back to Default when c is nil, and
// panics on failure. Test and benchmark helper.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
