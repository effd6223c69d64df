package codec

import (
	"io"

	gojson "github.com/goccy/go-json"
)

// Default is the codec used when none is configured.
var Default Codec = GoJSON{}

// GoJSON is backed by github.com/goccy/go-json. Embedding corpora spend most
// of their conversion time in the decoder, which makes it the default.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

func (GoJSON) NewDecoder(r io.Reader) Decoder { return gojson.NewDecoder(r) }

func (GoJSON) Name() string { return "go-json" }
