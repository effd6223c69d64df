package codec

import (
	"encoding/json"
	"io"
)

// JSON is the encoding/json codec, kept as the reference the decoding
// benchmarks measure against and as a fallback for corpora go-json rejects.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (JSON) NewDecoder(r io.Reader) Decoder { return json.NewDecoder(r) }

func (JSON) Name() string { return "json" }
