// Package codec centralizes JSON encoding for corpus documents, engine
// responses and report rows.
//
// Corpora run to hundreds of thousands of documents, so besides whole-value
// Marshal/Unmarshal a Codec can stream the elements of a top-level array.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// NewDecoder returns a token-level decoder over r.
	NewDecoder(r io.Reader) Decoder
	Name() string
}

// Decoder is the streaming subset shared by encoding/json and go-json.
type Decoder interface {
	Token() (json.Token, error)
	More() bool
	Decode(v any) error
}

// ErrNotArray is returned by EachElement when the input does not start with
// a JSON array.
var ErrNotArray = errors.New("codec: input is not a json array")

// EachElement decodes the elements of the top-level JSON array in r one at a
// time and passes them to fn with their zero-based index. A malformed
// element or a missing closing bracket is an error; so is any error
// returned by fn, which stops the iteration.
func EachElement(c Codec, r io.Reader, fn func(index int, elem any) error) error {
	if c == nil {
		c = Default
	}
	dec := c.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("codec %s: %w", c.Name(), err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return ErrNotArray
	}

	for i := 0; dec.More(); i++ {
		var elem any
		if err := dec.Decode(&elem); err != nil {
			return fmt.Errorf("codec %s: element %d: %w", c.Name(), i, err)
		}
		if err := fn(i, elem); err != nil {
			return err
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("codec %s: closing bracket: %w", c.Name(), err)
	}
	return nil
}

// ByName returns a built-in codec: "json" or "go-json".
func ByName(name string) (Codec, bool) {
	switch name {
	case JSON{}.Name():
		return JSON{}, true
	case GoJSON{}.Name():
		return GoJSON{}, true
	}
	return nil, false
}

// MustMarshal is a helper for tests and fixtures.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s: marshal: %w", c.Name(), err))
	}
	return b
}
