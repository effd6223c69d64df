package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var builtins = []Codec{JSON{}, GoJSON{}}

func TestByName(t *testing.T) {
	for _, c := range builtins {
		got, ok := ByName(c.Name())
		require.True(t, ok, c.Name())
		assert.Equal(t, c, got)
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestCodecs_AgreeOnDocuments(t *testing.T) {
	data := []byte(`{"fields":{"embedding":[1.5,-2,0.25]},"put":"id:x::1"}`)

	for _, c := range builtins {
		t.Run(c.Name(), func(t *testing.T) {
			var doc map[string]any
			require.NoError(t, c.Unmarshal(data, &doc))

			fields, ok := doc["fields"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, []any{1.5, -2.0, 0.25}, fields["embedding"])
			assert.Equal(t, "id:x::1", doc["put"])
		})
	}
}

func TestEachElement(t *testing.T) {
	for _, c := range builtins {
		t.Run(c.Name(), func(t *testing.T) {
			var got []any
			err := EachElement(c, strings.NewReader(` [ {"a":1}, 2, "x", [3] ] `), func(i int, elem any) error {
				assert.Equal(t, len(got), i)
				got = append(got, elem)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, []any{map[string]any{"a": 1.0}, 2.0, "x", []any{3.0}}, got)
		})
	}
}

func TestEachElement_Errors(t *testing.T) {
	noop := func(int, any) error { return nil }

	for _, c := range builtins {
		t.Run(c.Name(), func(t *testing.T) {
			assert.ErrorIs(t, EachElement(c, strings.NewReader(`{"a":1}`), noop), ErrNotArray)
			assert.Error(t, EachElement(c, strings.NewReader(``), noop))
			assert.Error(t, EachElement(c, strings.NewReader(`[{"a":1},`), noop))
			assert.Error(t, EachElement(c, strings.NewReader(`[{"a":1}`), noop))

			stop := errors.New("stop")
			calls := 0
			err := EachElement(c, strings.NewReader(`[1,2,3]`), func(int, any) error {
				calls++
				return stop
			})
			assert.ErrorIs(t, err, stop)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestMustMarshal_DefaultCodec(t *testing.T) {
	assert.Equal(t, `[1,2]`, string(MustMarshal(nil, []int{1, 2})))
	assert.Panics(t, func() { MustMarshal(JSON{}, func() {}) })
}
