package testutil

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annbench/codec"
	"github.com/hupe1980/annbench/fvecs"
)

// WriteFvecs writes vectors to dir/name and returns the path.
func WriteFvecs(tb testing.TB, dir, name string, vectors [][]float32) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	require.NoError(tb, os.MkdirAll(filepath.Dir(path), 0o755))

	w, err := fvecs.Create(path)
	require.NoError(tb, err)
	for _, v := range vectors {
		require.NoError(tb, w.Write(v))
	}
	require.NoError(tb, w.Close())
	return path
}

// FieldsDocuments wraps each vector as a feed document
// {"put": "id:...", "fields": {"id": i, "embedding": [...]}}.
func FieldsDocuments(vectors [][]float32) []any {
	docs := make([]any, len(vectors))
	for i, v := range vectors {
		docs[i] = map[string]any{
			"put": "id:test:test::" + strconv.Itoa(i),
			"fields": map[string]any{
				"id":        i,
				"embedding": v,
			},
		}
	}
	return docs
}

// CellDocument returns a document whose embedding uses the cell form with
// the given index to value mapping.
func CellDocument(cells map[int]float32) any {
	out := make([]any, 0, len(cells))
	for idx, v := range cells {
		out = append(out, map[string]any{
			"address": map[string]any{"x": strconv.Itoa(idx)},
			"value":   v,
		})
	}
	return map[string]any{"fields": map[string]any{"embedding": map[string]any{"cells": out}}}
}

// WriteJSONL writes one JSON document per line. A string document is
// written verbatim, which allows malformed lines.
func WriteJSONL(tb testing.TB, dir, name string, docs []any) string {
	tb.Helper()
	var sb strings.Builder
	for _, d := range docs {
		if s, ok := d.(string); ok {
			sb.WriteString(s)
		} else {
			sb.Write(codec.MustMarshal(codec.Default, d))
		}
		sb.WriteByte('\n')
	}
	return writeFile(tb, dir, name, sb.String())
}

// WriteJSONArray writes docs as a single JSON array.
func WriteJSONArray(tb testing.TB, dir, name string, docs []any) string {
	tb.Helper()
	return writeFile(tb, dir, name, string(codec.MustMarshal(codec.Default, docs)))
}

// QueryLine renders a query-log line carrying v in the
// input.query(question) parameter.
func QueryLine(v []float32) string {
	params := url.Values{}
	params.Set("yql", "select * from sources * where true")
	params.Set("input.query(question)", string(codec.MustMarshal(codec.Default, v)))
	return "/search/?" + params.Encode()
}

// WriteQueryLog writes one query line per vector.
func WriteQueryLog(tb testing.TB, dir, name string, vectors [][]float32) string {
	tb.Helper()
	var sb strings.Builder
	for _, v := range vectors {
		sb.WriteString(QueryLine(v))
		sb.WriteByte('\n')
	}
	return writeFile(tb, dir, name, sb.String())
}

func writeFile(tb testing.TB, dir, name, content string) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	require.NoError(tb, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(tb, os.WriteFile(path, []byte(content), 0o644))
	return path
}
