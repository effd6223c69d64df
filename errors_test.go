package annbench

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annbench/convert"
	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/engine"
	"github.com/hupe1980/annbench/fvecs"
	"github.com/hupe1980/annbench/recall"
)

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	cases := []struct {
		name string
		err  error
		want error
	}{
		{"configuration", &dataset.ConfigurationError{Dataset: "x", Err: dataset.ErrUnknownDataset}, ErrConfiguration},
		{"invalid request", fmt.Errorf("%w: missing tensor", engine.ErrInvalidRequest), ErrConfiguration},
		{"target hits", recall.ErrInvalidTargetHits, ErrConfiguration},
		{"malformed", fmt.Errorf("read: %w", &fvecs.MalformedRecordError{Record: 3}), ErrMalformedRecord},
		{"empty", recall.ErrEmptySampleSet, ErrEmptySampleSet},
		{"engine", &recall.EngineQueryError{Query: 2, Message: "boom"}, ErrEngineQuery},
		{"http", &engine.HTTPError{StatusCode: 503}, ErrEngineQuery},
		{"shape", fmt.Errorf("%w: no hits", engine.ErrUnexpectedResponse), ErrEngineQuery},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translateError(tc.err)
			assert.ErrorIs(t, got, tc.want)
			assert.ErrorIs(t, got, tc.err, "cause must stay reachable")
		})
	}

	other := errors.New("other")
	assert.Same(t, other, translateError(other))
}

func TestTranslateError_DimensionMismatch(t *testing.T) {
	cause := &fvecs.DimensionMismatchError{Record: 1, Expected: 4, Actual: 3}
	err := translateError(fmt.Errorf("read: %w", cause))

	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 4, dm.Expected)
	assert.Equal(t, 3, dm.Actual)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, "dimension mismatch: expected 4, got 3", err.Error())
}

func TestLogger_Helpers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	l.WithDataset("sift").LogConversion(ctx, "a.jsonl", "a.fvecs", convert.Stats{Converted: 5, Skipped: 1}, nil)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "dataset=sift")
	assert.Contains(t, buf.String(), "skipped=1")

	buf.Reset()
	l.LogRecall(ctx, "rq_euclidean-th10-eh0-f0", recall.Statistics{Count: 2, Average: 95}, 0, nil)
	assert.Contains(t, buf.String(), "recall completed")
	assert.Contains(t, buf.String(), "avg=95")

	buf.Reset()
	l.WithLabel("x").LogCrossRecall(ctx, "x", recall.CrossResult{}, errors.New("down"))
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "error=down")

	buf.Reset()
	NoopLogger().LogPrepare(ctx, "sift", "base", "p", false, nil)
	assert.Empty(t, buf.String())
}
