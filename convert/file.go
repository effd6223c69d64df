package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hupe1980/annbench/internal/fs"
)

type streamFunc func(ctx context.Context, r io.Reader, w io.Writer, optFns ...Option) (Stats, error)

// ConvertEmbeddings converts the JSON or JSONL corpus at src into an fvecs
// file at dst.
func ConvertEmbeddings(ctx context.Context, src, dst string, optFns ...Option) (Stats, error) {
	return convertFile(ctx, src, dst, "documents", EmbeddingsTo, optFns)
}

// ConvertQueryLog converts the query log at src into an fvecs file at dst.
func ConvertQueryLog(ctx context.Context, src, dst string, optFns ...Option) (Stats, error) {
	return convertFile(ctx, src, dst, "queries", QueryLogTo, optFns)
}

// convertFile publishes dst only once the whole source has converted.
func convertFile(ctx context.Context, src, dst, unit string, fn streamFunc, optFns []Option) (Stats, error) {
	opts := applyOptions(optFns)
	start := time.Now()

	in, err := OpenSource(src)
	if err != nil {
		return Stats{}, fmt.Errorf("convert: open source: %w", err)
	}
	defer in.Close()

	var stats Stats
	err = fs.Publish(nil, dst, func(out fs.File) (err error) {
		stats, err = fn(ctx, in, out, optFns...)
		return err
	})
	if err != nil {
		return stats, err
	}

	attrs := []any{
		slog.String("unit", unit),
		slog.String("source", src),
		slog.String("target", dst),
		slog.Int("converted", stats.Converted),
		slog.Duration("elapsed", time.Since(start)),
	}
	if stats.Skipped > 0 {
		opts.logger.WarnContext(ctx, "conversion completed with skipped records", append(attrs, slog.Int("skipped", stats.Skipped))...)
	} else {
		opts.logger.InfoContext(ctx, "conversion completed", attrs...)
	}
	return stats, nil
}

// ErrUnsupportedSource is returned by Auto for a file it cannot classify.
var ErrUnsupportedSource = errors.New("convert: unsupported source format")

// Auto picks the adapter from the source extension: .json and .jsonl use the
// embedding adapter, .txt the query-log adapter.
func Auto(ctx context.Context, src, dst string, optFns ...Option) (Stats, error) {
	switch Kind(src) {
	case KindEmbeddings:
		return ConvertEmbeddings(ctx, src, dst, optFns...)
	case KindQueryLog:
		return ConvertQueryLog(ctx, src, dst, optFns...)
	default:
		return Stats{}, fmt.Errorf("%w: %s", ErrUnsupportedSource, src)
	}
}
