package annbench

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/annbench/convert"
	"github.com/hupe1980/annbench/recall"
)

// Logger wraps slog.Logger with benchmark-specific helpers.
// Field names are shared by every helper so runs can be grepped by label.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithDataset adds a dataset field to the logger.
func (l *Logger) WithDataset(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("dataset", name),
	}
}

// WithLabel adds a benchmark label field to the logger.
func (l *Logger) WithLabel(label string) *Logger {
	return &Logger{
		Logger: l.Logger.With("label", label),
	}
}

// WithRunID adds a run id field to the logger.
func (l *Logger) WithRunID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("run_id", id),
	}
}

// LogConversion logs the outcome of a corpus conversion.
func (l *Logger) LogConversion(ctx context.Context, src, dst string, stats convert.Stats, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "conversion failed",
			"source", src,
			"error", err,
		)
	case stats.Skipped > 0:
		l.WarnContext(ctx, "conversion completed with skipped records",
			"source", src,
			"target", dst,
			"converted", stats.Converted,
			"skipped", stats.Skipped,
		)
	default:
		l.InfoContext(ctx, "conversion completed",
			"source", src,
			"target", dst,
			"converted", stats.Converted,
		)
	}
}

// LogPrepare logs the preparation of one corpus role (base or queries).
func (l *Logger) LogPrepare(ctx context.Context, name, role, path string, cached bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "prepare failed",
			"dataset", name,
			"role", role,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "corpus ready",
		"dataset", name,
		"role", role,
		"path", path,
		"cached", cached,
	)
}

// LogRecall logs a recall evaluation. stats are percentages.
func (l *Logger) LogRecall(ctx context.Context, label string, stats recall.Statistics, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "recall failed",
			"label", label,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "recall completed",
		"label", label,
		"queries", stats.Count,
		"avg", stats.Average,
		"median", stats.Median,
		"min", stats.Min,
		"max", stats.Max,
		"elapsed", elapsed,
	)
}

// LogCrossRecall logs a cross-encoding comparison.
func (l *Logger) LogCrossRecall(ctx context.Context, label string, res recall.CrossResult, err error) {
	if err != nil {
		l.ErrorContext(ctx, "cross recall failed",
			"label", label,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "cross recall completed",
		"label", label,
		"queries", res.Queries,
		"overlap", res.Overlap,
		"percent", res.Percent,
	)
}
