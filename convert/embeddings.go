package convert

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hupe1980/annbench/codec"
	"github.com/hupe1980/annbench/fvecs"
)

// EmbeddingsTo converts a JSON array or JSONL corpus read from r into fvecs
// records written to w. The mode is chosen by the first non-whitespace byte:
// '[' selects array mode, anything else streams one document per line.
func EmbeddingsTo(ctx context.Context, r io.Reader, w io.Writer, optFns ...Option) (Stats, error) {
	opts := applyOptions(optFns)

	br := bufio.NewReaderSize(r, 1<<20)
	first, err := firstNonSpace(br)
	if err != nil && !errors.Is(err, io.EOF) {
		return Stats{}, fmt.Errorf("convert: detect format: %w", err)
	}

	out := fvecs.NewWriter(w)
	c := &converter{opts: opts, out: out, unit: "documents"}

	if first == '[' {
		opts.logger.DebugContext(ctx, "detected json array format")
		err = c.array(ctx, br)
	} else {
		opts.logger.DebugContext(ctx, "detected jsonl format")
		err = c.lines(ctx, br)
	}
	if err != nil {
		return c.stats, err
	}
	if err := out.Flush(); err != nil {
		return c.stats, fmt.Errorf("convert: flush: %w", err)
	}
	return c.stats, nil
}

// firstNonSpace peeks at the first byte that is not JSON whitespace without
// consuming it.
func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}

type converter struct {
	opts  options
	out   *fvecs.Writer
	unit  string
	stats Stats
}

func (c *converter) array(ctx context.Context, r io.Reader) error {
	var cbErr error
	err := codec.EachElement(c.opts.codec, r, func(i int, raw any) error {
		if cbErr = ctx.Err(); cbErr != nil {
			return cbErr
		}
		cbErr = c.document(ctx, i, raw)
		return cbErr
	})
	if err != nil && cbErr == nil {
		return fmt.Errorf("convert: parse json array: %w", err)
	}
	return err
}

func (c *converter) lines(ctx context.Context, br *bufio.Reader) error {
	for lineNo := 0; ; lineNo++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := br.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			var doc any
			if uerr := c.opts.codec.Unmarshal(line, &doc); uerr != nil {
				c.skip(ctx, lineNo, uerr)
			} else if werr := c.document(ctx, lineNo, doc); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("convert: read line %d: %w", lineNo+1, err)
		}
	}
}

// document converts one decoded document. Only write failures are returned.
func (c *converter) document(ctx context.Context, index int, raw any) error {
	doc, ok := raw.(map[string]any)
	if !ok {
		c.skip(ctx, index, errNotDocument)
		return nil
	}
	values, err := extract(doc, c.opts.strategies, c.opts.field, c.opts.cellLimits())
	if err != nil {
		c.skip(ctx, index, err)
		return nil
	}
	return c.emit(ctx, values)
}

func (c *converter) emit(ctx context.Context, values []float32) error {
	if err := c.out.Write(values); err != nil {
		return fmt.Errorf("convert: write record %d: %w", c.stats.Converted, err)
	}
	c.stats.Converted++
	if c.stats.Converted%c.opts.progressEvery == 0 {
		c.opts.logger.DebugContext(ctx, "conversion progress", slog.String("unit", c.unit), slog.Int("converted", c.stats.Converted))
	}
	return nil
}

func (c *converter) skip(ctx context.Context, index int, reason error) {
	c.stats.Skipped++
	c.opts.logger.DebugContext(ctx, "skipped record", slog.String("unit", c.unit), slog.Int("index", index), slog.Any("reason", reason))
}
