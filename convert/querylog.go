package convert

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/hupe1980/annbench/fvecs"
)

var (
	errNoQueryString = errors.New("line has no query string")
	errMissingParam  = errors.New("query parameter not present")
)

// QueryLogTo converts URL-style query lines read from r into fvecs records
// written to w. Blank lines are ignored and not counted.
func QueryLogTo(ctx context.Context, r io.Reader, w io.Writer, optFns ...Option) (Stats, error) {
	opts := applyOptions(optFns)

	out := fvecs.NewWriter(w)
	c := &converter{opts: opts, out: out, unit: "queries"}
	br := bufio.NewReaderSize(r, 1<<20)

	for lineNo := 0; ; lineNo++ {
		if err := ctx.Err(); err != nil {
			return c.stats, err
		}
		line, err := br.ReadString('\n')
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			values, qerr := queryVector(trimmed, opts)
			if qerr != nil {
				c.skip(ctx, lineNo, qerr)
			} else if werr := c.emit(ctx, values); werr != nil {
				return c.stats, werr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return c.stats, fmt.Errorf("convert: read line %d: %w", lineNo+1, err)
		}
	}

	if err := out.Flush(); err != nil {
		return c.stats, fmt.Errorf("convert: flush: %w", err)
	}
	return c.stats, nil
}

func queryVector(line string, opts options) ([]float32, error) {
	_, rawQuery, ok := strings.Cut(line, "?")
	if !ok {
		return nil, errNoQueryString
	}
	raw, ok := firstParam(rawQuery, opts.param)
	if !ok {
		return nil, errMissingParam
	}

	var values []float64
	if err := opts.codec.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", opts.param, err)
	}
	out := make([]float32, len(values))
	for i, v := range values {
		f, err := toFloat32(v)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

// firstParam returns the decoded value of the first occurrence of key.
// Pairs that fail to unescape are ignored so one bad pair does not hide the
// parameter.
func firstParam(rawQuery, key string) (string, bool) {
	for rawQuery != "" {
		var pair string
		pair, rawQuery, _ = strings.Cut(rawQuery, "&")
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		k, err := url.QueryUnescape(rawKey)
		if err != nil || k != key {
			continue
		}
		v, err := url.QueryUnescape(rawValue)
		if err != nil {
			continue
		}
		return v, true
	}
	return "", false
}
