package report

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/hupe1980/annbench/codec"
)

// Sink receives result rows. Implementations must be safe for concurrent
// use.
type Sink interface {
	Write(ctx context.Context, row Row) error
	Close() error
}

// Discard drops every row.
var Discard Sink = discard{}

type discard struct{}

func (discard) Write(context.Context, Row) error { return nil }
func (discard) Close() error                     { return nil }

// MemorySink keeps rows in memory.
type MemorySink struct {
	mu   sync.Mutex
	rows []Row
}

// Write implements Sink.
func (s *MemorySink) Write(_ context.Context, row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return nil
}

// Close implements Sink.
func (s *MemorySink) Close() error { return nil }

// Rows returns a copy of the written rows.
func (s *MemorySink) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.rows)
}

// JSONLSink appends one JSON object per row to a file.
type JSONLSink struct {
	mu    sync.Mutex
	f     *os.File
	w     *bufio.Writer
	codec codec.Codec
}

// NewJSONLSink opens path for appending, creating it if needed. A nil codec
// uses codec.Default.
func NewJSONLSink(path string, c codec.Codec) (*JSONLSink, error) {
	if c == nil {
		c = codec.Default
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("report: open %s: %w", path, err)
	}
	return &JSONLSink{f: f, w: bufio.NewWriter(f), codec: c}, nil
}

// Write implements Sink. Every row is flushed before Write returns.
func (s *JSONLSink) Write(_ context.Context, row Row) error {
	b, err := s.codec.Marshal(row)
	if err != nil {
		return fmt.Errorf("report: encode row: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return os.ErrClosed
	}
	if _, err := s.w.Write(b); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	return s.w.Flush()
}

// Close implements Sink.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := errors.Join(s.w.Flush(), s.f.Close())
	s.f = nil
	return err
}

// ReadJSONL decodes rows written by a JSONLSink. Blank lines are ignored.
func ReadJSONL(r io.Reader, c codec.Codec) ([]Row, error) {
	if c == nil {
		c = codec.Default
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16<<20)

	var rows []Row
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var row Row
		if err := c.Unmarshal(b, &row); err != nil {
			return nil, fmt.Errorf("report: line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadJSONLFile is ReadJSONL over a file.
func ReadJSONLFile(path string, c codec.Codec) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	defer f.Close()
	return ReadJSONL(f, c)
}

// Multi writes every row to all sinks.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

type multi []Sink

func (m multi) Write(ctx context.Context, row Row) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
