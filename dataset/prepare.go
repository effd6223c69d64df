package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/hupe1980/annbench/convert"
	afs "github.com/hupe1980/annbench/internal/fs"
)

// Artifact describes a prepared corpus file.
type Artifact struct {
	// Path is the fvecs file to feed or query with.
	Path string
	// Source is the located raw corpus.
	Source string
	// Cached is true when an existing artifact was reused.
	Cached bool
	// Converted is true when Path was produced by this call.
	Converted bool
	// Stats holds the adapter counts when Converted is true.
	Stats convert.Stats
}

// Preparer turns catalog entries into local fvecs files.
type Preparer struct {
	catalog *Catalog
	locator Locator
	opts    options
}

// NewPreparer returns a Preparer resolving names against catalog and raw
// corpora through locator.
func NewPreparer(catalog *Catalog, locator Locator, optFns ...Option) *Preparer {
	opts := options{
		logger: slog.New(slog.DiscardHandler),
		prober: FileProber{},
		policy: CacheByExistence,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Preparer{catalog: catalog, locator: locator, opts: opts}
}

// PrepareBase returns the base corpus of name as an fvecs file. JSON and
// JSONL corpora are converted with the dataset's dimensions as the expected
// cell tensor length.
func (p *Preparer) PrepareBase(ctx context.Context, name string) (Artifact, error) {
	ds, err := p.catalog.Lookup(name)
	if err != nil {
		return Artifact{}, err
	}
	return p.prepare(ctx, ds, ds.BaseLocation, "base")
}

// PrepareQueries returns the query corpus of name as an fvecs file. Query
// logs are converted by the query-log adapter.
func (p *Preparer) PrepareQueries(ctx context.Context, name string) (Artifact, error) {
	ds, err := p.catalog.Lookup(name)
	if err != nil {
		return Artifact{}, err
	}
	return p.prepare(ctx, ds, ds.QueryLocation, "queries")
}

func (p *Preparer) prepare(ctx context.Context, ds Dataset, location, role string) (Artifact, error) {
	raw, err := p.locator.Locate(ctx, location)
	if err != nil {
		return Artifact{}, fmt.Errorf("dataset %s: locate %s corpus %q: %w", ds.Name, role, location, err)
	}

	kind := convert.Kind(raw)
	if kind == convert.KindFvecs && convert.StripCompression(raw) == raw {
		return Artifact{Path: raw, Source: raw}, nil
	}
	if kind == convert.KindUnknown || (role == "base" && kind == convert.KindQueryLog) {
		return Artifact{}, &ConfigurationError{Dataset: ds.Name, Detail: raw, Err: ErrUnsupportedFormat}
	}

	target := convert.DerivedPath(raw)
	logger := p.opts.logger.With(slog.String("dataset", ds.Name), slog.String("role", role))

	reuse, err := p.reusable(ctx, raw, target)
	if err != nil {
		return Artifact{}, fmt.Errorf("dataset %s: probe %s: %w", ds.Name, target, err)
	}
	if reuse {
		logger.InfoContext(ctx, "using already converted file", slog.String("path", target))
		return Artifact{Path: target, Source: raw, Cached: true}, nil
	}

	logger.InfoContext(ctx, "converting corpus", slog.String("source", raw), slog.String("target", target))

	convertOpts := append([]convert.Option{
		convert.WithLogger(logger),
		convert.WithExpectedDims(ds.Dimensions),
	}, p.opts.convertOpts...)

	var stats convert.Stats
	switch kind {
	case convert.KindFvecs:
		err = decompress(raw, target)
	case convert.KindEmbeddings:
		stats, err = convert.ConvertEmbeddings(ctx, raw, target, convertOpts...)
	case convert.KindQueryLog:
		stats, err = convert.ConvertQueryLog(ctx, raw, target, convertOpts...)
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("dataset %s: convert %s: %w", ds.Name, raw, err)
	}
	return Artifact{Path: target, Source: raw, Converted: true, Stats: stats}, nil
}

func (p *Preparer) reusable(ctx context.Context, source, target string) (bool, error) {
	if p.opts.policy == CacheByModTime {
		ti, err := os.Stat(target)
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		si, err := os.Stat(source)
		if err != nil {
			return false, err
		}
		return !si.ModTime().After(ti.ModTime()), nil
	}
	return p.opts.prober.Exists(ctx, target)
}

// decompress publishes the decompressed contents of an fvecs archive at dst.
func decompress(src, dst string) error {
	in, err := convert.OpenSource(src)
	if err != nil {
		return err
	}
	defer in.Close()

	return afs.Publish(nil, dst, func(out afs.File) error {
		_, err := io.Copy(out, in)
		return err
	})
}
