package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/annbench/internal/fs"
	"github.com/hupe1980/annbench/internal/resource"
)

const (
	// DefaultChunkSize is the ranged-read size of a download.
	DefaultChunkSize = 8 << 20

	// DefaultFetchConcurrency is the number of ranged reads in flight per
	// download.
	DefaultFetchConcurrency = 4
)

// ErrInvalidName is returned for resource names that escape the cache
// directory.
var ErrInvalidName = errors.New("blobstore: invalid resource name")

type fetcherOptions struct {
	chunkSize   int64
	concurrency int
	limits      resource.Config
	logger      *slog.Logger
	fs          fs.FileSystem
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*fetcherOptions)

// WithChunkSize sets the ranged-read size.
func WithChunkSize(n int64) FetcherOption {
	return func(o *fetcherOptions) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithFetchConcurrency sets the number of ranged reads in flight per
// download.
func WithFetchConcurrency(n int) FetcherOption {
	return func(o *fetcherOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithMaxConcurrentDownloads caps simultaneous downloads.
func WithMaxConcurrentDownloads(n int64) FetcherOption {
	return func(o *fetcherOptions) {
		o.limits.MaxConcurrentDownloads = n
	}
}

// WithBandwidth caps download throughput in bytes per second.
func WithBandwidth(bytesPerSec int64) FetcherOption {
	return func(o *fetcherOptions) {
		o.limits.BandwidthBytesPerSec = bytesPerSec
	}
}

// WithFetchLogger sets the logger.
func WithFetchLogger(l *slog.Logger) FetcherOption {
	return func(o *fetcherOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func withFileSystem(fsys fs.FileSystem) FetcherOption {
	return func(o *fetcherOptions) {
		o.fs = fsys
	}
}

// Fetcher materializes blobs as files under a cache directory. It
// implements the download-or-locate contract of dataset preparation.
type Fetcher struct {
	store       BlobStore
	dir         string
	chunkSize   int64
	concurrency int
	rc          *resource.Controller
	fs          fs.FileSystem
	logger      *slog.Logger
	group       singleflight.Group
}

// NewFetcher creates a fetcher downloading from store into dir.
func NewFetcher(store BlobStore, dir string, optFns ...FetcherOption) *Fetcher {
	opts := fetcherOptions{
		chunkSize:   DefaultChunkSize,
		concurrency: DefaultFetchConcurrency,
		limits:      resource.Config{MaxConcurrentDownloads: 2},
		logger:      slog.New(slog.DiscardHandler),
		fs:          fs.Default,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Fetcher{
		store:       store,
		dir:         dir,
		chunkSize:   opts.chunkSize,
		concurrency: opts.concurrency,
		rc:          resource.NewController(opts.limits),
		fs:          opts.fs,
		logger:      opts.logger,
	}
}

// Dir returns the cache directory.
func (f *Fetcher) Dir() string { return f.dir }

// Locate returns the local path of resource, downloading it first if it is
// not cached. Concurrent calls for the same resource share one download.
func (f *Fetcher) Locate(ctx context.Context, name string) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(f.dir, filepath.FromSlash(clean))

	if info, err := f.fs.Stat(dst); err == nil && info.Mode().IsRegular() {
		f.logger.DebugContext(ctx, "resource cached", slog.String("resource", clean), slog.String("path", dst))
		return dst, nil
	}

	_, err, _ = f.group.Do(clean, func() (any, error) {
		return nil, f.fetch(ctx, clean, dst)
	})
	if err != nil {
		return "", err
	}
	return dst, nil
}

func cleanName(name string) (string, error) {
	if name == "" || path.IsAbs(name) || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	clean := path.Clean(filepath.ToSlash(name))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return clean, nil
}

func (f *Fetcher) fetch(ctx context.Context, name, dst string) error {
	if err := f.rc.AcquireDownload(ctx); err != nil {
		return err
	}
	defer f.rc.ReleaseDownload()

	start := time.Now()
	blob, err := f.store.Open(ctx, name)
	if err != nil {
		return fmt.Errorf("blobstore: open %s: %w", name, err)
	}
	defer blob.Close()

	var n int64
	err = fs.Publish(f.fs, dst, func(file fs.File) (err error) {
		if d, ok := f.store.(Downloader); ok {
			n, err = d.Download(ctx, name, file)
		} else {
			n, err = f.copyRanges(ctx, blob, file)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("blobstore: download %s: %w", name, err)
	}

	f.logger.InfoContext(ctx, "resource downloaded",
		slog.String("resource", name),
		slog.String("path", dst),
		slog.Int64("bytes", n),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// copyRanges copies blob into w with concurrent ranged reads.
func (f *Fetcher) copyRanges(ctx context.Context, blob Blob, w io.WriterAt) (int64, error) {
	size := blob.Size()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for off := int64(0); off < size; off += f.chunkSize {
		length := min(f.chunkSize, size-off)
		g.Go(func() error {
			rc, err := blob.ReadRange(gctx, off, length)
			if err != nil {
				return err
			}
			defer rc.Close()

			buf := make([]byte, length)
			if _, err := io.ReadFull(f.rc.Reader(gctx, rc), buf); err != nil {
				return fmt.Errorf("range %d+%d: %w", off, length, err)
			}
			_, err = w.WriteAt(buf, off)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return size, nil
}
