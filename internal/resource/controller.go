package resource

import (
	"context"
	"io"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxConcurrentDownloads caps simultaneous downloads. 0 means 1.
	MaxConcurrentDownloads int64

	// BandwidthBytesPerSec caps download throughput. 0 means unlimited.
	BandwidthBytesPerSec int64
}

// Controller enforces download limits. It is safe for concurrent use.
type Controller struct {
	cfg       Config
	downloads *semaphore.Weighted
	bandwidth *rate.Limiter
}

// NewController creates a controller for cfg.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentDownloads <= 0 {
		cfg.MaxConcurrentDownloads = 1
	}

	c := &Controller{
		cfg:       cfg,
		downloads: semaphore.NewWeighted(cfg.MaxConcurrentDownloads),
	}
	if cfg.BandwidthBytesPerSec > 0 {
		c.bandwidth = rate.NewLimiter(rate.Limit(cfg.BandwidthBytesPerSec), int(cfg.BandwidthBytesPerSec))
	}
	return c
}

// AcquireDownload reserves a download slot, blocking until one is free.
func (c *Controller) AcquireDownload(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.downloads.Acquire(ctx, 1)
}

// TryAcquireDownload reserves a download slot without blocking.
func (c *Controller) TryAcquireDownload() bool {
	if c == nil {
		return true
	}
	return c.downloads.TryAcquire(1)
}

// ReleaseDownload frees a slot taken by AcquireDownload.
func (c *Controller) ReleaseDownload() {
	if c == nil {
		return
	}
	c.downloads.Release(1)
}

// WaitBytes blocks until n bytes may be transferred. Requests larger than
// the bucket are split.
func (c *Controller) WaitBytes(ctx context.Context, n int) error {
	if c == nil || c.bandwidth == nil {
		return nil
	}
	burst := c.bandwidth.Burst()
	for n > 0 {
		step := min(n, burst)
		if err := c.bandwidth.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}

// Reader returns r throttled by the bandwidth limit.
func (c *Controller) Reader(ctx context.Context, r io.Reader) io.Reader {
	if c == nil || c.bandwidth == nil {
		return r
	}
	return &limitedReader{ctx: ctx, r: r, c: c}
}

type limitedReader struct {
	ctx context.Context
	r   io.Reader
	c   *Controller
}

func (l *limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	if n > 0 {
		if werr := l.c.WaitBytes(l.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
