package resource

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Downloads(t *testing.T) {
	c := NewController(Config{MaxConcurrentDownloads: 2})

	require.NoError(t, c.AcquireDownload(context.Background()))
	assert.True(t, c.TryAcquireDownload())
	assert.False(t, c.TryAcquireDownload())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.AcquireDownload(ctx), context.DeadlineExceeded)

	c.ReleaseDownload()
	assert.True(t, c.TryAcquireDownload())
	c.ReleaseDownload()
	c.ReleaseDownload()
}

func TestController_DefaultsToOneDownload(t *testing.T) {
	c := NewController(Config{})
	assert.True(t, c.TryAcquireDownload())
	assert.False(t, c.TryAcquireDownload())
	c.ReleaseDownload()
}

func TestController_Nil(t *testing.T) {
	var c *Controller
	require.NoError(t, c.AcquireDownload(context.Background()))
	assert.True(t, c.TryAcquireDownload())
	c.ReleaseDownload()
	require.NoError(t, c.WaitBytes(context.Background(), 1<<30))

	r := bytes.NewReader([]byte("abc"))
	assert.Same(t, r, c.Reader(context.Background(), r))
}

func TestController_Bandwidth(t *testing.T) {
	c := NewController(Config{BandwidthBytesPerSec: 1 << 20})

	// Larger than the bucket: split rather than rejected.
	require.NoError(t, c.WaitBytes(context.Background(), 1<<20+10))

	data := bytes.Repeat([]byte("x"), 4096)
	got, err := io.ReadAll(c.Reader(context.Background(), bytes.NewReader(data)))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestController_BandwidthCancelled(t *testing.T) {
	c := NewController(Config{BandwidthBytesPerSec: 10})
	require.NoError(t, c.WaitBytes(context.Background(), 10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.WaitBytes(ctx, 10))
}
