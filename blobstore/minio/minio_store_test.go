package minio

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/annbench/blobstore"
)

// dialLocal connects to a MinIO server on localhost:9000 (override with
// MINIO_ENDPOINT) and skips the test when none is reachable.
func dialLocal(t *testing.T) *minio.Client {
	t.Helper()
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	client, err := Dial(endpoint, "minioadmin", "minioadmin", false)
	if err != nil {
		t.Skipf("minio client: %v", err)
	}
	if _, err := client.ListBuckets(context.Background()); err != nil {
		t.Skipf("minio not reachable: %v", err)
	}
	return client
}

func TestStore_FetchCorpus(t *testing.T) {
	client := dialLocal(t)
	ctx := context.Background()
	const bucket = "annbench-test"

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	corpus := bytes.Repeat([]byte{3, 0, 0, 0, 0, 0, 128, 63, 0, 0, 0, 64, 0, 0, 64, 64}, 512)
	_, err = client.PutObject(ctx, bucket, "corpora/sift/sift_base.fvecs", bytes.NewReader(corpus), int64(len(corpus)), minio.PutObjectOptions{})
	require.NoError(t, err)

	store := NewStore(client, bucket, "corpora/")

	names, err := store.List(ctx, "sift/")
	require.NoError(t, err)
	assert.Equal(t, []string{"sift/sift_base.fvecs"}, names)

	b, err := store.Open(ctx, "sift/sift_base.fvecs")
	require.NoError(t, err)
	assert.Equal(t, int64(len(corpus)), b.Size())

	head := make([]byte, 4)
	_, err = b.ReadAt(ctx, head, 16)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 0, 0, 0}, head)

	_, err = store.Open(ctx, "sift/sift_query.fvecs")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	p, err := blobstore.NewFetcher(store, t.TempDir(), blobstore.WithChunkSize(1000)).Locate(ctx, "sift/sift_base.fvecs")
	require.NoError(t, err)
	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, corpus, got)
}
