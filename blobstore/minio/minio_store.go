package minio

import (
	"context"
	"io"
	"slices"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hupe1980/annbench/blobstore"
)

// Store serves corpora from a MinIO or other S3-compatible bucket.
type Store struct {
	client *minio.Client
	bucket string
	keys   blobstore.Keyspace
}

// NewStore returns a store over client. Blob names are resolved under
// prefix.
func NewStore(client *minio.Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, keys: blobstore.Keyspace(prefix)}
}

// Dial connects to endpoint ("host:port") with static credentials.
func Dial(endpoint, accessKey, secretKey string, secure bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
}

func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.keys.Key(name)
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		switch minio.ToErrorResponse(err).Code {
		case "NoSuchKey", "NotFound":
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}

	get := func(ctx context.Context, first, last int64) (io.ReadCloser, error) {
		var opts minio.GetObjectOptions
		if err := opts.SetRange(first, last); err != nil {
			return nil, err
		}
		return s.client.GetObject(ctx, s.bucket, key, opts)
	}
	return blobstore.NewRemoteBlob(info.Size, get), nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.keys.ListPrefix(prefix),
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if name, ok := s.keys.Name(obj.Key); ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}
