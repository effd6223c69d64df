package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hupe1980/annbench/blobstore"
)

// DefaultPartSize is the part size of concurrent downloads.
const DefaultPartSize = 16 << 20

// Store serves corpora from an S3 bucket. Whole-object downloads go through
// the transfer manager, so a Fetcher pulls multi-gigabyte base files in
// parallel parts.
type Store struct {
	client     Client
	bucket     string
	keys       blobstore.Keyspace
	downloader *manager.Downloader
}

// NewStore returns a store over client. Blob names are resolved under
// prefix, e.g. "ann-benchmarks/".
func NewStore(client Client, bucket, prefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		keys:   blobstore.Keyspace(prefix),
		downloader: manager.NewDownloader(client, func(d *manager.Downloader) {
			d.PartSize = DefaultPartSize
		}),
	}
}

type options struct {
	prefix   string
	region   string
	endpoint string
}

// Option configures New.
type Option func(*options)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithEndpoint sets a custom endpoint and switches to path-style
// addressing.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// New creates a store using the default AWS credential chain.
func New(ctx context.Context, bucket string, optFns ...Option) (*Store, error) {
	var opts options
	for _, fn := range optFns {
		fn(&opts)
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.endpoint != "" {
			o.BaseEndpoint = aws.String(opts.endpoint)
			o.UsePathStyle = true
		}
	})
	return NewStore(client, bucket, opts.prefix), nil
}

func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	return s.head(ctx, s.keys.Key(name))
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	return s.list(ctx, prefix)
}

// Download fetches the whole object into w with concurrent part requests.
func (s *Store) Download(ctx context.Context, name string, w io.WriterAt) (int64, error) {
	n, err := s.downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keys.Key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, blobstore.ErrNotFound
		}
		return 0, err
	}
	return n, nil
}
