package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/annbench"
	"github.com/hupe1980/annbench/blobstore"
	"github.com/hupe1980/annbench/blobstore/minio"
	"github.com/hupe1980/annbench/blobstore/s3"
	"github.com/hupe1980/annbench/codec"
	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/engine"
	"github.com/hupe1980/annbench/metrics"
	"github.com/hupe1980/annbench/report"
)

// app holds what every command needs once the configuration is loaded.
type app struct {
	cfg       annbench.Config
	logger    *annbench.Logger
	registry  *prometheus.Registry
	collector *metrics.PrometheusCollector

	metricsServer *http.Server
	sink          report.Sink
}

func newApp(cfg annbench.Config) (*app, error) {
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	return &app{
		cfg:       cfg,
		logger:    logger,
		registry:  reg,
		collector: metrics.NewPrometheusCollector(reg),
	}, nil
}

// serveMetrics exposes the collector on addr until close is called.
func (a *app) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	a.metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", "error", err)
		}
	}()
	a.logger.Info("serving metrics", "addr", ln.Addr().String())
	return nil
}

func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.sink != nil {
		errs = append(errs, a.sink.Close())
	}
	if a.metricsServer != nil {
		errs = append(errs, a.metricsServer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// locator resolves catalog locations. Local corpora are used in place;
// remote ones are fetched into the cache directory first.
func (a *app) locator(ctx context.Context) (dataset.Locator, error) {
	sc := a.cfg.Storage
	var store blobstore.BlobStore
	switch sc.Kind {
	case annbench.StorageLocal:
		root := sc.Root
		return dataset.LocatorFunc(func(_ context.Context, name string) (string, error) {
			return filepath.Join(root, filepath.FromSlash(name)), nil
		}), nil
	case annbench.StorageMirror:
		store = blobstore.NewLocalStore(sc.Root)
	case annbench.StorageMemory:
		store = blobstore.NewMemoryStore()
	case annbench.StorageS3:
		var opts []s3.Option
		if sc.Prefix != "" {
			opts = append(opts, s3.WithPrefix(sc.Prefix))
		}
		if sc.Region != "" {
			opts = append(opts, s3.WithRegion(sc.Region))
		}
		if sc.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(sc.Endpoint))
		}
		s, err := s3.New(ctx, sc.Bucket, opts...)
		if err != nil {
			return nil, err
		}
		store = s
	case annbench.StorageMinIO:
		client, err := minio.Dial(sc.Endpoint, sc.AccessKey, sc.SecretKey, sc.Secure)
		if err != nil {
			return nil, err
		}
		store = minio.NewStore(client, sc.Bucket, sc.Prefix)
	default:
		return nil, fmt.Errorf("%w: unknown storage kind %q", annbench.ErrConfiguration, sc.Kind)
	}

	fetchOpts := []blobstore.FetcherOption{blobstore.WithFetchLogger(a.logger.Logger)}
	if sc.MaxConcurrentDownloads > 0 {
		fetchOpts = append(fetchOpts, blobstore.WithMaxConcurrentDownloads(int64(sc.MaxConcurrentDownloads)))
	}
	if sc.BandwidthBytesPerSec > 0 {
		fetchOpts = append(fetchOpts, blobstore.WithBandwidth(sc.BandwidthBytesPerSec))
	}
	return blobstore.NewFetcher(store, sc.CacheDir, fetchOpts...), nil
}

// openSink opens the configured result sinks. Rows are discarded when none
// is configured.
func (a *app) openSink(ctx context.Context) (report.Sink, error) {
	var sinks []report.Sink
	if path := a.cfg.Report.JSONL; path != "" {
		s, err := report.NewJSONLSink(path, codec.Default)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	if table := a.cfg.Report.DynamoDBTable; table != "" {
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb: load config: %w", err)
		}
		sinks = append(sinks, report.NewDynamoDBSink(dynamodb.NewFromConfig(awsCfg), table))
	}
	switch len(sinks) {
	case 0:
		return report.Discard, nil
	case 1:
		return sinks[0], nil
	default:
		return report.Multi(sinks...), nil
	}
}

func (a *app) client() (*engine.Client, error) {
	ec := a.cfg.Engine
	return engine.NewClient(ec.Endpoint,
		engine.WithTimeout(ec.Timeout),
		engine.WithQPS(ec.QPS, ec.Burst),
		engine.WithDocumentType(ec.DocumentType),
		engine.WithLogger(a.logger.Logger),
		engine.WithMetrics(a.collector),
	)
}

// harness builds a Harness. The engine client is only created when
// withClient is set, so preparing datasets does not need an endpoint.
func (a *app) harness(ctx context.Context, withClient bool) (*annbench.Harness, error) {
	catalog, err := a.cfg.LoadCatalog()
	if err != nil {
		return nil, err
	}
	locator, err := a.locator(ctx)
	if err != nil {
		return nil, err
	}
	policy, err := dataset.ParseCachePolicy(a.cfg.Storage.CachePolicy)
	if err != nil {
		return nil, err
	}

	var client *engine.Client
	if withClient {
		if client, err = a.client(); err != nil {
			return nil, fmt.Errorf("%w: %w", annbench.ErrConfiguration, err)
		}
		if a.sink, err = a.openSink(ctx); err != nil {
			return nil, err
		}
	}

	return annbench.New(client, catalog, locator,
		annbench.WithLogger(a.logger),
		annbench.WithMetrics(a.collector),
		annbench.WithWorkers(a.cfg.Recall.Workers),
		annbench.WithCrossQueryLimit(a.cfg.Recall.CrossQueryLimit),
		annbench.WithSink(a.sink),
		annbench.WithPrepareOptions(
			dataset.WithCachePolicy(policy),
			dataset.WithProber(a.cfg.Storage.Prober()),
		),
	), nil
}
