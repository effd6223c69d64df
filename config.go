package annbench

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/annbench/dataset"
	"github.com/hupe1980/annbench/engine"
	"github.com/hupe1980/annbench/recall"
)

// Storage kinds.
const (
	StorageLocal  = "local"
	StorageMirror = "mirror"
	StorageMemory = "memory"
	StorageS3     = "s3"
	StorageMinIO  = "minio"
)

// Artifact probes.
const (
	ProbeFile    = "file"
	ProbeCommand = "command"
)

// Config is the YAML configuration of the command line tool.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Recall  RecallConfig  `yaml:"recall"`
	Storage StorageConfig `yaml:"storage"`
	Report  ReportConfig  `yaml:"report"`
	Log     LogConfig     `yaml:"log"`
	// Catalog is an optional YAML dataset table merged over the built-in
	// datasets.
	Catalog string `yaml:"catalog"`
}

// EngineConfig locates the search engine under test.
type EngineConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Timeout      time.Duration `yaml:"timeout"`
	QPS          float64       `yaml:"qps"`
	Burst        int           `yaml:"burst"`
	DocumentType string        `yaml:"document_type"`
}

// RecallConfig sizes recall runs.
type RecallConfig struct {
	Workers         int `yaml:"workers"`
	CrossQueryLimit int `yaml:"cross_query_limit"`
}

// StorageConfig selects where raw corpora are fetched from.
type StorageConfig struct {
	Kind string `yaml:"kind"`
	// Root is the corpus directory of the local and mirror kinds. Local
	// corpora are read in place, mirrored ones are copied into CacheDir.
	Root      string `yaml:"root"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
	// CacheDir receives corpora fetched from remote stores.
	CacheDir    string `yaml:"cache_dir"`
	CachePolicy string `yaml:"cache_policy"`
	// Probe selects how converted artifacts are detected: "file" stats
	// them, "command" runs `test -f` through a shell.
	Probe                  string `yaml:"probe"`
	MaxConcurrentDownloads int    `yaml:"max_concurrent_downloads"`
	BandwidthBytesPerSec   int64  `yaml:"bandwidth_bytes_per_sec"`
}

// ReportConfig selects the result sinks. Empty fields disable a sink.
type ReportConfig struct {
	JSONL         string `yaml:"jsonl"`
	DynamoDBTable string `yaml:"dynamodb_table"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a configuration for a local engine and corpora in
// the working directory.
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			Endpoint:     "http://localhost:8080/search/",
			Timeout:      engine.DefaultTimeout,
			DocumentType: engine.DefaultDocumentType,
		},
		Recall: RecallConfig{
			Workers:         recall.DefaultWorkers,
			CrossQueryLimit: recall.DefaultMaxQueries,
		},
		Storage: StorageConfig{
			Kind:        StorageLocal,
			Root:        ".",
			CacheDir:    ".annbench-cache",
			CachePolicy: dataset.CacheByExistence.String(),
			Probe:       ProbeFile,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads the YAML configuration file at path over the defaults.
// Unknown keys are rejected. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: open config: %w", ErrConfiguration, err)
	}
	defer f.Close()
	return DecodeConfig(f)
}

// DecodeConfig decodes a YAML configuration over the defaults and validates
// the result.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: decode config: %w", ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for combinations that cannot work.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
	}
	switch c.Storage.Kind {
	case StorageLocal, StorageMemory:
	case StorageMirror:
		if c.Storage.Root == "" {
			return invalid("storage kind mirror needs a root")
		}
	case StorageS3:
		if c.Storage.Bucket == "" {
			return invalid("storage kind s3 needs a bucket")
		}
	case StorageMinIO:
		if c.Storage.Bucket == "" || c.Storage.Endpoint == "" {
			return invalid("storage kind minio needs a bucket and an endpoint")
		}
	default:
		return invalid("unknown storage kind %q", c.Storage.Kind)
	}
	if _, err := dataset.ParseCachePolicy(c.Storage.CachePolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	switch c.Storage.Probe {
	case "", ProbeFile, ProbeCommand:
	default:
		return invalid("unknown probe %q", c.Storage.Probe)
	}
	if c.Recall.Workers < 0 || c.Recall.CrossQueryLimit < 0 {
		return invalid("recall workers and cross query limit must not be negative")
	}
	if c.Engine.Timeout < 0 {
		return invalid("negative engine timeout %s", c.Engine.Timeout)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return invalid("unknown log format %q", c.Log.Format)
	}
	return nil
}

// LoadCatalog returns the built-in datasets merged with the catalog file,
// if one is configured.
func (c Config) LoadCatalog() (*dataset.Catalog, error) {
	catalog := dataset.DefaultCatalog()
	if c.Catalog == "" {
		return catalog, nil
	}
	f, err := os.Open(c.Catalog)
	if err != nil {
		return nil, fmt.Errorf("%w: open catalog: %w", ErrConfiguration, err)
	}
	defer f.Close()
	if err := catalog.Merge(f); err != nil {
		return nil, translateError(err)
	}
	return catalog, nil
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: log level: %w", ErrConfiguration, err)
	}
	return level, nil
}

// Prober returns the configured artifact prober.
func (s StorageConfig) Prober() dataset.Prober {
	if s.Probe == ProbeCommand {
		return dataset.CommandProber{Runner: dataset.LocalRunner{}}
	}
	return dataset.FileProber{}
}

// NewLogger builds the configured logger.
func (l LogConfig) NewLogger() (*Logger, error) {
	level, err := l.level()
	if err != nil {
		return nil, err
	}
	if l.Format == "json" {
		return NewJSONLogger(level), nil
	}
	return NewTextLogger(level), nil
}
