package dataset

import (
	"errors"
	"io"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog maps dataset names to their configuration.
// It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Dataset
}

// NewCatalog returns a catalog holding the given entries.
func NewCatalog(entries ...Dataset) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]Dataset, len(entries))}
	for _, d := range entries {
		if err := c.Register(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DefaultCatalog returns a new catalog with the sift, gist and wiki datasets.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		Dataset{
			Name:          "sift",
			Dimensions:    128,
			Metric:        RQEuclidean,
			BaseLocation:  "sift-data/sift_base.fvecs",
			QueryLocation: "sift-data/sift_query.fvecs",
			DocumentCount: 1_000_000,
		},
		Dataset{
			Name:          "gist",
			Dimensions:    960,
			Metric:        RQEuclidean,
			BaseLocation:  "gist-data/gist_base_300k.fvecs",
			QueryLocation: "gist-data/gist_query.fvecs",
			DocumentCount: 300_000,
		},
		Dataset{
			Name:          "wiki",
			Dimensions:    384,
			Metric:        RQAngular,
			BaseLocation:  "wiki-data/paragraph_docs.all.json",
			QueryLocation: "wiki-data/queries.txt",
			DocumentCount: 485_851,
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Register adds d, replacing any entry with the same name.
func (c *Catalog) Register(d Dataset) error {
	if err := d.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]Dataset)
	}
	c.entries[d.Name] = d
	return nil
}

// Lookup returns the dataset registered under name. Names match exactly.
func (c *Catalog) Lookup(name string) (Dataset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[name]
	if !ok {
		return Dataset{}, &ConfigurationError{Dataset: name, Err: ErrUnknownDataset}
	}
	return d, nil
}

// Names returns the registered names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered datasets.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

type catalogFile struct {
	Datasets []catalogEntry `yaml:"datasets"`
}

type catalogEntry struct {
	Name       string `yaml:"name"`
	Dimensions int    `yaml:"dimensions"`
	Metric     string `yaml:"metric"`
	Base       string `yaml:"base"`
	Queries    string `yaml:"queries"`
	Documents  int    `yaml:"documents"`
}

// LoadCatalog decodes YAML catalog entries:
//
//	datasets:
//	  - name: sift
//	    dimensions: 128
//	    metric: rq_euclidean
//	    base: sift-data/sift_base.fvecs
//	    queries: sift-data/sift_query.fvecs
//	    documents: 1000000
//
// Unknown keys are rejected.
func LoadCatalog(r io.Reader) ([]Dataset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ConfigurationError{Detail: err.Error(), Err: ErrInvalidEntry}
	}

	out := make([]Dataset, 0, len(file.Datasets))
	for _, e := range file.Datasets {
		m, err := ParseMetric(e.Metric)
		if err != nil {
			return nil, &ConfigurationError{Dataset: e.Name, Detail: e.Metric, Err: ErrUnsupportedMetric}
		}
		d := Dataset{
			Name:          e.Name,
			Dimensions:    e.Dimensions,
			Metric:        m,
			BaseLocation:  e.Base,
			QueryLocation: e.Queries,
			DocumentCount: e.Documents,
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Merge registers every dataset decoded from r into c.
func (c *Catalog) Merge(r io.Reader) error {
	entries, err := LoadCatalog(r)
	if err != nil {
		return err
	}
	for _, d := range entries {
		if err := c.Register(d); err != nil {
			return err
		}
	}
	return nil
}
