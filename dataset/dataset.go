package dataset

import "fmt"

// Dataset is a catalog entry.
type Dataset struct {
	Name          string
	Dimensions    int
	Metric        Metric
	BaseLocation  string
	QueryLocation string
	DocumentCount int
}

// Validate checks the invariants of an entry.
func (d Dataset) Validate() error {
	invalid := func(format string, args ...any) error {
		return &ConfigurationError{Dataset: d.Name, Detail: fmt.Sprintf(format, args...), Err: ErrInvalidEntry}
	}
	switch {
	case d.Name == "":
		return invalid("empty name")
	case d.Dimensions <= 0:
		return invalid("dimensions must be positive, got %d", d.Dimensions)
	case d.BaseLocation == "":
		return invalid("missing base location")
	case d.QueryLocation == "":
		return invalid("missing query location")
	case d.DocumentCount < 0:
		return invalid("negative document count %d", d.DocumentCount)
	}
	if _, err := ParseMetric(string(d.Metric)); err != nil {
		return &ConfigurationError{Dataset: d.Name, Detail: string(d.Metric), Err: ErrUnsupportedMetric}
	}
	return nil
}
