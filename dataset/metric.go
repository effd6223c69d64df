package dataset

import "strings"

// Metric names a distance metric understood by the engine under test.
type Metric string

const (
	Euclidean            Metric = "euclidean"
	Angular              Metric = "angular"
	DotProduct           Metric = "dotproduct"
	PrenormalizedAngular Metric = "prenormalized-angular"

	// Quantized counterparts carry the rq_ prefix.
	RQEuclidean  Metric = "rq_euclidean"
	RQAngular    Metric = "rq_angular"
	RQDotProduct Metric = "rq_dotproduct"
)

const quantizedPrefix = "rq_"

var metricAliases = map[string]Metric{
	"cosine":      Angular,
	"dot-product": DotProduct,
	"l2":          Euclidean,
	"rq_cosine":   RQAngular,
}

// Metrics lists every supported metric.
func Metrics() []Metric {
	return []Metric{Euclidean, Angular, DotProduct, PrenormalizedAngular, RQEuclidean, RQAngular, RQDotProduct}
}

// ParseMetric returns the metric named s. Matching is exact apart from a few
// spelled-out aliases such as "cosine".
func ParseMetric(s string) (Metric, error) {
	for _, m := range Metrics() {
		if string(m) == s {
			return m, nil
		}
	}
	if m, ok := metricAliases[s]; ok {
		return m, nil
	}
	return "", &ConfigurationError{Detail: s, Err: ErrUnsupportedMetric}
}

// Quantized reports whether m evaluates a quantized encoding.
func (m Metric) Quantized() bool {
	return strings.HasPrefix(string(m), quantizedPrefix)
}

// Float returns the float counterpart of a quantized metric, or m itself.
func (m Metric) Float() Metric {
	return Metric(strings.TrimPrefix(string(m), quantizedPrefix))
}

func (m Metric) String() string { return string(m) }
