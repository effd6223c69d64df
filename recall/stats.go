package recall

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Statistics summarizes recall samples. Values are on the scale of the
// samples, [0, target hits], unless produced by Percent.
type Statistics struct {
	Count   int
	Average float64
	Median  float64
	Min     float64
	Max     float64
}

// Aggregate computes average, median, min and max over samples. The result
// does not depend on sample order.
func Aggregate(samples []Sample) (Statistics, error) {
	if len(samples) == 0 {
		return Statistics{}, ErrEmptySampleSet
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = float64(s.Recall)
	}
	slices.Sort(values)

	n := len(values)
	median := values[n/2]
	if n%2 == 0 {
		median = (values[n/2-1] + values[n/2]) / 2
	}

	return Statistics{
		Count:   n,
		Average: stat.Mean(values, nil),
		Median:  median,
		Min:     values[0],
		Max:     values[n-1],
	}, nil
}

// Percent rescales the statistics to percentages of targetHits.
func (s Statistics) Percent(targetHits int) (Statistics, error) {
	if targetHits <= 0 {
		return Statistics{}, ErrInvalidTargetHits
	}
	scale := 100 / float64(targetHits)
	return Statistics{
		Count:   s.Count,
		Average: s.Average * scale,
		Median:  s.Median * scale,
		Min:     s.Min * scale,
		Max:     s.Max * scale,
	}, nil
}

// Percentage returns recall/targetHits*100 for a single query.
func Percentage(recall, targetHits int) (float64, error) {
	if targetHits <= 0 {
		return 0, ErrInvalidTargetHits
	}
	return float64(recall) / float64(targetHits) * 100, nil
}
