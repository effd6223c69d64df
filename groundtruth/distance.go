package groundtruth

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/blas/gonum"

	"github.com/hupe1980/annbench/dataset"
)

var blas = gonum.Implementation{}

// DistanceFunc returns a distance where smaller means nearer.
type DistanceFunc func(a, b []float32) float32

// Distance returns the distance function of m. Quantized metrics use their
// float counterpart.
func Distance(m dataset.Metric) (DistanceFunc, error) {
	switch m.Float() {
	case dataset.Euclidean:
		return squaredEuclidean, nil
	case dataset.Angular:
		return angular, nil
	case dataset.PrenormalizedAngular:
		return func(a, b []float32) float32 { return 1 - dot(a, b) }, nil
	case dataset.DotProduct:
		return func(a, b []float32) float32 { return -dot(a, b) }, nil
	}
	return nil, &dataset.ConfigurationError{Detail: fmt.Sprintf("no distance for %s", m), Err: dataset.ErrUnsupportedMetric}
}

func dot(a, b []float32) float32 {
	return blas.Sdot(len(a), a, 1, b, 1)
}

func squaredEuclidean(a, b []float32) float32 {
	b = b[:len(a)]
	var sum float32
	for i, x := range a {
		d := x - b[i]
		sum += d * d
	}
	return sum
}

func angular(a, b []float32) float32 {
	na := blas.Snrm2(len(a), a, 1)
	nb := blas.Snrm2(len(b), b, 1)
	if na == 0 || nb == 0 {
		return 1
	}
	cos := float64(dot(a, b)) / (float64(na) * float64(nb))
	return float32(1 - math.Max(-1, math.Min(1, cos)))
}
