// Package distance provides the similarity metrics used to rank search
// candidates.
//
// Scores accumulate in float64 even though vectors are float32: exactness of
// the ranking matters more here than the last bit of throughput, and the
// wider accumulator keeps long sums stable.
package distance

import (
	"fmt"
	"math"
	"strings"
)

// Metric selects the function used to rank candidates.
type Metric int

const (
	// MetricL2 ranks by Euclidean distance; smaller is more similar.
	MetricL2 Metric = iota
	// MetricCosine ranks by cosine similarity; larger is more similar.
	MetricCosine
)

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "l2"
	case MetricCosine:
		return "cosine"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseMetric returns the metric named by s ("l2" or "cosine"), case
// insensitive.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(s) {
	case "l2":
		return MetricL2, nil
	case "cosine":
		return MetricCosine, nil
	default:
		return 0, fmt.Errorf("unsupported metric %q", s)
	}
}

// Better reports whether score a ranks strictly better than score b under m.
func (m Metric) Better(a, b float64) bool {
	if m == MetricCosine {
		return a > b
	}
	return a < b
}

// Func computes the score between two vectors of equal length.
type Func func(a, b []float32) float64

// Provider returns the scoring function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricL2:
		return L2, nil
	case MetricCosine:
		return Cosine, nil
	default:
		return nil, fmt.Errorf("unsupported metric %v", m)
	}
}

// Dot returns the dot product of two vectors.
// Assumes equal length (caller's responsibility).
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// L2 returns the Euclidean distance between two vectors.
// Assumes equal length (caller's responsibility).
func L2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Cosine returns the cosine similarity dot(a/‖a‖, b/‖b‖).
// A zero-magnitude vector on either side scores 0.
// Assumes equal length (caller's responsibility).
func Cosine(a, b []float32) float64 {
	na := Norm(a)
	nb := Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (na * nb)
}
