package vector

import (
	"fmt"
	"strings"
)

// Metric selects the distance used to compare embeddings. Smaller is closer
// for every metric.
type Metric int

const (
	// MetricL2 is the Euclidean distance.
	MetricL2 Metric = iota
	// MetricCosine is 1 - cosine similarity.
	MetricCosine
)

// Distance computes the metric between a and b.
func (m Metric) Distance(a, b []float32) (float64, error) {
	switch m {
	case MetricL2:
		return L2Distance(a, b)
	case MetricCosine:
		return CosineDistance(a, b)
	default:
		return 0, fmt.Errorf("vector: unsupported metric %d", int(m))
	}
}

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

// ParseMetric resolves a metric name; "euclidean" and "cos" are accepted aliases.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "l2", "euclidean":
		return MetricL2, nil
	case "cos", "cosine":
		return MetricCosine, nil
	}
	return 0, fmt.Errorf("vector: unknown metric %q", name)
}
