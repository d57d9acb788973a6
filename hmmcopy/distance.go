package hmmcopy

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Metric names a distance between two cell profiles.
type Metric string

const (
	CityBlock Metric = "cityblock"
	Euclidean Metric = "euclidean"
)

// MissingSentinel stands in for missing values before distances are taken,
// so "missing" acts as a state of its own.
const MissingSentinel = -1.0

// ParseMetric validates a metric name.
func ParseMetric(name string) (Metric, error) {
	switch m := Metric(name); m {
	case CityBlock, Euclidean:
		return m, nil
	}
	return "", &ConfigError{Option: "metric", Reason: "must be cityblock or euclidean, got " + name}
}

func (m Metric) norm() float64 {
	if m == Euclidean {
		return 2
	}
	return 1
}

// fillMissing returns a copy of row with NaN replaced by MissingSentinel.
func fillMissing(row []float64) []float64 {
	out := make([]float64, len(row))
	for i, v := range row {
		if math.IsNaN(v) {
			v = MissingSentinel
		}
		out[i] = v
	}
	return out
}

// condensedIndex locates the pair (i, j), i != j, in a condensed distance
// vector of n observations.
func condensedIndex(n, i, j int) int {
	if i > j {
		i, j = j, i
	}
	return n*i - i*(i+1)/2 + j - i - 1
}

// PairwiseDistances returns the condensed upper-triangular distance vector
// of rows: d(0,1), d(0,2), ..., d(n-2,n-1). Rows must be of equal length.
func PairwiseDistances(rows [][]float64, metric Metric) []float64 {
	n := len(rows)
	if n < 2 {
		return nil
	}
	dists := make([]float64, 0, n*(n-1)/2)
	L := metric.norm()
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			if len(rows[i]) == 0 {
				dists = append(dists, 0)
				continue
			}
			dists = append(dists, floats.Distance(rows[i], rows[j], L))
		}
	}
	return dists
}
