package load

import (
	"math"
)

// ----------------------------------------------------------------------------
// Throughput statistics
// ----------------------------------------------------------------------------

// ThroughputStats summarizes the per-connection ops/sec values of a
// concurrent run.
type ThroughputStats struct {
	StdDeviation float64 `json:"std_deviation"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// NewThroughputStats computes the standard deviation, minimum, maximum and
// mean from the achieved per-connection throughput values.
func NewThroughputStats(values []float64) ThroughputStats {
	if len(values) == 0 {
		return ThroughputStats{}
	}

	// initialize min and max with the first value
	min := values[0]
	max := values[0]

	// calculate sum for mean
	var sum float64
	for _, v := range values {
		sum += v

		// update min and max while iterating
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	mean := sum / float64(len(values))

	// calculate sum of squared differences from mean
	var sumSquaredDiffs float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiffs += diff * diff
	}

	// standard deviation (population formula)
	stdDev := math.Sqrt(sumSquaredDiffs / float64(len(values)))

	var minMaxRatio float64 = 1.0
	if max > 0 {
		minMaxRatio = min / max
	}

	return ThroughputStats{
		StdDeviation: stdDev,
		Min:          min,
		Max:          max,
		Mean:         mean,
		MinMaxRatio:  minMaxRatio,
	}
}

// FairnessQuality combines the coefficient of variation and the min/max
// ratio into a single 0..1 score. A lower variation and a higher min/max
// ratio mean the connections shared the server more evenly.
func (s ThroughputStats) FairnessQuality() float64 {
	var cv float64
	if s.Mean > 0 {
		cv = s.StdDeviation / s.Mean
	}
	return (1.0-math.Min(1.0, cv))*0.5 + s.MinMaxRatio*0.5
}
