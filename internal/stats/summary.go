package stats

import (
	"math"
	"sort"

	"ipdevo/internal/model"
)

type FitnessSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// SummarizeFitness reports population statistics for one fitness vector. The
// median averages the two middle values for even counts.
func SummarizeFitness(values []float64) FitnessSummary {
	if len(values) == 0 {
		return FitnessSummary{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))
	variance := 0.0
	for _, v := range sorted {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(sorted))

	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return FitnessSummary{
		Count:  n,
		Mean:   mean,
		Std:    math.Sqrt(variance),
		Median: median,
		Min:    sorted[0],
		Max:    sorted[n-1],
	}
}

// DominantClass returns the most common class of a census, breaking ties by
// name.
func DominantClass(census []model.ClassCount) string {
	best, bestCount := "", -1
	for _, c := range census {
		if c.Count > bestCount || (c.Count == bestCount && c.Class < best) {
			best, bestCount = c.Class, c.Count
		}
	}
	return best
}
