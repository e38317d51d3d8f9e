package evo

import (
	"fmt"
	"math/rand"
	"sort"
)

// Selector splits a generation into survivors and replaced indices.
type Selector interface {
	Name() string
	Select(fitness []float64) (threshold float64, survivors []int)
}

// MedianSelector keeps every index whose fitness is at or above the median.
// Ties at the median all survive, so more than half may survive.
type MedianSelector struct{}

func (MedianSelector) Name() string {
	return "median"
}

func (MedianSelector) Select(fitness []float64) (float64, []int) {
	threshold := Median(fitness)
	survivors := make([]int, 0, len(fitness)/2+1)
	for i, f := range fitness {
		if f >= threshold {
			survivors = append(survivors, i)
		}
	}
	return threshold, survivors
}

// Median returns the middle value, or the mean of the two middle values for
// an even count. It returns 0 for an empty slice.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := cloneFitness(values)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// PickSurvivor draws one survivor index uniformly, with replacement.
func PickSurvivor(rng *rand.Rand, survivors []int) (int, error) {
	if rng == nil {
		return 0, fmt.Errorf("random source is required")
	}
	if len(survivors) == 0 {
		return 0, fmt.Errorf("no survivors to pick from")
	}
	return survivors[rng.Intn(len(survivors))], nil
}
