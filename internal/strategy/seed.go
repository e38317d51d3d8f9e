package strategy

import (
	"fmt"
	"math/rand"
)

const (
	SeedLinear    = "linear"
	SeedCooperate = "cooperate"
	SeedDefect    = "defect"
	SeedTitForTat = "tit-for-tat"
	SeedMixed     = "mixed"
)

// Seed builds an initial population. Linear seeds draw both coefficients from
// a standard normal; mixed seeds cycle through the fixed strategies and fill
// every fourth slot with a linear seed.
func Seed(rng *rand.Rand, kind string, size int, mutationScale float64) ([]Strategy, error) {
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if size <= 0 {
		return nil, fmt.Errorf("population size must be > 0")
	}

	linear := func() Strategy {
		return Linear{A: rng.NormFloat64(), B: rng.NormFloat64(), Scale: mutationScale}
	}

	population := make([]Strategy, 0, size)
	for i := 0; i < size; i++ {
		switch kind {
		case "", SeedLinear:
			population = append(population, linear())
		case SeedCooperate:
			population = append(population, AlwaysCooperate())
		case SeedDefect:
			population = append(population, AlwaysDefect())
		case SeedTitForTat:
			population = append(population, TitForTat{})
		case SeedMixed:
			switch i % 4 {
			case 0:
				population = append(population, AlwaysCooperate())
			case 1:
				population = append(population, AlwaysDefect())
			case 2:
				population = append(population, TitForTat{})
			default:
				population = append(population, linear())
			}
		default:
			return nil, fmt.Errorf("unsupported seed kind: %s", kind)
		}
	}
	return population, nil
}

func SeedKinds() []string {
	return []string{SeedLinear, SeedCooperate, SeedDefect, SeedTitForTat, SeedMixed}
}
