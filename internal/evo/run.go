package evo

import (
	"context"
	"math/rand"

	"ipdevo/internal/game"
	"ipdevo/internal/strategy"
)

// Run evolves population for the given number of generations and returns the
// final population. It uses the default Gaussian selection noise and median
// truncation, with rng as the only source of randomness.
func Run(ctx context.Context, population []strategy.Strategy, battle game.BattleFunc, generations int, mode PairingMode, rng *rand.Rand) ([]strategy.Strategy, error) {
	monitor, err := NewPopulationMonitor(MonitorConfig{
		Battle:         battle,
		Mode:           mode,
		PopulationSize: len(population),
		Generations:    generations,
		Rand:           rng,
	})
	if err != nil {
		return nil, err
	}
	result, err := monitor.Run(ctx, population)
	if err != nil {
		return nil, err
	}
	return result.FinalPopulation, nil
}
