package evo

import "math/rand"

const DefaultSelectionNoise = 0.1

// FitnessPostprocessor adjusts the accumulated fitness vector after all
// matches of a generation and before selection. It must not modify raw.
type FitnessPostprocessor interface {
	Name() string
	Process(rng *rand.Rand, raw []float64) []float64
}

type NoopFitnessPostprocessor struct{}

func (NoopFitnessPostprocessor) Name() string {
	return "none"
}

func (NoopFitnessPostprocessor) Process(_ *rand.Rand, raw []float64) []float64 {
	return cloneFitness(raw)
}

// GaussianNoise adds an independent N(0, Sigma) sample to every entry. Draws
// happen in index order so a seeded source reproduces them.
type GaussianNoise struct {
	Sigma float64
}

func (GaussianNoise) Name() string {
	return "gaussian"
}

func (n GaussianNoise) Process(rng *rand.Rand, raw []float64) []float64 {
	out := cloneFitness(raw)
	for i := range out {
		out[i] += rng.NormFloat64() * n.Sigma
	}
	return out
}

func cloneFitness(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	return out
}
