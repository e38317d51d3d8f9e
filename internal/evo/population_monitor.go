package evo

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"ipdevo/internal/game"
	"ipdevo/internal/logging"
	"ipdevo/internal/metrics"
	"ipdevo/internal/model"
	"ipdevo/internal/stats"
	"ipdevo/internal/strategy"
)

// GenerationReport is handed to the observer after each selection step.
type GenerationReport struct {
	Generation int
	// Population is the generation that was evaluated, in index order.
	Population []strategy.Strategy
	RawFitness []float64
	// Fitness is RawFitness after the postprocessor (selection noise).
	Fitness   []float64
	Threshold float64
	Survivors []int
	// Parents maps every slot of Next to the index it came from. Survivor
	// slots map to themselves.
	Parents     []int
	Next        []strategy.Strategy
	Pairs       int
	Diagnostics model.GenerationDiagnostics
}

type Observer interface {
	ObserveGeneration(ctx context.Context, report GenerationReport) error
}

type ObserverFunc func(ctx context.Context, report GenerationReport) error

func (f ObserverFunc) ObserveGeneration(ctx context.Context, report GenerationReport) error {
	return f(ctx, report)
}

// MultiObserver fans a report out to every observer in order and stops at the
// first error.
type MultiObserver []Observer

func (m MultiObserver) ObserveGeneration(ctx context.Context, report GenerationReport) error {
	for _, o := range m {
		if o == nil {
			continue
		}
		if err := o.ObserveGeneration(ctx, report); err != nil {
			return err
		}
	}
	return nil
}

type RunResult struct {
	FinalPopulation  []strategy.Strategy
	BestByGeneration []float64
	Diagnostics      []model.GenerationDiagnostics
}

type MonitorConfig struct {
	Battle         game.BattleFunc
	Mode           PairingMode
	PopulationSize int
	Generations    int
	// InitialGeneration offsets reported generation numbers when a run
	// continues from a persisted population.
	InitialGeneration int
	Workers           int
	Seed              int64
	// Rand overrides Seed when set.
	Rand          *rand.Rand
	Postprocessor FitnessPostprocessor
	Selector      Selector
	Observer      Observer
	Logger        *slog.Logger
	Metrics       *metrics.Recorder
}

type PopulationMonitor struct {
	cfg MonitorConfig
	rng *rand.Rand
	log *slog.Logger
}

func NewPopulationMonitor(cfg MonitorConfig) (*PopulationMonitor, error) {
	if cfg.Battle == nil {
		return nil, fmt.Errorf("battle function is required")
	}
	if _, err := ParsePairingMode(string(cfg.Mode)); err != nil {
		return nil, err
	}
	if cfg.PopulationSize < 2 {
		return nil, fmt.Errorf("population size must be >= 2")
	}
	if cfg.Generations < 0 {
		return nil, fmt.Errorf("generations must be >= 0")
	}
	if cfg.InitialGeneration < 0 {
		return nil, fmt.Errorf("initial generation must be >= 0")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Postprocessor == nil {
		cfg.Postprocessor = GaussianNoise{Sigma: DefaultSelectionNoise}
	}
	if cfg.Selector == nil {
		cfg.Selector = MedianSelector{}
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(cfg.Seed))
	}
	return &PopulationMonitor{
		cfg: cfg,
		rng: rng,
		log: logging.OrDiscard(cfg.Logger),
	}, nil
}

func (m *PopulationMonitor) Run(ctx context.Context, initial []strategy.Strategy) (RunResult, error) {
	if len(initial) != m.cfg.PopulationSize {
		return RunResult{}, fmt.Errorf("initial population mismatch: got=%d want=%d", len(initial), m.cfg.PopulationSize)
	}
	for i, s := range initial {
		if s == nil {
			return RunResult{}, fmt.Errorf("initial population has nil strategy at index %d", i)
		}
	}

	population := make([]strategy.Strategy, len(initial))
	copy(population, initial)

	bestHistory := make([]float64, 0, m.cfg.Generations)
	diagnostics := make([]model.GenerationDiagnostics, 0, m.cfg.Generations)

	for gen := 0; gen < m.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}
		started := time.Now()

		report, err := m.step(ctx, population, m.cfg.InitialGeneration+gen+1)
		if err != nil {
			return RunResult{}, err
		}

		bestHistory = append(bestHistory, report.Diagnostics.BestFitness)
		diagnostics = append(diagnostics, report.Diagnostics)
		m.cfg.Metrics.ObserveGeneration(time.Since(started), len(report.Survivors), report.Diagnostics.BestFitness, report.Threshold)
		m.log.Info("generation complete",
			"generation", report.Generation,
			"pairs", report.Pairs,
			"threshold", report.Threshold,
			"survivors", len(report.Survivors),
			"best", report.Diagnostics.BestFitness,
			"mean", report.Diagnostics.MeanFitness,
		)

		if m.cfg.Observer != nil {
			if err := m.cfg.Observer.ObserveGeneration(ctx, report); err != nil {
				return RunResult{}, fmt.Errorf("observe generation %d: %w", report.Generation, err)
			}
		}
		population = report.Next
	}

	return RunResult{
		FinalPopulation:  population,
		BestByGeneration: bestHistory,
		Diagnostics:      diagnostics,
	}, nil
}

// step runs one generation: schedule, play, perturb, select, repopulate.
func (m *PopulationMonitor) step(ctx context.Context, population []strategy.Strategy, generation int) (GenerationReport, error) {
	pairs, err := Schedule(m.cfg.Mode, len(population), m.rng)
	if err != nil {
		return GenerationReport{}, err
	}
	m.log.Debug("scheduled pairs", "generation", generation, "mode", m.cfg.Mode, "pairs", len(pairs))

	raw, err := m.evaluatePairs(ctx, population, pairs)
	if err != nil {
		return GenerationReport{}, err
	}
	fitness := m.cfg.Postprocessor.Process(m.rng, raw)
	if len(fitness) != len(population) {
		return GenerationReport{}, fmt.Errorf("postprocessor %s returned %d values for %d individuals", m.cfg.Postprocessor.Name(), len(fitness), len(population))
	}
	threshold, survivors := m.cfg.Selector.Select(fitness)

	next, parents, err := m.nextGeneration(population, survivors)
	if err != nil {
		return GenerationReport{}, err
	}

	evaluated := make([]strategy.Strategy, len(population))
	copy(evaluated, population)
	return GenerationReport{
		Generation:  generation,
		Population:  evaluated,
		RawFitness:  raw,
		Fitness:     fitness,
		Threshold:   threshold,
		Survivors:   survivors,
		Parents:     parents,
		Next:        next,
		Pairs:       len(pairs),
		Diagnostics: summarizeGeneration(generation, fitness, threshold, survivors, len(pairs), next),
	}, nil
}

// nextGeneration keeps every survivor in place and fills each other slot with
// a mutated copy of a survivor drawn uniformly with replacement.
func (m *PopulationMonitor) nextGeneration(population []strategy.Strategy, survivors []int) ([]strategy.Strategy, []int, error) {
	if len(survivors) == 0 {
		return nil, nil, fmt.Errorf("selector %s kept no survivors", m.cfg.Selector.Name())
	}
	survived := make([]bool, len(population))
	for _, idx := range survivors {
		if idx < 0 || idx >= len(population) {
			return nil, nil, fmt.Errorf("selector %s returned out-of-range index %d", m.cfg.Selector.Name(), idx)
		}
		survived[idx] = true
	}

	next := make([]strategy.Strategy, len(population))
	parents := make([]int, len(population))
	for i := range population {
		if survived[i] {
			next[i] = population[i]
			parents[i] = i
			continue
		}
		parent, err := PickSurvivor(m.rng, survivors)
		if err != nil {
			return nil, nil, err
		}
		child := population[parent].Mutate(m.rng)
		if child == nil {
			return nil, nil, fmt.Errorf("mutation of index %d returned nil", parent)
		}
		next[i] = child
		parents[i] = parent
	}
	return next, parents, nil
}

func summarizeGeneration(generation int, fitness []float64, threshold float64, survivors []int, pairs int, next []strategy.Strategy) model.GenerationDiagnostics {
	diag := model.GenerationDiagnostics{
		Generation: generation,
		Threshold:  threshold,
		Survivors:  len(survivors),
		Offspring:  len(next) - len(survivors),
		Pairs:      pairs,
	}
	summary := stats.SummarizeFitness(fitness)
	diag.BestFitness = summary.Max
	diag.MinFitness = summary.Min
	diag.MeanFitness = summary.Mean
	diag.MedianFitness = summary.Median
	diag.Census = census(next)
	return diag
}

func census(population []strategy.Strategy) []model.ClassCount {
	counts := map[string]int{}
	for _, s := range population {
		counts[strategy.ClassOf(s)]++
	}
	out := make([]model.ClassCount, 0, len(counts))
	for class, count := range counts {
		out = append(out, model.ClassCount{Class: class, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Class < out[j].Class
		}
		return out[i].Count > out[j].Count
	})
	return out
}
