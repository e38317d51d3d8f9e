package evo

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"ipdevo/internal/game"
	"ipdevo/internal/strategy"
)

// matchScore holds the result of one scheduled pair.
type matchScore struct {
	x, y float64
}

// evaluatePairs plays every pair and returns the per-index payoff sums.
//
// Pairs are cut into contiguous chunks, one per worker, and each worker plays
// on private clones. Every match writes into its own slot of scores; the sums
// are then accumulated on the calling goroutine in schedule order, so the
// result does not depend on the worker count.
func (m *PopulationMonitor) evaluatePairs(ctx context.Context, population []strategy.Strategy, pairs []Pair) ([]float64, error) {
	scores := make([]matchScore, len(pairs))
	workerCount := m.workersFor(population, len(pairs))

	if workerCount <= 1 {
		get := func(i int) strategy.Strategy { return population[i] }
		if err := m.playChunk(ctx, get, pairs, scores); err != nil {
			return nil, err
		}
		return accumulate(len(population), pairs, scores), nil
	}

	chunk := (len(pairs) + workerCount - 1) / workerCount
	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(pairs); start += chunk {
		end := start + chunk
		if end > len(pairs) {
			end = len(pairs)
		}
		slice, out := pairs[start:end], scores[start:end]

		g.Go(func() error {
			clones := make(map[int]strategy.Strategy)
			get := func(i int) strategy.Strategy {
				s, ok := clones[i]
				if !ok {
					s = population[i].(strategy.Cloner).Clone()
					clones[i] = s
				}
				return s
			}
			return m.playChunk(gctx, get, slice, out)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return accumulate(len(population), pairs, scores), nil
}

func accumulate(k int, pairs []Pair, scores []matchScore) []float64 {
	acc := make([]float64, k)
	for i, p := range pairs {
		acc[p.X] += scores[i].x
		acc[p.Y] += scores[i].y
	}
	return acc
}

func (m *PopulationMonitor) playChunk(ctx context.Context, get func(int) strategy.Strategy, pairs []Pair, out []matchScore) error {
	played := 0
	defer func() { m.cfg.Metrics.AddMatches(played) }()

	for i, p := range pairs {
		if err := ctx.Err(); err != nil {
			return err
		}
		scoreX, scoreY, err := m.cfg.Battle(get(p.X), get(p.Y))
		if err != nil {
			if game.IsIllegalMove(err) {
				m.cfg.Metrics.IllegalMove()
			}
			return fmt.Errorf("battle %d vs %d: %w", p.X, p.Y, err)
		}
		out[i] = matchScore{x: scoreX, y: scoreY}
		played++
	}
	return nil
}

func (m *PopulationMonitor) workersFor(population []strategy.Strategy, pairCount int) int {
	workers := m.cfg.Workers
	if workers > pairCount {
		workers = pairCount
	}
	if workers <= 1 {
		return 1
	}
	if !strategy.CloneAll(population) {
		m.log.Debug("population has non-cloneable strategies; evaluating sequentially", "workers", workers)
		return 1
	}
	return workers
}
