package storage

import (
	"context"

	"ipdevo/internal/model"
)

// Store persists evolution run state: the latest population snapshot of each
// run plus its per-generation fitness history and diagnostics.
type Store interface {
	Init(ctx context.Context) error
	SavePopulation(ctx context.Context, population model.PopulationSnapshot) error
	GetPopulation(ctx context.Context, id string) (model.PopulationSnapshot, bool, error)
	DeletePopulation(ctx context.Context, id string) error
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveGenerationDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error
	GetGenerationDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error)
}
