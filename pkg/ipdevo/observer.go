package ipdevo

import (
	"context"
	"fmt"

	"ipdevo/internal/evo"
	"ipdevo/internal/model"
	"ipdevo/internal/storage"
	"ipdevo/internal/strategy"
)

// storeObserver persists the next population after every generation, so an
// interrupted run can be continued from its last completed generation. The
// fitness history and diagnostics are buffered and written once by flush.
type storeObserver struct {
	store       storage.Store
	runID       string
	history     []float64
	diagnostics []model.GenerationDiagnostics
}

func newStoreObserver(store storage.Store, runID string) *storeObserver {
	return &storeObserver{store: store, runID: runID}
}

func (o *storeObserver) ObserveGeneration(ctx context.Context, report evo.GenerationReport) error {
	records, err := strategy.ToRecords(report.Next)
	if err != nil {
		return fmt.Errorf("persist population: %w", err)
	}
	if err := o.store.SavePopulation(ctx, model.PopulationSnapshot{
		VersionedRecord: storage.Versioned(),
		ID:              o.runID,
		RunID:           o.runID,
		Generation:      report.Generation,
		Strategies:      records,
	}); err != nil {
		return err
	}

	o.history = append(o.history, report.Diagnostics.BestFitness)
	o.diagnostics = append(o.diagnostics, report.Diagnostics)
	return nil
}

// flush writes the buffered fitness history and diagnostics. It is a no-op
// when no generation completed.
func (o *storeObserver) flush(ctx context.Context) error {
	if len(o.history) == 0 {
		return nil
	}
	if err := o.store.SaveFitnessHistory(ctx, o.runID, o.history); err != nil {
		return fmt.Errorf("persist fitness history: %w", err)
	}
	if err := o.store.SaveGenerationDiagnostics(ctx, o.runID, o.diagnostics); err != nil {
		return fmt.Errorf("persist diagnostics: %w", err)
	}
	return nil
}
