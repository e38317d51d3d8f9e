//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"ipdevo/internal/model"
)

func TestSQLiteStorePopulationRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "ipdevo.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	population := samplePopulation("run-1")
	if err := store.SavePopulation(ctx, population); err != nil {
		t.Fatalf("save population: %v", err)
	}
	population.Generation = 4
	if err := store.SavePopulation(ctx, population); err != nil {
		t.Fatalf("upsert population: %v", err)
	}

	loaded, ok, err := store.GetPopulation(ctx, "run-1")
	if err != nil {
		t.Fatalf("get population: %v", err)
	}
	if !ok {
		t.Fatal("expected population run-1")
	}
	if loaded.Generation != 4 || len(loaded.Strategies) != 2 || loaded.Strategies[0].Params["a"] != 0.5 {
		t.Fatalf("unexpected population loaded: %+v", loaded)
	}

	if err := store.DeletePopulation(ctx, "run-1"); err != nil {
		t.Fatalf("delete population: %v", err)
	}
	if _, ok, err := store.GetPopulation(ctx, "run-1"); ok || err != nil {
		t.Fatalf("expected deleted population, got ok=%t err=%v", ok, err)
	}
}

func TestSQLiteStoreHistoryAndDiagnosticsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "ipdevo.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	if err := store.SaveFitnessHistory(ctx, "run-1", []float64{100, 150.5}); err != nil {
		t.Fatalf("save history: %v", err)
	}
	history, ok, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get history: ok=%t err=%v", ok, err)
	}
	if len(history) != 2 || history[1] != 150.5 {
		t.Fatalf("unexpected history: %v", history)
	}

	diagnostics := []model.GenerationDiagnostics{{Generation: 1, Threshold: 120, Survivors: 5, Census: []model.ClassCount{{Class: "jesus", Count: 2}}}}
	if err := store.SaveGenerationDiagnostics(ctx, "run-1", diagnostics); err != nil {
		t.Fatalf("save diagnostics: %v", err)
	}
	loaded, ok, err := store.GetGenerationDiagnostics(ctx, "run-1")
	if err != nil || !ok {
		t.Fatalf("get diagnostics: ok=%t err=%v", ok, err)
	}
	if len(loaded) != 1 || loaded[0].Census[0].Class != "jesus" {
		t.Fatalf("unexpected diagnostics: %+v", loaded)
	}

	if _, ok, err := store.GetFitnessHistory(ctx, "missing"); ok || err != nil {
		t.Fatalf("expected missing history, got ok=%t err=%v", ok, err)
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "ipdevo.db"))
	if _, _, err := store.GetPopulation(context.Background(), "run-1"); err == nil {
		t.Fatal("expected error before init")
	}
}

func TestNewStoreSQLite(t *testing.T) {
	store, err := NewStore(KindSQLite, filepath.Join(t.TempDir(), "ipdevo.db"))
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := CloseIfSupported(store); err != nil {
		t.Fatalf("close: %v", err)
	}
}
