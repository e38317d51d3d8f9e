package stats

import (
	"os"
	"path/filepath"
	"testing"

	"ipdevo/internal/model"
)

func sampleArtifacts(runID string) RunArtifacts {
	return RunArtifacts{
		Config: RunConfig{
			RunID:          runID,
			Mode:           "full",
			PopulationSize: 4,
			Generations:    2,
			Rounds:         100,
			Temptation:     1.5,
			Reward:         1,
			Punishment:     0.5,
			SeedKind:       "linear",
			MutationScale:  0.2,
			SelectionNoise: 0.1,
			Seed:           1,
			Workers:        2,
		},
		BestByGeneration: []float64{540.25, 600},
		GenerationDiagnostics: []model.GenerationDiagnostics{
			{Generation: 1, BestFitness: 540.25, MeanFitness: 420, MedianFitness: 410.5, MinFitness: 300, Threshold: 410.5, Survivors: 2},
			{Generation: 2, BestFitness: 600, MeanFitness: 600, MedianFitness: 600, MinFitness: 600, Threshold: 600, Survivors: 4},
		},
		FinalBestFitness: 600,
		FinalPopulation: []PopulationMember{
			{Index: 0, Kind: "linear", Params: map[string]float64{"a": 1, "b": 0.5}, Class: "t4t", Description: "Linear(a=1.00,b=0.50) t4t"},
			{Index: 1, Kind: "always-cooperate", Class: "always-cooperate", Description: "always-cooperate"},
		},
	}
}

func TestWriteAndExportRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "exports")

	runID := "run-123"
	runDir, err := WriteRunArtifacts(baseDir, sampleArtifacts(runID))
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	files := []string{"config.json", "fitness_history.json", "generation_diagnostics.json", "final_population.json", "fitness_series.csv"}
	for _, file := range files {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected file %s: %v", file, err)
		}
	}

	exportedDir, err := ExportRunArtifacts(baseDir, runID, outDir)
	if err != nil {
		t.Fatalf("export artifacts: %v", err)
	}
	for _, file := range files {
		if _, err := os.Stat(filepath.Join(exportedDir, file)); err != nil {
			t.Fatalf("expected exported file %s: %v", file, err)
		}
	}

	if _, err := ExportRunArtifacts(baseDir, "missing", outDir); err == nil {
		t.Fatal("expected export error for unknown run")
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatal("expected missing run id error")
	}
}

func TestReadRunArtifacts(t *testing.T) {
	baseDir := t.TempDir()
	if _, err := WriteRunArtifacts(baseDir, sampleArtifacts("run-1")); err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	cfg, ok, err := ReadRunConfig(baseDir, "run-1")
	if err != nil || !ok {
		t.Fatalf("read config: ok=%t err=%v", ok, err)
	}
	if cfg.Mode != "full" || cfg.Temptation != 1.5 || cfg.Rounds != 100 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	members, ok, err := ReadFinalPopulation(baseDir, "run-1")
	if err != nil || !ok {
		t.Fatalf("read final population: ok=%t err=%v", ok, err)
	}
	if len(members) != 2 || members[0].Params["b"] != 0.5 || members[1].Class != "always-cooperate" {
		t.Fatalf("unexpected members: %+v", members)
	}

	diagnostics, ok, err := ReadGenerationDiagnostics(baseDir, "run-1")
	if err != nil || !ok {
		t.Fatalf("read diagnostics: ok=%t err=%v", ok, err)
	}
	if len(diagnostics) != 2 || diagnostics[1].Survivors != 4 {
		t.Fatalf("unexpected diagnostics: %+v", diagnostics)
	}

	series, ok, err := ReadFitnessSeries(baseDir, "run-1")
	if err != nil || !ok {
		t.Fatalf("read series: ok=%t err=%v", ok, err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 series rows, got %d", len(series))
	}
	want := FitnessPoint{Generation: 1, Best: 540.25, Mean: 420, Median: 410.5, Min: 300, Threshold: 410.5, Survivors: 2}
	if series[0] != want {
		t.Fatalf("unexpected first row: got=%+v want=%+v", series[0], want)
	}

	if _, ok, err := ReadRunConfig(baseDir, "missing"); ok || err != nil {
		t.Fatalf("expected missing config, got ok=%t err=%v", ok, err)
	}
	if _, ok, err := ReadFitnessSeries(baseDir, "missing"); ok || err != nil {
		t.Fatalf("expected missing series, got ok=%t err=%v", ok, err)
	}
}

func TestWriteRunConfigRejectsMismatchedRunID(t *testing.T) {
	baseDir := t.TempDir()
	if err := WriteRunConfig(baseDir, "run-1", RunConfig{RunID: "run-2"}); err == nil {
		t.Fatal("expected run id mismatch error")
	}
	if err := WriteRunConfig(baseDir, " run-1 ", RunConfig{Mode: "random-dual"}); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, ok, err := ReadRunConfig(baseDir, "run-1")
	if err != nil || !ok {
		t.Fatalf("read config: ok=%t err=%v", ok, err)
	}
	if cfg.RunID != "run-1" || cfg.Mode != "random-dual" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestRunIndexAppendListAndUpsert(t *testing.T) {
	baseDir := t.TempDir()

	if err := AppendRunIndex(baseDir, RunIndexEntry{
		RunID:            "run-1",
		Mode:             "full",
		PopulationSize:   8,
		Generations:      3,
		Seed:             1,
		FinalBestFitness: 1400,
		CreatedAtUTC:     "2026-02-10T10:00:00Z",
	}); err != nil {
		t.Fatalf("append run-1: %v", err)
	}
	if err := AppendRunIndex(baseDir, RunIndexEntry{
		RunID:            "run-2",
		Mode:             "random-dual",
		PopulationSize:   8,
		Generations:      3,
		Seed:             2,
		FinalBestFitness: 300,
		CreatedAtUTC:     "2026-02-10T11:00:00Z",
	}); err != nil {
		t.Fatalf("append run-2: %v", err)
	}

	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RunID != "run-2" || entries[1].RunID != "run-1" {
		t.Fatalf("unexpected order: %+v", entries)
	}

	if err := AppendRunIndex(baseDir, RunIndexEntry{
		RunID:            "run-1",
		Mode:             "full",
		FinalBestFitness: 1500,
		CreatedAtUTC:     "2026-02-10T12:00:00Z",
	}); err != nil {
		t.Fatalf("upsert run-1: %v", err)
	}

	entries, err = ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list after upsert: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after upsert, got %d", len(entries))
	}
	if entries[0].RunID != "run-1" || entries[0].FinalBestFitness != 1500 {
		t.Fatalf("unexpected upsert result: %+v", entries[0])
	}
}

func TestRunIndexEqualTimestampPrefersLaterAppend(t *testing.T) {
	baseDir := t.TempDir()
	for _, id := range []string{"run-a", "run-b"} {
		if err := AppendRunIndex(baseDir, RunIndexEntry{RunID: id, CreatedAtUTC: "2026-02-10T10:00:00Z"}); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}
	entries, err := ListRunIndex(baseDir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].RunID != "run-b" {
		t.Fatalf("expected later append first, got %+v", entries)
	}
}

func TestListRunIndexEmpty(t *testing.T) {
	entries, err := ListRunIndex(t.TempDir())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty index, got %+v", entries)
	}
	if err := AppendRunIndex(t.TempDir(), RunIndexEntry{}); err == nil {
		t.Fatal("expected missing run id error")
	}
}
