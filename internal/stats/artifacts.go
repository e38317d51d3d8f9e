package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"ipdevo/internal/model"
)

const (
	runIndexFile        = "run_index.json"
	configFile          = "config.json"
	fitnessHistoryFile  = "fitness_history.json"
	diagnosticsFile     = "generation_diagnostics.json"
	finalPopulationFile = "final_population.json"
	fitnessSeriesFile   = "fitness_series.csv"
)

type RunConfig struct {
	RunID             string  `json:"run_id"`
	ContinueRunID     string  `json:"continue_run_id,omitempty"`
	InitialGeneration int     `json:"initial_generation"`
	Mode              string  `json:"mode"`
	PopulationSize    int     `json:"population_size"`
	Generations       int     `json:"generations"`
	Rounds            int     `json:"rounds"`
	Temptation        float64 `json:"temptation"`
	Reward            float64 `json:"reward"`
	Punishment        float64 `json:"punishment"`
	Sucker            float64 `json:"sucker"`
	SeedKind          string  `json:"seed_kind"`
	MutationScale     float64 `json:"mutation_scale"`
	SelectionNoise    float64 `json:"selection_noise"`
	Seed              int64   `json:"seed"`
	Workers           int     `json:"workers"`
}

// PopulationMember is one individual of the final population as written to
// final_population.json.
type PopulationMember struct {
	Index       int                `json:"index"`
	Kind        string             `json:"kind"`
	Params      map[string]float64 `json:"params,omitempty"`
	Class       string             `json:"class"`
	Description string             `json:"description"`
}

type RunArtifacts struct {
	Config                RunConfig                     `json:"config"`
	BestByGeneration      []float64                     `json:"best_by_generation"`
	GenerationDiagnostics []model.GenerationDiagnostics `json:"generation_diagnostics,omitempty"`
	FinalBestFitness      float64                       `json:"final_best_fitness"`
	FinalPopulation       []PopulationMember            `json:"final_population"`
}

type RunIndexEntry struct {
	RunID            string  `json:"run_id"`
	Mode             string  `json:"mode"`
	PopulationSize   int     `json:"population_size"`
	Generations      int     `json:"generations"`
	Seed             int64   `json:"seed"`
	Workers          int     `json:"workers"`
	SeedKind         string  `json:"seed_kind"`
	FinalBestFitness float64 `json:"final_best_fitness"`
	DominantClass    string  `json:"dominant_class,omitempty"`
	CreatedAtUTC     string  `json:"created_at_utc"`
}

// FitnessPoint is one row of fitness_series.csv.
type FitnessPoint struct {
	Generation int
	Best       float64
	Mean       float64
	Median     float64
	Min        float64
	Threshold  float64
	Survivors  int
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, fitnessHistoryFile), map[string]any{"best_by_generation": artifacts.BestByGeneration, "final_best_fitness": artifacts.FinalBestFitness}); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, diagnosticsFile), artifacts.GenerationDiagnostics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, finalPopulationFile), artifacts.FinalPopulation); err != nil {
		return "", err
	}
	if err := WriteFitnessSeries(runDir, artifacts.GenerationDiagnostics); err != nil {
		return "", err
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries newest first. Entries with equal
// timestamps keep the most recently appended first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{configFile, fitnessHistoryFile, diagnosticsFile, finalPopulationFile} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	seriesPath := filepath.Join(src, fitnessSeriesFile)
	if _, err := os.Stat(seriesPath); err == nil {
		if err := copyFile(seriesPath, filepath.Join(dst, fitnessSeriesFile)); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, configFile), &cfg)
	if err != nil || !ok {
		return RunConfig{}, ok, err
	}
	return cfg, true, nil
}

func WriteRunConfig(baseDir, runID string, cfg RunConfig) error {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	if strings.TrimSpace(cfg.RunID) == "" {
		cfg.RunID = runID
	}
	if cfg.RunID != runID {
		return fmt.Errorf("run config run id mismatch: got=%s want=%s", cfg.RunID, runID)
	}
	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}
	return writeJSON(filepath.Join(runDir, configFile), cfg)
}

func ReadFinalPopulation(baseDir, runID string) ([]PopulationMember, bool, error) {
	var members []PopulationMember
	ok, err := readJSON(filepath.Join(baseDir, runID, finalPopulationFile), &members)
	if err != nil || !ok {
		return nil, ok, err
	}
	return members, true, nil
}

func ReadGenerationDiagnostics(baseDir, runID string) ([]model.GenerationDiagnostics, bool, error) {
	var diagnostics []model.GenerationDiagnostics
	ok, err := readJSON(filepath.Join(baseDir, runID, diagnosticsFile), &diagnostics)
	if err != nil || !ok {
		return nil, ok, err
	}
	return diagnostics, true, nil
}

func WriteFitnessSeries(runDir string, diagnostics []model.GenerationDiagnostics) error {
	file, err := os.Create(filepath.Join(runDir, fitnessSeriesFile))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "best_fitness", "mean_fitness", "median_fitness", "min_fitness", "threshold", "survivors"}); err != nil {
		return err
	}
	for _, d := range diagnostics {
		if err := writer.Write([]string{
			strconv.Itoa(d.Generation),
			formatFloat(d.BestFitness),
			formatFloat(d.MeanFitness),
			formatFloat(d.MedianFitness),
			formatFloat(d.MinFitness),
			formatFloat(d.Threshold),
			strconv.Itoa(d.Survivors),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadFitnessSeries(baseDir, runID string) ([]FitnessPoint, bool, error) {
	file, err := os.Open(filepath.Join(baseDir, runID, fitnessSeriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return []FitnessPoint{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 7 {
		return nil, false, fmt.Errorf("fitness series header must have 7 columns")
	}

	series := make([]FitnessPoint, 0, 128)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		point, err := parseFitnessPoint(record)
		if err != nil {
			return nil, false, err
		}
		series = append(series, point)
	}
	return series, true, nil
}

func parseFitnessPoint(record []string) (FitnessPoint, error) {
	if len(record) < 7 {
		return FitnessPoint{}, fmt.Errorf("fitness series row must have 7 columns")
	}
	generation, err := strconv.Atoi(record[0])
	if err != nil {
		return FitnessPoint{}, err
	}
	survivors, err := strconv.Atoi(record[6])
	if err != nil {
		return FitnessPoint{}, err
	}
	values := make([]float64, 5)
	for i := range values {
		v, err := strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return FitnessPoint{}, err
		}
		values[i] = v
	}
	return FitnessPoint{
		Generation: generation,
		Best:       values[0],
		Mean:       values[1],
		Median:     values[2],
		Min:        values[3],
		Threshold:  values[4],
		Survivors:  survivors,
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
