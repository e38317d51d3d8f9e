package ipdevo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"ipdevo/internal/evo"
	"ipdevo/internal/game"
	"ipdevo/internal/logging"
	"ipdevo/internal/metrics"
	"ipdevo/internal/model"
	"ipdevo/internal/stats"
	"ipdevo/internal/storage"
	"ipdevo/internal/strategy"
)

const (
	defaultBenchmarksDir = "benchmarks"
	defaultExportsDir    = "exports"
	defaultDBPath        = "ipdevo.db"
)

type Options struct {
	StoreKind     string
	DBPath        string
	BenchmarksDir string
	ExportsDir    string
	Logger        *slog.Logger
}

type Client struct {
	store storage.Store
	log   *slog.Logger

	initOnce sync.Once
	initErr  error

	benchmarksDir string
	exportsDir    string
}

type RunRequest struct {
	// RunID names the run; a random id is generated when empty.
	RunID string
	// ContinueRunID resumes from the last population persisted for that run
	// instead of seeding a new one.
	ContinueRunID  string
	PopulationSize int
	Generations    int
	Mode           string
	Rounds         int
	// Payoff defaults to the standard matrix when zero.
	Payoff   game.Payoff
	SeedKind string
	// MutationScale defaults to strategy.DefaultMutationScale when nil.
	MutationScale *float64
	// SelectionNoise defaults to evo.DefaultSelectionNoise when nil.
	SelectionNoise *float64
	Workers        int
	Seed           int64
	// Observer receives every generation report after it has been persisted.
	Observer evo.Observer
	// MetricsTextfile, when set, receives the run metrics after the run.
	MetricsTextfile string
}

type RunSummary struct {
	RunID            string
	ArtifactsDir     string
	Generations      int
	BestByGeneration []float64
	FinalBestFitness float64
	FinalPopulation  []stats.PopulationMember
	Census           []model.ClassCount
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	Mode             string
	Seed             int64
	Population       int
	Generations      int
	SeedKind         string
	FinalBestFitness float64
	DominantClass    string
}

type RunRef struct {
	RunID  string
	Latest bool
	Limit  int
}

type PopulationView struct {
	RunID      string
	Generation int
	Members    []stats.PopulationMember
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type DuelRequest struct {
	X      model.StrategyRecord
	Y      model.StrategyRecord
	Rounds int
	Payoff game.Payoff
}

type DuelSummary struct {
	X     string
	Y     string
	Trace game.MatchTrace
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	benchmarksDir := opts.BenchmarksDir
	if benchmarksDir == "" {
		benchmarksDir = defaultBenchmarksDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:         store,
		log:           logging.OrDiscard(opts.Logger),
		benchmarksDir: benchmarksDir,
		exportsDir:    exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	c.initOnce.Do(func() {
		c.initErr = c.store.Init(ctx)
	})
	return c.initErr
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Generations <= 0 {
		req.Generations = 100
	}
	if req.Mode == "" {
		req.Mode = string(evo.ModeRandomDual)
	}
	if req.Rounds <= 0 {
		req.Rounds = game.DefaultRounds
	}
	if req.Payoff == (game.Payoff{}) {
		req.Payoff = game.StandardPayoff()
	}
	if req.SeedKind == "" {
		req.SeedKind = strategy.SeedLinear
	}
	mutationScale := strategy.DefaultMutationScale
	if req.MutationScale != nil {
		mutationScale = *req.MutationScale
	}
	if mutationScale < 0 {
		return RunSummary{}, errors.New("mutation scale must be >= 0")
	}
	noise := evo.DefaultSelectionNoise
	if req.SelectionNoise != nil {
		noise = *req.SelectionNoise
	}
	if noise < 0 {
		return RunSummary{}, errors.New("selection noise must be >= 0")
	}
	if req.Workers <= 0 {
		req.Workers = 1
	}

	mode, err := evo.ParsePairingMode(req.Mode)
	if err != nil {
		return RunSummary{}, err
	}
	engine, err := game.NewEngine(req.Payoff, req.Rounds)
	if err != nil {
		return RunSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	rng := rand.New(rand.NewSource(req.Seed))
	initial, initialGeneration, err := c.initialPopulation(ctx, req, mutationScale, rng)
	if err != nil {
		return RunSummary{}, err
	}

	now := time.Now().UTC()
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	var postprocessor evo.FitnessPostprocessor = evo.GaussianNoise{Sigma: noise}
	if noise == 0 {
		postprocessor = evo.NoopFitnessPostprocessor{}
	}

	recorder := metrics.NewRecorder()
	persist := newStoreObserver(c.store, runID)
	monitor, err := evo.NewPopulationMonitor(evo.MonitorConfig{
		Battle:            engine.Func(),
		Mode:              mode,
		PopulationSize:    len(initial),
		Generations:       req.Generations,
		InitialGeneration: initialGeneration,
		Workers:           req.Workers,
		Rand:              rng,
		Postprocessor:     postprocessor,
		Observer:          evo.MultiObserver{persist, req.Observer},
		Logger:            c.log.With("run_id", runID),
		Metrics:           recorder,
	})
	if err != nil {
		return RunSummary{}, err
	}

	c.log.Info("run started",
		"run_id", runID,
		"mode", mode,
		"population", len(initial),
		"generations", req.Generations,
		"seed", req.Seed,
		"continue_run_id", req.ContinueRunID,
	)
	result, err := monitor.Run(ctx, initial)
	if flushErr := persist.flush(context.WithoutCancel(ctx)); flushErr != nil {
		if err == nil {
			return RunSummary{}, flushErr
		}
		c.log.Warn("flush partial run state failed", "run_id", runID, "error", flushErr)
	}
	if err != nil {
		return RunSummary{}, fmt.Errorf("run %s: %w", runID, err)
	}

	members, err := describePopulation(result.FinalPopulation)
	if err != nil {
		return RunSummary{}, err
	}
	finalBest := 0.0
	var census []model.ClassCount
	if n := len(result.Diagnostics); n > 0 {
		finalBest = result.Diagnostics[n-1].BestFitness
		census = result.Diagnostics[n-1].Census
	}

	runDir, err := stats.WriteRunArtifacts(c.benchmarksDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:             runID,
			ContinueRunID:     req.ContinueRunID,
			InitialGeneration: initialGeneration,
			Mode:              string(mode),
			PopulationSize:    len(initial),
			Generations:       req.Generations,
			Rounds:            req.Rounds,
			Temptation:        req.Payoff.T,
			Reward:            req.Payoff.R,
			Punishment:        req.Payoff.P,
			Sucker:            req.Payoff.S,
			SeedKind:          req.SeedKind,
			MutationScale:     mutationScale,
			SelectionNoise:    noise,
			Seed:              req.Seed,
			Workers:           req.Workers,
		},
		BestByGeneration:      result.BestByGeneration,
		GenerationDiagnostics: result.Diagnostics,
		FinalBestFitness:      finalBest,
		FinalPopulation:       members,
	})
	if err != nil {
		return RunSummary{}, err
	}

	if err := stats.AppendRunIndex(c.benchmarksDir, stats.RunIndexEntry{
		RunID:            runID,
		Mode:             string(mode),
		PopulationSize:   len(initial),
		Generations:      req.Generations,
		Seed:             req.Seed,
		Workers:          req.Workers,
		SeedKind:         req.SeedKind,
		FinalBestFitness: finalBest,
		DominantClass:    stats.DominantClass(census),
		CreatedAtUTC:     now.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}

	if req.MetricsTextfile != "" {
		if err := recorder.WriteTextfile(req.MetricsTextfile); err != nil {
			return RunSummary{}, fmt.Errorf("write metrics textfile: %w", err)
		}
	}

	c.log.Info("run finished", "run_id", runID, "final_best", finalBest, "dominant_class", stats.DominantClass(census))
	return RunSummary{
		RunID:            runID,
		ArtifactsDir:     filepath.Clean(runDir),
		Generations:      req.Generations,
		BestByGeneration: append([]float64(nil), result.BestByGeneration...),
		FinalBestFitness: finalBest,
		FinalPopulation:  members,
		Census:           census,
	}, nil
}

func (c *Client) initialPopulation(ctx context.Context, req RunRequest, mutationScale float64, rng *rand.Rand) ([]strategy.Strategy, int, error) {
	if req.ContinueRunID == "" {
		if req.PopulationSize <= 0 {
			req.PopulationSize = 100
		}
		population, err := strategy.Seed(rng, req.SeedKind, req.PopulationSize, mutationScale)
		if err != nil {
			return nil, 0, err
		}
		return population, 0, nil
	}

	snapshot, ok, err := c.store.GetPopulation(ctx, req.ContinueRunID)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, fmt.Errorf("population not found for run id: %s", req.ContinueRunID)
	}
	population, err := strategy.FromRecords(snapshot.Strategies)
	if err != nil {
		return nil, 0, fmt.Errorf("restore population %s: %w", req.ContinueRunID, err)
	}
	if req.PopulationSize > 0 && req.PopulationSize != len(population) {
		return nil, 0, fmt.Errorf("continued population has %d individuals, requested %d", len(population), req.PopulationSize)
	}
	return population, snapshot.Generation, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			Mode:             e.Mode,
			Seed:             e.Seed,
			Population:       e.PopulationSize,
			Generations:      e.Generations,
			SeedKind:         e.SeedKind,
			FinalBestFitness: e.FinalBestFitness,
			DominantClass:    e.DominantClass,
		})
	}
	return out, nil
}

// Population returns the last persisted population of a run. It falls back to
// the run artifacts when the store no longer holds the run.
func (c *Client) Population(ctx context.Context, ref RunRef) (PopulationView, error) {
	runID, err := c.resolveRunID(ref, "population")
	if err != nil {
		return PopulationView{}, err
	}
	if err := c.Init(ctx); err != nil {
		return PopulationView{}, err
	}

	snapshot, ok, err := c.store.GetPopulation(ctx, runID)
	if err != nil {
		return PopulationView{}, err
	}
	if ok {
		population, err := strategy.FromRecords(snapshot.Strategies)
		if err != nil {
			return PopulationView{}, err
		}
		members, err := describePopulation(population)
		if err != nil {
			return PopulationView{}, err
		}
		return PopulationView{RunID: runID, Generation: snapshot.Generation, Members: limitMembers(members, ref.Limit)}, nil
	}

	members, ok, err := stats.ReadFinalPopulation(c.benchmarksDir, runID)
	if err != nil {
		return PopulationView{}, err
	}
	if !ok {
		return PopulationView{}, fmt.Errorf("population not found for run id: %s", runID)
	}
	view := PopulationView{RunID: runID, Members: limitMembers(members, ref.Limit)}
	if cfg, ok, err := stats.ReadRunConfig(c.benchmarksDir, runID); err == nil && ok {
		view.Generation = cfg.InitialGeneration + cfg.Generations
	}
	return view, nil
}

func (c *Client) FitnessHistory(ctx context.Context, ref RunRef) ([]float64, error) {
	runID, err := c.resolveRunID(ref, "fitness history")
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		series, found, err := stats.ReadFitnessSeries(c.benchmarksDir, runID)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
		}
		history = make([]float64, 0, len(series))
		for _, point := range series {
			history = append(history, point.Best)
		}
	}
	if ref.Limit > 0 && len(history) > ref.Limit {
		history = history[:ref.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Diagnostics(ctx context.Context, ref RunRef) ([]model.GenerationDiagnostics, error) {
	runID, err := c.resolveRunID(ref, "diagnostics")
	if err != nil {
		return nil, err
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	diagnostics, ok, err := c.store.GetGenerationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		diagnostics, ok, err = stats.ReadGenerationDiagnostics(c.benchmarksDir, runID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
		}
	}
	if ref.Limit > 0 && len(diagnostics) > ref.Limit {
		diagnostics = diagnostics[:ref.Limit]
	}
	out := make([]model.GenerationDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	runID, err := c.resolveRunID(RunRef{RunID: req.RunID, Latest: req.Latest}, "export")
	if err != nil {
		return ExportSummary{}, err
	}

	exportedDir, err := stats.ExportRunArtifacts(c.benchmarksDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

// Duel plays one match between two strategies and returns every round.
func (c *Client) Duel(_ context.Context, req DuelRequest) (DuelSummary, error) {
	if req.Rounds <= 0 {
		req.Rounds = game.DefaultRounds
	}
	if req.Payoff == (game.Payoff{}) {
		req.Payoff = game.StandardPayoff()
	}
	engine, err := game.NewEngine(req.Payoff, req.Rounds)
	if err != nil {
		return DuelSummary{}, err
	}
	x, err := strategy.FromRecord(req.X)
	if err != nil {
		return DuelSummary{}, fmt.Errorf("player x: %w", err)
	}
	y, err := strategy.FromRecord(req.Y)
	if err != nil {
		return DuelSummary{}, fmt.Errorf("player y: %w", err)
	}
	trace, err := engine.Replay(x, y)
	if err != nil {
		return DuelSummary{}, err
	}
	return DuelSummary{X: strategy.Describe(x), Y: strategy.Describe(y), Trace: trace}, nil
}

func (c *Client) resolveRunID(ref RunRef, what string) (string, error) {
	if ref.RunID != "" && ref.Latest {
		return "", errors.New("use either run id or latest")
	}
	if ref.Limit < 0 {
		return "", errors.New("limit must be >= 0")
	}
	if !ref.Latest {
		if ref.RunID == "" {
			return "", fmt.Errorf("%s requires run id or latest", what)
		}
		return ref.RunID, nil
	}
	entries, err := stats.ListRunIndex(c.benchmarksDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func describePopulation(population []strategy.Strategy) ([]stats.PopulationMember, error) {
	members := make([]stats.PopulationMember, 0, len(population))
	for i, s := range population {
		record, err := strategy.ToRecord(s)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		members = append(members, stats.PopulationMember{
			Index:       i,
			Kind:        record.Kind,
			Params:      record.Params,
			Class:       strategy.ClassOf(s),
			Description: strategy.Describe(s),
		})
	}
	return members, nil
}

func limitMembers(members []stats.PopulationMember, limit int) []stats.PopulationMember {
	if limit > 0 && len(members) > limit {
		return members[:limit]
	}
	return members
}
