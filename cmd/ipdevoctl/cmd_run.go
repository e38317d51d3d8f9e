package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ipdevo/pkg/ipdevo"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evolve a population and record the run",
		Example: `  ipdevoctl run --population 100 --generations 1000 --mode random-dual
  ipdevoctl run --mode full --population 20 --generations 50 --trace
  ipdevoctl run --continue-run-id <run-id> --generations 100`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := applyRunFlags(cmd, a); err != nil {
				return err
			}
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			runID, _ := cmd.Flags().GetString("run-id")
			continueRunID, _ := cmd.Flags().GetString("continue-run-id")
			trace, _ := cmd.Flags().GetBool("trace")
			quiet, _ := cmd.Flags().GetBool("quiet")

			client, err := a.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			out := cmd.OutOrStdout()
			var progress *reporter
			if !quiet && !jsonOutput(cmd) {
				progress = newReporter(out, trace)
			}

			cfg := a.cfg
			noise := cfg.Evolution.SelectionNoise
			mutationScale := cfg.Strategy.MutationScale
			req := ipdevo.RunRequest{
				RunID:           runID,
				ContinueRunID:   continueRunID,
				PopulationSize:  cfg.Evolution.PopulationSize,
				Generations:     cfg.Evolution.Generations,
				Mode:            cfg.Evolution.Mode,
				Rounds:          cfg.Game.Rounds,
				Payoff:          cfg.Payoff(),
				SeedKind:        cfg.Strategy.Seed,
				MutationScale:   &mutationScale,
				SelectionNoise:  &noise,
				Workers:         cfg.Evolution.Workers,
				Seed:            cfg.Evolution.Seed,
				MetricsTextfile: cfg.Metrics.TextfilePath,
			}
			if continueRunID != "" && !cmd.Flags().Changed("population") {
				req.PopulationSize = 0
			}
			if progress != nil {
				req.Observer = progress
			}

			summary, err := client.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			if jsonOutput(cmd) {
				return writeJSON(out, map[string]any{
					"run_id":             summary.RunID,
					"artifacts_dir":      summary.ArtifactsDir,
					"generations":        summary.Generations,
					"final_best_fitness": summary.FinalBestFitness,
					"census":             summary.Census,
				})
			}
			fmt.Fprintf(out, "run_id=%s generations=%d final_best_fitness=%.4f\n", summary.RunID, summary.Generations, summary.FinalBestFitness)
			for _, c := range summary.Census {
				fmt.Fprintf(out, "  %-14s %d\n", c.Class, c.Count)
			}
			fmt.Fprintf(out, "artifacts=%s\n", summary.ArtifactsDir)
			return nil
		},
	}

	f := cmd.Flags()
	f.String("run-id", "", "run id (random when empty)")
	f.String("continue-run-id", "", "continue from the last population stored for this run")
	f.Int("population", 0, "population size")
	f.Int("generations", 0, "number of generations")
	f.String("mode", "", "pairing mode: full|random-dual")
	f.Int("rounds", 0, "rounds per match")
	f.Float64("temptation", 0, "payoff T for defecting against a cooperator")
	f.Float64("reward", 0, "payoff R for mutual cooperation")
	f.Float64("punishment", 0, "payoff P for mutual defection")
	f.Float64("sucker", 0, "payoff S for cooperating against a defector")
	f.String("seed-kind", "", "initial population: linear|cooperate|defect|tit-for-tat|mixed")
	f.Float64("mutation-scale", 0, "standard deviation of coefficient mutation")
	f.Float64("noise", 0, "standard deviation of selection noise")
	f.Int("workers", 0, "concurrent match workers")
	f.Int64("seed", 0, "random seed")
	f.String("metrics-textfile", "", "write run metrics in node-exporter textfile format")
	f.Bool("trace", false, "print every population, fitness vector and survivor set")
	f.Bool("quiet", false, "suppress per-generation output")
	return cmd
}

// applyRunFlags overlays explicitly set run flags onto the loaded config.
func applyRunFlags(cmd *cobra.Command, a *app) error {
	f := cmd.Flags()
	cfg := a.cfg

	ints := map[string]*int{
		"population":  &cfg.Evolution.PopulationSize,
		"generations": &cfg.Evolution.Generations,
		"rounds":      &cfg.Game.Rounds,
		"workers":     &cfg.Evolution.Workers,
	}
	for name, dst := range ints {
		if f.Changed(name) {
			v, err := f.GetInt(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}

	floats := map[string]*float64{
		"temptation":     &cfg.Game.Temptation,
		"reward":         &cfg.Game.Reward,
		"punishment":     &cfg.Game.Punishment,
		"sucker":         &cfg.Game.Sucker,
		"mutation-scale": &cfg.Strategy.MutationScale,
		"noise":          &cfg.Evolution.SelectionNoise,
	}
	for name, dst := range floats {
		if f.Changed(name) {
			v, err := f.GetFloat64(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}

	strs := map[string]*string{
		"mode":             &cfg.Evolution.Mode,
		"seed-kind":        &cfg.Strategy.Seed,
		"metrics-textfile": &cfg.Metrics.TextfilePath,
	}
	for name, dst := range strs {
		if f.Changed(name) {
			v, err := f.GetString(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}

	if f.Changed("seed") {
		v, err := f.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Evolution.Seed = v
	}
	return nil
}
