package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ipdevo/pkg/ipdevo"
)

func addRunRefFlags(cmd *cobra.Command, limit int) {
	cmd.Flags().String("run-id", "", "run id")
	cmd.Flags().Bool("latest", false, "use the most recent run from the run index")
	cmd.Flags().Int("limit", limit, "max entries to print (<=0 for all)")
}

func runRef(cmd *cobra.Command, what string) (ipdevo.RunRef, error) {
	runID, _ := cmd.Flags().GetString("run-id")
	latest, _ := cmd.Flags().GetBool("latest")
	limit, _ := cmd.Flags().GetInt("limit")
	if runID != "" && latest {
		return ipdevo.RunRef{}, errors.New("use either --run-id or --latest, not both")
	}
	if runID == "" && !latest {
		return ipdevo.RunRef{}, fmt.Errorf("%s requires --run-id or --latest", what)
	}
	if limit < 0 {
		limit = 0
	}
	return ipdevo.RunRef{RunID: runID, Latest: latest, Limit: limit}, nil
}

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if limit <= 0 {
				return errors.New("limit must be > 0")
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			runs, err := client.Runs(cmd.Context(), ipdevo.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return writeJSON(out, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "no runs found")
				return nil
			}
			for _, r := range runs {
				fmt.Fprintf(out, "%s created=%s mode=%s seed=%d population=%d generations=%d seed_kind=%s final_best=%.4f dominant=%s\n",
					r.RunID, r.CreatedAtUTC, r.Mode, r.Seed, r.Population, r.Generations, r.SeedKind, r.FinalBestFitness, r.DominantClass)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "max runs to list")
	return cmd
}

func newPopulationCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "population",
		Short: "Show the last recorded population of a run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref, err := runRef(cmd, "population")
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			view, err := client.Population(cmd.Context(), ref)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return writeJSON(out, view)
			}
			fmt.Fprintf(out, "run_id=%s generation=%d\n", view.RunID, view.Generation)
			for _, m := range view.Members {
				fmt.Fprintf(out, "  %03d: %s\n", m.Index, m.Description)
			}
			return nil
		},
	}
	addRunRefFlags(cmd, 0)
	return cmd
}

func newFitnessCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fitness",
		Short: "Show the best fitness of every generation of a run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref, err := runRef(cmd, "fitness")
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			history, err := client.FitnessHistory(cmd.Context(), ref)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return writeJSON(out, history)
			}
			if len(history) == 0 {
				fmt.Fprintln(out, "no fitness history")
				return nil
			}
			for i, best := range history {
				fmt.Fprintf(out, "generation=%d best_fitness=%.6f\n", i+1, best)
			}
			return nil
		},
	}
	addRunRefFlags(cmd, 50)
	return cmd
}

func newDiagnosticsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnostics",
		Short: "Show per-generation selection diagnostics of a run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ref, err := runRef(cmd, "diagnostics")
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			diagnostics, err := client.Diagnostics(cmd.Context(), ref)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return writeJSON(out, diagnostics)
			}
			if len(diagnostics) == 0 {
				fmt.Fprintln(out, "no diagnostics")
				return nil
			}
			for _, d := range diagnostics {
				fmt.Fprintf(out, "generation=%d best=%.4f mean=%.4f median=%.4f min=%.4f threshold=%.4f survivors=%d offspring=%d pairs=%d\n",
					d.Generation, d.BestFitness, d.MeanFitness, d.MedianFitness, d.MinFitness, d.Threshold, d.Survivors, d.Offspring, d.Pairs)
			}
			return nil
		},
	}
	addRunRefFlags(cmd, 50)
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy a run's artifacts to the exports directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			runID, _ := cmd.Flags().GetString("run-id")
			latest, _ := cmd.Flags().GetBool("latest")
			outDir, _ := cmd.Flags().GetString("out")
			if runID != "" && latest {
				return errors.New("use either --run-id or --latest, not both")
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			exported, err := client.Export(cmd.Context(), ipdevo.ExportRequest{RunID: runID, Latest: latest, OutDir: outDir})
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), exported)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s dir=%s\n", exported.RunID, exported.Directory)
			return nil
		},
	}
	cmd.Flags().String("run-id", "", "run id")
	cmd.Flags().Bool("latest", false, "export the most recent run from the run index")
	cmd.Flags().String("out", "", "output directory (defaults to the configured exports dir)")
	return cmd
}
