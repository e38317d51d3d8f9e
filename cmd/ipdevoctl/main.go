package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"ipdevo/internal/config"
	"ipdevo/internal/logging"
	"ipdevo/pkg/ipdevo"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries the loaded configuration and logger from the root command to
// its subcommands.
type app struct {
	cfg *config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "ipdevoctl",
		Short: "Evolve populations of iterated prisoner's dilemma strategies",
		Long: `ipdevoctl runs evolutionary tournaments of the iterated prisoner's dilemma.

Each generation every scheduled pair plays a fixed-length match, fitness is
the noisy sum of payoffs, the lower half by median is replaced with mutated
copies of survivors, and the run is recorded under the benchmarks directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "YAML config file (defaults, then file, then IPDEVO_* env, then flags)")
	flags.String("log-level", "", "log level: debug|info|warn|error")
	flags.String("log-format", "", "log format: text|json")
	flags.String("store", "", "store backend: memory|sqlite")
	flags.String("db-path", "", "sqlite database path")
	flags.String("benchmarks-dir", "", "directory holding run artifacts and the run index")
	flags.Bool("json", false, "emit JSON output")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(a),
		newRunsCmd(a),
		newPopulationCmd(a),
		newFitnessCmd(a),
		newDiagnosticsCmd(a),
		newExportCmd(a),
		newDuelCmd(a),
	)
	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"log-level", &cfg.Logging.Level},
		{"log-format", &cfg.Logging.Format},
		{"store", &cfg.Storage.Kind},
		{"db-path", &cfg.Storage.DBPath},
		{"benchmarks-dir", &cfg.Artifacts.BenchmarksDir},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			*o.dst, _ = cmd.Flags().GetString(o.flag)
		}
	}

	a.cfg = cfg
	a.log = logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	return nil
}

func (a *app) client() (*ipdevo.Client, error) {
	return ipdevo.New(ipdevo.Options{
		StoreKind:     a.cfg.Storage.Kind,
		DBPath:        a.cfg.Storage.DBPath,
		BenchmarksDir: a.cfg.Artifacts.BenchmarksDir,
		ExportsDir:    a.cfg.Artifacts.ExportsDir,
		Logger:        a.log,
	})
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
