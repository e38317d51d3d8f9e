package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ipdevo/internal/game"
	"ipdevo/internal/model"
	"ipdevo/internal/strategy"
	"ipdevo/pkg/ipdevo"
)

func newDuelCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duel",
		Short: "Play one match between two strategies and print every round",
		Example: `  ipdevoctl duel --x-a 1 --x-b 0.5 --y-kind always-defect
  ipdevoctl duel --x-kind tit-for-tat --y-kind grudger --rounds 10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			x, err := playerRecord(cmd, "x")
			if err != nil {
				return err
			}
			y, err := playerRecord(cmd, "y")
			if err != nil {
				return err
			}
			rounds := a.cfg.Game.Rounds
			if cmd.Flags().Changed("rounds") {
				rounds, _ = cmd.Flags().GetInt("rounds")
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			summary, err := client.Duel(cmd.Context(), ipdevo.DuelRequest{X: x, Y: y, Rounds: rounds, Payoff: a.cfg.Payoff()})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return writeJSON(out, summary)
			}
			fmt.Fprintf(out, "x: %s\ny: %s\n", summary.X, summary.Y)
			for _, r := range summary.Trace.Rounds {
				fmt.Fprintf(out, "%3d  %s %s  %6.1f %6.1f\n", r.Round+1, r.X, r.Y, r.ScoreX, r.ScoreY)
			}
			fmt.Fprintf(out, "total: %.1f %.1f\n", summary.Trace.TotalX, summary.Trace.TotalY)
			return nil
		},
	}
	for _, p := range []string{"x", "y"} {
		cmd.Flags().String(p+"-kind", strategy.KindLinear, "strategy kind of player "+p)
		cmd.Flags().Float64(p+"-a", 0, "linear coefficient a of player "+p)
		cmd.Flags().Float64(p+"-b", 0, "linear bias b of player "+p)
	}
	cmd.Flags().Int("rounds", game.DefaultRounds, "rounds in the match")
	return cmd
}

func playerRecord(cmd *cobra.Command, p string) (model.StrategyRecord, error) {
	kind, err := cmd.Flags().GetString(p + "-kind")
	if err != nil {
		return model.StrategyRecord{}, err
	}
	record := model.StrategyRecord{Kind: kind}
	if kind == strategy.KindLinear {
		a, _ := cmd.Flags().GetFloat64(p + "-a")
		b, _ := cmd.Flags().GetFloat64(p + "-b")
		record.Params = map[string]float64{"a": a, "b": b}
	}
	return record, nil
}
