package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"ipdevo/internal/evo"
	"ipdevo/internal/strategy"
)

// reporter prints generation progress. In trace mode it prints the initial
// population, the median threshold, survivors, the fitness vector and the
// replaced population of every generation.
type reporter struct {
	w       io.Writer
	trace   bool
	started bool
}

func newReporter(w io.Writer, trace bool) *reporter {
	return &reporter{w: w, trace: trace}
}

func (r *reporter) ObserveGeneration(_ context.Context, report evo.GenerationReport) error {
	if !r.trace {
		d := report.Diagnostics
		_, err := fmt.Fprintf(r.w, "generation=%d threshold=%.4f survivors=%d best=%.4f mean=%.4f\n",
			d.Generation, d.Threshold, d.Survivors, d.BestFitness, d.MeanFitness)
		return err
	}

	var b strings.Builder
	if !r.started {
		r.started = true
		b.WriteString("Initial Population:\n")
		writePopulation(&b, report.Population)
	}
	fmt.Fprintf(&b, "median: %.4f\n", report.Threshold)
	fmt.Fprintf(&b, "survivors: %v\n", report.Survivors)
	fmt.Fprintf(&b, "fitness: %s\n", formatFitness(report.Fitness))
	fmt.Fprintf(&b, "Population After %d Generations:\n", report.Generation)
	writePopulation(&b, report.Next)
	_, err := io.WriteString(r.w, b.String())
	return err
}

func writePopulation(b *strings.Builder, population []strategy.Strategy) {
	for i, s := range population {
		fmt.Fprintf(b, "  %03d: %s\n", i, strategy.Describe(s))
	}
}

func formatFitness(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
