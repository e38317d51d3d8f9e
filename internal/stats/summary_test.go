package stats

import (
	"math"
	"testing"

	"ipdevo/internal/model"
)

func TestSummarizeFitness(t *testing.T) {
	summary := SummarizeFitness([]float64{4, 1, 3, 2})
	if summary.Count != 4 || summary.Mean != 2.5 || summary.Median != 2.5 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Min != 1 || summary.Max != 4 {
		t.Fatalf("unexpected bounds: %+v", summary)
	}
	if math.Abs(summary.Std-math.Sqrt(1.25)) > 1e-12 {
		t.Fatalf("unexpected std: %f", summary.Std)
	}

	odd := SummarizeFitness([]float64{9, 1, 5})
	if odd.Median != 5 {
		t.Fatalf("expected odd median 5, got %f", odd.Median)
	}

	if empty := SummarizeFitness(nil); empty != (FitnessSummary{}) {
		t.Fatalf("expected zero summary, got %+v", empty)
	}
}

func TestSummarizeFitnessDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	_ = SummarizeFitness(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Fatalf("input reordered: %v", values)
	}
}

func TestDominantClass(t *testing.T) {
	census := []model.ClassCount{{Class: "lucifer", Count: 2}, {Class: "jesus", Count: 2}, {Class: "t4t", Count: 1}}
	if got := DominantClass(census); got != "jesus" {
		t.Fatalf("expected tie broken by name, got %q", got)
	}
	if got := DominantClass(nil); got != "" {
		t.Fatalf("expected empty class, got %q", got)
	}
}
