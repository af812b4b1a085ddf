package solver

import (
	"testing"

	"github.com/chewxy/math32"
)

func TestRegretMatchingProportionalToPositiveRegret(t *testing.T) {
	mask := []bool{true, true, true, false}
	out := regretMatching([]float32{1, 3, -5, 100}, mask)

	if abs(out[0]-0.25) > 1e-6 || abs(out[1]-0.75) > 1e-6 {
		t.Fatalf("unexpected distribution %v", out)
	}
	if out[2] != 0 {
		t.Fatalf("negative regret should contribute nothing, got %v", out[2])
	}
	if out[3] != 0 {
		t.Fatalf("masked-out action must stay at zero even with positive regret, got %v", out[3])
	}
}

func TestRegretMatchingUniformFallback(t *testing.T) {
	mask := []bool{true, false, true, true}
	out := regretMatching([]float32{-1, 5, 0, -3}, mask)

	want := float32(1.0 / 3)
	if abs(out[0]-want) > 1e-6 || abs(out[2]-want) > 1e-6 || abs(out[3]-want) > 1e-6 {
		t.Fatalf("expected uniform over mask, got %v", out)
	}
	if out[1] != 0 {
		t.Fatalf("masked-out action must stay at zero, got %v", out[1])
	}
}

func TestUniformOverMaskPanicsOnEmptyMask(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for all-false mask")
		}
	}()
	uniformOverMask([]bool{false, false}, 2)
}

func TestAverageSamplingFloorAndScale(t *testing.T) {
	policy := []float32{0, 100, 900}
	e, b, tau := float32(0.1), float32(100), float32(10000)
	out := averageSampling(policy, e, b, tau)

	// Unvisited action: (100 + 0) / (1000 + 100) < 1, floored only if below e.
	denom := float32(1100)
	if abs(out[0]-math32.Max(e, 100/denom)) > 1e-5 {
		t.Fatalf("unexpected sampling for empty mass: %v", out[0])
	}
	// Heavy action saturates well above 1; the caller clamps when scaling q.
	if out[2] < 1 {
		t.Fatalf("expected heavy action sampled with certainty, got %v", out[2])
	}
	for i, p := range out {
		if p < e {
			t.Fatalf("sampling floor violated at %d: %v", i, p)
		}
	}
}

func TestAverageSamplingDegeneratesToOutcomeSampling(t *testing.T) {
	// b=0, t=1 turns the rule into policy/sum(policy), floored at e.
	policy := []float32{1, 3}
	out := averageSampling(policy, 0.1, 0, 1)
	if abs(out[0]-0.25) > 1e-6 || abs(out[1]-0.75) > 1e-6 {
		t.Fatalf("unexpected outcome-sampling probabilities %v", out)
	}
}

func TestAverageSamplingZeroDenominatorFallsBackToFloor(t *testing.T) {
	out := averageSampling([]float32{0, 0}, 0.2, 0, 1)
	if out[0] != 0.2 || out[1] != 0.2 {
		t.Fatalf("expected exploration floor on empty mass, got %v", out)
	}
}

func TestBaselineZeroesExpectedRegret(t *testing.T) {
	// The regret delta must have zero expectation under the current mixed
	// strategy: sum_i (v_i - baseline) * dist_i == 0.
	mask := []bool{true, true, true}
	dist := regretMatching([]float32{2, 1, 1}, mask)
	values := []float32{5, -3, 0.5}

	var baseline float32
	for i := range values {
		baseline += values[i] * dist[i]
	}

	var expected float32
	for i := range values {
		expected += (values[i] - baseline) * dist[i]
	}
	if abs(expected) > 1e-5 {
		t.Fatalf("regret delta has non-zero expectation %v", expected)
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
