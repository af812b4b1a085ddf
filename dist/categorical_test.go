package dist

import (
	"testing"

	"github.com/lox/mccfr/internal/randutil"
)

func TestUniformProbabilities(t *testing.T) {
	c := Uniform([]string{"a", "b", "c", "d"})
	for i, p := range c.Probs() {
		if abs(p-0.25) > 1e-6 {
			t.Fatalf("expected uniform 0.25 at %d, got %v", i, p)
		}
	}
}

func TestNewNormalized(t *testing.T) {
	c, err := NewNormalized([]float32{1, 3}, []int{10, 20})
	if err != nil {
		t.Fatalf("new normalized: %v", err)
	}
	if abs(c.Probs()[0]-0.25) > 1e-6 || abs(c.Probs()[1]-0.75) > 1e-6 {
		t.Fatalf("unexpected probabilities %v", c.Probs())
	}
}

func TestNewNormalizedRejectsZeroMass(t *testing.T) {
	if _, err := NewNormalized([]float32{0, 0}, []int{1, 2}); err == nil {
		t.Fatal("expected zero-mass error")
	}
}

func TestNewNormalizedRejectsLengthMismatch(t *testing.T) {
	if _, err := NewNormalized([]float32{1}, []int{1, 2}); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestSampleMatchesWeights(t *testing.T) {
	rng := randutil.New(7)
	c, err := NewNormalized([]float32{1, 0, 3}, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("new normalized: %v", err)
	}

	counts := map[string]int{}
	const draws = 20000
	for i := 0; i < draws; i++ {
		item, idx, prob := c.Sample(rng)
		if item == "b" {
			t.Fatal("sampled zero-probability item")
		}
		if prob != c.Probs()[idx] {
			t.Fatalf("reported probability %v does not match index %d", prob, idx)
		}
		counts[item]++
	}

	got := float32(counts["c"]) / draws
	if abs(got-0.75) > 0.02 {
		t.Fatalf("expected c drawn about 75%% of the time, got %v", got)
	}
}

func TestWithMaskZeroesAndRenormalizes(t *testing.T) {
	c, err := NewNormalized([]float32{2, 2, 4}, []int{0, 1, 2})
	if err != nil {
		t.Fatalf("new normalized: %v", err)
	}
	masked, err := c.WithMask([]bool{true, false, true})
	if err != nil {
		t.Fatalf("with mask: %v", err)
	}

	probs := masked.Probs()
	if probs[1] != 0 {
		t.Fatalf("masked-out probability should be zero, got %v", probs[1])
	}
	var sum float32
	for _, p := range probs {
		sum += p
	}
	if abs(sum-1) > 1e-6 {
		t.Fatalf("masked distribution sums to %v", sum)
	}
	if abs(probs[0]-1.0/3) > 1e-6 || abs(probs[2]-2.0/3) > 1e-6 {
		t.Fatalf("unexpected renormalization %v", probs)
	}
}

func TestWithMaskUniformFallback(t *testing.T) {
	c, err := NewNormalized([]float32{1, 0, 0}, []int{0, 1, 2})
	if err != nil {
		t.Fatalf("new normalized: %v", err)
	}
	// Masking out the only weighted item leaves zero mass behind.
	masked, err := c.WithMask([]bool{false, true, true})
	if err != nil {
		t.Fatalf("with mask: %v", err)
	}

	probs := masked.Probs()
	if probs[0] != 0 {
		t.Fatalf("masked-out probability should be zero, got %v", probs[0])
	}
	if abs(probs[1]-0.5) > 1e-6 || abs(probs[2]-0.5) > 1e-6 {
		t.Fatalf("expected uniform fallback over mask, got %v", probs)
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
