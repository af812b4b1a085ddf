// Package dist implements the weighted categorical distribution used for
// chance nodes and sampled strategies.
package dist

import (
	"errors"
	"fmt"
	rand "math/rand/v2"

	"github.com/chewxy/math32"
)

// minMass is the smallest total probability mass treated as non-degenerate.
const minMass = 1e-6

var errZeroMass = errors.New("dist: weights sum to zero")

// Categorical pairs a probability vector with a parallel item vector.
type Categorical[T any] struct {
	probs []float32
	items []T
}

// Uniform returns the uniform distribution over items.
func Uniform[T any](items []T) Categorical[T] {
	n := len(items)
	probs := make([]float32, n)
	for i := range probs {
		probs[i] = 1.0 / float32(n)
	}
	return Categorical[T]{probs: probs, items: items}
}

// NewNormalized builds a distribution by dividing weights by their sum.
func NewNormalized[T any](weights []float32, items []T) (Categorical[T], error) {
	if len(weights) != len(items) {
		return Categorical[T]{}, fmt.Errorf("dist: %d weights for %d items", len(weights), len(items))
	}
	var sum float32
	for _, w := range weights {
		if math32.IsNaN(w) {
			return Categorical[T]{}, errors.New("dist: NaN weight")
		}
		sum += w
	}
	if sum < minMass {
		return Categorical[T]{}, errZeroMass
	}
	probs := make([]float32, len(weights))
	for i, w := range weights {
		probs[i] = w / sum
	}
	return Categorical[T]{probs: probs, items: items}, nil
}

// Items returns the item vector.
func (c Categorical[T]) Items() []T { return c.items }

// Probs returns the probability vector.
func (c Categorical[T]) Probs() []float32 { return c.probs }

// Len returns the number of items.
func (c Categorical[T]) Len() int { return len(c.items) }

// Sample draws one item with its index and probability. Single pass over the
// probability vector; the final positive entry absorbs rounding slack.
func (c Categorical[T]) Sample(rng *rand.Rand) (T, int, float32) {
	if len(c.items) == 0 {
		panic("dist: sample from empty distribution")
	}
	r := rng.Float32()
	last := -1
	for i, p := range c.probs {
		if p <= 0 {
			continue
		}
		last = i
		r -= p
		if r < 0 {
			return c.items[i], i, p
		}
	}
	if last < 0 {
		panic("dist: sample from zero-mass distribution")
	}
	return c.items[last], last, c.probs[last]
}

// WithMask zeroes probabilities where mask is false and renormalizes. When all
// surviving mass is below minMass the result is uniform over the mask.
func (c Categorical[T]) WithMask(mask []bool) (Categorical[T], error) {
	if len(mask) != len(c.probs) {
		return Categorical[T]{}, fmt.Errorf("dist: mask length %d, distribution length %d", len(mask), len(c.probs))
	}
	masked := make([]float32, len(c.probs))
	degenerate := true
	for i, p := range c.probs {
		if mask[i] {
			masked[i] = p
			if p >= minMass {
				degenerate = false
			}
		}
	}
	if degenerate {
		for i, m := range mask {
			if m {
				masked[i] = 1
			} else {
				masked[i] = 0
			}
		}
	}
	return NewNormalized(masked, c.items)
}
