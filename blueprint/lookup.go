package blueprint

import (
	"fmt"
	"sort"

	"github.com/lox/mccfr/efg"
	"github.com/lox/mccfr/strategy"
)

// FailCutoff is the loss contributed by an Exact slot that does not match.
// Any candidate reaching it is treated as no fit at all.
const FailCutoff float32 = 1e6

// FitKind selects how a feature slot is compared during nearest-fit lookup.
type FitKind uint8

const (
	// FitExact requires the slot to match; a mismatch disqualifies the
	// candidate.
	FitExact FitKind = iota
	// FitDifference accepts any value, contributing the absolute distance
	// as loss.
	FitDifference
	// FitRange accepts values within [-Down, +Up] of the query,
	// contributing the absolute distance as loss.
	FitRange
)

// FitFunction is the per-slot comparison rule.
type FitFunction struct {
	Kind FitKind
	Up   uint8 // FitRange only
	Down uint8 // FitRange only
}

// Exact requires a matching slot value.
func Exact() FitFunction { return FitFunction{Kind: FitExact} }

// Difference accepts any slot value at a cost of its distance.
func Difference() FitFunction { return FitFunction{Kind: FitDifference} }

// Range accepts slot values within down below and up above the query.
func Range(up, down uint8) FitFunction { return FitFunction{Kind: FitRange, Up: up, Down: down} }

// Evaluator yields the per-slot fit functions for a query history. Games
// typically key this on the round tag encoded in the feature vector.
type Evaluator interface {
	Fits(h efg.History) []FitFunction
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(h efg.History) []FitFunction

// Fits implements Evaluator.
func (f EvaluatorFunc) Fits(h efg.History) []FitFunction { return f(h) }

// Lookup answers policy queries against one player's compressed entries.
type Lookup struct {
	keys       []efg.InfoKey
	policies   [][]Word
	numActions int
}

// Lookup builds the query view for one player.
func (p *Pack) Lookup(player int) (*Lookup, error) {
	if player < 0 || player >= len(p.Players) {
		return nil, fmt.Errorf("blueprint: player %d out of range", player)
	}
	entries := p.Players[player]
	l := &Lookup{
		keys:       make([]efg.InfoKey, len(entries)),
		policies:   make([][]Word, len(entries)),
		numActions: p.NumActions,
	}
	for i, e := range entries {
		l.keys[i] = e.Key
		l.policies[i] = e.Policy
	}
	return l, nil
}

// Len returns the number of stored information sets.
func (l *Lookup) Len() int { return len(l.keys) }

// Exact returns the stored policy for key, filtered to actions with
// probability above cutoff and renormalized. ok is false when the key is
// absent.
func (l *Lookup) Exact(key efg.InfoKey, cutoff float32) ([]float32, bool) {
	i := sort.Search(len(l.keys), func(i int) bool { return l.keys[i] >= key })
	if i >= len(l.keys) || l.keys[i] != key {
		return nil, false
	}
	policy := Decompress(l.policies[i], l.numActions)
	for j, p := range policy {
		if p < cutoff {
			policy[j] = 0
		}
	}
	return strategy.Normalized(policy), true
}

// NearestFit returns the policy of the stored key closest to the query
// under the evaluator's per-slot fit functions, along with the total loss.
// ok is false when no candidate in the induced key window qualifies.
//
// The query's history determines a per-slot [min, max] window; because
// condensed keys are mixed-radix packed, the window condenses to a
// contiguous key range that is range-scanned on the sorted key slice.
func (l *Lookup) NearestFit(key efg.InfoKey, eval Evaluator) ([]float32, float32, bool) {
	query := efg.Decondense(key)
	if len(query) == 0 {
		return nil, 0, false
	}
	fits := eval.Fits(query)
	if len(fits) != len(query) {
		panic(fmt.Sprintf("blueprint: evaluator returned %d fits for %d slots", len(fits), len(query)))
	}

	mins := make(efg.History, len(query))
	maxs := make(efg.History, len(query))
	for i, fit := range fits {
		switch fit.Kind {
		case FitExact:
			mins[i], maxs[i] = query[i], query[i]
		case FitDifference:
			mins[i], maxs[i] = 0, uint8(efg.CondenseRadix-1)
		case FitRange:
			lo := int(query[i]) - int(fit.Down)
			if lo < 0 {
				lo = 0
			}
			hi := int(query[i]) + int(fit.Up)
			if hi > int(efg.CondenseRadix-1) {
				hi = int(efg.CondenseRadix - 1)
			}
			mins[i], maxs[i] = uint8(lo), uint8(hi)
		}
	}

	minKey := efg.Condense(mins)
	maxKey := efg.Condense(maxs)

	lo := sort.Search(len(l.keys), func(i int) bool { return l.keys[i] >= minKey })
	hi := sort.Search(len(l.keys), func(i int) bool { return l.keys[i] > maxKey })

	bestLoss := FailCutoff
	bestIdx := -1
	for i := lo; i < hi; i++ {
		candidate := efg.Decondense(l.keys[i])
		if len(candidate) != len(query) {
			continue
		}
		loss := fitLoss(query, candidate, fits)
		if loss < bestLoss {
			bestLoss = loss
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return nil, 0, false
	}
	return strategy.Normalized(Decompress(l.policies[bestIdx], l.numActions)), bestLoss, true
}

func fitLoss(query, candidate efg.History, fits []FitFunction) float32 {
	var loss float32
	for i, fit := range fits {
		delta := int(candidate[i]) - int(query[i])
		if delta < 0 {
			delta = -delta
		}
		switch fit.Kind {
		case FitExact:
			if delta != 0 {
				return FailCutoff
			}
		case FitDifference:
			loss += float32(delta)
		case FitRange:
			if candidate[i] > query[i] {
				if delta > int(fit.Up) {
					return FailCutoff
				}
			} else if delta > int(fit.Down) {
				return FailCutoff
			}
			loss += float32(delta)
		}
	}
	return loss
}
