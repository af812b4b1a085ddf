package solver

import (
	"fmt"
	rand "math/rand/v2"

	"github.com/chewxy/math32"

	"github.com/lox/mccfr/abstraction"
	"github.com/lox/mccfr/dist"
	"github.com/lox/mccfr/efg"
	"github.com/lox/mccfr/strategy"
)

// MCCFR runs Average Sampling MCCFR iterations for one worker. Each worker
// owns its game and RNG; the per-player strategy stores are shared.
type MCCFR struct {
	rules  efg.Rules
	game   *efg.Game
	stores []*strategy.Store
	mapper *abstraction.GameMapper
	hyper  Hyperparams
	rng    *rand.Rand

	// NodesTraversed counts every node visited across iterations.
	NodesTraversed int64
}

// NewMCCFR constructs a worker iterating the given rules against the shared
// stores (one per regular player).
func NewMCCFR(rules efg.Rules, stores []*strategy.Store, mapper *abstraction.GameMapper, hyper Hyperparams, rng *rand.Rand) *MCCFR {
	if len(stores) != efg.NumRegularPlayers {
		panic(fmt.Sprintf("solver: %d stores for %d players", len(stores), efg.NumRegularPlayers))
	}
	if mapper == nil {
		mapper = abstraction.NewGameMapper()
	}
	return &MCCFR{
		rules:  rules,
		stores: stores,
		mapper: mapper,
		hyper:  hyper,
		rng:    rng,
	}
}

// RunIteration performs one outer iteration: a fresh traversal for each
// regular player in turn.
func (m *MCCFR) RunIteration() {
	for player := 0; player < efg.NumRegularPlayers; player++ {
		m.game = efg.NewGameFromRules(m.rules)
		m.traverse(player, 0, 1)
	}
}

// traverse walks the game from the current node and returns the sampled
// counterfactual value for the updated player, scaled by 1/q. q is the
// cumulative sampling probability along the traversed path.
func (m *MCCFR) traverse(updated int, depth int, q float32) float32 {
	m.NodesTraversed++
	if depth >= efg.MaxGameDepth {
		panic(fmt.Sprintf("solver: traversal exceeded max depth %d", efg.MaxGameDepth))
	}

	active := m.game.ActivePlayer()
	switch active.Kind() {
	case efg.NodeTerminal:
		return active.Utilities()[updated] / q

	case efg.NodeChance:
		action, index, _ := active.Chance().Sample(m.rng)
		mapped, _ := m.mapper.MapAndIndex(action, depth, efg.ActionIndex(index))
		m.game.Play(mapped)
		return m.traverse(updated, depth+1, q)

	case efg.NodeMarker:
		// Markers are not decisions; play through without recording regret.
		m.game.Play(active.Marker())
		return m.traverse(updated, depth+1, q)

	case efg.NodePlayer:
		return m.playerNode(active, updated, depth, q)
	}
	panic("solver: unknown node kind")
}

func (m *MCCFR) playerNode(active efg.ActivePlayer, updated, depth int, q float32) float32 {
	legal := m.mapper.MapActions(active.Legal(), depth)
	if len(legal) == 0 {
		panic("solver: abstraction produced empty legal set at a decision node")
	}

	n := m.rules.NumActions
	mask := make([]bool, n)
	byIndex := make([]efg.Action, n)
	for _, a := range legal {
		idx := int(a.Index())
		mask[idx] = true
		byIndex[idx] = a
	}

	player := active.Player()
	key := m.game.InfoSet(player)
	store := m.stores[player]

	var regretDist []float32
	if regrets, ok := store.Regrets(key); ok {
		regretDist = regretMatching(regrets, mask)
	} else {
		regretDist = uniformOverMask(mask, n)
	}

	if player != updated {
		// Average the opponent's current strategy, importance-weighted by
		// the sampling probability of reaching this node.
		weighted := make([]float32, n)
		for i, r := range regretDist {
			weighted[i] = r / q
		}
		store.Update(key, nil, weighted)

		cat, err := dist.NewNormalized(regretDist, byIndex)
		if err != nil {
			panic(fmt.Sprintf("solver: opponent distribution at key %d: %v", key, err))
		}
		cat, err = cat.WithMask(mask)
		if err != nil {
			panic(fmt.Sprintf("solver: opponent mask at key %d: %v", key, err))
		}
		sampled, _, _ := cat.Sample(m.rng)
		m.game.Play(sampled)
		return m.traverse(updated, depth+1, q)
	}

	// Updated player: make sure the policy row exists before sampling from it.
	policy, ok := store.Policy(key)
	if !ok {
		store.Update(key, nil, make([]float32, n))
		policy = make([]float32, n)
	}
	sampling := averageSampling(policy, m.hyper.Exploration, m.hyper.Bonus, m.hyper.Threshold)

	values := make([]float32, n)
	for i := 0; i < n; i++ {
		if !mask[i] {
			continue
		}
		if m.rng.Float32() >= sampling[i] {
			continue
		}
		branch := m.game
		m.game = branch.Clone()
		m.game.Play(byIndex[i])
		values[i] = m.traverse(updated, depth+1, q*math32.Min(sampling[i], 1))
		m.game = branch
	}

	// Expected value under the current mixed strategy; using regretDist
	// rather than the sampling weights keeps the estimator unbiased.
	var baseline float32
	for i := 0; i < n; i++ {
		baseline += values[i] * regretDist[i]
	}
	if math32.IsNaN(baseline) {
		panic(fmt.Sprintf("solver: NaN baseline at key %d", key))
	}

	deltaRegret := make([]float32, n)
	for i := 0; i < n; i++ {
		if mask[i] {
			deltaRegret[i] = values[i] - baseline
		}
	}
	store.Update(key, deltaRegret, nil)
	return baseline
}

// averageSampling computes per-action sampling probabilities
// max(e, (b + t*s) / (b + sum(s))). These are not a distribution; each legal
// action is sampled independently.
func averageSampling(policy []float32, e, b, t float32) []float32 {
	var sum float32
	for _, s := range policy {
		sum += s
	}
	denominator := sum + b
	out := make([]float32, len(policy))
	if denominator <= 0 {
		// Zero bonus against an untouched policy row: only the exploration
		// floor keeps sampling alive.
		for i := range out {
			out[i] = e
		}
		return out
	}
	for i, s := range policy {
		out[i] = math32.Max(e, (b+t*s)/denominator)
	}
	return out
}

// regretMatching converts cumulative regret into a distribution proportional
// to positive regret, uniform over the mask when no positive regret remains.
func regretMatching(regrets []float32, mask []bool) []float32 {
	n := len(regrets)
	out := make([]float32, n)
	var sum float32
	for i, r := range regrets {
		if mask[i] && r > 0 {
			out[i] = r
			sum += r
		}
	}
	if sum > 0 {
		for i := range out {
			out[i] /= sum
		}
		return out
	}
	return uniformOverMask(mask, n)
}

func uniformOverMask(mask []bool, n int) []float32 {
	count := 0
	for _, m := range mask {
		if m {
			count++
		}
	}
	if count == 0 {
		panic("solver: mask with no legal actions")
	}
	out := make([]float32, n)
	p := 1 / float32(count)
	for i, m := range mask {
		if m {
			out[i] = p
		}
	}
	return out
}
