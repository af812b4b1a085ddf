package solver

import (
	"testing"

	"github.com/lox/mccfr/dist"
	"github.com/lox/mccfr/efg"
	"github.com/lox/mccfr/internal/randutil"
	"github.com/lox/mccfr/strategy"
)

// The phased game exercises marker nodes and feature-vector observations:
// chance flips a hidden coin, a phase marker publishes the coin as a feature
// bucket to player 0, and player 0 must pick the matching side. Player 1
// never acts.
type phasedAction uint8

const (
	coinA phasedAction = iota
	coinB
	phaseMark
	pickLeft
	pickRight
)

func (a phasedAction) Index() efg.ActionIndex { return efg.ActionIndex(a) }

func (a phasedAction) String() string {
	return [...]string{"coin-a", "coin-b", "phase", "left", "right"}[a]
}

const phasedNumActions = 5

type phasedState struct {
	stage  int
	coin   phasedAction
	picked phasedAction
}

func phasedRules() efg.Rules {
	return efg.Rules{
		Name:       "phased",
		NumActions: phasedNumActions,
		NewState:   func() efg.State { return &phasedState{} },
	}
}

func (s *phasedState) ActivePlayer() efg.ActivePlayer {
	switch s.stage {
	case 0:
		return efg.ChanceNode(dist.Uniform([]efg.Action{coinA, coinB}))
	case 1:
		return efg.MarkerNode(phaseMark)
	case 2:
		return efg.PlayerTurn(0, []efg.Action{pickLeft, pickRight})
	default:
		payoff := float32(-1)
		if (s.coin == coinA) == (s.picked == pickLeft) {
			payoff = 1
		}
		return efg.TerminalNode([]float32{payoff, -payoff})
	}
}

func (s *phasedState) ObservationsAfter(action efg.Action) []efg.Observation {
	switch s.stage {
	case 0:
		// The coin itself is observed by nobody.
		return []efg.Observation{efg.Public(efg.DiscardInfo())}
	case 1:
		// The phase boundary publishes a round tag and the coin bucket to
		// player 0 as their new summary.
		return []efg.Observation{efg.Shared(efg.FeaturesInfo([]uint8{1, uint8(s.coin)}), 0)}
	default:
		return []efg.Observation{efg.Public(efg.ActionInfo(action))}
	}
}

func (s *phasedState) Update(action efg.Action) {
	switch s.stage {
	case 0:
		s.coin = action.(phasedAction)
	case 2:
		s.picked = action.(phasedAction)
	}
	s.stage++
}

func (s *phasedState) Clone() efg.State {
	c := *s
	return &c
}

func TestPhasedGameLearnsFromFeatures(t *testing.T) {
	stores := []*strategy.Store{strategy.NewStore(), strategy.NewStore()}
	m := NewMCCFR(phasedRules(), stores, nil, DefaultHyperparams(), randutil.New(5))
	for i := 0; i < 3000; i++ {
		m.RunIteration()
	}

	// Exactly the two feature-keyed information sets, none for the marker.
	if got := stores[0].Size(); got != 2 {
		t.Fatalf("expected 2 infosets for player 0, got %d", got)
	}
	if got := stores[1].Size(); got != 0 {
		t.Fatalf("player 1 never acts, expected empty store, got %d entries", got)
	}

	keyA := efg.Condense(efg.History{1, uint8(coinA)})
	keyB := efg.Condense(efg.History{1, uint8(coinB)})

	policyA, ok := stores[0].Policy(keyA)
	if !ok {
		t.Fatalf("missing infoset for coin A at key %d", keyA)
	}
	normA := strategy.Normalized(policyA)
	if normA[pickLeft] < 0.9 {
		t.Fatalf("expected left on coin A, got %v", normA)
	}

	policyB, ok := stores[0].Policy(keyB)
	if !ok {
		t.Fatalf("missing infoset for coin B at key %d", keyB)
	}
	normB := strategy.Normalized(policyB)
	if normB[pickRight] < 0.9 {
		t.Fatalf("expected right on coin B, got %v", normB)
	}
}
