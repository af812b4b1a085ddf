package efg

import (
	"fmt"

	"github.com/lox/mccfr/dist"
)

// NodeKind discriminates the ActivePlayer variants.
type NodeKind uint8

const (
	// NodePlayer means a regular player must choose among legal actions.
	NodePlayer NodeKind = iota
	// NodeChance means the game transitions stochastically.
	NodeChance
	// NodeTerminal means the game is over and utilities are final.
	NodeTerminal
	// NodeMarker is a synthetic single-action node games use to expose phase
	// boundaries to the observation tracker. Markers are not decisions.
	NodeMarker
)

// ActivePlayer describes whose turn it is and what can happen next. It is a
// tagged variant; accessors panic when called on the wrong kind, matching the
// exhaustive-handling contract games rely on.
type ActivePlayer struct {
	kind      NodeKind
	player    int
	legal     []Action
	chance    dist.Categorical[Action]
	utilities []float32
	marker    Action
}

// PlayerTurn builds a decision node for the given player. legal must be
// non-empty and canonically ordered.
func PlayerTurn(player int, legal []Action) ActivePlayer {
	if len(legal) == 0 {
		panic(fmt.Sprintf("efg: player %d turn with no legal actions", player))
	}
	return ActivePlayer{kind: NodePlayer, player: player, legal: legal}
}

// ChanceNode builds a stochastic transition.
func ChanceNode(d dist.Categorical[Action]) ActivePlayer {
	return ActivePlayer{kind: NodeChance, chance: d}
}

// TerminalNode builds a leaf with the final payoff vector.
func TerminalNode(utilities []float32) ActivePlayer {
	return ActivePlayer{kind: NodeTerminal, utilities: utilities}
}

// MarkerNode builds a synthetic node with a single outgoing action.
func MarkerNode(a Action) ActivePlayer {
	return ActivePlayer{kind: NodeMarker, marker: a}
}

// Kind returns the variant tag.
func (ap ActivePlayer) Kind() NodeKind { return ap.kind }

// Player returns the acting player of a NodePlayer node.
func (ap ActivePlayer) Player() int {
	if ap.kind != NodePlayer {
		panic("efg: Player called on non-player node")
	}
	return ap.player
}

// PlayerIndex returns the acting player and true for NodePlayer nodes, and
// (0, false) otherwise. Used when recording private observations.
func (ap ActivePlayer) PlayerIndex() (int, bool) {
	if ap.kind != NodePlayer {
		return 0, false
	}
	return ap.player, true
}

// Legal returns the legal actions of a NodePlayer node.
func (ap ActivePlayer) Legal() []Action {
	if ap.kind != NodePlayer {
		panic("efg: Legal called on non-player node")
	}
	return ap.legal
}

// Chance returns the distribution of a NodeChance node.
func (ap ActivePlayer) Chance() dist.Categorical[Action] {
	if ap.kind != NodeChance {
		panic("efg: Chance called on non-chance node")
	}
	return ap.chance
}

// Utilities returns the payoff vector of a NodeTerminal node.
func (ap ActivePlayer) Utilities() []float32 {
	if ap.kind != NodeTerminal {
		panic("efg: Utilities called on non-terminal node")
	}
	return ap.utilities
}

// Marker returns the single outgoing action of a NodeMarker node.
func (ap ActivePlayer) Marker() Action {
	if ap.kind != NodeMarker {
		panic("efg: Marker called on non-marker node")
	}
	return ap.marker
}

// State is the game-specific rules machine. The solver clones it whenever a
// traversal explores more than one child of a node.
type State interface {
	// ActivePlayer reports the current node.
	ActivePlayer() ActivePlayer

	// ObservationsAfter returns the records caused by playing action in the
	// current state. It is called before Update; the active player at that
	// moment determines who sees Private records.
	ObservationsAfter(action Action) []Observation

	// Update advances the state by the given action.
	Update(action Action)

	// Clone returns an independent copy.
	Clone() State
}

// StateFactory constructs the initial state of a fresh game.
type StateFactory func() State
