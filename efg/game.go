package efg

// Game wraps a State with the observation tracker that derives per-player
// information sets from its transitions.
type Game struct {
	tracker *ObservationTracker
	state   State
}

// NewGame constructs a fresh game from the factory.
func NewGame(factory StateFactory) *Game {
	return &Game{
		tracker: NewObservationTracker(),
		state:   factory(),
	}
}

// Play advances the game by one action. Querying the active player, recording
// the action's observations and updating the state form a single logical
// transition; callers must not interleave other calls.
func (g *Game) Play(action Action) {
	active := g.state.ActivePlayer()
	for _, obs := range g.state.ObservationsAfter(action) {
		g.tracker.Observe(obs, active)
	}
	g.state.Update(action)
}

// ActivePlayer reports the current node.
func (g *Game) ActivePlayer() ActivePlayer {
	return g.state.ActivePlayer()
}

// InfoSet returns the condensed information-set key for the given player.
func (g *Game) InfoSet(player int) InfoKey {
	return Condense(g.tracker.History(player))
}

// History returns the player's raw observable summary.
func (g *Game) History(player int) History {
	return g.tracker.History(player)
}

// Clone returns an independent copy of the game for branching traversals.
func (g *Game) Clone() *Game {
	return &Game{
		tracker: g.tracker.Clone(),
		state:   g.state.Clone(),
	}
}
