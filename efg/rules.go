package efg

// Rules describes a pluggable game: how to start it and how large its
// bounded action space is.
type Rules struct {
	// Name identifies the game in CLI flags and file metadata.
	Name string

	// NumActions is the size of the game's action space; every legal
	// action's Index is below it.
	NumActions int

	// NewState constructs the initial state of a fresh game.
	NewState StateFactory
}

// NewGameFromRules starts a fresh game of the described rules.
func NewGameFromRules(r Rules) *Game {
	return NewGame(r.NewState)
}
