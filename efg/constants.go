package efg

const (
	// NumRegularPlayers is the number of decision-making players. Chance is
	// modelled separately and never owns an information set.
	NumRegularPlayers = 2

	// MaxGameDepth bounds traversal recursion. Games must terminate before
	// this many transitions.
	MaxGameDepth = 1000

	// HotEncodingSize is the width of the one-hot action encoding exposed to
	// strategy consumers that need fixed-size vectors.
	HotEncodingSize = 30
)
