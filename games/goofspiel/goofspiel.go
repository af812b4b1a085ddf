// Package goofspiel implements the bidding card game Goofspiel. A prize card
// is revealed by chance each round; both players secretly bid one of their
// own cards and the higher bid takes the prize's value. It is small enough
// to verify solver behaviour against known equilibria.
package goofspiel

import (
	"fmt"
	"math/bits"

	"github.com/lox/mccfr/dist"
	"github.com/lox/mccfr/efg"
)

// Scoring selects how final scores convert into utilities.
type Scoring uint8

const (
	// ZeroSum pays the score difference.
	ZeroSum Scoring = iota
	// WinLoss pays the sign of the score difference.
	WinLoss
	// Absolute pays each player their raw score.
	Absolute
)

// Card is a bid or prize card with value 1..N. Its action index is its value.
type Card uint8

// Index implements efg.Action.
func (c Card) Index() efg.ActionIndex { return efg.ActionIndex(c) }

func (c Card) String() string { return fmt.Sprintf("card-%d", uint8(c)) }

// NumericValue exposes the card's value to Range filters.
func (c Card) NumericValue() (int, bool) { return int(c), true }

// cardSet is a bitmask over card values.
type cardSet uint32

func fullSet(n int) cardSet {
	var s cardSet
	for v := 1; v <= n; v++ {
		s |= 1 << v
	}
	return s
}

func (s cardSet) remove(c Card) cardSet { return s &^ (1 << c) }

func (s cardSet) count() int { return bits.OnesCount32(uint32(s)) }

func (s cardSet) cards() []efg.Action {
	out := make([]efg.Action, 0, s.count())
	for v := 1; v < 32; v++ {
		if s&(1<<v) != 0 {
			out = append(out, Card(v))
		}
	}
	return out
}

type state struct {
	cards   int
	scoring Scoring
	values  []float32

	hands  [2]cardSet
	pool   cardSet
	prize  Card
	bids   [2]Card
	scores [2]float32
	active efg.ActivePlayer
}

// Rules describes an N-card game with the given scoring. Prize values
// default to the card values.
func Rules(cards int, scoring Scoring) efg.Rules {
	values := make([]float32, cards)
	for i := range values {
		values[i] = float32(i + 1)
	}
	return RulesWithValues(cards, scoring, values)
}

// RulesWithValues describes an N-card game with explicit prize values.
func RulesWithValues(cards int, scoring Scoring, values []float32) efg.Rules {
	if cards < 1 || cards > 31 {
		panic(fmt.Sprintf("goofspiel: card count %d out of range", cards))
	}
	if len(values) != cards {
		panic(fmt.Sprintf("goofspiel: %d values for %d cards", len(values), cards))
	}
	return efg.Rules{
		Name:       fmt.Sprintf("goofspiel-%d", cards),
		NumActions: cards + 1,
		NewState: func() efg.State {
			s := &state{
				cards:   cards,
				scoring: scoring,
				values:  values,
				hands:   [2]cardSet{fullSet(cards), fullSet(cards)},
				pool:    fullSet(cards),
			}
			s.active = efg.ChanceNode(dist.Uniform(s.pool.cards()))
			return s
		},
	}
}

func (s *state) ActivePlayer() efg.ActivePlayer { return s.active }

func (s *state) ObservationsAfter(action efg.Action) []efg.Observation {
	switch s.active.Kind() {
	case efg.NodePlayer:
		// Bids are simultaneous: each player sees only their own.
		return []efg.Observation{efg.Private(efg.ActionInfo(action))}
	case efg.NodeChance:
		return []efg.Observation{efg.Public(efg.ActionInfo(action))}
	}
	panic("goofspiel: observations requested at terminal state")
}

func (s *state) Update(action efg.Action) {
	card, ok := action.(Card)
	if !ok {
		panic(fmt.Sprintf("goofspiel: foreign action %s", action))
	}

	switch s.active.Kind() {
	case efg.NodeChance:
		s.pool = s.pool.remove(card)
		s.prize = card
		s.active = efg.PlayerTurn(0, s.hands[0].cards())

	case efg.NodePlayer:
		player := s.active.Player()
		s.hands[player] = s.hands[player].remove(card)
		s.bids[player] = card

		if player == 0 {
			s.active = efg.PlayerTurn(1, s.hands[1].cards())
			return
		}

		// Round over: the higher bid takes the prize, ties discard it.
		value := s.values[s.prize-1]
		switch {
		case s.bids[0] > s.bids[1]:
			s.scores[0] += value
		case s.bids[1] > s.bids[0]:
			s.scores[1] += value
		}

		if s.pool.count() > 0 {
			s.active = efg.ChanceNode(dist.Uniform(s.pool.cards()))
		} else {
			s.active = s.terminal()
		}

	default:
		panic("goofspiel: update at terminal state")
	}
}

func (s *state) terminal() efg.ActivePlayer {
	delta := s.scores[0] - s.scores[1]
	switch s.scoring {
	case Absolute:
		return efg.TerminalNode([]float32{s.scores[0], s.scores[1]})
	case WinLoss:
		return efg.TerminalNode([]float32{sign(delta), -sign(delta)})
	default:
		return efg.TerminalNode([]float32{delta, -delta})
	}
}

func sign(v float32) float32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func (s *state) Clone() efg.State {
	c := *s
	return &c
}
