// Package kuhn implements three-card Kuhn poker, the standard analytically
// solved benchmark for CFR-family algorithms.
package kuhn

import (
	"fmt"

	"github.com/lox/mccfr/dist"
	"github.com/lox/mccfr/efg"
)

// Action is a Kuhn poker move. Deals carry the dealt card (0=jack, 1=queen,
// 2=king).
type Action uint8

const (
	Fold Action = iota
	Call
	Check
	DealJack
	DealQueen
	DealKing
	Bet
)

// Index implements efg.Action.
func (a Action) Index() efg.ActionIndex { return efg.ActionIndex(a) }

func (a Action) String() string {
	switch a {
	case Fold:
		return "fold"
	case Call:
		return "call"
	case Check:
		return "check"
	case DealJack:
		return "deal-jack"
	case DealQueen:
		return "deal-queen"
	case DealKing:
		return "deal-king"
	case Bet:
		return "bet"
	}
	return fmt.Sprintf("action-%d", uint8(a))
}

// card returns the dealt card rank for deal actions.
func (a Action) card() int { return int(a) - int(DealJack) }

func deal(card int) Action { return Action(card + int(DealJack)) }

// numActions is the size of the action space (fold..bet).
const numActions = 7

type state struct {
	remaining []int // undealt card ranks
	cards     [2]int
	dealt     int
	active    efg.ActivePlayer
}

// Rules describes the three-card game.
func Rules() efg.Rules {
	return efg.Rules{
		Name:       "kuhn",
		NumActions: numActions,
		NewState: func() efg.State {
			s := &state{
				remaining: []int{0, 1, 2},
				cards:     [2]int{-1, -1},
			}
			s.active = dealer(s.remaining)
			return s
		},
	}
}

func dealer(remaining []int) efg.ActivePlayer {
	deals := make([]efg.Action, len(remaining))
	for i, c := range remaining {
		deals[i] = deal(c)
	}
	return efg.ChanceNode(dist.Uniform(deals))
}

func (s *state) ActivePlayer() efg.ActivePlayer { return s.active }

func (s *state) ObservationsAfter(action efg.Action) []efg.Observation {
	a, ok := action.(Action)
	if !ok {
		panic(fmt.Sprintf("kuhn: foreign action %s", action))
	}
	switch a {
	case DealJack, DealQueen, DealKing:
		// Each deal is visible only to its recipient.
		switch s.dealt {
		case 0:
			return []efg.Observation{efg.Shared(efg.ActionInfo(a), 0)}
		case 1:
			return []efg.Observation{efg.Shared(efg.ActionInfo(a), 1)}
		}
		panic("kuhn: deal after both cards dealt")
	default:
		return []efg.Observation{efg.Public(efg.ActionInfo(a))}
	}
}

func (s *state) Update(action efg.Action) {
	a := action.(Action)
	switch a {
	case DealJack, DealQueen, DealKing:
		card := a.card()
		s.cards[s.dealt] = card
		s.remaining = withoutCard(s.remaining, card)
		s.dealt++
		if s.dealt == 1 {
			s.active = dealer(s.remaining)
		} else {
			s.active = efg.PlayerTurn(0, []efg.Action{Check, Bet})
		}

	case Check:
		if s.active.Player() == 0 {
			s.active = efg.PlayerTurn(1, []efg.Action{Check, Bet})
		} else {
			s.active = s.showdown(1)
		}

	case Bet:
		other := s.active.Player() ^ 1
		s.active = efg.PlayerTurn(other, []efg.Action{Fold, Call})

	case Call:
		s.active = s.showdown(2)

	case Fold:
		// The folder forfeits the ante to the other player.
		if s.active.Player() == 0 {
			s.active = efg.TerminalNode([]float32{-1, 1})
		} else {
			s.active = efg.TerminalNode([]float32{1, -1})
		}

	default:
		panic(fmt.Sprintf("kuhn: unexpected action %s", a))
	}
}

func (s *state) showdown(pot float32) efg.ActivePlayer {
	if s.cards[0] > s.cards[1] {
		return efg.TerminalNode([]float32{pot, -pot})
	}
	return efg.TerminalNode([]float32{-pot, pot})
}

func withoutCard(cards []int, card int) []int {
	out := make([]int, 0, len(cards)-1)
	for _, c := range cards {
		if c != card {
			out = append(out, c)
		}
	}
	return out
}

func (s *state) Clone() efg.State {
	c := *s
	c.remaining = append([]int(nil), s.remaining...)
	return &c
}
