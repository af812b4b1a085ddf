package abstraction

import (
	"fmt"

	"github.com/lox/mccfr/efg"
)

// ActionMapper is an ordered list of (predicate, representative) pairs. An
// input action maps to the representative of the first matching predicate;
// the pair's position is the action's group index.
type ActionMapper struct {
	groups []mapperGroup
}

type mapperGroup struct {
	filter *Filter
	repr   efg.Action
}

// NewActionMapper returns an empty mapper.
func NewActionMapper() *ActionMapper {
	return &ActionMapper{}
}

// AddGroup appends a predicate and its representative action.
func (m *ActionMapper) AddGroup(filter *Filter, repr efg.Action) {
	m.groups = append(m.groups, mapperGroup{filter: filter, repr: repr})
}

// NumGroups returns the number of groups installed.
func (m *ActionMapper) NumGroups() int {
	return len(m.groups)
}

// Map returns the representative and group index for the action. A
// non-matching action means the predicates do not span the action space,
// which is a misconfigured abstraction.
func (m *ActionMapper) Map(a efg.Action) (efg.Action, int) {
	for i, g := range m.groups {
		if g.filter.Accepts(a) {
			return g.repr, i
		}
	}
	panic(fmt.Sprintf("abstraction: no predicate matches action %s; filters must span the action space", a))
}

// GameMapper installs an optional ActionMapper per tree depth. Depths with no
// mapper pass raw actions through untouched.
type GameMapper struct {
	depthMaps []*ActionMapper
}

// NewGameMapper returns a mapper with no per-depth abstractions.
func NewGameMapper() *GameMapper {
	return &GameMapper{depthMaps: make([]*ActionMapper, efg.MaxGameDepth)}
}

// SetDepth installs (or clears, with nil) the mapper for one depth.
func (g *GameMapper) SetDepth(depth int, m *ActionMapper) {
	g.depthMaps[depth] = m
}

// MapAndIndex rewrites a single action (used on sampled chance outcomes).
// Without a mapper at this depth the action and its default index pass
// through unchanged.
func (g *GameMapper) MapAndIndex(a efg.Action, depth int, defaultIndex efg.ActionIndex) (efg.Action, efg.ActionIndex) {
	m := g.depthMaps[depth]
	if m == nil {
		return a, defaultIndex
	}
	repr, group := m.Map(a)
	return repr, efg.ActionIndex(group)
}

// MapActions maps each legal action and collapses the result to one
// representative per group: the median element by the group's natural order.
// Actions collapsed into a group must share their natural action index, or
// the abstraction would silently merge distinguishable moves. Without a mapper
// at this depth the legal actions pass through unchanged.
func (g *GameMapper) MapActions(legal []efg.Action, depth int) []efg.Action {
	m := g.depthMaps[depth]
	if m == nil {
		return legal
	}
	mapped := make([]efg.Action, len(legal))
	for i, a := range legal {
		repr, _ := m.Map(a)
		if repr.Index() != a.Index() {
			panic(fmt.Sprintf("abstraction: representative %s (index %d) does not share index with %s (index %d)",
				repr, repr.Index(), a, a.Index()))
		}
		mapped[i] = repr
	}

	// Group by action index while preserving order, then take each group's
	// median element.
	var order []efg.ActionIndex
	groups := make(map[efg.ActionIndex][]efg.Action, len(mapped))
	for _, a := range mapped {
		idx := a.Index()
		if _, ok := groups[idx]; !ok {
			order = append(order, idx)
		}
		groups[idx] = append(groups[idx], a)
	}

	out := make([]efg.Action, 0, len(order))
	for _, idx := range order {
		group := groups[idx]
		out = append(out, group[len(group)/2])
	}
	return out
}
