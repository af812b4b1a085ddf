// Package abstraction collapses raw legal actions into the fixed-size
// abstract action space the solver trains over.
package abstraction

import (
	"regexp"

	"github.com/lox/mccfr/efg"
)

// Valuer is implemented by actions with a natural magnitude (bet sizes,
// card ranks) so Range filters can match on it.
type Valuer interface {
	NumericValue() (int, bool)
}

type filterKind uint8

const (
	filterRaw filterKind = iota
	filterRegex
	filterRange
	filterAnd
	filterOr
	filterNot
)

// Filter is a predicate over actions, built from raw equality, numeric
// ranges and regexes over the action's string form, combined with
// And/Or/Not.
type Filter struct {
	kind    filterKind
	raw     efg.Action
	re      *regexp.Regexp
	lo, hi  int
	sub     []*Filter
}

// Raw matches exactly the given action.
func Raw(a efg.Action) *Filter {
	return &Filter{kind: filterRaw, raw: a}
}

// Regex matches actions whose string form matches the pattern. The pattern
// must compile; a broken abstraction is a configuration error.
func Regex(pattern string) *Filter {
	return &Filter{kind: filterRegex, re: regexp.MustCompile(pattern)}
}

// Range matches actions whose numeric value lies in [lo, hi].
func Range(lo, hi int) *Filter {
	return &Filter{kind: filterRange, lo: lo, hi: hi}
}

// And matches when both filters match.
func (f *Filter) And(g *Filter) *Filter {
	return &Filter{kind: filterAnd, sub: []*Filter{f, g}}
}

// Or matches when either filter matches.
func (f *Filter) Or(g *Filter) *Filter {
	return &Filter{kind: filterOr, sub: []*Filter{f, g}}
}

// Not inverts the filter.
func (f *Filter) Not() *Filter {
	return &Filter{kind: filterNot, sub: []*Filter{f}}
}

// Accepts reports whether the filter matches the action.
func (f *Filter) Accepts(a efg.Action) bool {
	switch f.kind {
	case filterRaw:
		return a == f.raw
	case filterRegex:
		return f.re.MatchString(a.String())
	case filterRange:
		v, ok := a.(Valuer)
		if !ok {
			return false
		}
		n, ok := v.NumericValue()
		return ok && n >= f.lo && n <= f.hi
	case filterAnd:
		return f.sub[0].Accepts(a) && f.sub[1].Accepts(a)
	case filterOr:
		return f.sub[0].Accepts(a) || f.sub[1].Accepts(a)
	case filterNot:
		return !f.sub[0].Accepts(a)
	}
	return false
}
