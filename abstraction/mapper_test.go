package abstraction

import (
	"fmt"
	"testing"

	"github.com/lox/mccfr/efg"
)

// raise is a bet-sized action; all sizes in the same bucket share an index.
type raise struct {
	size   int
	bucket uint8
}

func (r raise) Index() efg.ActionIndex { return efg.ActionIndex(r.bucket) }
func (r raise) String() string         { return fmt.Sprintf("raise-%d", r.size) }
func (r raise) NumericValue() (int, bool) {
	return r.size, true
}

func TestMapActionsTakesMedianOfSharedIndex(t *testing.T) {
	legal := []efg.Action{
		raise{size: 51, bucket: 4},
		raise{size: 52, bucket: 4},
		raise{size: 53, bucket: 4},
		raise{size: 100, bucket: 5},
	}

	// Each action is its own representative, so grouping happens purely by
	// shared action index.
	m := NewActionMapper()
	for _, a := range legal {
		m.AddGroup(Raw(a), a)
	}
	g := NewGameMapper()
	g.SetDepth(0, m)

	out := g.MapActions(legal, 0)
	if len(out) != 2 {
		t.Fatalf("expected 2 groups, got %d: %v", len(out), out)
	}
	if out[0].(raise).size != 52 {
		t.Fatalf("expected median of the first group, got %v", out[0])
	}
	if out[1].(raise).size != 100 {
		t.Fatalf("expected singleton group representative, got %v", out[1])
	}
}

func TestMapActionsAppliesDepthMapper(t *testing.T) {
	m := NewActionMapper()
	m.AddGroup(Range(0, 75), raise{size: 50, bucket: 4})
	m.AddGroup(Range(76, 200), raise{size: 100, bucket: 5})

	g := NewGameMapper()
	g.SetDepth(0, m)

	legal := []efg.Action{
		raise{size: 40, bucket: 4},
		raise{size: 60, bucket: 4},
		raise{size: 150, bucket: 5},
	}
	out := g.MapActions(legal, 0)
	if len(out) != 2 {
		t.Fatalf("expected 2 abstract actions, got %v", out)
	}
	if out[0].(raise).size != 50 || out[1].(raise).size != 100 {
		t.Fatalf("expected group representatives, got %v", out)
	}

	// Depth 1 has no mapper installed; the raw set passes through.
	out = g.MapActions(legal, 1)
	if len(out) != 3 {
		t.Fatalf("expected passthrough at unmapped depth, got %v", out)
	}
}

func TestMapPanicsWhenFiltersDoNotSpan(t *testing.T) {
	m := NewActionMapper()
	m.AddGroup(Range(0, 10), raise{size: 5, bucket: 1})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unmatched action")
		}
	}()
	m.Map(raise{size: 99, bucket: 2})
}

func TestMapActionsPanicsOnIndexMismatch(t *testing.T) {
	// A representative whose index differs from the mapped action would
	// silently merge distinguishable moves.
	m := NewActionMapper()
	m.AddGroup(Range(0, 100), raise{size: 50, bucket: 9})

	g := NewGameMapper()
	g.SetDepth(0, m)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for representative index mismatch")
		}
	}()
	g.MapActions([]efg.Action{raise{size: 10, bucket: 1}}, 0)
}

func TestMapAndIndexDefaults(t *testing.T) {
	g := NewGameMapper()
	a := raise{size: 10, bucket: 3}
	mapped, idx := g.MapAndIndex(a, 0, 7)
	if mapped != efg.Action(a) || idx != 7 {
		t.Fatalf("expected identity mapping, got %v at %d", mapped, idx)
	}
}

func TestFilterCombinators(t *testing.T) {
	small := Range(0, 50)
	named := Regex(`^raise-1\d$`)

	a := raise{size: 12, bucket: 1}
	if !small.And(named).Accepts(a) {
		t.Fatal("expected and-filter to accept raise-12")
	}
	if small.And(named.Not()).Accepts(a) {
		t.Fatal("expected negated regex to reject raise-12")
	}
	b := raise{size: 99, bucket: 1}
	if !small.Or(Range(90, 100)).Accepts(b) {
		t.Fatal("expected or-filter to accept raise-99")
	}
	if !Raw(efg.Action(a)).Accepts(a) {
		t.Fatal("expected raw filter to accept identical action")
	}
	if Raw(efg.Action(a)).Accepts(b) {
		t.Fatal("expected raw filter to reject different action")
	}
}
