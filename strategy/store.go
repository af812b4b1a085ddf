// Package strategy holds the shared tabular regret/policy store the solver
// workers update concurrently.
package strategy

import (
	"fmt"
	"sync"

	"github.com/lox/mccfr/efg"
)

const shardCount = 64
const shardMask = shardCount - 1

type shard struct {
	mu      sync.RWMutex
	entries map[efg.InfoKey]*entry
}

// entry accumulates cumulative regret and cumulative strategy mass for one
// information set. Vector lengths are fixed at first insertion.
type entry struct {
	mu     sync.Mutex
	regret []float32
	policy []float32
}

// Store maps condensed info-set keys to (cumulative regret, cumulative
// strategy mass) vectors. All operations are safe for concurrent use;
// updates on disjoint keys proceed in parallel across shards.
type Store struct {
	shards [shardCount]shard
}

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i].entries = make(map[efg.InfoKey]*entry)
	}
	return s
}

func (s *Store) shardFor(key efg.InfoKey) *shard {
	// FNV-1a over the key bytes.
	const offset32 = 2166136261
	const prime32 = 16777619
	var h uint32 = offset32
	for i := 0; i < 8; i++ {
		h ^= uint32(key >> (8 * i) & 0xff)
		h *= prime32
	}
	return &s.shards[h&shardMask]
}

func (s *Store) get(key efg.InfoKey) (*entry, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	e, ok := sh.entries[key]
	sh.mu.RUnlock()
	return e, ok
}

func (s *Store) getOrCreate(key efg.InfoKey, n int) *entry {
	sh := s.shardFor(key)
	sh.mu.RLock()
	e, ok := sh.entries[key]
	sh.mu.RUnlock()
	if ok {
		return e
	}

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok = sh.entries[key]; ok {
		return e
	}
	e = &entry{
		regret: make([]float32, n),
		policy: make([]float32, n),
	}
	sh.entries[key] = e
	return e
}

// Regrets returns a snapshot copy of the cumulative regret vector.
func (s *Store) Regrets(key efg.InfoKey) ([]float32, bool) {
	e, ok := s.get(key)
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	out := append([]float32(nil), e.regret...)
	e.mu.Unlock()
	return out, true
}

// Policy returns a snapshot copy of the cumulative strategy-mass vector.
func (s *Store) Policy(key efg.InfoKey) ([]float32, bool) {
	e, ok := s.get(key)
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	out := append([]float32(nil), e.policy...)
	e.mu.Unlock()
	return out, true
}

// Update upserts the entry for key (zero vectors on first touch) and adds the
// provided deltas to the corresponding vectors. At most one delta may be nil;
// lengths must match the entry's fixed vector length.
func (s *Store) Update(key efg.InfoKey, dRegret, dPolicy []float32) {
	n := len(dRegret)
	if n == 0 {
		n = len(dPolicy)
	}
	if n == 0 {
		panic("strategy: update with neither regret nor policy delta")
	}
	if dRegret != nil && dPolicy != nil && len(dRegret) != len(dPolicy) {
		panic(fmt.Sprintf("strategy: regret delta length %d, policy delta length %d", len(dRegret), len(dPolicy)))
	}

	e := s.getOrCreate(key, n)
	e.mu.Lock()
	defer e.mu.Unlock()
	if n != len(e.regret) {
		panic(fmt.Sprintf("strategy: delta length %d, entry length %d for key %d", n, len(e.regret), key))
	}
	for i, d := range dRegret {
		e.regret[i] += d
	}
	for i, d := range dPolicy {
		e.policy[i] += d
	}
}

// Size returns the number of information sets tracked.
func (s *Store) Size() int {
	total := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		total += len(sh.entries)
		sh.mu.RUnlock()
	}
	return total
}

// Keys returns every key currently present, in no particular order.
func (s *Store) Keys() []efg.InfoKey {
	out := make([]efg.InfoKey, 0, s.Size())
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for k := range sh.entries {
			out = append(out, k)
		}
		sh.mu.RUnlock()
	}
	return out
}
