package strategy

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/lox/mccfr/efg"
)

// nearZero is the cutoff below which a strategy entry counts as unvisited.
const nearZero = 1e-4

// PolicyRow is one (info key, normalized policy) pair in the training output.
// It serializes as a JSON 2-tuple.
type PolicyRow struct {
	Key    efg.InfoKey
	Policy []float32
}

// MarshalJSON encodes the row as [key, policy].
func (r PolicyRow) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{r.Key, r.Policy})
}

// UnmarshalJSON decodes a [key, policy] tuple.
func (r *PolicyRow) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &r.Key); err != nil {
		return fmt.Errorf("strategy: decode row key: %w", err)
	}
	if err := json.Unmarshal(raw[1], &r.Policy); err != nil {
		return fmt.Errorf("strategy: decode row policy: %w", err)
	}
	return nil
}

// Normalized divides the vector by its sum and rounds to four decimal places.
// A zero-sum vector normalizes to itself.
func Normalized(v []float32) []float32 {
	var sum float32
	for _, e := range v {
		sum += e
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	for i, e := range v {
		out[i] = float32(math.Round(float64(e/sum)*10000) / 10000)
	}
	return out
}

// SaveJSON writes the store's normalized policies as a JSON array of
// [key, policy] tuples in ascending key order. Entries whose strategy mass is
// all near zero, or that carry no real decision, are skipped.
func (s *Store) SaveJSON(w io.Writer) error {
	keys := s.Keys()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	rows := make([]PolicyRow, 0, len(keys))
	for _, key := range keys {
		policy, ok := s.Policy(key)
		if !ok {
			continue
		}
		if len(policy) == 1 {
			continue
		}
		visited := false
		for _, p := range policy {
			if p >= nearZero {
				visited = true
				break
			}
		}
		if !visited {
			continue
		}
		rows = append(rows, PolicyRow{Key: key, Policy: Normalized(policy)})
	}
	return json.NewEncoder(w).Encode(rows)
}

// LoadJSON reads a JSON policy table produced by SaveJSON.
func LoadJSON(r io.Reader) ([]PolicyRow, error) {
	var rows []PolicyRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("strategy: decode policy table: %w", err)
	}
	return rows, nil
}

// Snapshot is the full state of one entry, used by training checkpoints.
type Snapshot struct {
	Key    efg.InfoKey `json:"key"`
	Regret []float32   `json:"regret"`
	Policy []float32   `json:"policy"`
}

// Snapshots returns a copy of every entry, in ascending key order.
func (s *Store) Snapshots() []Snapshot {
	keys := s.Keys()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]Snapshot, 0, len(keys))
	for _, key := range keys {
		regret, _ := s.Regrets(key)
		policy, _ := s.Policy(key)
		out = append(out, Snapshot{Key: key, Regret: regret, Policy: policy})
	}
	return out
}

// Restore loads entries from snapshots, replacing anything already present
// under the same keys.
func (s *Store) Restore(snaps []Snapshot) {
	for _, snap := range snaps {
		sh := s.shardFor(snap.Key)
		sh.mu.Lock()
		sh.entries[snap.Key] = &entry{
			regret: append([]float32(nil), snap.Regret...),
			policy: append([]float32(nil), snap.Policy...),
		}
		sh.mu.Unlock()
	}
}
