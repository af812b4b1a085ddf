package strategy

import (
	"bytes"
	"testing"
)

func TestSaveJSONSkipsUnvisitedAndTrivialEntries(t *testing.T) {
	s := NewStore()
	s.Update(10, nil, []float32{3, 1})
	s.Update(11, nil, []float32{0, 0})  // never visited
	s.Update(12, nil, []float32{1})     // single action, no decision
	s.Update(13, nil, []float32{2, 2})

	var buf bytes.Buffer
	if err := s.SaveJSON(&buf); err != nil {
		t.Fatalf("save json: %v", err)
	}

	rows, err := LoadJSON(&buf)
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
	if rows[0].Key != 10 || rows[1].Key != 13 {
		t.Fatalf("expected keys in ascending order, got %v", rows)
	}
	if rows[0].Policy[0] != 0.75 || rows[0].Policy[1] != 0.25 {
		t.Fatalf("expected normalized policy, got %v", rows[0].Policy)
	}
}

func TestPolicyRowTupleEncoding(t *testing.T) {
	row := PolicyRow{Key: 201, Policy: []float32{0.5, 0.5}}
	data, err := row.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `[201,[0.5,0.5]]`; string(data) != want {
		t.Fatalf("encoded row %s, want %s", data, want)
	}

	var decoded PolicyRow
	if err := decoded.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Key != 201 || len(decoded.Policy) != 2 {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}

func TestSnapshotsRestoreRoundTrip(t *testing.T) {
	s := NewStore()
	s.Update(1, []float32{1, -2}, []float32{0.5, 0.5})
	s.Update(2, []float32{3, 4}, nil)

	restored := NewStore()
	restored.Restore(s.Snapshots())

	for _, key := range []uint64{1, 2} {
		want, _ := s.Regrets(key)
		got, ok := restored.Regrets(key)
		if !ok {
			t.Fatalf("missing key %d after restore", key)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("regret mismatch at key %d: %v vs %v", key, got, want)
			}
		}
	}
}

func TestNormalizedZeroVector(t *testing.T) {
	out := Normalized([]float32{0, 0})
	if out[0] != 0 || out[1] != 0 {
		t.Fatalf("zero vector should normalize to itself, got %v", out)
	}
}
