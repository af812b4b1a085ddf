package blueprint

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/lox/mccfr/efg"
	"github.com/lox/mccfr/internal/fileutil"
	"github.com/lox/mccfr/strategy"
)

// Entry is one compressed information set.
type Entry struct {
	Key    efg.InfoKey
	Policy []Word
}

// Pack is the compressed blueprint for all regular players. Each player's
// entries are kept in ascending key order so lookups can range-scan.
type Pack struct {
	// NumActions is the uncompressed policy length for every entry.
	NumActions int
	Players    [][]Entry
}

// Build compresses per-player policy tables into a pack. Entries whose
// policy is all near zero are dropped.
func Build(players [][]strategy.PolicyRow, numActions int) *Pack {
	pack := &Pack{
		NumActions: numActions,
		Players:    make([][]Entry, len(players)),
	}
	for p, rows := range players {
		entries := make([]Entry, 0, len(rows))
		for _, row := range rows {
			var mass float32
			for _, v := range row.Policy {
				mass += v
			}
			if mass < 1e-4 {
				continue
			}
			entries = append(entries, Entry{Key: row.Key, Policy: Compress(row.Policy)})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
		pack.Players[p] = entries
	}
	return pack
}

// The on-disk layout mirrors bincode's fixint encoding of
// Vec<Vec<(u64, [u128; K])>>: u64 little-endian lengths before each vector,
// then per entry the key and K fixed 128-bit words. Two u64 headers, K and
// the uncompressed policy length, precede the outer vector so readers need no
// out-of-band knowledge of the action space.

// WriteTo streams the pack in its binary form.
func (p *Pack) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	k := uint64(WordsFor(p.NumActions))
	binary.Write(&buf, binary.LittleEndian, k)
	binary.Write(&buf, binary.LittleEndian, uint64(p.NumActions))
	binary.Write(&buf, binary.LittleEndian, uint64(len(p.Players)))
	for _, entries := range p.Players {
		binary.Write(&buf, binary.LittleEndian, uint64(len(entries)))
		for _, e := range entries {
			binary.Write(&buf, binary.LittleEndian, e.Key)
			for i := 0; i < int(k); i++ {
				var word Word
				if i < len(e.Policy) {
					word = e.Policy[i]
				}
				binary.Write(&buf, binary.LittleEndian, word[0])
				binary.Write(&buf, binary.LittleEndian, word[1])
			}
		}
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// ReadFrom parses a binary pack.
func ReadFrom(r io.Reader) (*Pack, error) {
	var k, numActions, numPlayers uint64
	if err := binary.Read(r, binary.LittleEndian, &k); err != nil {
		return nil, fmt.Errorf("blueprint: read word count: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &numActions); err != nil {
		return nil, fmt.Errorf("blueprint: read action count: %w", err)
	}
	if k == 0 || numActions == 0 || WordsFor(int(numActions)) != int(k) {
		return nil, fmt.Errorf("blueprint: inconsistent header (k=%d, actions=%d)", k, numActions)
	}
	if err := binary.Read(r, binary.LittleEndian, &numPlayers); err != nil {
		return nil, fmt.Errorf("blueprint: read player count: %w", err)
	}
	if numPlayers == 0 || numPlayers > 16 {
		return nil, fmt.Errorf("blueprint: implausible player count %d", numPlayers)
	}

	pack := &Pack{
		NumActions: int(numActions),
		Players:    make([][]Entry, numPlayers),
	}
	for p := range pack.Players {
		var count uint64
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return nil, fmt.Errorf("blueprint: read entry count: %w", err)
		}
		entries := make([]Entry, count)
		for i := range entries {
			if err := binary.Read(r, binary.LittleEndian, &entries[i].Key); err != nil {
				return nil, fmt.Errorf("blueprint: read key: %w", err)
			}
			words := make([]Word, k)
			for j := range words {
				if err := binary.Read(r, binary.LittleEndian, &words[j][0]); err != nil {
					return nil, fmt.Errorf("blueprint: read word: %w", err)
				}
				if err := binary.Read(r, binary.LittleEndian, &words[j][1]); err != nil {
					return nil, fmt.Errorf("blueprint: read word: %w", err)
				}
			}
			entries[i].Policy = words
		}
		pack.Players[p] = entries
	}
	return pack, nil
}

// Save writes the pack to path atomically.
func (p *Pack) Save(path string) error {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return fmt.Errorf("blueprint: encode pack: %w", err)
	}
	return fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644)
}

// Load reads a pack from disk.
func Load(path string) (*Pack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadFrom(f)
}

// Compile reads per-player training JSON files and writes the binary pack.
// This is the offline step between training output and play-time lookup.
// A numActions of 0 derives the action-space size from the widest policy.
func Compile(jsonPaths []string, numActions int, outPath string) error {
	players := make([][]strategy.PolicyRow, len(jsonPaths))
	for i, path := range jsonPaths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("blueprint: open %s: %w", path, err)
		}
		rows, err := strategy.LoadJSON(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("blueprint: load %s: %w", path, err)
		}
		players[i] = rows
		for _, row := range rows {
			if len(row.Policy) > numActions {
				numActions = len(row.Policy)
			}
		}
	}
	if numActions == 0 {
		return fmt.Errorf("blueprint: no policies found in %v", jsonPaths)
	}
	return Build(players, numActions).Save(outPath)
}
