package solver

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/lox/mccfr/internal/fileutil"
	"github.com/lox/mccfr/strategy"
)

const checkpointFileVersion = 1

type checkpointSnapshot struct {
	Version   int                   `json:"version"`
	Game      string                `json:"game"`
	Iteration int64                 `json:"iteration"`
	Seed      int64                 `json:"seed"`
	Players   [][]strategy.Snapshot `json:"players"`
}

// SaveCheckpoint writes the full training state (cumulative regrets and
// strategy mass for every player) to path atomically. Prior checkpoints are
// replaced only once the new one is fully on disk.
func (d *Driver) SaveCheckpoint(path string) error {
	snap := checkpointSnapshot{
		Version:   checkpointFileVersion,
		Game:      d.rules.Name,
		Iteration: d.iteration.Load(),
		Seed:      d.cfg.Seed,
		Players:   make([][]strategy.Snapshot, len(d.stores)),
	}
	for i, store := range d.stores {
		snap.Players[i] = store.Snapshots()
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("persist checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint restores store contents and the completed-iteration count
// from a checkpoint written by SaveCheckpoint. The driver must have been
// constructed for the same game.
func (d *Driver) LoadCheckpoint(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var snap checkpointSnapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("decode checkpoint: %w", err)
	}
	if snap.Version != checkpointFileVersion {
		return errors.New("unsupported checkpoint version")
	}
	if snap.Game != d.rules.Name {
		return fmt.Errorf("checkpoint is for game %q, driver runs %q", snap.Game, d.rules.Name)
	}
	if len(snap.Players) != len(d.stores) {
		return fmt.Errorf("checkpoint has %d players, driver has %d", len(snap.Players), len(d.stores))
	}

	for i, snaps := range snap.Players {
		d.stores[i].Restore(snaps)
	}
	d.iteration.Store(snap.Iteration)
	return nil
}
