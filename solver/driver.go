package solver

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lox/mccfr/abstraction"
	"github.com/lox/mccfr/efg"
	"github.com/lox/mccfr/internal/fileutil"
	"github.com/lox/mccfr/internal/randutil"
	"github.com/lox/mccfr/strategy"
)

// Progress contains metadata emitted after each training batch.
type Progress struct {
	Iteration      int
	InfoSets       int
	NodesTraversed int64
	BatchTime      time.Duration
}

// Driver coordinates worker iterations against the shared per-player
// strategy stores. Workers have no cross-talk; all sharing goes through the
// stores' internal synchronization.
type Driver struct {
	rules     efg.Rules
	mapper    *abstraction.GameMapper
	cfg       TrainingConfig
	stores    []*strategy.Store
	workers   []*MCCFR
	iteration atomic.Int64
	progress  func(Progress)
}

// NewDriver constructs a driver with cfg.Workers workers sharing fresh
// stores. mapper may be nil for games trained without action abstraction.
func NewDriver(rules efg.Rules, mapper *abstraction.GameMapper, cfg TrainingConfig) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rules.NumActions <= 0 || rules.NumActions > efg.MaxActionIndex+1 {
		return nil, fmt.Errorf("solver: rules %q action space size %d out of range", rules.Name, rules.NumActions)
	}

	stores := make([]*strategy.Store, efg.NumRegularPlayers)
	for i := range stores {
		stores[i] = strategy.NewStore()
	}

	d := &Driver{
		rules:  rules,
		mapper: mapper,
		cfg:    cfg,
		stores: stores,
	}
	for i := 0; i < cfg.Workers; i++ {
		d.workers = append(d.workers, NewMCCFR(rules, stores, mapper, cfg.Hyper, randutil.Worker(cfg.Seed, i)))
	}
	return d, nil
}

// SetProgress installs the per-batch progress callback.
func (d *Driver) SetProgress(fn func(Progress)) {
	d.progress = fn
}

// Stores returns the shared per-player strategy stores.
func (d *Driver) Stores() []*strategy.Store {
	return d.stores
}

// Iteration returns the number of completed iterations.
func (d *Driver) Iteration() int64 {
	return d.iteration.Load()
}

// Run executes the configured number of iterations, split into batches
// fanned out across the workers. It blocks until every worker of every batch
// has joined, and returns the first worker failure. A worker panic (an
// invariant violation in the traversal) is surfaced as an error; nothing is
// silently recovered.
func (d *Driver) Run(ctx context.Context) error {
	remaining := d.cfg.Iterations - int(d.iteration.Load())
	batchNum := 0
	for remaining > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch := d.cfg.BatchSize
		if batch > remaining {
			batch = remaining
		}

		start := time.Now()
		if err := d.runBatch(batch); err != nil {
			return err
		}
		d.iteration.Add(int64(batch))
		remaining -= batch
		batchNum++

		if d.cfg.CheckpointEvery > 0 && batchNum%d.cfg.CheckpointEvery == 0 {
			if err := d.SaveCheckpoint(d.cfg.CheckpointPath); err != nil {
				return err
			}
		}

		if d.progress != nil {
			d.progress(Progress{
				Iteration:      int(d.iteration.Load()),
				InfoSets:       d.stores[0].Size(),
				NodesTraversed: d.nodesTraversed(),
				BatchTime:      time.Since(start),
			})
		}
	}
	return nil
}

func (d *Driver) runBatch(batch int) error {
	// batch/N per worker, with the remainder spread one each over the first
	// workers, so no share exceeds ceil(batch/N).
	shares := make([]int, len(d.workers))
	base := batch / len(d.workers)
	extra := batch % len(d.workers)
	for i := range shares {
		shares[i] = base
		if i < extra {
			shares[i]++
		}
	}

	var g errgroup.Group
	for i, w := range d.workers {
		iters := shares[i]
		if iters == 0 {
			continue
		}
		worker := w
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("solver: worker crashed: %v", r)
				}
			}()
			for j := 0; j < iters; j++ {
				worker.RunIteration()
			}
			return nil
		})
	}
	return g.Wait()
}

func (d *Driver) nodesTraversed() int64 {
	var total int64
	for _, w := range d.workers {
		total += w.NodesTraversed
	}
	return total
}

// SaveStrategies writes each player's normalized policy table to
// <prefix>_p<i>.json atomically.
func (d *Driver) SaveStrategies(prefix string) error {
	for i, store := range d.stores {
		var buf bytes.Buffer
		if err := store.SaveJSON(&buf); err != nil {
			return fmt.Errorf("encode player %d strategy: %w", i, err)
		}
		path := fmt.Sprintf("%s_p%d.json", prefix, i)
		if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write player %d strategy: %w", i, err)
		}
	}
	return nil
}
