// Package solver implements Average Sampling MCCFR over the efg game
// abstraction, together with the parallel driver that coordinates worker
// iterations against the shared strategy stores.
package solver

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Hyperparams control the Average Sampling scheme. Setting Bonus to 0 and
// Threshold to 1 degenerates to Outcome Sampling MCCFR.
type Hyperparams struct {
	// Exploration lower-bounds the per-action sampling probability of the
	// updated player.
	Exploration float32 `hcl:"exploration,optional"`

	// Bonus biases sampling toward actions with little accumulated mass.
	Bonus float32 `hcl:"bonus,optional"`

	// Threshold scales accumulated strategy mass in the sampling rule.
	Threshold float32 `hcl:"threshold,optional"`
}

// DefaultHyperparams returns the Average Sampling defaults.
func DefaultHyperparams() Hyperparams {
	return Hyperparams{
		Exploration: 0.6,
		Bonus:       100,
		Threshold:   10000,
	}
}

// Validate ensures the sampling scheme is well-formed.
func (h Hyperparams) Validate() error {
	if h.Exploration <= 0 || h.Exploration > 1 {
		return errors.New("exploration must be in (0, 1]")
	}
	if h.Bonus < 0 {
		return errors.New("bonus cannot be negative")
	}
	if h.Threshold <= 0 {
		return errors.New("threshold must be > 0")
	}
	return nil
}

// TrainingConfig aggregates parameters that control MCCFR execution.
type TrainingConfig struct {
	Iterations      int
	Workers         int
	BatchSize       int
	Seed            int64
	Hyper           Hyperparams
	CheckpointPath  string
	CheckpointEvery int // batches; 0 disables
}

// Validate ensures the training parameters are safe to use.
func (c TrainingConfig) Validate() error {
	if c.Iterations <= 0 {
		return errors.New("iterations must be > 0")
	}
	if c.Workers <= 0 {
		return errors.New("workers must be > 0")
	}
	if c.BatchSize <= 0 {
		return errors.New("batch size must be > 0")
	}
	if c.CheckpointEvery < 0 {
		return errors.New("checkpoint interval cannot be negative")
	}
	if c.CheckpointEvery > 0 && c.CheckpointPath == "" {
		return errors.New("checkpoint interval requires a checkpoint path")
	}
	return c.Hyper.Validate()
}

// DefaultTrainingConfig returns a minimal configuration for local runs.
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Iterations: 10000,
		Workers:    1,
		BatchSize:  1000,
		Seed:       1,
		Hyper:      DefaultHyperparams(),
	}
}

type trainingBlock struct {
	Iterations      int          `hcl:"iterations"`
	Workers         *int         `hcl:"workers,optional"`
	BatchSize       *int         `hcl:"batch_size,optional"`
	Seed            *int64       `hcl:"seed,optional"`
	CheckpointPath  *string      `hcl:"checkpoint_path,optional"`
	CheckpointEvery *int         `hcl:"checkpoint_every,optional"`
	Sampling        *Hyperparams `hcl:"sampling,block"`
}

type configFile struct {
	Training trainingBlock `hcl:"training,block"`
}

// LoadTrainingConfig reads a TrainingConfig from an HCL file. A missing file
// yields the defaults; optional training fields absent from the file keep
// their defaults. A sampling block replaces the hyperparameters as a whole:
// an absent exploration falls back to its default, but an absent bonus or
// threshold reads as zero.
func LoadTrainingConfig(filename string) (TrainingConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultTrainingConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return TrainingConfig{}, fmt.Errorf("parse config %s: %s", filename, diags.Error())
	}

	var raw configFile
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return TrainingConfig{}, fmt.Errorf("decode config %s: %s", filename, diags.Error())
	}

	cfg := DefaultTrainingConfig()
	cfg.Iterations = raw.Training.Iterations
	if raw.Training.Workers != nil {
		cfg.Workers = *raw.Training.Workers
	}
	if raw.Training.BatchSize != nil {
		cfg.BatchSize = *raw.Training.BatchSize
	}
	if raw.Training.Seed != nil {
		cfg.Seed = *raw.Training.Seed
	}
	if raw.Training.CheckpointPath != nil {
		cfg.CheckpointPath = *raw.Training.CheckpointPath
	}
	if raw.Training.CheckpointEvery != nil {
		cfg.CheckpointEvery = *raw.Training.CheckpointEvery
	}
	if raw.Training.Sampling != nil {
		cfg.Hyper = *raw.Training.Sampling
		if cfg.Hyper.Exploration == 0 {
			cfg.Hyper.Exploration = DefaultHyperparams().Exploration
		}
	}
	if err := cfg.Validate(); err != nil {
		return TrainingConfig{}, fmt.Errorf("config %s: %w", filename, err)
	}
	return cfg, nil
}
