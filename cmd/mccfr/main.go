package main

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lox/mccfr/blueprint"
	"github.com/lox/mccfr/efg"
	"github.com/lox/mccfr/games/goofspiel"
	"github.com/lox/mccfr/games/kuhn"
	"github.com/lox/mccfr/solver"
)

var cli struct {
	Debug bool `help:"enable debug logging"`

	Train   TrainCmd   `cmd:"" help:"run AS-MCCFR training and emit per-player strategy tables"`
	Compile CompileCmd `cmd:"" help:"compile training JSON into a binary blueprint pack"`
	Show    ShowCmd    `cmd:"" help:"print a stored policy from a blueprint pack"`
}

type TrainCmd struct {
	Game            string  `help:"game to solve (goofspiel|kuhn)" default:"goofspiel"`
	Cards           int     `help:"card count for goofspiel (histories beyond 4 cards overflow the 64-bit info keys)" default:"4"`
	Iterations      int     `help:"number of MCCFR iterations" default:"100000"`
	Epsilon         float32 `help:"exploration floor for average sampling" default:"0.6"`
	Threads         int     `help:"number of parallel workers" default:"1"`
	Out             string  `help:"output prefix for per-player strategy tables" required:""`
	Seed            int64   `help:"random seed; 0 keeps the configured seed (1 by default), and a configured seed of 0 uses the time" default:"0"`
	Batch           int     `help:"iterations per scheduling batch" default:"1000"`
	CheckpointPath  string  `help:"path to write periodic checkpoints"`
	CheckpointEvery int     `help:"checkpoint interval in batches (0 disables)" default:"0"`
	ResumeFrom      string  `help:"resume training from checkpoint file"`
	Config          string  `help:"HCL config file overriding training defaults; the iterations, epsilon, threads and batch flags always take precedence over it"`
	CPUProfile      string  `help:"write CPU profile to file"`
}

type CompileCmd struct {
	Tables []string `arg:"" help:"per-player training JSON files, in player order"`
	Out    string   `help:"path to write the blueprint pack" required:""`
}

type ShowCmd struct {
	Pack   string `help:"path to blueprint pack" required:""`
	Player int    `help:"player index" default:"0"`
	Key    uint64 `help:"condensed info-set key" required:""`
	Cutoff float32 `help:"drop actions below this probability" default:"0.01"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("mccfr"),
		kong.Description("Average Sampling MCCFR solver tooling"),
		kong.UsageOnError(),
	)

	setupLogger(cli.Debug)

	switch {
	case ctx.Command() == "train":
		if err := cli.Train.Run(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("training failed")
		}
	case strings.HasPrefix(ctx.Command(), "compile"):
		if err := cli.Compile.Run(); err != nil {
			log.Fatal().Err(err).Msg("compilation failed")
		}
	case ctx.Command() == "show":
		if err := cli.Show.Run(); err != nil {
			log.Fatal().Err(err).Msg("lookup failed")
		}
	default:
		log.Fatal().Msgf("unknown command: %s", ctx.Command())
	}
}

func setupLogger(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}

func gameRules(name string, cards int) (efg.Rules, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "goofspiel":
		return goofspiel.Rules(cards, goofspiel.ZeroSum), nil
	case "kuhn":
		return kuhn.Rules(), nil
	default:
		return efg.Rules{}, fmt.Errorf("unknown game %q", name)
	}
}

func (cmd *TrainCmd) Run(ctx context.Context) error {
	if cmd.CPUProfile != "" {
		f, err := os.Create(cmd.CPUProfile)
		if err != nil {
			return fmt.Errorf("create cpu profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("start cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("path", cmd.CPUProfile).Msg("CPU profiling enabled")
	}

	rules, err := gameRules(cmd.Game, cmd.Cards)
	if err != nil {
		return err
	}

	cfg := solver.DefaultTrainingConfig()
	if cmd.Config != "" {
		cfg, err = solver.LoadTrainingConfig(cmd.Config)
		if err != nil {
			return err
		}
	}

	cfg.Iterations = cmd.Iterations
	cfg.Workers = cmd.Threads
	cfg.BatchSize = cmd.Batch
	cfg.Hyper.Exploration = cmd.Epsilon
	if cmd.Seed != 0 {
		cfg.Seed = cmd.Seed
	} else if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cmd.CheckpointPath != "" {
		cfg.CheckpointPath = cmd.CheckpointPath
		cfg.CheckpointEvery = cmd.CheckpointEvery
	}

	driver, err := solver.NewDriver(rules, nil, cfg)
	if err != nil {
		return err
	}
	if cmd.ResumeFrom != "" {
		if err := driver.LoadCheckpoint(cmd.ResumeFrom); err != nil {
			return fmt.Errorf("load checkpoint: %w", err)
		}
		log.Info().Int64("resume_iteration", driver.Iteration()).Str("checkpoint", cmd.ResumeFrom).Msg("resuming training run")
	}

	driver.SetProgress(func(p solver.Progress) {
		log.Info().
			Int("iteration", p.Iteration).
			Int("infosets", p.InfoSets).
			Int64("nodes", p.NodesTraversed).
			Dur("batch_time", p.BatchTime).
			Msg("progress")
	})

	log.Info().
		Str("game", rules.Name).
		Int("iterations", cfg.Iterations).
		Int("workers", cfg.Workers).
		Float32("epsilon", cfg.Hyper.Exploration).
		Int64("seed", cfg.Seed).
		Msg("starting training run")

	start := time.Now()
	if err := driver.Run(ctx); err != nil {
		return err
	}
	log.Info().Dur("duration", time.Since(start)).Int("infosets", driver.Stores()[0].Size()).Msg("training completed")

	if err := driver.SaveStrategies(cmd.Out); err != nil {
		return fmt.Errorf("save strategies: %w", err)
	}
	log.Info().Str("prefix", cmd.Out).Msg("strategy tables saved")
	return nil
}

func (cmd *CompileCmd) Run() error {
	if len(cmd.Tables) == 0 {
		return fmt.Errorf("at least one strategy table is required")
	}
	start := time.Now()
	if err := blueprint.Compile(cmd.Tables, 0, cmd.Out); err != nil {
		return err
	}
	log.Info().Dur("duration", time.Since(start)).Str("path", cmd.Out).Msg("blueprint pack written")
	return nil
}

func (cmd *ShowCmd) Run() error {
	pack, err := blueprint.Load(cmd.Pack)
	if err != nil {
		return fmt.Errorf("load pack: %w", err)
	}
	lookup, err := pack.Lookup(cmd.Player)
	if err != nil {
		return err
	}
	policy, ok := lookup.Exact(cmd.Key, cmd.Cutoff)
	if !ok {
		return fmt.Errorf("key %d not present for player %d", cmd.Key, cmd.Player)
	}
	for i, p := range policy {
		if p > 0 {
			fmt.Printf("action %d: %.4f\n", i, p)
		}
	}
	return nil
}
