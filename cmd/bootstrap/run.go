package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/theoremlab/bootstrap/pkg/config"
	"github.com/theoremlab/bootstrap/pkg/core"
	"github.com/theoremlab/bootstrap/pkg/engine"
	"github.com/theoremlab/bootstrap/pkg/errors"
	"github.com/theoremlab/bootstrap/pkg/logging"
	"github.com/theoremlab/bootstrap/pkg/metrics"
	"github.com/theoremlab/bootstrap/pkg/teacher"
	"github.com/theoremlab/bootstrap/pkg/worker"
)

var (
	configPath  string
	continueDir string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the teacher loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if continueDir != "" {
			cfg.Continue = continueDir
		}
		return runTeacherLoop(cmd.Context(), cfg)
	},
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "bootstrap.yaml", "configuration file")
	runCmd.Flags().StringVar(&continueDir, "continue", "", "resume from an existing run directory")
	rootCmd.AddCommand(runCmd)
}

func runTeacherLoop(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A resumed run writes into the directory it continues from.
	runDir := cfg.RunDir
	if cfg.Continue != "" {
		runDir = cfg.Continue
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return errors.Wrap(err, errors.ConfigInvalid, "creating run directory")
	}

	logger, err := buildLogger(cfg, runDir)
	if err != nil {
		return err
	}
	logging.SetLogger(logger)

	rng := rand.New(rand.NewSource(cfg.Seed))
	logger.Info(ctx, "Seeded run with %d (first draw %d)", cfg.Seed, rng.Int63())

	if cfg.Engine.Command == "" {
		return errors.New(errors.ConfigInvalid, "engine.command is required to run")
	}
	eng := engine.New(cfg.Engine.Command, cfg.Engine.Args...)

	var initialState []byte
	if cfg.Engine.InitialState != "" {
		initialState, err = os.ReadFile(cfg.Engine.InitialState)
		if err != nil {
			return errors.Wrap(err, errors.ConfigInvalid, "reading initial agent state")
		}
	}
	agent := engine.NewAgent(eng, initialState)

	goals, err := config.LoadGoals(filepath.Join(cfg.GoalsDir, cfg.Goals+".json"))
	if err != nil {
		return err
	}
	theorySource, err := config.LoadTheory(filepath.Join(cfg.TheoriesDir, cfg.Theory.Name+".p"))
	if err != nil {
		return err
	}

	sink, err := buildSink(cfg, runDir)
	if err != nil {
		return err
	}
	defer sink.Close()

	runLog, err := teacher.OpenRunLog(filepath.Join(runDir, "log.jsonl"))
	if err != nil {
		return errors.Wrap(err, errors.CheckpointWriteFailed, "opening run log")
	}
	defer runLog.Close()

	var dispatcher worker.Dispatcher
	switch cfg.Dispatcher {
	case "pool":
		dispatcher = worker.NewPoolDispatcher(eng, cfg.MaxWorkers)
	default:
		dispatcher = worker.NewSyncDispatcher(eng)
	}

	ctrl, err := teacher.NewController(cfg, teacher.Deps{
		Agent:       agent,
		Dispatcher:  dispatcher,
		Deriver:     engine.NewDeriver(eng),
		Sink:        sink,
		Checkpoints: teacher.NewCheckpointManager(runDir, cfg.CheckpointPerIteration),
		RunLog:      runLog,
		FinalGoals:  goals,
		Theory: core.BackgroundTheory{
			Source:   theorySource,
			Premises: cfg.Theory.Premises,
		},
	})
	if err != nil {
		return err
	}

	if err := ctrl.Run(ctx); err != nil {
		return err
	}
	logger.Info(ctx, "Run terminated: %s", ctrl.Reason())
	return nil
}

func buildLogger(cfg *config.Config, runDir string) (*logging.Logger, error) {
	outputs := []logging.Output{logging.NewConsoleOutput(false)}
	if cfg.Logging.File != "" {
		fileOut, err := logging.NewFileOutput(filepath.Join(runDir, cfg.Logging.File))
		if err != nil {
			return nil, errors.Wrap(err, errors.ConfigInvalid, "opening log file")
		}
		outputs = append(outputs, fileOut)
	}

	return logging.NewLogger(logging.Config{
		Severity: logging.ParseSeverity(cfg.Logging.Level),
		Outputs:  outputs,
	}), nil
}

func buildSink(cfg *config.Config, runDir string) (metrics.Sink, error) {
	path := cfg.Metrics.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(runDir, path)
	}

	switch cfg.Metrics.Backend {
	case "sqlite":
		return metrics.NewSQLiteSink(path)
	default:
		return metrics.NewJSONLSink(path)
	}
}
