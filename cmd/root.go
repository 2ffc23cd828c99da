package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/recycle-sim/recycle-sim/sim/record"
	"github.com/recycle-sim/recycle-sim/sim/scenario"
)

var (
	scenarioPath string // Path to the scenario YAML file
	logLevel     string // Log verbosity level
	outKind      string // Recorder backend: memory or sqlite
	outPath      string // Output database for the sqlite backend
	duration     int    // Overrides simulation.duration when > 0
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "recycle-sim",
	Short: "Time-stepped simulator for nuclear fuel recycling facilities",
}

// runCmd executes the scenario named by --scenario
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a fuel-cycle scenario",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if err := runScenario(cmd.Context(), os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// runScenario loads, builds and runs the scenario, then reports to w.
func runScenario(ctx context.Context, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sc, err := scenario.LoadScenario(scenarioPath)
	if err != nil {
		return err
	}
	if duration > 0 {
		sc.Simulation.Duration = duration
	}

	rec, err := record.New(ctx, outKind, outPath)
	if err != nil {
		return err
	}
	s, err := sc.Build(rec)
	if err != nil {
		_ = rec.Close(ctx)
		return err
	}

	start := time.Now()
	logrus.Infof("Starting simulation %s: %d steps, %d facilities", s.Context().SimID(), sc.Simulation.Duration, len(sc.Facilities))
	runErr := s.Run()
	if err := rec.Close(ctx); err != nil && runErr == nil {
		runErr = fmt.Errorf("writing output: %w", err)
	}
	if runErr != nil {
		return runErr
	}
	logrus.Infof("Simulated %d steps in %v", sc.Simulation.Duration, time.Since(start))

	tr, ok := rec.(*record.Trace)
	if !ok {
		_, err := fmt.Fprintf(w, "Output written to %s (sim id %s)\n", outPath, s.Context().SimID())
		return err
	}
	data, err := json.MarshalIndent(record.Summarize(tr), "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "=== Simulation Summary ===\n%s\n", data)
	return err
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to scenario YAML file")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&outKind, "out-kind", "memory", "Recorder backend (memory, sqlite)")
	runCmd.Flags().StringVar(&outPath, "db", "recycle-sim.sqlite", "Output database path for --out-kind sqlite")
	runCmd.Flags().IntVar(&duration, "duration", 0, "Override simulation duration in steps")
	_ = runCmd.MarkFlagRequired("scenario")

	rootCmd.AddCommand(runCmd)
}
