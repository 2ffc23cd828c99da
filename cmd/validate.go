package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/recycle-sim/recycle-sim/sim/facility"
	"github.com/recycle-sim/recycle-sim/sim/record"
	"github.com/recycle-sim/recycle-sim/sim/scenario"
)

var validatePaths []string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check scenario files without running them",
	Long:  "Load each scenario, validate it and build every facility. Nothing is simulated and no output is written.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := validateScenarios(os.Stdout, validatePaths); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// validateScenarios reports one line per path and fails if any is invalid.
func validateScenarios(w io.Writer, paths []string) error {
	var bad []string
	for _, path := range paths {
		err := validateOne(path)
		if err != nil {
			bad = append(bad, path)
			fmt.Fprintf(w, "%s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(w, "%s: ok\n", path)
	}
	if len(bad) > 0 {
		return fmt.Errorf("%d invalid scenario(s): %s", len(bad), strings.Join(bad, ", "))
	}
	return nil
}

func validateOne(path string) error {
	sc, err := scenario.LoadScenario(path)
	if err != nil {
		return err
	}
	_, err = sc.Build(record.NewTrace())
	return err
}

var archetypesCmd = &cobra.Command{
	Use:   "archetypes",
	Short: "List the facility archetypes a scenario may deploy",
	Run: func(cmd *cobra.Command, args []string) {
		for _, a := range facility.Archetypes() {
			fmt.Println(a)
		}
	},
}

func init() {
	validateCmd.Flags().StringArrayVar(&validatePaths, "scenario", nil, "Path to scenario YAML file (can be repeated)")
	_ = validateCmd.MarkFlagRequired("scenario")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(archetypesCmd)
}
