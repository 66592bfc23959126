package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var logger Logger

var (
	configFilename string
	verbosity      int
)

var rootCmd = &cobra.Command{
	Use:   "risetime",
	Short: "Rise time and timing analysis of oscilloscope traces",
	Long: `Load scope captures of the boards listed in a configuration file,
measure pedestal, threshold crossings and 10-90% rise times per trace, and
compare channel timing across boards.

Examples:
  risetime analyze --config boards.yaml
  risetime analyze --config boards.json --input -v 2
  risetime split capture.csv ch2.csv --remaining_file ch1.csv`,
	SilenceUsage: true,
}

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	logger = Logger{
		InfoLog:  slog.New(NewHandler(os.Stdout, opts)),
		ErrorLog: slog.New(slog.NewJSONHandler(os.Stderr, opts)),
	}

	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbosity", "v", 0,
		"verbosity level, overrides the configuration file when higher")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
