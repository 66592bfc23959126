package main

import (
	"fmt"
	"io"
	"os"

	risetime "github.com/next-exp/risetime_go/pkg"
	"github.com/spf13/cobra"
)

var (
	splitOptions  = risetime.DefaultSplitOptions()
	remainingFile string
)

var splitCmd = &cobra.Command{
	Use:   "split <input.csv> <output.csv>",
	Short: "Move one scope column, with the time column, to a new CSV file",
	Args:  cobra.ExactArgs(2),
	RunE:  runSplit,
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().StringVar(&remainingFile, "remaining_file", "",
		"optional file for every other column, time included")
	splitCmd.Flags().IntVar(&splitOptions.SkipRows, "skiprows", splitOptions.SkipRows,
		"rows to skip before the header")
	splitCmd.Flags().StringVar(&splitOptions.TimeCol, "time_col", splitOptions.TimeCol,
		"name of the time column")
	splitCmd.Flags().StringVar(&splitOptions.KeepCol, "keep_col", splitOptions.KeepCol,
		"name of the column moved to the output file")
}

func runSplit(cmd *cobra.Command, args []string) error {
	inputFile, outputFile := args[0], args[1]

	in, err := os.Open(inputFile)
	if err != nil {
		return &risetime.ErrOpenFile{Filename: inputFile, Err: err}
	}
	defer in.Close()

	out, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", outputFile, err)
	}
	defer out.Close()

	var remaining io.Writer
	if remainingFile != "" {
		f, err := os.Create(remainingFile)
		if err != nil {
			return fmt.Errorf("error creating %s: %w", remainingFile, err)
		}
		defer f.Close()
		remaining = f
	}

	if err := risetime.SplitColumns(in, out, remaining, splitOptions); err != nil {
		return fmt.Errorf("error splitting %s: %w", inputFile, err)
	}

	logger.Info(fmt.Sprintf("Created %s with %s and %s columns", outputFile, splitOptions.TimeCol, splitOptions.KeepCol), "split")
	if remainingFile != "" {
		logger.Info(fmt.Sprintf("Created %s with the remaining columns", remainingFile), "split")
	}
	return nil
}
