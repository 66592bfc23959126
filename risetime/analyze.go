package main

import (
	"errors"
	"fmt"
	"strings"

	risetime "github.com/next-exp/risetime_go/pkg"
	"github.com/next-exp/risetime_go/pkg/hdf5writer"
	"github.com/spf13/cobra"
)

var (
	useOutput    bool
	useInput     bool
	waveformType string
	fileOut      string
)

const compressionLevel = 4

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Measure rise times of every configured board",
	Long: `Load the traces of every board in the configuration file, analyze one
signal role per trace and report rise times per channel, channel delays and
a rise time histogram. Results can be written to HDF5, MySQL and a
Prometheus textfile.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&configFilename, "config", "c", "", "configuration file path (JSON or YAML)")
	analyzeCmd.Flags().BoolVar(&useOutput, "output", false, "analyze the board output column")
	analyzeCmd.Flags().BoolVar(&useInput, "input", false, "analyze the pulser input column")
	analyzeCmd.Flags().StringVarP(&waveformType, "waveform", "w", "", "waveform type: singles or averages")
	analyzeCmd.Flags().StringVarP(&fileOut, "out", "o", "", "HDF5 output file")
	analyzeCmd.MarkFlagRequired("config")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	config, err := LoadConfiguration(configFilename)
	if err != nil {
		return fmt.Errorf("error reading configuration file: %w", err)
	}
	if err := applyFlags(cmd, &config); err != nil {
		return err
	}

	risetime.SetConfiguration(config)
	risetime.SetLogger(logger)

	if config.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Reading configuration file: %s", configFilename), "main")
		printConfiguration(config, logger)
	}

	role, err := risetime.RoleFromFlags(config.Output, config.Input)
	if err != nil {
		return err
	}
	if err := config.Analysis.Validate(); err != nil {
		return err
	}

	var metrics *risetime.Metrics
	if config.MetricsFile != "" {
		metrics = risetime.NewMetrics()
		risetime.SetMetrics(metrics)
	}

	results := analyzeBoards(config, role)
	boards := make([]*risetime.Board, 0, len(results))
	var errs []error
	for _, result := range results {
		if result.Err != nil {
			logger.Error(result.Err.Error())
			errs = append(errs, result.Err)
			continue
		}
		reportRiseTimes(result, config.WaveformType, role)
		boards = append(boards, result.Board)
	}

	reportDelays(boards, config, role)
	reportHistogram(boards, config, role)

	runID := risetime.NewRunID()
	if config.FileOut != "" {
		if err := writeHDF5(config.FileOut, boards, runID); err != nil {
			logger.Error(err.Error())
			errs = append(errs, err)
		}
	}
	if config.WriteDB {
		if err := writeDatabase(config, boards, runID); err != nil {
			logger.Error(err.Error())
			errs = append(errs, err)
		}
	}
	if metrics != nil {
		if err := metrics.WriteTextfile(config.MetricsFile); err != nil {
			err = fmt.Errorf("error writing metrics: %w", err)
			logger.Error(err.Error())
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// applyFlags lets command line flags override the configuration file.
func applyFlags(cmd *cobra.Command, config *risetime.Configuration) error {
	if cmd.Flags().Changed("output") || cmd.Flags().Changed("input") {
		config.Output = useOutput
		config.Input = useInput
	}
	if waveformType != "" {
		wt, err := risetime.ParseWaveformType(strings.ToLower(waveformType))
		if err != nil {
			return err
		}
		config.WaveformType = wt
	}
	if fileOut != "" {
		config.FileOut = fileOut
	}
	if verbosity > config.Verbosity {
		config.Verbosity = verbosity
	}
	return nil
}

func reportRiseTimes(result BoardResult, wt risetime.WaveformType, role risetime.SignalRole) {
	missing := 0
	for _, channel := range result.Board.AvailableChannels() {
		riseTime := result.RiseTimes[channel]
		if risetime.IsMissing(riseTime) {
			missing++
			logger.Info(fmt.Sprintf("%s channel %d: no %s rise time", result.Board.Name, channel, role), "main")
			continue
		}
		logger.Info(fmt.Sprintf("%s channel %d: %s %s rise time %.4f", result.Board.Name, channel, wt, role, riseTime), "main")
	}
	if missing > 0 {
		logger.Info(fmt.Sprintf("%s: %d of %d channels without rise time", result.Board.Name, missing, len(result.RiseTimes)), "main")
	}
}

func reportDelays(boards []*risetime.Board, config risetime.Configuration, role risetime.SignalRole) {
	for _, summary := range risetime.ChannelDelays(boards, config.WaveformType, role, config.DelayTrace) {
		if len(summary.Channels) == 0 {
			continue
		}
		parts := make([]string, len(summary.Channels))
		for i, channel := range summary.Channels {
			parts[i] = fmt.Sprintf("ch%d=%.4f", channel, summary.Delays[i])
		}
		logger.Info(fmt.Sprintf("%s delays: %s", summary.Board, strings.Join(parts, " ")), "delays")
		logger.Info(fmt.Sprintf("%s delay mean %.4f std %.4f, earliest ch%d, latest ch%d",
			summary.Board, summary.Mean, summary.Std, summary.Earliest, summary.Latest), "delays")
	}
}

func reportHistogram(boards []*risetime.Board, config risetime.Configuration, role risetime.SignalRole) {
	histogram, err := risetime.RiseTimeHistogram(boards, config.WaveformType, role, config.BinWidth)
	if err != nil {
		logger.Error(fmt.Errorf("error building rise time histogram: %w", err).Error())
		return
	}
	for _, board := range boards {
		counts := histogram.Counts[board.Name]
		for i, count := range counts {
			if count == 0 {
				continue
			}
			logger.Info(fmt.Sprintf("%s [%.2f, %.2f): %.0f (density %.4f)", board.Name,
				histogram.Edges[i], histogram.Edges[i+1], count, histogram.Density[board.Name][i]), "histogram")
		}
	}
}

func writeHDF5(filename string, boards []*risetime.Board, runID string) error {
	writer, err := hdf5writer.NewWriter(filename, compressionLevel)
	if err != nil {
		return err
	}
	var errs []error
	for _, board := range boards {
		if err := writer.WriteBoard(board, runID); err != nil {
			errs = append(errs, err)
		}
	}
	if err := writer.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		logger.Info(fmt.Sprintf("Results written to %s", filename), "main")
	}
	return errors.Join(errs...)
}

func writeDatabase(config risetime.Configuration, boards []*risetime.Board, runID string) error {
	dbConn, err := risetime.ConnectToDatabase(config.User, config.Passwd, config.Host, config.DBName)
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer dbConn.Close()

	if err := risetime.CreateResultsTable(dbConn); err != nil {
		return err
	}
	for _, board := range boards {
		rows := risetime.ResultRows(board, runID)
		if err := risetime.WriteResults(dbConn, rows); err != nil {
			return fmt.Errorf("board %s: %w", board.Name, err)
		}
		if err := risetime.VerifyResults(dbConn, board.Name, rows); err != nil {
			return err
		}
	}
	logger.Info(fmt.Sprintf("Results of run %s written to %s", runID, config.DBName), "main")
	return nil
}
