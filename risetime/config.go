package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	risetime "github.com/next-exp/risetime_go/pkg"
	"gopkg.in/yaml.v3"
)

// LoadConfiguration reads a JSON or YAML file, chosen by extension, on top of
// the default configuration.
func LoadConfiguration(filename string) (risetime.Configuration, error) {
	config := risetime.DefaultConfiguration()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return config, fmt.Errorf("error parsing %s: %w", filename, err)
	}
	return config, nil
}

func printConfiguration(config risetime.Configuration, logger Logger) {
	for _, board := range config.Boards {
		logger.Info(fmt.Sprintf("Board: %s (%s) singles=%q averages=%q",
			board.Name, board.Family, board.SinglesPath, board.AveragesPath), "config")
	}
	logger.Info(fmt.Sprintf("Waveform type: %s", config.WaveformType), "config")
	logger.Info(fmt.Sprintf("Output: %t", config.Output), "config")
	logger.Info(fmt.Sprintf("Input: %t", config.Input), "config")
	logger.Info(fmt.Sprintf("Baseline window: [%g, %g]", config.Analysis.BaselineStartPct, config.Analysis.BaselineEndPct), "config")
	logger.Info(fmt.Sprintf("Threshold: %g", config.Analysis.Threshold), "config")
	logger.Info(fmt.Sprintf("Low/high fractions: %g/%g", config.Analysis.LowPct, config.Analysis.HighPct), "config")
	logger.Info(fmt.Sprintf("Use true peak: %t", config.Analysis.UseTruePeak), "config")
	logger.Info(fmt.Sprintf("Stall tolerance: %d", config.Analysis.StallTolerance), "config")
	logger.Info(fmt.Sprintf("Time/signal scale: %g/%g", config.Analysis.TimeScale, config.Analysis.SignalScale), "config")
	logger.Info(fmt.Sprintf("Delay trace: %d", config.DelayTrace), "config")
	logger.Info(fmt.Sprintf("Bin width: %g", config.BinWidth), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Metrics file: %s", config.MetricsFile), "config")
	logger.Info(fmt.Sprintf("Write DB: %t", config.WriteDB), "config")
	if config.WriteDB {
		logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
		logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	}
}
