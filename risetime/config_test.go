package main

import (
	"os"
	"path/filepath"
	"testing"

	risetime "github.com/next-exp/risetime_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))
	return filename
}

func TestLoadConfigurationJSON(t *testing.T) {
	filename := writeFile(t, "boards.json", `{
		"boards": [{"name": "CASB1", "family": "casb1", "singles_path": "singles/C1--Trace--*.txt"}],
		"waveform_type": "singles",
		"analysis": {"threshold": 2.5, "use_true_peak": true},
		"num_workers": 4
	}`)

	config, err := LoadConfiguration(filename)
	require.NoError(t, err)

	require.Len(t, config.Boards, 1)
	assert.Equal(t, "casb1", config.Boards[0].Family)
	assert.Equal(t, risetime.Singles, config.WaveformType)
	assert.Equal(t, 2.5, config.Analysis.Threshold)
	assert.True(t, config.Analysis.UseTruePeak)
	assert.Equal(t, 4, config.NumWorkers)

	// Unset fields keep their defaults.
	assert.Equal(t, 0.9, config.Analysis.HighPct)
	assert.Equal(t, 2, config.Analysis.StallTolerance)
	assert.Equal(t, 1e9, config.Analysis.TimeScale)
	assert.True(t, config.Output)
	assert.Equal(t, 0.25, config.BinWidth)
}

func TestLoadConfigurationYAML(t *testing.T) {
	filename := writeFile(t, "boards.yaml", `
boards:
  - name: MTCA
    family: mtca
    averages_path: mtca/ch*.csv
output: false
input: true
analysis:
  baseline_end_pct: 0.2
file_out: results.h5
`)

	config, err := LoadConfiguration(filename)
	require.NoError(t, err)

	assert.Equal(t, "mtca/ch*.csv", config.Boards[0].AveragesPath)
	assert.Equal(t, risetime.Averages, config.WaveformType)
	assert.False(t, config.Output)
	assert.True(t, config.Input)
	assert.Equal(t, 0.2, config.Analysis.BaselineEndPct)
	assert.Equal(t, 5.0, config.Analysis.Threshold)
	assert.Equal(t, "results.h5", config.FileOut)
}

func TestLoadConfigurationErrors(t *testing.T) {
	_, err := LoadConfiguration(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadConfiguration(writeFile(t, "bad.json", `{"waveform_type": "raw"}`))
	assert.Error(t, err)
}
