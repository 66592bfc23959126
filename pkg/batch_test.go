package risetime_test

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	risetime "github.com/next-exp/risetime_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *captureLogger) Info(message string, module string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf("[%s] %s", module, message))
}

func (l *captureLogger) Error(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, message)
}

func useLogger(t *testing.T) *captureLogger {
	t.Helper()
	l := &captureLogger{}
	risetime.SetLogger(l)
	t.Cleanup(func() { risetime.SetLogger(nil) })
	return l
}

func useVerbosity(t *testing.T, verbosity int) {
	t.Helper()
	config := risetime.DefaultConfiguration()
	config.Verbosity = verbosity
	risetime.SetConfiguration(config)
	t.Cleanup(func() { risetime.SetConfiguration(risetime.DefaultConfiguration()) })
}

// stepSamples is the step trace in seconds and volts, delayed by shift ns.
func stepSamples(shift float64) risetime.SampleTable {
	time := make([]float64, 6)
	for i := range time {
		time[i] = (float64(i) + shift) * 1e-9
	}
	return risetime.NewSampleTable(time, []float64{0, 0, 0, 0.010, 0.010, 0.010}, nil)
}

func TestAnalyzeAllBadTimeOrdering(t *testing.T) {
	l := useLogger(t)
	board := risetime.NewBoard("B1")
	board.AddTrace(1, risetime.Averages, 0, stepSamples(0))
	board.AddTrace(2, risetime.Averages, 0, risetime.NewSampleTable(
		[]float64{0, 2e-9, 1e-9, 3e-9, 4e-9, 5e-9}, []float64{0, 0, 0, 0.010, 0.010, 0.010}, nil))
	board.AddTrace(3, risetime.Averages, 0, stepSamples(1))

	results := board.AnalyzeAll(risetime.Averages, risetime.Output, stepParams())

	require.Len(t, results, 3)
	assert.InDelta(t, 0.8, results[1], 1e-6)
	assert.InDelta(t, 0.8, results[3], 1e-6)
	assert.True(t, risetime.IsMissing(results[2]))

	require.Len(t, l.errors, 1)
	assert.Contains(t, l.errors[0], "B1 averages channel 2 trace 0")
	assert.Contains(t, l.errors[0], "not strictly increasing")
}

func TestAnalyzeAllMissingWaveformType(t *testing.T) {
	l := useLogger(t)
	useVerbosity(t, 1)
	board := risetime.NewBoard("B1")
	board.AddTrace(1, risetime.Averages, 0, stepSamples(0))
	board.AddTrace(4, risetime.Singles, 0, stepSamples(0))

	results := board.AnalyzeAll(risetime.Averages, risetime.Output, stepParams())

	assert.False(t, risetime.IsMissing(results[1]))
	assert.True(t, math.IsNaN(results[4]))
	assert.Empty(t, l.errors)

	found := false
	for _, message := range l.infos {
		if strings.Contains(message, "channel 4 has no averages data") {
			found = true
		}
	}
	assert.True(t, found, "missing channel should be logged: %v", l.infos)
}

func TestAnalyzeAllKeepsGoingAfterFailure(t *testing.T) {
	useLogger(t)
	board := risetime.NewBoard("B1")
	board.AddTrace(1, risetime.Singles, 0, stepSamples(0))
	board.AddTrace(1, risetime.Singles, 1, risetime.NewSampleTable(
		[]float64{0, 1e-9, 2e-9}, []float64{0, 0, 0}, nil))
	board.AddTrace(1, risetime.Singles, 2, stepSamples(2))

	results := board.AnalyzeAll(risetime.Singles, risetime.Output, stepParams())
	assert.True(t, risetime.IsMissing(results[1]))

	// Traces after the failing one are still analyzed.
	analysis, err := board.GetAnalysis(1, risetime.Singles, 2)
	require.NoError(t, err)
	assert.InDelta(t, 4.1, analysis["output_t_low"], 1e-6)
}

func TestAnalyzeAllMissingColumn(t *testing.T) {
	l := useLogger(t)
	board := risetime.NewBoard("B1")
	board.AddTrace(1, risetime.Singles, 0, stepSamples(0))

	results := board.AnalyzeAll(risetime.Singles, risetime.Input, stepParams())
	assert.True(t, risetime.IsMissing(results[1]))
	require.Len(t, l.errors, 1)
	assert.Contains(t, l.errors[0], "column input")
}
