package risetime_test

import (
	"errors"
	"math"
	"testing"

	risetime "github.com/next-exp/risetime_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepParams() risetime.AnalysisParams {
	params := risetime.DefaultAnalysisParams()
	params.BaselineStartPct = 0
	params.BaselineEndPct = 0.4
	params.Threshold = 1
	params.LowPct = 0.1
	params.HighPct = 0.9
	return params
}

func stepTrace() ([]float64, []float64) {
	return []float64{0, 1, 2, 3, 4, 5}, []float64{0, 0, 0, 10, 10, 10}
}

func TestAnalyzeStep(t *testing.T) {
	time, signal := stepTrace()

	result, err := risetime.Analyze(time, signal, stepParams())
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Pedestal)
	assert.Equal(t, 10.0, result.Peak)
	assert.Equal(t, 3, result.PeakIndex)
	assert.Equal(t, 3, result.ThresholdIndex)
	assert.InDelta(t, 2.1, result.TLow, 1e-12)
	assert.InDelta(t, 2.9, result.THigh, 1e-12)
	assert.InDelta(t, 0.8, result.RiseTime, 1e-12)
}

func TestAnalyzeBaselineIncludesEdge(t *testing.T) {
	// A [0, 0.5] window over 6 samples covers indices 0 to 3.
	time, signal := stepTrace()
	params := stepParams()
	params.BaselineEndPct = 0.5

	result, err := risetime.Analyze(time, signal, params)
	require.NoError(t, err)
	assert.Equal(t, 2.5, result.Pedestal)
	assert.Equal(t, 3, result.ThresholdIndex)
}

func TestAnalyzeLinearRamp(t *testing.T) {
	n := 16
	time := make([]float64, n)
	signal := make([]float64, n)
	for i := range time {
		time[i] = float64(i)
		switch {
		case i <= 2:
			signal[i] = 0
		case i <= 12:
			signal[i] = float64(10 * (i - 2))
		default:
			signal[i] = 100
		}
	}
	params := risetime.DefaultAnalysisParams()

	result, err := risetime.Analyze(time, signal, params)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Pedestal)
	assert.Equal(t, 3, result.ThresholdIndex)
	assert.Equal(t, 12, result.PeakIndex)
	assert.Equal(t, 100.0, result.Peak)
	assert.Equal(t, 3.0, result.TLow)
	assert.Equal(t, 11.0, result.THigh)
	assert.Equal(t, 8.0, result.RiseTime)
}

func TestPedestalConstant(t *testing.T) {
	signal := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}
	assert.Equal(t, 0.1, risetime.Pedestal(signal, 0, 1))
	assert.Equal(t, 0.1, risetime.Pedestal(signal, 0.2, 0.6))
	assert.True(t, math.IsNaN(risetime.Pedestal(nil, 0, 0.1)))
}

func TestBaselineWindow(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		start, end float64
		wantStart  int
		wantEnd    int
	}{
		{"default", 100, 0, 0.1, 0, 10},
		{"full", 10, 0, 1, 0, 9},
		{"truncates", 6, 0, 0.4, 0, 2},
		{"single sample", 10, 0.5, 0.5, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := risetime.BaselineWindow(tt.n, tt.start, tt.end)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestPeakIndexStall(t *testing.T) {
	signal := []float64{0, 0, 0, 10, 9, 8, 7, 20, 0, 0}

	peak, threshold := risetime.PeakIndex(signal, 0, 5, 2, false)
	assert.Equal(t, 3, peak)
	assert.Equal(t, 3, threshold)

	peak, threshold = risetime.PeakIndex(signal, 0, 5, 5, false)
	assert.Equal(t, 7, peak)
	assert.Equal(t, 3, threshold)

	peak, threshold = risetime.PeakIndex(signal, 0, 5, 2, true)
	assert.Equal(t, 7, peak)
	assert.Equal(t, 3, threshold)
}

func TestPeakIndexTruePeakIgnoresThreshold(t *testing.T) {
	signal := []float64{0, 0, 0, 10, 9, 8, 7, 20, 0, 0}

	peak, threshold := risetime.PeakIndex(signal, 0, 1e9, 2, true)
	assert.Equal(t, 7, peak)
	assert.Equal(t, 0, threshold)
}

func TestPeakIndexStallDoesNotReset(t *testing.T) {
	// Improvements in between do not clear earlier stalls.
	signal := []float64{0, 10, 9, 11, 10, 12, 11, 13, 30}

	peak, _ := risetime.PeakIndex(signal, 0, 5, 2, false)
	assert.Equal(t, 5, peak)
}

func TestPeakIndexNeverCrossed(t *testing.T) {
	signal := []float64{0, 1, 2, 1, 0}
	peak, threshold := risetime.PeakIndex(signal, 0, 5, 2, false)
	assert.Equal(t, 0, peak)
	assert.Equal(t, 0, threshold)
}

func TestAnalyzeUseTruePeak(t *testing.T) {
	time := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	signal := []float64{0, 0, 0, 10, 9, 8, 7, 20, 0, 0}
	params := risetime.DefaultAnalysisParams()
	params.BaselineEndPct = 0.2
	params.UseTruePeak = true

	result, err := risetime.Analyze(time, signal, params)
	require.NoError(t, err)
	assert.Equal(t, 7, result.PeakIndex)
	assert.Equal(t, 20.0, result.Peak)
	assert.InDelta(t, 2.2, result.TLow, 1e-12)
	assert.InDelta(t, 6+11.0/13, result.THigh, 1e-12)
}

func TestAnalyzeFlatSignal(t *testing.T) {
	time := []float64{0, 1, 2, 3, 4}
	signal := []float64{0, 0, 0, 0, 0}

	_, err := risetime.Analyze(time, signal, risetime.DefaultAnalysisParams())
	var crossing *risetime.ErrCrossingNotFound
	require.ErrorAs(t, err, &crossing)
	assert.Equal(t, "low", crossing.Edge)
}

func TestAnalyzeHighAtFirstSample(t *testing.T) {
	// Above threshold from the first sample: nothing brackets the crossing.
	time := []float64{0, 1, 2, 3}
	signal := []float64{10, 10, 10, 10}
	params := risetime.DefaultAnalysisParams()
	params.Threshold = -1

	_, err := risetime.Analyze(time, signal, params)
	var crossing *risetime.ErrCrossingNotFound
	assert.ErrorAs(t, err, &crossing)
}

func TestCrossingTimes(t *testing.T) {
	time := []float64{0, 1, 2, 3, 4}
	signal := []float64{0, 0, 4, 8, 8}

	tLow, err := risetime.LowCrossingTime(time, signal, 2, 3)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, tLow, 1e-12)

	tHigh, err := risetime.HighCrossingTime(time, signal, 6, 2)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, tHigh, 1e-12)

	_, err = risetime.HighCrossingTime(time, signal, 9, 2)
	var crossing *risetime.ErrCrossingNotFound
	require.ErrorAs(t, err, &crossing)
	assert.Equal(t, "high", crossing.Edge)

	_, err = risetime.LowCrossingTime(time, signal, 2, 10)
	assert.ErrorAs(t, err, &crossing)
}

func TestAnalyzeInvalidSamples(t *testing.T) {
	params := risetime.DefaultAnalysisParams()
	var invalid *risetime.ErrInvalidSamples

	_, err := risetime.Analyze([]float64{0, 1, 1, 3}, []float64{0, 0, 10, 10}, params)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 2, invalid.Index)

	_, err = risetime.Analyze([]float64{0, 1, 2}, []float64{0, 10}, params)
	assert.ErrorAs(t, err, &invalid)

	_, err = risetime.Analyze([]float64{0}, []float64{0}, params)
	assert.ErrorAs(t, err, &invalid)
}

func TestAnalysisParamsValidate(t *testing.T) {
	assert.NoError(t, risetime.DefaultAnalysisParams().Validate())

	tests := []struct {
		name   string
		modify func(p *risetime.AnalysisParams)
		param  string
	}{
		{"low above high", func(p *risetime.AnalysisParams) { p.LowPct, p.HighPct = 0.9, 0.1 }, "low_pct"},
		{"baseline out of range", func(p *risetime.AnalysisParams) { p.BaselineEndPct = 1.5 }, "baseline_end_pct"},
		{"baseline reversed", func(p *risetime.AnalysisParams) { p.BaselineStartPct, p.BaselineEndPct = 0.5, 0.1 }, "baseline_start_pct"},
		{"negative stall", func(p *risetime.AnalysisParams) { p.StallTolerance = -1 }, "stall_tolerance"},
		{"nan threshold", func(p *risetime.AnalysisParams) { p.Threshold = math.NaN() }, "threshold"},
		{"zero scale", func(p *risetime.AnalysisParams) { p.TimeScale = 0 }, "time_scale/signal_scale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := risetime.DefaultAnalysisParams()
			tt.modify(&params)

			err := params.Validate()
			var invalid *risetime.ErrInvalidParameter
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tt.param, invalid.Name)

			time, signal := stepTrace()
			_, err = risetime.Analyze(time, signal, params)
			assert.True(t, errors.As(err, &invalid))
		})
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	time, signal := stepTrace()
	first, err := risetime.Analyze(time, signal, stepParams())
	require.NoError(t, err)
	second, err := risetime.Analyze(time, signal, stepParams())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnalyzeTraceScalesAndStores(t *testing.T) {
	time, signal := stepTrace()
	seconds := make([]float64, len(time))
	volts := make([]float64, len(signal))
	input := make([]float64, len(signal))
	for i := range time {
		seconds[i] = time[i] * 1e-9
		volts[i] = signal[i] * 1e-3
		input[i] = volts[i] / 2
	}
	board := risetime.NewBoard("B1")
	board.AddTrace(1, risetime.Averages, 0, risetime.NewSampleTable(seconds, volts, input))

	params := stepParams()
	result, err := board.AnalyzeTrace(1, risetime.Averages, 0, risetime.Output, params)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, result.RiseTime, 1e-6)

	params.Threshold = 0.5
	_, err = board.AnalyzeTrace(1, risetime.Averages, 0, risetime.Input, params)
	require.NoError(t, err)

	analysis, err := board.GetAnalysis(1, risetime.Averages, 0)
	require.NoError(t, err)
	assert.Len(t, analysis, 14)
	assert.InDelta(t, 2.1, analysis["output_t_low"], 1e-6)
	assert.InDelta(t, 2.9, analysis["output_t_high"], 1e-6)
	assert.InDelta(t, 10.0, analysis["output_peak"], 1e-9)
	assert.Equal(t, 3.0, analysis["output_peak_index"])
	assert.InDelta(t, 5.0, analysis["input_peak"], 1e-9)

	stored, ok := risetime.ResultFromAnalysis(analysis, risetime.Output)
	require.True(t, ok)
	assert.Equal(t, result, stored)
}

func TestAnalyzeTraceFailureLeavesAnalysis(t *testing.T) {
	board := risetime.NewBoard("B1")
	board.AddTrace(1, risetime.Singles, 0, risetime.NewSampleTable(
		[]float64{0, 1, 2}, []float64{0, 0, 0}, nil))

	_, err := board.AnalyzeTrace(1, risetime.Singles, 0, risetime.Output, risetime.DefaultAnalysisParams())
	require.Error(t, err)

	analysis, err := board.GetAnalysis(1, risetime.Singles, 0)
	require.NoError(t, err)
	assert.Empty(t, analysis)

	_, err = board.AnalyzeTrace(1, risetime.Singles, 0, risetime.Input, risetime.DefaultAnalysisParams())
	var notFound *risetime.ErrNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "column", notFound.Key)
}
