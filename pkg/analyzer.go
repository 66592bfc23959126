package risetime

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Analysis keys written per signal role, e.g. "output_rise_time".
const (
	KeyPedestal       = "pedestal"
	KeyPeak           = "peak"
	KeyPeakIndex      = "peak_index"
	KeyThresholdIndex = "threshold_index"
	KeyTLow           = "t_low"
	KeyTHigh          = "t_high"
	KeyRiseTime       = "rise_time"
)

var resultKeys = []string{
	KeyPedestal,
	KeyPeak,
	KeyPeakIndex,
	KeyThresholdIndex,
	KeyTLow,
	KeyTHigh,
	KeyRiseTime,
}

// AnalysisKey returns the analysis map key of a measurement for a role.
func AnalysisKey(role SignalRole, name string) string {
	return role.String() + "_" + name
}

// DefaultStallTolerance is the number of non-improving samples accepted
// after the threshold before the peak search stops.
const DefaultStallTolerance = 2

type AnalysisParams struct {
	BaselineStartPct float64 `json:"baseline_start_pct" yaml:"baseline_start_pct"`
	BaselineEndPct   float64 `json:"baseline_end_pct" yaml:"baseline_end_pct"`
	Threshold        float64 `json:"threshold" yaml:"threshold"`
	LowPct           float64 `json:"low_pct" yaml:"low_pct"`
	HighPct          float64 `json:"high_pct" yaml:"high_pct"`
	UseTruePeak      bool    `json:"use_true_peak" yaml:"use_true_peak"`
	StallTolerance   int     `json:"stall_tolerance" yaml:"stall_tolerance"`
	// Scales applied to the stored samples by Board.AnalyzeTrace before the
	// scan. The defaults turn seconds and volts into ns and mV.
	TimeScale   float64 `json:"time_scale" yaml:"time_scale"`
	SignalScale float64 `json:"signal_scale" yaml:"signal_scale"`
}

func DefaultAnalysisParams() AnalysisParams {
	return AnalysisParams{
		BaselineStartPct: 0.0,
		BaselineEndPct:   0.1,
		Threshold:        5,
		LowPct:           0.1,
		HighPct:          0.9,
		UseTruePeak:      false,
		StallTolerance:   DefaultStallTolerance,
		TimeScale:        1e9,
		SignalScale:      1e3,
	}
}

func (p AnalysisParams) Validate() error {
	fractions := []struct {
		name  string
		value float64
	}{
		{"baseline_start_pct", p.BaselineStartPct},
		{"baseline_end_pct", p.BaselineEndPct},
		{"low_pct", p.LowPct},
		{"high_pct", p.HighPct},
	}
	for _, f := range fractions {
		if !(f.value >= 0 && f.value <= 1) {
			return &ErrInvalidParameter{Name: f.name, Value: f.value, Reason: "must be in [0,1]"}
		}
	}
	if p.BaselineStartPct > p.BaselineEndPct {
		return &ErrInvalidParameter{Name: "baseline_start_pct", Value: p.BaselineStartPct,
			Reason: fmt.Sprintf("greater than baseline_end_pct %g", p.BaselineEndPct)}
	}
	if p.LowPct >= p.HighPct {
		return &ErrInvalidParameter{Name: "low_pct", Value: p.LowPct,
			Reason: fmt.Sprintf("must be below high_pct %g", p.HighPct)}
	}
	if p.StallTolerance < 0 {
		return &ErrInvalidParameter{Name: "stall_tolerance", Value: float64(p.StallTolerance),
			Reason: "must not be negative"}
	}
	if math.IsNaN(p.Threshold) {
		return &ErrInvalidParameter{Name: "threshold", Value: p.Threshold, Reason: "is not a number"}
	}
	if !(p.TimeScale > 0) || !(p.SignalScale > 0) {
		return &ErrInvalidParameter{Name: "time_scale/signal_scale", Value: math.Min(p.TimeScale, p.SignalScale),
			Reason: "scales must be positive"}
	}
	return nil
}

// Result holds the seven measurements of one analyzed trace and role.
type Result struct {
	Pedestal       float64
	Peak           float64
	PeakIndex      int
	ThresholdIndex int
	TLow           float64
	THigh          float64
	RiseTime       float64
}

// Store merges the result into an analysis map under the role prefix,
// leaving the keys of the other role untouched.
func (r Result) Store(analysis Analysis, role SignalRole) {
	analysis[AnalysisKey(role, KeyPedestal)] = r.Pedestal
	analysis[AnalysisKey(role, KeyPeak)] = r.Peak
	analysis[AnalysisKey(role, KeyPeakIndex)] = float64(r.PeakIndex)
	analysis[AnalysisKey(role, KeyThresholdIndex)] = float64(r.ThresholdIndex)
	analysis[AnalysisKey(role, KeyTLow)] = r.TLow
	analysis[AnalysisKey(role, KeyTHigh)] = r.THigh
	analysis[AnalysisKey(role, KeyRiseTime)] = r.RiseTime
}

// ResultFromAnalysis reads back the measurements of a role. The second
// return value is false unless all seven keys are present.
func ResultFromAnalysis(analysis Analysis, role SignalRole) (Result, bool) {
	for _, key := range resultKeys {
		if _, ok := analysis[AnalysisKey(role, key)]; !ok {
			return Result{}, false
		}
	}
	return Result{
		Pedestal:       analysis[AnalysisKey(role, KeyPedestal)],
		Peak:           analysis[AnalysisKey(role, KeyPeak)],
		PeakIndex:      int(analysis[AnalysisKey(role, KeyPeakIndex)]),
		ThresholdIndex: int(analysis[AnalysisKey(role, KeyThresholdIndex)]),
		TLow:           analysis[AnalysisKey(role, KeyTLow)],
		THigh:          analysis[AnalysisKey(role, KeyTHigh)],
		RiseTime:       analysis[AnalysisKey(role, KeyRiseTime)],
	}, true
}

// BaselineWindow returns the inclusive index range used for the pedestal.
func BaselineWindow(n int, startPct float64, endPct float64) (int, int) {
	start := int(float64(n) * startPct)
	end := int(float64(n) * endPct)
	if end > n-1 {
		end = n - 1
	}
	if start > end {
		start = end
	}
	return start, end
}

// Pedestal is the mean of the signal over the baseline window. The mean is
// accumulated relative to the first window sample so a flat baseline
// returns its value exactly.
func Pedestal(signal []float64, startPct float64, endPct float64) float64 {
	if len(signal) == 0 {
		return math.NaN()
	}
	start, end := BaselineWindow(len(signal), startPct, endPct)
	window := make([]float64, end-start+1)
	copy(window, signal[start:end+1])
	reference := window[0]
	floats.AddConst(-reference, window)
	return reference + floats.Sum(window)/float64(len(window))
}

// PeakIndex scans forward for the first sample more than threshold above the
// pedestal, then follows the rising edge until stallTolerance non-improving
// samples have been seen. Both indices stay at 0 if the threshold is never
// crossed. With useTruePeak the peak is the global maximum of the signal.
func PeakIndex(signal []float64, pedestal float64, threshold float64,
	stallTolerance int, useTruePeak bool) (peakIndex int, thresholdIndex int) {
	crossed := false
	peakValue := 0.0
	counter := 0

	for i, v := range signal {
		if !crossed {
			if v-pedestal > threshold {
				crossed = true
				thresholdIndex = i
				peakIndex = i
				peakValue = v
			}
			continue
		}
		if v > peakValue {
			peakValue = v
			peakIndex = i
		} else {
			counter++
		}
		if counter > stallTolerance {
			break
		}
	}

	if useTruePeak {
		peakIndex = floats.MaxIdx(signal)
	}
	return peakIndex, thresholdIndex
}

// LowCrossingTime searches backwards from start for the last sample below
// thresh and interpolates the time at which the signal crosses it.
func LowCrossingTime(time []float64, signal []float64, thresh float64, start int) (float64, error) {
	if start < 0 || start >= len(signal) {
		return 0, &ErrCrossingNotFound{Edge: "low", Threshold: thresh, Start: start,
			Reason: "start index out of range"}
	}
	for i := start; i >= 0; i-- {
		if signal[i] < thresh {
			if i+1 >= len(signal) {
				return 0, &ErrCrossingNotFound{Edge: "low", Threshold: thresh, Start: start,
					Reason: "signal is below threshold at the last sample"}
			}
			return interpolateCrossing(time, signal, thresh, i, i+1, "low", start)
		}
	}
	return 0, &ErrCrossingNotFound{Edge: "low", Threshold: thresh, Start: start,
		Reason: "no sample below threshold before index 0"}
}

// HighCrossingTime searches forwards from start for the first sample above
// thresh and interpolates the time at which the signal crosses it.
func HighCrossingTime(time []float64, signal []float64, thresh float64, start int) (float64, error) {
	if start < 0 || start >= len(signal) {
		return 0, &ErrCrossingNotFound{Edge: "high", Threshold: thresh, Start: start,
			Reason: "start index out of range"}
	}
	for i := start; i < len(signal); i++ {
		if signal[i] > thresh {
			if i == 0 {
				return 0, &ErrCrossingNotFound{Edge: "high", Threshold: thresh, Start: start,
					Reason: "signal is above threshold at the first sample"}
			}
			return interpolateCrossing(time, signal, thresh, i-1, i, "high", start)
		}
	}
	return 0, &ErrCrossingNotFound{Edge: "high", Threshold: thresh, Start: start,
		Reason: "no sample above threshold before the end of the trace"}
}

func interpolateCrossing(time []float64, signal []float64, thresh float64,
	under int, over int, edge string, start int) (float64, error) {
	slope := (signal[over] - signal[under]) / (time[over] - time[under])
	crossTime := time[under] + (thresh-signal[under])/slope
	if math.IsNaN(crossTime) || math.IsInf(crossTime, 0) {
		return 0, &ErrCrossingNotFound{Edge: edge, Threshold: thresh, Start: start,
			Reason: fmt.Sprintf("non-finite interpolation between samples %d and %d", under, over)}
	}
	return crossTime, nil
}

func validateSamples(time []float64, signal []float64) error {
	if len(time) != len(signal) {
		return &ErrInvalidSamples{Index: min(len(time), len(signal)),
			Reason: fmt.Sprintf("time has %d samples, signal has %d", len(time), len(signal))}
	}
	if len(time) < 2 {
		return &ErrInvalidSamples{Index: 0, Reason: "at least 2 samples are required"}
	}
	for i := 1; i < len(time); i++ {
		if !(time[i] > time[i-1]) {
			return &ErrInvalidSamples{Index: i, Reason: fmt.Sprintf(
				"time is not strictly increasing (%g after %g)", time[i], time[i-1])}
		}
	}
	return nil
}

// Analyze measures pedestal, peak, threshold crossings and rise time of one
// signal. Samples are used as given; the scales in params are only applied
// by Board.AnalyzeTrace.
func Analyze(time []float64, signal []float64, params AnalysisParams) (Result, error) {
	if err := params.Validate(); err != nil {
		return Result{}, err
	}
	if err := validateSamples(time, signal); err != nil {
		return Result{}, err
	}

	pedestal := Pedestal(signal, params.BaselineStartPct, params.BaselineEndPct)
	peakIndex, thresholdIndex := PeakIndex(signal, pedestal, params.Threshold,
		params.StallTolerance, params.UseTruePeak)
	amplitude := signal[peakIndex] - pedestal
	lowThreshold := pedestal + amplitude*params.LowPct
	highThreshold := pedestal + amplitude*params.HighPct

	tLow, err := LowCrossingTime(time, signal, lowThreshold, thresholdIndex)
	if err != nil {
		return Result{}, err
	}
	tHigh, err := HighCrossingTime(time, signal, highThreshold, thresholdIndex)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Pedestal:       pedestal,
		Peak:           signal[peakIndex],
		PeakIndex:      peakIndex,
		ThresholdIndex: thresholdIndex,
		TLow:           tLow,
		THigh:          tHigh,
		RiseTime:       tHigh - tLow,
	}, nil
}

func scaled(values []float64, factor float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	if factor != 1 {
		floats.Scale(factor, out)
	}
	return out
}

// AnalyzeTrace runs Analyze on one stored trace and role and merges the
// result into the trace's analysis map. Nothing is written on failure.
func (b *Board) AnalyzeTrace(channel int, wt WaveformType, traceIndex int,
	role SignalRole, params AnalysisParams) (Result, error) {
	entry, err := b.entry(channel, wt, traceIndex)
	if err != nil {
		return Result{}, err
	}
	column, ok := entry.Data.Columns[role]
	if !ok {
		return Result{}, &ErrNotFound{
			Board:     b.Name,
			Key:       "column",
			Value:     fmt.Sprintf("%s in channel %d %s trace %d", role, channel, wt, traceIndex),
			Available: len(entry.Data.Columns),
		}
	}

	time := scaled(entry.Data.Time, params.TimeScale)
	signal := scaled(column, params.SignalScale)
	result, err := Analyze(time, signal, params)
	if err != nil {
		return Result{}, err
	}
	result.Store(entry.Analysis, role)

	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("%s ch %d %s trace %d %s: pedestal=%.4f peak=%.4f@%d threshold@%d t_low=%.4f t_high=%.4f rise=%.4f",
			b.Name, channel, wt, traceIndex, role, result.Pedestal, result.Peak, result.PeakIndex,
			result.ThresholdIndex, result.TLow, result.THigh, result.RiseTime)
		logger.Info(message, "analyzer")
	}
	return result, nil
}
