package risetime

import (
	"fmt"
	"math"
)

// Missing marks a channel without a usable rise time in batch results.
var Missing = math.NaN()

func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// AnalyzeAll analyzes every trace of a waveform type on every channel and
// returns the last rise time computed per channel. Channels without traces
// of that type, or with any failing trace, are reported as Missing. Failing
// traces are logged and the remaining traces are still analyzed.
func (b *Board) AnalyzeAll(wt WaveformType, role SignalRole, params AnalysisParams) map[int]float64 {
	results := make(map[int]float64, len(b.Channels))

	for _, channel := range b.AvailableChannels() {
		if !b.HasWaveformType(channel, wt) {
			if configuration.Verbosity > 0 {
				message := fmt.Sprintf("%s channel %d has no %s data", b.Name, channel, wt)
				logger.Info(message, "batch")
			}
			metrics.ChannelMissing(b.Name, wt)
			results[channel] = Missing
			continue
		}

		failed := false
		riseTime := Missing
		for _, traceIndex := range b.TraceIndices(channel, wt) {
			result, err := b.analyzeTraceSafe(channel, wt, traceIndex, role, params)
			if err != nil {
				errMessage := fmt.Errorf("error processing %s %s channel %d trace %d: %w",
					b.Name, wt, channel, traceIndex, err)
				logger.Error(errMessage.Error())
				metrics.TraceFailed(b.Name, wt, role, err)
				failed = true
				continue
			}
			metrics.TraceAnalyzed(b.Name, wt, role, result.RiseTime)
			riseTime = result.RiseTime
		}
		if failed {
			riseTime = Missing
		}
		results[channel] = riseTime
	}
	return results
}

func (b *Board) analyzeTraceSafe(channel int, wt WaveformType, traceIndex int,
	role SignalRole, params AnalysisParams) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analyzer recovered from panic: %v", r)
		}
	}()
	return b.AnalyzeTrace(channel, wt, traceIndex, role, params)
}
