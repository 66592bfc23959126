package risetime

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// The functions in this file only read analysis maps.

type BoardDelays struct {
	Board    string
	Channels []int
	TLow     []float64
	// Delays are relative to the earliest channel, in analysis time units.
	Delays []float64
	Mean   float64
	Std    float64
	// Earliest is the channel with the smallest non-reference delay and
	// Latest the one with the largest. Both are -1 with fewer than 2 channels.
	Earliest int
	Latest   int
}

// ChannelDelays compares the low crossing time of one trace index across the
// channels of each board.
func ChannelDelays(boards []*Board, wt WaveformType, role SignalRole, traceIndex int) []BoardDelays {
	summaries := make([]BoardDelays, 0, len(boards))
	for _, board := range boards {
		summary := BoardDelays{Board: board.Name, Earliest: -1, Latest: -1, Mean: math.NaN(), Std: math.NaN()}
		for _, channel := range board.AvailableChannels() {
			if !board.HasWaveformType(channel, wt) {
				continue
			}
			analysis, err := board.GetAnalysis(channel, wt, traceIndex)
			if err != nil {
				logger.Error(fmt.Errorf("skipping channel in delay comparison: %w", err).Error())
				continue
			}
			result, ok := ResultFromAnalysis(analysis, role)
			if !ok {
				if configuration.Verbosity > 0 {
					message := fmt.Sprintf("%s channel %d %s trace %d has no %s results", board.Name, channel, wt, traceIndex, role)
					logger.Info(message, "aggregate")
				}
				continue
			}
			summary.Channels = append(summary.Channels, channel)
			summary.TLow = append(summary.TLow, result.TLow)
		}

		if len(summary.TLow) > 0 {
			offset := floats.Min(summary.TLow)
			summary.Delays = make([]float64, len(summary.TLow))
			copy(summary.Delays, summary.TLow)
			floats.AddConst(-offset, summary.Delays)
			summary.Mean, summary.Std = stat.PopMeanStdDev(summary.Delays, nil)
		}
		if len(summary.Delays) >= 2 {
			minIdx := floats.MinIdx(summary.Delays)
			others := make([]float64, len(summary.Delays))
			copy(others, summary.Delays)
			others[minIdx] = math.Inf(1)
			summary.Earliest = summary.Channels[floats.MinIdx(others)]
			summary.Latest = summary.Channels[floats.MaxIdx(summary.Delays)]
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// RiseTimes collects every finite rise time of a role over all channels and
// traces of a waveform type.
func (b *Board) RiseTimes(wt WaveformType, role SignalRole) []float64 {
	riseTimes := make([]float64, 0)
	for _, channel := range b.AvailableChannels() {
		for _, traceIndex := range b.TraceIndices(channel, wt) {
			analysis, err := b.GetAnalysis(channel, wt, traceIndex)
			if err != nil {
				continue
			}
			result, ok := ResultFromAnalysis(analysis, role)
			if !ok || math.IsNaN(result.RiseTime) || math.IsInf(result.RiseTime, 0) {
				continue
			}
			riseTimes = append(riseTimes, result.RiseTime)
		}
	}
	return riseTimes
}

type Histogram struct {
	Edges   []float64
	Counts  map[string][]float64
	Density map[string][]float64
}

// RiseTimeHistogram bins the rise times of every board on shared edges,
// aligned to multiples of binWidth and spanning floor(min) to ceil(max).
func RiseTimeHistogram(boards []*Board, wt WaveformType, role SignalRole, binWidth float64) (Histogram, error) {
	if !(binWidth > 0) {
		return Histogram{}, &ErrInvalidParameter{Name: "bin_width", Value: binWidth, Reason: "must be positive"}
	}

	perBoard := make(map[string][]float64, len(boards))
	all := make([]float64, 0)
	for _, board := range boards {
		riseTimes := board.RiseTimes(wt, role)
		sort.Float64s(riseTimes)
		perBoard[board.Name] = riseTimes
		all = append(all, riseTimes...)
	}
	if len(all) == 0 {
		return Histogram{}, errors.New("no rise times to histogram")
	}

	edges := histogramEdges(floats.Min(all), floats.Max(all), binWidth)
	histogram := Histogram{
		Edges:   edges,
		Counts:  make(map[string][]float64, len(perBoard)),
		Density: make(map[string][]float64, len(perBoard)),
	}
	// The last bin is closed: values equal to the top edge are counted in it.
	dividers := make([]float64, len(edges))
	copy(dividers, edges)
	dividers[len(dividers)-1] = math.Nextafter(edges[len(edges)-1], math.Inf(1))

	for name, riseTimes := range perBoard {
		counts := make([]float64, len(edges)-1)
		density := make([]float64, len(edges)-1)
		if len(riseTimes) > 0 {
			counts = stat.Histogram(counts, dividers, riseTimes, nil)
			copy(density, counts)
			floats.Scale(1/(float64(len(riseTimes))*binWidth), density)
		}
		histogram.Counts[name] = counts
		histogram.Density[name] = density
	}
	return histogram, nil
}

func histogramEdges(lo float64, hi float64, binWidth float64) []float64 {
	first := math.Floor(lo/binWidth) * binWidth
	if first > lo {
		first -= binWidth
	}
	last := math.Ceil(hi/binWidth) * binWidth
	if last < hi {
		last += binWidth
	}
	if last <= first {
		last = first + binWidth
	}
	nBins := int(math.Round((last - first) / binWidth))
	edges := make([]float64, nBins+1)
	for i := range edges {
		edges[i] = first + float64(i)*binWidth
	}
	return edges
}

// Lineup returns the shift that aligns the output trace on the input trace
// by their low crossing times.
func (b *Board) Lineup(channel int, wt WaveformType, traceIndex int) (float64, error) {
	analysis, err := b.GetAnalysis(channel, wt, traceIndex)
	if err != nil {
		return 0, err
	}
	output, okOutput := ResultFromAnalysis(analysis, Output)
	input, okInput := ResultFromAnalysis(analysis, Input)
	if !okOutput || !okInput {
		return 0, &ErrNotFound{
			Board:     b.Name,
			Key:       "analysis",
			Value:     fmt.Sprintf("output and input results for channel %d %s trace %d", channel, wt, traceIndex),
			Available: len(analysis),
		}
	}
	return output.TLow - input.TLow, nil
}

// RoleDelays returns the output to input delay of one trace index for every
// channel where both roles have been analyzed.
func (b *Board) RoleDelays(wt WaveformType, traceIndex int) map[int]float64 {
	delays := make(map[int]float64)
	for _, channel := range b.AvailableChannels() {
		delay, err := b.Lineup(channel, wt, traceIndex)
		if err != nil {
			continue
		}
		delays[channel] = delay
	}
	return delays
}
