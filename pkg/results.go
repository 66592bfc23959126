package risetime

import (
	"github.com/google/uuid"
)

// ResultRow is one analyzed (channel, waveform type, trace, role) of a board,
// flattened for export.
type ResultRow struct {
	RunID          string  `db:"RunID"`
	Board          string  `db:"Board"`
	Channel        int     `db:"Channel"`
	WaveformType   string  `db:"WaveformType"`
	TraceIndex     int     `db:"TraceIndex"`
	Role           string  `db:"Role"`
	Pedestal       float64 `db:"Pedestal"`
	Peak           float64 `db:"Peak"`
	PeakIndex      int     `db:"PeakIndex"`
	ThresholdIndex int     `db:"ThresholdIndex"`
	TLow           float64 `db:"TLow"`
	THigh          float64 `db:"THigh"`
	RiseTime       float64 `db:"RiseTime"`
}

// NewRunID identifies one analysis run in exported results.
func NewRunID() string {
	return uuid.NewString()
}

// ResultRows lists the complete results of a board ordered by channel,
// waveform type, trace index and role.
func ResultRows(board *Board, runID string) []ResultRow {
	rows := make([]ResultRow, 0)
	for _, channel := range board.AvailableChannels() {
		for _, wt := range []WaveformType{Singles, Averages} {
			for _, traceIndex := range board.TraceIndices(channel, wt) {
				analysis, err := board.GetAnalysis(channel, wt, traceIndex)
				if err != nil {
					continue
				}
				for _, role := range []SignalRole{Output, Input} {
					result, ok := ResultFromAnalysis(analysis, role)
					if !ok {
						continue
					}
					rows = append(rows, ResultRow{
						RunID:          runID,
						Board:          board.Name,
						Channel:        channel,
						WaveformType:   wt.String(),
						TraceIndex:     traceIndex,
						Role:           role.String(),
						Pedestal:       result.Pedestal,
						Peak:           result.Peak,
						PeakIndex:      result.PeakIndex,
						ThresholdIndex: result.ThresholdIndex,
						TLow:           result.TLow,
						THigh:          result.THigh,
						RiseTime:       result.RiseTime,
					})
				}
			}
		}
	}
	return rows
}
