package risetime

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"
)

type WaveformType int

const (
	Singles WaveformType = iota
	Averages
)

var waveformTypeStrings = []string{
	"singles",
	"averages",
}

func (w WaveformType) String() string {
	if w < Singles || w > Averages {
		return "unknown"
	}
	return waveformTypeStrings[w]
}

func ParseWaveformType(s string) (WaveformType, error) {
	for i, v := range waveformTypeStrings {
		if v == s {
			return WaveformType(i), nil
		}
	}
	return Singles, fmt.Errorf("invalid waveform type: %s", s)
}

func (w WaveformType) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

func (w *WaveformType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseWaveformType(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

func (w *WaveformType) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseWaveformType(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// SignalRole names a voltage column of a trace: the board output or the
// pulser input recorded alongside it.
type SignalRole int

const (
	Output SignalRole = iota
	Input
)

var signalRoleStrings = []string{
	"output",
	"input",
}

func (r SignalRole) String() string {
	if r < Output || r > Input {
		return "unknown"
	}
	return signalRoleStrings[r]
}

func ParseSignalRole(s string) (SignalRole, error) {
	for i, v := range signalRoleStrings {
		if v == s {
			return SignalRole(i), nil
		}
	}
	return Output, fmt.Errorf("invalid signal role: %s", s)
}

// RoleFromFlags resolves the output/input selection used by the command
// line and configuration into a single role.
func RoleFromFlags(output bool, input bool) (SignalRole, error) {
	switch {
	case output && !input:
		return Output, nil
	case input && !output:
		return Input, nil
	}
	return Output, &ErrAmbiguousRole{Output: output, Input: input}
}

// SampleTable holds the raw samples of one trace. All columns are index
// aligned with Time.
type SampleTable struct {
	Time    []float64
	Columns map[SignalRole][]float64
}

func NewSampleTable(time []float64, output []float64, input []float64) SampleTable {
	table := SampleTable{
		Time:    time,
		Columns: make(map[SignalRole][]float64),
	}
	if output != nil {
		table.Columns[Output] = output
	}
	if input != nil {
		table.Columns[Input] = input
	}
	return table
}

func (s SampleTable) Len() int {
	return len(s.Time)
}

func (s SampleTable) HasRole(role SignalRole) bool {
	_, ok := s.Columns[role]
	return ok
}

// Analysis accumulates the derived measurements of a trace.
type Analysis map[string]float64

type TraceEntry struct {
	Data     SampleTable
	Analysis Analysis
}

type Channel struct {
	Singles  map[int]*TraceEntry
	Averages map[int]*TraceEntry
}

func newChannel() *Channel {
	return &Channel{
		Singles:  make(map[int]*TraceEntry),
		Averages: make(map[int]*TraceEntry),
	}
}

func (c *Channel) traces(wt WaveformType) map[int]*TraceEntry {
	switch wt {
	case Singles:
		return c.Singles
	case Averages:
		return c.Averages
	}
	return nil
}

func (c *Channel) waveformTypes() int {
	n := 0
	if len(c.Singles) > 0 {
		n++
	}
	if len(c.Averages) > 0 {
		n++
	}
	return n
}

// Board is one hardware unit under test and owns its trace store.
type Board struct {
	Name     string
	Channels map[int]*Channel
}

func NewBoard(name string) *Board {
	if name == "" {
		name = "Unnamed"
	}
	return &Board{
		Name:     name,
		Channels: make(map[int]*Channel),
	}
}

// AddTrace stores a loaded trace with an empty analysis map. A trace already
// present at the same key is replaced.
func (b *Board) AddTrace(channel int, wt WaveformType, traceIndex int, data SampleTable) *TraceEntry {
	ch, ok := b.Channels[channel]
	if !ok {
		ch = newChannel()
		b.Channels[channel] = ch
	}
	entry := &TraceEntry{
		Data:     data,
		Analysis: make(Analysis),
	}
	ch.traces(wt)[traceIndex] = entry
	return entry
}

func (b *Board) AvailableChannels() []int {
	channels := maps.Keys(b.Channels)
	slices.Sort(channels)
	return channels
}

// HasWaveformType reports whether the channel holds at least one trace of wt.
func (b *Board) HasWaveformType(channel int, wt WaveformType) bool {
	ch, ok := b.Channels[channel]
	if !ok {
		return false
	}
	return len(ch.traces(wt)) > 0
}

// TraceIndices returns the sorted trace indices of a channel and waveform type.
func (b *Board) TraceIndices(channel int, wt WaveformType) []int {
	ch, ok := b.Channels[channel]
	if !ok {
		return nil
	}
	indices := maps.Keys(ch.traces(wt))
	slices.Sort(indices)
	return indices
}

func (b *Board) entry(channel int, wt WaveformType, traceIndex int) (*TraceEntry, error) {
	ch, ok := b.Channels[channel]
	if !ok {
		return nil, &ErrNotFound{
			Board:     b.Name,
			Key:       "channel",
			Value:     strconv.Itoa(channel),
			Available: len(b.Channels),
		}
	}
	traces := ch.traces(wt)
	if len(traces) == 0 {
		return nil, &ErrNotFound{
			Board:     b.Name,
			Key:       "waveform type",
			Value:     fmt.Sprintf("%s for channel %d", wt, channel),
			Available: ch.waveformTypes(),
		}
	}
	entry, ok := traces[traceIndex]
	if !ok {
		return nil, &ErrNotFound{
			Board:     b.Name,
			Key:       "trace index",
			Value:     fmt.Sprintf("%d in channel %d %s", traceIndex, channel, wt),
			Available: len(traces),
		}
	}
	return entry, nil
}

func (b *Board) GetSamples(channel int, wt WaveformType, traceIndex int) (SampleTable, error) {
	entry, err := b.entry(channel, wt, traceIndex)
	if err != nil {
		return SampleTable{}, err
	}
	return entry.Data, nil
}

// GetAnalysis returns the live analysis map of a trace.
func (b *Board) GetAnalysis(channel int, wt WaveformType, traceIndex int) (Analysis, error) {
	entry, err := b.entry(channel, wt, traceIndex)
	if err != nil {
		return nil, err
	}
	return entry.Analysis, nil
}
