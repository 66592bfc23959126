package risetime

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
)

var (
	channelTraceRegexp = regexp.MustCompile(`C(\d+)--Trace--(\d+)`)
	traceOnlyRegexp    = regexp.MustCompile(`Trace--(\d+)`)
	channelRegexp      = regexp.MustCompile(`ch(\d+)`)
	tekTraceRegexp     = regexp.MustCompile(`tek(\d+)ALL`)
)

// fileKey is the channel and, when encoded in the name, trace index of a file.
type fileKey struct {
	Channel  int
	Index    int
	HasIndex bool
}

type keyFunc func(filename string) (fileKey, bool)

// discoverFiles decodes every file accepted by key. Files without a trace
// index in their name are numbered per channel in glob order.
func discoverFiles(files []string, module string, key keyFunc,
	read func(filename string) (SampleTable, error)) []DiscoveredTrace {
	traces := make([]DiscoveredTrace, 0, len(files))
	filesPerChannel := make(map[int]int)
	for _, file := range files {
		k, ok := key(file)
		if !ok {
			logger.Info(fmt.Sprintf("Could not extract info from %s, skipping", filepath.Base(file)), module)
			continue
		}
		data, err := read(file)
		if err != nil {
			logger.Error(fmt.Errorf("error processing file: %w", err).Error())
			continue
		}
		index := k.Index
		if !k.HasIndex {
			index = filesPerChannel[k.Channel]
		}
		filesPerChannel[k.Channel]++
		traces = append(traces, DiscoveredTrace{Channel: k.Channel, Index: index, Data: data})
		if configuration.Verbosity > 1 {
			message := fmt.Sprintf("Loaded %s as channel %d trace %d", filepath.Base(file), k.Channel, index)
			logger.Info(message, module)
		}
	}
	return traces
}

func csvReader(layout csvLayout) func(string) (SampleTable, error) {
	return func(filename string) (SampleTable, error) {
		return readTraceCSV(filename, layout)
	}
}

// lecroyKey reads "C<ch>--Trace--<n>" names, falling back to defaultChannel
// when only the trace number is present.
func lecroyKey(defaultChannel int) keyFunc {
	return func(filename string) (fileKey, bool) {
		name := filepath.Base(filename)
		if match := channelTraceRegexp.FindStringSubmatch(name); match != nil {
			channel, errChannel := strconv.Atoi(match[1])
			index, errIndex := strconv.Atoi(match[2])
			if errChannel == nil && errIndex == nil {
				return fileKey{Channel: channel, Index: index, HasIndex: true}, true
			}
		}
		if index, ok := matchInt(traceOnlyRegexp, name); ok {
			return fileKey{Channel: defaultChannel, Index: index, HasIndex: true}, true
		}
		return fileKey{}, false
	}
}

func channelInNameKey(filename string) (fileKey, bool) {
	channel, ok := matchInt(channelRegexp, filepath.Base(filename))
	if !ok {
		return fileKey{}, false
	}
	return fileKey{Channel: channel}, true
}

// tektronixKey takes the channel from the parent directory, then the file
// name, and the trace index from "tek<n>ALL" when present.
func tektronixKey(filename string) (fileKey, bool) {
	name := filepath.Base(filename)
	channel, ok := matchInt(channelRegexp, filepath.Base(filepath.Dir(filename)))
	if !ok {
		channel, ok = matchInt(channelRegexp, name)
		if !ok {
			return fileKey{}, false
		}
	}
	key := fileKey{Channel: channel}
	if index, ok := matchInt(tekTraceRegexp, name); ok {
		key.Index = index
		key.HasIndex = true
	}
	return key, true
}

// CASB1Loader reads LeCroy singles and Tektronix averages of the first CASB.
type CASB1Loader struct{}

func (CASB1Loader) Name() string { return "CASB1" }

func (l CASB1Loader) DiscoverTraces(pattern string, wt WaveformType) ([]DiscoveredTrace, error) {
	files, err := globFiles(pattern, l.Name())
	if err != nil {
		return nil, err
	}
	if wt == Singles {
		layout := csvLayout{SkipRows: 6, Columns: []string{"time", "output"}}
		return discoverFiles(files, l.Name(), lecroyKey(1), csvReader(layout)), nil
	}
	layout := csvLayout{SkipRows: 21, Columns: []string{"time", "output", "", "input"}}
	return discoverFiles(files, l.Name(), channelInNameKey, csvReader(layout)), nil
}

// CASB2Loader reads Tektronix "tek*ALL.csv" captures stored per channel directory.
type CASB2Loader struct{}

func (CASB2Loader) Name() string { return "CASB2" }

func (l CASB2Loader) DiscoverTraces(pattern string, wt WaveformType) ([]DiscoveredTrace, error) {
	files, err := globFiles(pattern, l.Name())
	if err != nil {
		return nil, err
	}
	layout := csvLayout{SkipRows: 21, Columns: []string{"time", "output", "input"}}
	return discoverFiles(files, l.Name(), tektronixKey, csvReader(layout)), nil
}

// MTCALoader reads MTCA captures. The MTCA output is recorded inverted.
type MTCALoader struct{}

func (MTCALoader) Name() string { return "MTCA1" }

func (l MTCALoader) DiscoverTraces(pattern string, wt WaveformType) ([]DiscoveredTrace, error) {
	files, err := globFiles(pattern, l.Name())
	if err != nil {
		return nil, err
	}
	layout := csvLayout{SkipRows: 6, Columns: []string{"time", "output"}}
	if wt == Averages {
		return discoverFiles(files, l.Name(), channelInNameKey, csvReader(layout)), nil
	}
	read := func(filename string) (SampleTable, error) {
		table, err := readTraceCSV(filename, layout)
		if err != nil {
			return table, err
		}
		for i, v := range table.Columns[Output] {
			table.Columns[Output][i] = -v
		}
		return table, nil
	}
	return discoverFiles(files, l.Name(), lecroyKey(4), read), nil
}
