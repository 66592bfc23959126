package risetime

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

type DiscoveredTrace struct {
	Channel int
	Index   int
	Data    SampleTable
}

// Loader discovers the trace files of one board family and decodes them
// into sample tables.
type Loader interface {
	Name() string
	DiscoverTraces(pattern string, wt WaveformType) ([]DiscoveredTrace, error)
}

func LoaderFor(family string) (Loader, error) {
	switch strings.ToLower(family) {
	case "casb1":
		return CASB1Loader{}, nil
	case "casb2":
		return CASB2Loader{}, nil
	case "mtca":
		return MTCALoader{}, nil
	case "npy":
		return NpyLoader{}, nil
	}
	return nil, fmt.Errorf("unknown board family: %s", family)
}

// LoadTraces stores every trace the loader finds for pattern in the board
// and returns the number of files loaded per channel.
func LoadTraces(board *Board, loader Loader, wt WaveformType, pattern string) (map[int]int, error) {
	traces, err := loader.DiscoverTraces(pattern, wt)
	if err != nil {
		return nil, err
	}
	filesPerChannel := make(map[int]int)
	for _, trace := range traces {
		board.AddTrace(trace.Channel, wt, trace.Index, trace.Data)
		filesPerChannel[trace.Channel]++
	}
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Loaded %d %s files across %d channels for %s",
			len(traces), wt, len(filesPerChannel), board.Name)
		logger.Info(message, loader.Name())
	}
	return filesPerChannel, nil
}

func globFiles(pattern string, module string) ([]string, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	if len(files) == 0 {
		logger.Info(fmt.Sprintf("Warning: no files found matching pattern: %s", pattern), module)
	}
	return files, nil
}

func matchInt(re *regexp.Regexp, s string) (int, bool) {
	match := re.FindStringSubmatch(s)
	if match == nil {
		return 0, false
	}
	value, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return value, true
}

// parseNumeric converts a cell to float64, mapping anything unparsable to NaN.
func parseNumeric(cell string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return math.NaN()
	}
	return value
}

// csvLayout names the columns of a trace file after its header rows. Empty
// names are read and dropped.
type csvLayout struct {
	SkipRows int
	Columns  []string
}

func readTraceCSV(filename string, layout csvLayout) (SampleTable, error) {
	f, err := os.Open(filename)
	if err != nil {
		return SampleTable{}, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer f.Close()

	table, err := parseTraceCSV(f, layout)
	if err != nil {
		return SampleTable{}, &ErrParseFile{Filename: filename, Err: err}
	}
	return table, nil
}

func parseTraceCSV(r io.Reader, layout csvLayout) (SampleTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	columns := make(map[string][]float64, len(layout.Columns))
	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return SampleTable{}, err
		}
		row++
		if row <= layout.SkipRows {
			continue
		}
		for i, name := range layout.Columns {
			if name == "" {
				continue
			}
			value := math.NaN()
			if i < len(record) {
				value = parseNumeric(record[i])
			}
			columns[name] = append(columns[name], value)
		}
	}

	if len(columns["time"]) == 0 {
		return SampleTable{}, errors.New("no samples after header")
	}
	return NewSampleTable(columns["time"], columns["output"], columns["input"]), nil
}
