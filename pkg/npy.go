package risetime

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/sbinet/npyio"
)

var npyTraceRegexp = regexp.MustCompile(`_(\d+)\.npy$`)

// NpyLoader reads traces saved with numpy.save as a 2-D float64 array of
// shape [samples, columns] with columns time, output and optionally input.
// Files are named "ch<channel>..._<trace>.npy".
type NpyLoader struct{}

func (NpyLoader) Name() string { return "npy" }

func (l NpyLoader) DiscoverTraces(pattern string, wt WaveformType) ([]DiscoveredTrace, error) {
	files, err := globFiles(pattern, l.Name())
	if err != nil {
		return nil, err
	}
	return discoverFiles(files, l.Name(), npyKey, readTraceNpy), nil
}

func npyKey(filename string) (fileKey, bool) {
	name := filepath.Base(filename)
	channel, ok := matchInt(channelRegexp, name)
	if !ok {
		channel, ok = matchInt(channelRegexp, filepath.Base(filepath.Dir(filename)))
		if !ok {
			return fileKey{}, false
		}
	}
	key := fileKey{Channel: channel}
	if index, ok := matchInt(npyTraceRegexp, name); ok {
		key.Index = index
		key.HasIndex = true
	}
	return key, true
}

func readTraceNpy(filename string) (SampleTable, error) {
	f, err := os.Open(filename)
	if err != nil {
		return SampleTable{}, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer f.Close()

	reader, err := npyio.NewReader(f)
	if err != nil {
		return SampleTable{}, &ErrParseFile{Filename: filename, Err: err}
	}

	shape := reader.Header.Descr.Shape
	if len(shape) != 2 || shape[1] < 2 {
		return SampleTable{}, &ErrParseFile{Filename: filename,
			Err: fmt.Errorf("expected [samples, columns>=2] array, got shape %v", shape)}
	}
	rows := shape[0]
	cols := shape[1]

	var data []float64
	if err := reader.Read(&data); err != nil {
		return SampleTable{}, &ErrParseFile{Filename: filename, Err: err}
	}

	at := func(i, j int) float64 {
		if reader.Header.Descr.Fortran {
			return data[j*rows+i]
		}
		return data[i*cols+j]
	}
	column := func(j int) []float64 {
		values := make([]float64, rows)
		for i := range values {
			values[i] = at(i, j)
		}
		return values
	}

	var input []float64
	if cols > 2 {
		input = column(2)
	}
	return NewSampleTable(column(0), column(1), input), nil
}
