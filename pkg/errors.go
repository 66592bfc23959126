package risetime

import "fmt"

// ErrNotFound is returned when a channel, waveform type, trace index or
// column is missing. Available is the number of alternatives at that level.
type ErrNotFound struct {
	Board     string
	Key       string
	Value     string
	Available int
}

func (e *ErrNotFound) Error() string {
	message := fmt.Sprintf("%s %s not found. There are %d available", e.Key, e.Value, e.Available)
	if e.Board == "" {
		return message
	}
	return fmt.Sprintf("board %q: %s", e.Board, message)
}

// ErrCrossingNotFound means a rise-time threshold crossing could not be
// bracketed by two samples inside the trace.
type ErrCrossingNotFound struct {
	Edge      string
	Threshold float64
	Start     int
	Reason    string
}

func (e *ErrCrossingNotFound) Error() string {
	return fmt.Sprintf("%s crossing of %g searching from index %d: %s",
		e.Edge, e.Threshold, e.Start, e.Reason)
}

// ErrInvalidParameter represents an analysis parameter out of range.
type ErrInvalidParameter struct {
	Name   string
	Value  float64
	Reason string
}

func (e *ErrInvalidParameter) Error() string {
	return fmt.Sprintf("invalid parameter %s=%g: %s", e.Name, e.Value, e.Reason)
}

// ErrAmbiguousRole is returned when neither or both of output/input are selected.
type ErrAmbiguousRole struct {
	Output bool
	Input  bool
}

func (e *ErrAmbiguousRole) Error() string {
	return fmt.Sprintf("exactly one of output or input must be analyzed (output=%t, input=%t)",
		e.Output, e.Input)
}

// ErrInvalidSamples represents a sample table the analyzer cannot scan.
type ErrInvalidSamples struct {
	Reason string
	Index  int
}

func (e *ErrInvalidSamples) Error() string {
	return fmt.Sprintf("invalid samples at index %d: %s", e.Index, e.Reason)
}

// ErrOpenFile represents an error when opening a trace file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ErrParseFile represents an error when decoding a trace file.
type ErrParseFile struct {
	Filename string
	Err      error
}

func (e *ErrParseFile) Error() string {
	return fmt.Sprintf("error parsing file %q: %v", e.Filename, e.Err)
}

func (e *ErrParseFile) Unwrap() error {
	return e.Err
}
