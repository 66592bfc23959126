package risetime

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"
)

type SplitOptions struct {
	SkipRows int
	TimeCol  string
	KeepCol  string
}

func DefaultSplitOptions() SplitOptions {
	return SplitOptions{SkipRows: 0, TimeCol: "Time", KeepCol: "CH2"}
}

// SplitColumns copies the time column and the keep column of a scope CSV to
// keep. If remaining is not nil every other column, time included, is
// written there.
func SplitColumns(in io.Reader, keep io.Writer, remaining io.Writer, opts SplitOptions) error {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return fmt.Errorf("error skipping row %d: %w", i, err)
		}
	}
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("error reading header: %w", err)
	}

	timeIdx := slices.Index(header, opts.TimeCol)
	if timeIdx < 0 {
		return &ErrNotFound{Key: "time column", Value: fmt.Sprintf("%q (have %s)", opts.TimeCol, strings.Join(header, ", ")),
			Available: len(header)}
	}
	keepIdx := slices.Index(header, opts.KeepCol)
	if keepIdx < 0 {
		return &ErrNotFound{Key: "column", Value: fmt.Sprintf("%q (have %s)", opts.KeepCol, strings.Join(header, ", ")),
			Available: len(header)}
	}

	remainingIdx := make([]int, 0, len(header))
	for i, name := range header {
		if i != keepIdx || name == opts.TimeCol {
			remainingIdx = append(remainingIdx, i)
		}
	}

	keepWriter := csv.NewWriter(keep)
	var remainingWriter *csv.Writer
	if remaining != nil {
		remainingWriter = csv.NewWriter(remaining)
	}

	write := func(record []string) error {
		if err := keepWriter.Write(pick(record, []int{timeIdx, keepIdx})); err != nil {
			return err
		}
		if remainingWriter != nil {
			return remainingWriter.Write(pick(record, remainingIdx))
		}
		return nil
	}

	if err := write(header); err != nil {
		return err
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading row: %w", err)
		}
		if err := write(record); err != nil {
			return err
		}
	}

	keepWriter.Flush()
	if err := keepWriter.Error(); err != nil {
		return err
	}
	if remainingWriter != nil {
		remainingWriter.Flush()
		return remainingWriter.Error()
	}
	return nil
}

func pick(record []string, indices []int) []string {
	out := make([]string, len(indices))
	for i, idx := range indices {
		if idx < len(record) {
			out[i] = record[idx]
		}
	}
	return out
}
