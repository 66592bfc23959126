package hdf5writer

import (
	"errors"
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	risetime "github.com/next-exp/risetime_go/pkg"
)

// Writer stores analysis results in an HDF5 file: one /Run/runInfo row per
// board and a /Results/<board> table with one row per trace and role.
type Writer struct {
	File             *hdf5.File
	Filename         string
	RunGroup         *hdf5.Group
	ResultsGroup     *hdf5.Group
	RunInfoTable     *hdf5.Dataset
	ResultTables     map[string]*hdf5.Dataset
	CompressionLevel int
}

func NewWriter(filename string, compressionLevel int) (*Writer, error) {
	file, err := hdf5.CreateFile(filename, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &ErrCreateFile{Filename: filename, Err: err}
	}

	writer := &Writer{
		File:             file,
		Filename:         filename,
		ResultTables:     make(map[string]*hdf5.Dataset),
		CompressionLevel: compressionLevel,
	}
	if writer.RunGroup, err = createGroup(file, "Run"); err != nil {
		writer.Close()
		return nil, err
	}
	if writer.ResultsGroup, err = createGroup(file, "Results"); err != nil {
		writer.Close()
		return nil, err
	}
	if writer.RunInfoTable, err = createTable(writer.RunGroup, "runInfo", RunInfoHDF5{}, compressionLevel); err != nil {
		writer.Close()
		return nil, err
	}
	return writer, nil
}

// WriteBoard appends the complete results of a board. A board name can only
// be written once per file.
func (w *Writer) WriteBoard(board *risetime.Board, runID string) error {
	if _, ok := w.ResultTables[board.Name]; ok {
		return fmt.Errorf("board %q already written to %s", board.Name, w.Filename)
	}
	table, err := createTable(w.ResultsGroup, board.Name, ResultHDF5{}, w.CompressionLevel)
	if err != nil {
		return err
	}
	w.ResultTables[board.Name] = table

	rows := risetime.ResultRows(board, runID)
	entries := make([]ResultHDF5, len(rows))
	for i, row := range rows {
		entries[i] = toResultHDF5(row)
	}
	if err := appendToTable(table, &entries); err != nil {
		return fmt.Errorf("board %q: %w", board.Name, err)
	}

	runInfo := []RunInfoHDF5{{
		board:  convertToHdf5String(board.Name),
		traces: int32(len(rows)),
	}}
	copy(runInfo[0].runID[:], runID)
	return appendToTable(w.RunInfoTable, &runInfo)
}

func (w *Writer) Close() error {
	var errs []error

	for name, table := range w.ResultTables {
		if err := table.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing results table %s: %w", name, err))
		}
	}
	if w.RunInfoTable != nil {
		if err := w.RunInfoTable.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run info table: %w", err))
		}
	}
	if w.ResultsGroup != nil {
		if err := w.ResultsGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing results group: %w", err))
		}
	}
	if w.RunGroup != nil {
		if err := w.RunGroup.Close(); err != nil {
			errs = append(errs, fmt.Errorf("error closing run group: %w", err))
		}
	}
	if err := w.File.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing file: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
