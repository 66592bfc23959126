package hdf5writer

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	risetime "github.com/next-exp/risetime_go/pkg"
)

const STRLEN = 20
const RUNIDLEN = 40

type ResultHDF5 struct {
	channel        int32
	waveformType   [STRLEN]byte
	traceIndex     int32
	role           [STRLEN]byte
	pedestal       float64
	peak           float64
	peakIndex      int32
	thresholdIndex int32
	tLow           float64
	tHigh          float64
	riseTime       float64
}

type RunInfoHDF5 struct {
	runID  [RUNIDLEN]byte
	board  [STRLEN]byte
	traces int32
}

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func toResultHDF5(row risetime.ResultRow) ResultHDF5 {
	return ResultHDF5{
		channel:        int32(row.Channel),
		waveformType:   convertToHdf5String(row.WaveformType),
		traceIndex:     int32(row.TraceIndex),
		role:           convertToHdf5String(row.Role),
		pedestal:       row.Pedestal,
		peak:           row.Peak,
		peakIndex:      int32(row.PeakIndex),
		thresholdIndex: int32(row.ThresholdIndex),
		tLow:           row.TLow,
		tHigh:          row.THigh,
		riseTime:       row.RiseTime,
	}
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

func createTable(group *hdf5.Group, name string, datatype interface{}, compressionLevel int) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer fileSpace.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	chunks := []uint{1024}
	if err := plist.SetChunk(chunks); err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	if err := plist.SetDeflate(compressionLevel); err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

// appendToTable extends a one dimensional table and writes data at its end.
func appendToTable[T any](dataset *hdf5.Dataset, data *[]T) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}

	dimsGot, _, err := dataset.Space().SimpleExtentDims()
	if err != nil {
		return fmt.Errorf("error reading table size: %w", err)
	}
	rowsInFile := dimsGot[0]

	if err := dataset.Resize([]uint{rowsInFile + length}); err != nil {
		return fmt.Errorf("error extending table: %w", err)
	}
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{rowsInFile}
	count := []uint{length}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return fmt.Errorf("error selecting hyperslab: %w", err)
	}

	dataspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return fmt.Errorf("error creating dataspace: %w", err)
	}
	defer dataspace.Close()

	if err := dataset.WriteSubset(data, dataspace, filespace); err != nil {
		return fmt.Errorf("error writing table: %w", err)
	}
	return nil
}
