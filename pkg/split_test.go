package risetime_test

import (
	"bytes"
	"strings"
	"testing"

	risetime "github.com/next-exp/risetime_go/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scopeCSV = `Time,CH1,CH2
0,1,2
1,3,4
`

func TestSplitColumns(t *testing.T) {
	var keep, remaining bytes.Buffer
	err := risetime.SplitColumns(strings.NewReader(scopeCSV), &keep, &remaining, risetime.DefaultSplitOptions())
	require.NoError(t, err)

	assert.Equal(t, "Time,CH2\n0,2\n1,4\n", keep.String())
	assert.Equal(t, "Time,CH1\n0,1\n1,3\n", remaining.String())
}

func TestSplitColumnsOptions(t *testing.T) {
	input := "Model,MSO\nSerial,123\n" + scopeCSV
	opts := risetime.SplitOptions{SkipRows: 2, TimeCol: "Time", KeepCol: "CH1"}

	var keep bytes.Buffer
	require.NoError(t, risetime.SplitColumns(strings.NewReader(input), &keep, nil, opts))
	assert.Equal(t, "Time,CH1\n0,1\n1,3\n", keep.String())
}

func TestSplitColumnsMissing(t *testing.T) {
	var keep bytes.Buffer
	opts := risetime.DefaultSplitOptions()
	opts.KeepCol = "CH4"

	err := risetime.SplitColumns(strings.NewReader(scopeCSV), &keep, nil, opts)
	var notFound *risetime.ErrNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 3, notFound.Available)
	assert.Contains(t, err.Error(), "Time, CH1, CH2")

	opts = risetime.DefaultSplitOptions()
	opts.TimeCol = "t"
	err = risetime.SplitColumns(strings.NewReader(scopeCSV), &keep, nil, opts)
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "time column", notFound.Key)
}
