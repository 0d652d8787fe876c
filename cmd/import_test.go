package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestReadRowsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "programs.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,title\np1,창업 지원\n"), 0644))

	header, rows, err := readRows(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title"}, header)
	require.Len(t, rows, 1)
	assert.Equal(t, "창업 지원", rows[0][1])
}

func TestReadRowsXLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, rowData := range [][]string{{"id", "title"}, {"p1", "기술개발 과제"}} {
		row := sheet.AddRow()
		for _, cell := range rowData {
			row.AddCell().SetString(cell)
		}
	}
	path := filepath.Join(t.TempDir(), "programs.xlsx")
	require.NoError(t, f.Save(path))

	header, rows, err := readRows(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "title"}, header)
	require.Len(t, rows, 1)
}

func TestReadRowsUnsupportedExtension(t *testing.T) {
	_, _, err := readRows(context.Background(), "programs.hwp", "")
	assert.Error(t, err)
}
