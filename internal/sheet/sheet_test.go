package sheet

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, sheetName string, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", sheetName))
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		vals := make([]any, len(r))
		for j, v := range r {
			vals[j] = v
		}
		require.NoError(t, f.SetSheetRow(sheetName, cell, &vals))
	}
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func drain(t *testing.T, rows Rows) [][]string {
	t.Helper()
	defer rows.Close()
	var out [][]string
	for rows.Next() {
		cols, err := rows.Columns()
		require.NoError(t, err)
		out = append(out, cols)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestExcelRowsStream(t *testing.T) {
	data := [][]string{
		{"10-digit PSGC", "Name", "Correspondence Code", "Geographic Level"},
		{"0100000000", "Region I", "010000000", "Reg"},
	}
	src, err := Open(writeWorkbook(t, "PSGC", data))
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, []string{"PSGC"}, src.Sheets())
	rows, err := src.Rows("psgc")
	require.NoError(t, err)
	assert.Equal(t, data, drain(t, rows))
}

func TestExcelMissingSheet(t *testing.T) {
	src, err := Open(writeWorkbook(t, "Summary", [][]string{{"x"}}))
	require.NoError(t, err)
	defer src.Close()
	_, err = src.Rows("PSGC")
	assert.True(t, errors.Is(err, ErrSheetNotFound))
}

func TestOpenRejectsNonWorkbook(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestMemorySource(t *testing.T) {
	m := NewMemory().Add("Notes", nil).Add("PSGC", [][]string{{"a"}, {"b", "c"}})
	assert.Equal(t, []string{"Notes", "PSGC"}, m.Sheets())
	rows, err := m.Rows("PSGC")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a"}, {"b", "c"}}, drain(t, rows))

	_, err = m.Rows("Other")
	assert.True(t, errors.Is(err, ErrSheetNotFound))
}
