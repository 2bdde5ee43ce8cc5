package ingest

import (
	"path/filepath"
	"testing"

	"psgc-api/internal/config"
	"psgc-api/internal/store"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var header = []string{"10-digit PSGC", "Name", "Correspondence Code", "Geographic Level", "Old names", "City Class"}

func sampleRows() [][]string {
	return [][]string{
		header,
		{"0100000000", "Region I (Ilocos Region)", "010000000", "Reg", "", ""},
		{"0128000000", "Ilocos Norte", "012800000", "Prov", "", ""},
		{"0128010000", "Laoag City", "012801000", "City", "", "CC"},
		{"0128010001", "San Lorenzo", "012801001", "Bgy", "", ""},
		{"", "", "", "", "", ""},
		{"1300000000", "National Capital Region (NCR)", "130000000", "Reg", "Metro Manila", ""},
		{"1380600000", "City of Manila", "133900000", "City", "", "HUC"},
		{"1380600001", "Barangay 1", "133901001", "Bgy", "", ""},
	}
}

func writeWorkbook(t *testing.T, dir, name, sheetName string, rows [][]string) string {
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
	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	return path
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(config.DBOptions{Driver: "sqlite3", SQLitePath: filepath.Join(t.TempDir(), "psgc.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
