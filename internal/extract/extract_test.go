package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func fillStyle(argb string) *xlsx.Style {
	style := xlsx.NewStyle()
	style.Fill = *xlsx.NewFill("solid", argb, argb)
	style.ApplyFill = true
	return style
}

// writePlanWorkbook lays out a minimal long-term planning sheet: a header
// row with "Week" in column D and plan rows labeled "Weekly Output PLAN",
// with fill colors from column G on.
func writePlanWorkbook(t *testing.T, name string, rowFills []string) string {
	t.Helper()
	f := xlsx.NewFile()
	sh, err := f.AddSheet("PLANING")
	require.NoError(t, err)

	noise := sh.AddRow()
	noise.AddCell().Value = "Long-term plan"

	header := sh.AddRow()
	for _, v := range []string{"Plant", "Project", "Line", "Week", "", "", "CW23", "CW24"} {
		header.AddCell().Value = v
	}

	for _, fill := range rowFills {
		row := sh.AddRow()
		for _, v := range []string{"LOZNICA", "BMW G07", "B_FG", "Weekly Output PLAN", "", ""} {
			row.AddCell().Value = v
		}
		for j := 0; j < 2; j++ {
			cell := row.AddCell()
			cell.Value = "100"
			if fill != "" {
				cell.SetStyle(fillStyle(fill))
			}
		}
	}

	// A non-plan row that must be skipped.
	other := sh.AddRow()
	for _, v := range []string{"LOZNICA", "BMW G07", "B_FG", "Headcount", "", "", "5", "5"} {
		other.AddCell().Value = v
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, f.Save(path))
	return path
}

func TestFindWorkbook(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"notes.xlsx", "cw36_ltp_plan.xlsx", "readme.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	e := New(Config{Dir: dir})
	path, err := e.FindWorkbook()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cw36_ltp_plan.xlsx"), path)
}

func TestFindWorkbookNoMatch(t *testing.T) {
	e := New(Config{Dir: t.TempDir()})
	_, err := e.FindWorkbook()
	require.Error(t, err)
}

func TestExtractClassifiesByFill(t *testing.T) {
	path := writePlanWorkbook(t, "CW36 LTP.xlsx", []string{
		"FF6363D0", // blue dominant, ASSY
		"FFD06363", // red dominant, SEW
		"",         // no fill, unclassified
	})

	e := New(Config{Dir: filepath.Dir(path)})
	records, err := e.Extract(path)
	require.NoError(t, err)
	require.Len(t, records, 4)

	header := records[0]
	assert.Equal(t, "Type", header[len(header)-1])
	assert.Equal(t, "Week", header[3])

	typeOf := func(rec []string) string { return rec[len(rec)-1] }
	assert.Equal(t, "ASSY", typeOf(records[1]))
	assert.Equal(t, "SEW", typeOf(records[2]))
	assert.Equal(t, "", typeOf(records[3]))
}

func TestExtractMissingSheet(t *testing.T) {
	f := xlsx.NewFile()
	_, err := f.AddSheet("Other")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "cw_ltp.xlsx")
	require.NoError(t, f.Save(path))

	e := New(Config{Dir: filepath.Dir(path)})
	_, err = e.Extract(path)
	require.Error(t, err)
}

func TestExtractMissingHeader(t *testing.T) {
	f := xlsx.NewFile()
	sh, err := f.AddSheet("PLANING")
	require.NoError(t, err)
	sh.AddRow().AddCell().Value = "nothing here"
	path := filepath.Join(t.TempDir(), "cw_ltp.xlsx")
	require.NoError(t, f.Save(path))

	e := New(Config{Dir: filepath.Dir(path)})
	_, err = e.Extract(path)
	require.Error(t, err)
}

func TestWriteCSVHasBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteCSV(path, [][]string{{"a", "b"}, {"1", "2"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])
	assert.Contains(t, string(data), "a,b\n1,2\n")
}

func TestProcess(t *testing.T) {
	path := writePlanWorkbook(t, "CW36 LTP.xlsx", []string{"FFD06363"})
	out := filepath.Join(t.TempDir(), "filtered_output.csv")

	e := New(Config{Dir: filepath.Dir(path)})
	require.NoError(t, e.Process(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Weekly Output PLAN")
	assert.Contains(t, string(data), "SEW")
}
