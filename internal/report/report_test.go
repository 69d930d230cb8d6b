package report

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adientlz/pvs-reporter/internal/refmap"
	"github.com/adientlz/pvs-reporter/internal/series"
)

type stubSource struct {
	data series.ByLine
	err  error
}

func (s stubSource) Load(context.Context) (series.ByLine, error) { return s.data, s.err }

type stubActuals struct {
	data series.ByLine
	err  error
}

func (s stubActuals) ProducedByDay(context.Context, time.Time, time.Time) (series.ByLine, error) {
	return s.data, s.err
}

type panicSource struct{}

func (panicSource) Load(context.Context) (series.ByLine, error) { panic("boom") }

func fixedNow() time.Time {
	// A Friday, so the reference date is the same day.
	return time.Date(2024, 6, 14, 9, 30, 0, 0, time.UTC)
}

func testTable(t *testing.T) *refmap.Table {
	t.Helper()
	return refmap.New([]refmap.Row{
		{Line: "B_FG", Project: "BMW G07", SEWLabel: "BMW G07 - SEW", Type: refmap.CategorySEW},
	}, nil)
}

func TestBuildSuccess(t *testing.T) {
	day := series.Date(2024, time.June, 14)
	plans := stubSource{data: series.ByLine{"B_FG": {day: 120}}}
	acts := stubActuals{data: series.ByLine{"B_FG": {day: 90}}}

	b := &Builder{Plans: plans, Actuals: acts, Table: testTable(t), Now: fixedNow}
	res := b.Build(context.Background())

	require.True(t, res.Success)
	require.Equal(t, "2024-06-14", res.Date)
	require.NotEmpty(t, res.GeneratedAt)
	require.Len(t, res.Rows, 1)
	require.Equal(t, "B_FG", res.Rows[0].Code)
	require.NotNil(t, res.Totals)
	require.NotNil(t, res.OLKTotals)
	require.Empty(t, res.Error)
}

func TestBuildDegradesOnLoaderError(t *testing.T) {
	day := series.Date(2024, time.June, 14)
	plans := stubSource{err: errors.New("share unreachable")}
	acts := stubActuals{data: series.ByLine{"B_FG": {day: 90}}}

	b := &Builder{Plans: plans, Actuals: acts, Table: testTable(t), Now: fixedNow}
	res := b.Build(context.Background())

	// One side failing still produces a report, with zero schedule.
	require.True(t, res.Success)
	require.Len(t, res.Rows, 1)
	require.Equal(t, 0, res.Rows[0].Daily.Schedule)
	require.Equal(t, 90.0, res.Rows[0].Daily.Production)
}

func TestBuildRecoversPanic(t *testing.T) {
	b := &Builder{Plans: panicSource{}, Table: testTable(t), Now: fixedNow}
	res := b.Build(context.Background())

	require.False(t, res.Success)
	require.NotEmpty(t, res.Error)
	require.NotEmpty(t, res.Timestamp)
}

func TestBuildNilLoaders(t *testing.T) {
	b := &Builder{Table: testTable(t), Now: fixedNow}
	res := b.Build(context.Background())

	require.True(t, res.Success)
	require.Empty(t, res.Rows)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "pvs.json")
	res := Result{Success: true, Date: "2024-06-14"}

	require.NoError(t, WriteJSON(path, res))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Result
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, res.Date, got.Date)
}

func TestAdherenceSerializesNull(t *testing.T) {
	b := &Builder{
		Actuals: stubActuals{data: series.ByLine{"B_FG": {series.Date(2024, time.June, 14): 5}}},
		Table:   testTable(t),
		Now:     fixedNow,
	}
	res := b.Build(context.Background())

	data, err := json.Marshal(res.Rows[0].Daily)
	require.NoError(t, err)
	require.Contains(t, string(data), `"adherence_pct":null`)
}
