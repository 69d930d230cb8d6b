package rollup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adientlz/pvs-reporter/internal/reconcile"
	"github.com/adientlz/pvs-reporter/internal/refmap"
)

func win(schedule int, production float64) reconcile.WindowMetrics {
	delta := production - float64(schedule)
	return reconcile.WindowMetrics{
		Schedule:     schedule,
		Production:   production,
		Delta:        delta,
		AdherencePct: reconcile.Adherence(delta, float64(schedule), reconcile.DefaultClamp),
	}
}

func TestGroupsOLKDeduplication(t *testing.T) {
	table := refmap.New(nil, nil)

	// One project split into SEW and ASSY rows carrying the same OLK.
	sew := reconcile.LineMetrics{
		Code: "B_FG", Line: "BMW G07 - SEW", Category: refmap.CategorySEW,
		MTD: win(100, 80), WTD: win(50, 40), Daily: win(10, 8),
	}
	sew.MTD.OLK = 500
	assy := reconcile.LineMetrics{
		Code: "B_ASSY", Line: "BMW G07 - ASSY", Category: refmap.CategoryASSY,
		MTD: win(100, 90), WTD: win(50, 45), Daily: win(10, 9),
	}
	assy.MTD.OLK = 500

	groups := Groups([]reconcile.LineMetrics{sew, assy}, table, reconcile.DefaultClamp)
	require.Len(t, groups, 1)
	g := groups[0]

	assert.Equal(t, "BMW G07", g.Group)
	assert.Equal(t, 200, g.MTD.Schedule)
	assert.Equal(t, 170.0, g.MTD.Production)
	// OLK counted once despite the SEW/ASSY split.
	assert.Equal(t, 500.0, g.MTD.OLK)
	assert.Equal(t, 34.0, g.MTD.OLKAdherencePct)
}

func TestGroupsAdherenceRecomputed(t *testing.T) {
	table := refmap.New(nil, nil)

	// One line massively over schedule on a tiny base, one under on a big
	// base. Averaging their percentages would mislead; the group percentage
	// must come from the summed quantities.
	a := reconcile.LineMetrics{
		Code: "A", Line: "PROJ X - SEW", Category: refmap.CategorySEW,
		MTD: win(1, 4), WTD: win(1, 4), Daily: win(1, 4),
	}
	b := reconcile.LineMetrics{
		Code: "B", Line: "PROJ X - ASSY", Category: refmap.CategoryASSY,
		MTD: win(999, 500), WTD: win(999, 500), Daily: win(999, 500),
	}

	groups := Groups([]reconcile.LineMetrics{a, b}, table, reconcile.DefaultClamp)
	require.Len(t, groups, 1)
	g := groups[0]

	assert.Equal(t, 1000, g.MTD.Schedule)
	assert.Equal(t, 504.0, g.MTD.Production)
	require.NotNil(t, g.MTD.AdherencePct)
	// (504-1000)/1000 = -49.6%, nowhere near the mean of +300% and -49.9%.
	assert.Equal(t, -49.6, *g.MTD.AdherencePct)
}

func TestGroupsOverride(t *testing.T) {
	table := refmap.New(nil, nil)

	e3 := reconcile.LineMetrics{
		Code: "P3", Line: "PORSCHE E3 - SEW", Category: refmap.CategorySEW,
		MTD: win(10, 5), WTD: win(10, 5), Daily: win(10, 5),
	}
	e4 := reconcile.LineMetrics{
		Code: "P4", Line: "PORSCHE E4 - SEW", Category: refmap.CategorySEW,
		MTD: win(20, 10), WTD: win(20, 10), Daily: win(20, 10),
	}

	groups := Groups([]reconcile.LineMetrics{e3, e4}, table, reconcile.DefaultClamp)
	require.Len(t, groups, 1)
	assert.Equal(t, "PORSCHE", groups[0].Group)
	assert.Equal(t, 30, groups[0].MTD.Schedule)
}

func TestCategories(t *testing.T) {
	rows := []reconcile.LineMetrics{
		{Category: refmap.CategorySEW, MTD: win(100, 90), WTD: win(50, 45), Daily: win(10, 9)},
		{Category: refmap.CategoryASSY, MTD: win(200, 150), WTD: win(100, 80), Daily: win(20, 15)},
		{Category: refmap.CategoryOther, MTD: win(10, 10), WTD: win(5, 5), Daily: win(1, 1)},
	}

	totals := Categories(rows, reconcile.DefaultClamp)

	assert.Equal(t, 100, totals.SEW.MTD.Schedule)
	assert.Equal(t, 90.0, totals.SEW.MTD.Production)
	assert.Equal(t, 200, totals.ASSY.MTD.Schedule)
	// Grand total includes the OTHER row.
	assert.Equal(t, 310, totals.Total.MTD.Schedule)
	assert.Equal(t, 250.0, totals.Total.MTD.Production)
	assert.Equal(t, 155, totals.Total.WTD.Schedule)
	assert.Equal(t, 31, totals.Total.Daily.Schedule)

	require.NotNil(t, totals.Total.MTD.AdherencePct)
	assert.Equal(t, -19.4, *totals.Total.MTD.AdherencePct)
}

func TestOLKTotalsDeduplication(t *testing.T) {
	sew := reconcile.LineMetrics{
		Line: "BMW G07 - SEW", Category: refmap.CategorySEW, MTD: win(0, 80),
	}
	sew.MTD.OLK = 500
	assy := reconcile.LineMetrics{
		Line: "BMW G07 - ASSY", Category: refmap.CategoryASSY, MTD: win(0, 90),
	}
	assy.MTD.OLK = 500
	other := reconcile.LineMetrics{
		Line: "CRAFTER - SEW", Category: refmap.CategorySEW, MTD: win(0, 30),
	}
	other.MTD.OLK = 100

	totals := OLK([]reconcile.LineMetrics{sew, assy, other})

	assert.Equal(t, 600.0, totals.SEW.OLK)
	assert.Equal(t, 110.0, totals.SEW.Production)
	assert.Equal(t, 500.0, totals.ASSY.OLK)
	// Grand total counts the BMW target once.
	assert.Equal(t, 600.0, totals.Total.OLK)
	assert.Equal(t, 200.0, totals.Total.Production)
	assert.InDelta(t, 33.3, totals.Total.AdherencePct, 0.01)
}

func TestOLKZeroTarget(t *testing.T) {
	row := reconcile.LineMetrics{Line: "X - SEW", Category: refmap.CategorySEW, MTD: win(0, 10)}
	totals := OLK([]reconcile.LineMetrics{row})
	assert.Equal(t, 0.0, totals.SEW.OLK)
	assert.Equal(t, 0.0, totals.SEW.AdherencePct)
}
