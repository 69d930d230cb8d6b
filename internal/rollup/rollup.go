// Package rollup re-aggregates per-line metrics into project groups and
// category totals. Sums are taken over schedule and production; deltas and
// adherence percentages are recomputed from the summed quantities so a
// group's percentage is never a mean of its members' percentages.
package rollup

import (
	"math"
	"sort"

	"github.com/adientlz/pvs-reporter/internal/reconcile"
	"github.com/adientlz/pvs-reporter/internal/refmap"
)

// GroupTotals is the reconciled shape for one project group.
type GroupTotals struct {
	Group string                  `json:"group"`
	MTD   reconcile.WindowMetrics `json:"mtd"`
	WTD   reconcile.WindowMetrics `json:"wtd"`
	Daily reconcile.WindowMetrics `json:"daily"`
}

// WindowSet bundles the three reporting windows.
type WindowSet struct {
	MTD   reconcile.WindowMetrics `json:"mtd"`
	WTD   reconcile.WindowMetrics `json:"wtd"`
	Daily reconcile.WindowMetrics `json:"daily"`
}

// CategoryTotals carries per-category and grand totals per window.
type CategoryTotals struct {
	SEW   WindowSet `json:"sew"`
	ASSY  WindowSet `json:"assy"`
	Total WindowSet `json:"total"`
}

// OLKTotals carries the month-to-date OLK roll-up per category.
type OLKTotals struct {
	SEW   OLKSummary `json:"sew"`
	ASSY  OLKSummary `json:"assy"`
	Total OLKSummary `json:"total"`
}

// OLKSummary compares month-to-date production against the monthly target.
type OLKSummary struct {
	OLK          float64 `json:"olk"`
	Production   float64 `json:"production"`
	AdherencePct float64 `json:"adherence_pct"`
}

// Groups rolls per-line rows up into project groups using the reference
// table's grouping logic. The month-to-date OLK of a group is the sum over
// its distinct underlying projects; a project split into SEW and ASSY rows
// contributes its target once, not twice.
func Groups(rows []reconcile.LineMetrics, table *refmap.Table, clamp float64) []GroupTotals {
	type acc struct {
		mtd, wtd, daily sums
		olkByProject    map[string]float64
	}
	byGroup := map[string]*acc{}
	var order []string

	for _, r := range rows {
		group := table.Group(r.Line)
		if group == "" {
			group = r.Line
		}
		a, ok := byGroup[group]
		if !ok {
			a = &acc{olkByProject: map[string]float64{}}
			byGroup[group] = a
			order = append(order, group)
		}
		a.mtd.add(r.MTD)
		a.wtd.add(r.WTD)
		a.daily.add(r.Daily)

		if r.MTD.OLK > 0 {
			project := refmap.BaseProject(r.Line)
			if r.MTD.OLK > a.olkByProject[project] {
				a.olkByProject[project] = r.MTD.OLK
			}
		}
	}

	sort.Strings(order)
	out := make([]GroupTotals, 0, len(order))
	for _, group := range order {
		a := byGroup[group]
		g := GroupTotals{
			Group: group,
			MTD:   a.mtd.metrics(clamp),
			WTD:   a.wtd.metrics(clamp),
			Daily: a.daily.metrics(clamp),
		}
		for _, olk := range a.olkByProject {
			g.MTD.OLK += olk
		}
		if g.MTD.OLK > 0 {
			g.MTD.OLKAdherencePct = round1(g.MTD.Production / g.MTD.OLK * 100)
		}
		out = append(out, g)
	}
	return out
}

// Categories totals schedule and production per category and overall for
// each window.
func Categories(rows []reconcile.LineMetrics, clamp float64) CategoryTotals {
	var sew, assy, total windowSums
	for _, r := range rows {
		total.add(r)
		switch r.Category {
		case refmap.CategorySEW:
			sew.add(r)
		case refmap.CategoryASSY:
			assy.add(r)
		}
	}
	return CategoryTotals{
		SEW:   sew.set(clamp),
		ASSY:  assy.set(clamp),
		Total: total.set(clamp),
	}
}

// OLK totals month-to-date production against the monthly targets per
// category, deduplicating targets by underlying project like Groups does.
func OLK(rows []reconcile.LineMetrics) OLKTotals {
	return OLKTotals{
		SEW:   olkSummary(rows, refmap.CategorySEW),
		ASSY:  olkSummary(rows, refmap.CategoryASSY),
		Total: olkSummary(rows, ""),
	}
}

func olkSummary(rows []reconcile.LineMetrics, cat refmap.Category) OLKSummary {
	byProject := map[string]float64{}
	var s OLKSummary
	for _, r := range rows {
		if cat != "" && r.Category != cat {
			continue
		}
		s.Production += r.MTD.Production
		if r.MTD.OLK > 0 {
			project := refmap.BaseProject(r.Line)
			if r.MTD.OLK > byProject[project] {
				byProject[project] = r.MTD.OLK
			}
		}
	}
	for _, olk := range byProject {
		s.OLK += olk
	}
	s.Production = round2(s.Production)
	if s.OLK > 0 {
		s.AdherencePct = round1(s.Production / s.OLK * 100)
	}
	return s
}

type sums struct {
	schedule   int
	production float64
}

func (s *sums) add(w reconcile.WindowMetrics) {
	s.schedule += w.Schedule
	s.production += w.Production
}

func (s *sums) metrics(clamp float64) reconcile.WindowMetrics {
	production := round2(s.production)
	delta := round2(production - float64(s.schedule))
	return reconcile.WindowMetrics{
		Schedule:     s.schedule,
		Production:   production,
		Delta:        delta,
		AdherencePct: reconcile.Adherence(delta, float64(s.schedule), clamp),
	}
}

type windowSums struct {
	mtd, wtd, daily sums
}

func (w *windowSums) add(r reconcile.LineMetrics) {
	w.mtd.add(r.MTD)
	w.wtd.add(r.WTD)
	w.daily.add(r.Daily)
}

func (w *windowSums) set(clamp float64) WindowSet {
	return WindowSet{
		MTD:   w.mtd.metrics(clamp),
		WTD:   w.wtd.metrics(clamp),
		Daily: w.daily.metrics(clamp),
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
