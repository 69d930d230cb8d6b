// Package reconcile aligns planned schedules against realized production and
// computes schedule-adherence metrics over the daily, week-to-date and
// month-to-date windows.
package reconcile

import (
	"math"
	"sort"

	"github.com/adientlz/pvs-reporter/internal/refmap"
	"github.com/adientlz/pvs-reporter/internal/series"
)

// DefaultClamp is the symmetric adherence bound in percent. Extreme ratios
// (near-zero schedule with real production) report at the bound instead of
// disappearing, so the direction of the deviation stays visible.
const DefaultClamp = 300

// WindowMetrics carries the reconciled quantities for one window. Adherence
// is nil when the window has no schedule: an undefined ratio, not a zero
// one. OLK fields are populated for the month-to-date window only.
type WindowMetrics struct {
	Schedule     int      `json:"schedule"`
	Production   float64  `json:"production"`
	Delta        float64  `json:"delta"`
	AdherencePct *float64 `json:"adherence_pct"`

	OLK             float64 `json:"olk,omitempty"`
	OLKAdherencePct float64 `json:"olk_adherence_pct,omitempty"`
}

// LineMetrics is the reconciliation output for one production line.
type LineMetrics struct {
	Code     string          `json:"code"`
	Line     string          `json:"line"`
	Category refmap.Category `json:"category"`
	MTD      WindowMetrics   `json:"mtd"`
	WTD      WindowMetrics   `json:"wtd"`
	Daily    WindowMetrics   `json:"daily"`
}

// Options tunes reconciliation.
type Options struct {
	// Clamp bounds adherence percentages symmetrically; DefaultClamp when 0.
	Clamp float64
	// CategoryOverrides maps uppercased display labels that carry neither
	// SEW nor ASSY in their text to their real category.
	CategoryOverrides map[string]refmap.Category
	// MasterOrder optionally fixes the row order per category; labels not
	// listed sort alphabetically after the listed ones.
	MasterOrder map[refmap.Category][]string
}

func (o *Options) applyDefaults() {
	if o.Clamp == 0 {
		o.Clamp = DefaultClamp
	}
}

// Reconcile computes per-line metrics over the union of keys from both maps:
// a line with only planned or only produced data still gets a row, with
// zeros on the silent side.
func Reconcile(planned, produced series.ByLine, ref RefDate, table *refmap.Table, opts Options) []LineMetrics {
	opts.applyDefaults()

	rows := make([]LineMetrics, 0, len(planned)+len(produced))
	for _, code := range series.Codes(planned, produced) {
		plan := planned[code]
		prod := produced[code]

		category, hasType := table.ExplicitType(code)
		label := table.DisplayLabel(code, category)
		if !hasType {
			category = refmap.CategoryFromLabel(label, opts.CategoryOverrides)
		}

		row := LineMetrics{
			Code:     code,
			Line:     label,
			Category: category,
			MTD:      window(plan, prod, ref.MTD, opts.Clamp),
			WTD:      window(plan, prod, ref.WTD, opts.Clamp),
			Daily:    window(plan, prod, ref.Daily, opts.Clamp),
		}

		if olk := table.OLK(code); olk > 0 {
			row.MTD.OLK = olk
			row.MTD.OLKAdherencePct = round1(row.MTD.Production / olk * 100)
		}

		rows = append(rows, row)
	}

	sortRows(rows, opts.MasterOrder)
	return rows
}

func window(plan, prod series.Daily, w Window, clamp float64) WindowMetrics {
	schedule := int(plan.SumRange(w.Start, w.End))
	production := round2(prod.SumRange(w.Start, w.End))
	delta := round2(production - float64(schedule))
	return WindowMetrics{
		Schedule:     schedule,
		Production:   production,
		Delta:        delta,
		AdherencePct: Adherence(delta, float64(schedule), clamp),
	}
}

// Adherence returns the deviation percentage clamped symmetrically to the
// given bound, or nil when the schedule is empty (undefined, not zero).
func Adherence(delta, schedule, clamp float64) *float64 {
	if schedule <= 0 {
		return nil
	}
	pct := delta / schedule * 100
	if pct > clamp {
		pct = clamp
	}
	if pct < -clamp {
		pct = -clamp
	}
	pct = round1(pct)
	return &pct
}

func sortRows(rows []LineMetrics, master map[refmap.Category][]string) {
	pos := func(r LineMetrics) (int, bool) {
		order, ok := master[r.Category]
		if !ok {
			return 0, false
		}
		for i, label := range order {
			if label == r.Line {
				return i, true
			}
		}
		return 0, false
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rows[i], rows[j]
		if ri.Category.Rank() != rj.Category.Rank() {
			return ri.Category.Rank() < rj.Category.Rank()
		}
		pi, oki := pos(ri)
		pj, okj := pos(rj)
		switch {
		case oki && okj:
			return pi < pj
		case oki:
			return true
		case okj:
			return false
		default:
			return ri.Line < rj.Line
		}
	})
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
