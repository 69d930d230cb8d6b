package series

import (
	"sort"
	"time"
)

// Weekly-bucket detection thresholds. Planning workbooks that carry one
// column per calendar week stamp the column with the Monday of that week;
// the ratios below separate those from genuinely daily grids.
const (
	weeklyMondayRatio = 0.70
	weeklyGapRatio    = 0.50
	weeklyGapMinDays  = 6
	weeklyGapMaxDays  = 8
)

// LooksWeekly reports whether the distinct dates across the map form a
// weekly-bucketed layout: at least 70% of dates fall on a Monday and at
// least 50% of consecutive gaps span 6 to 8 days.
func LooksWeekly(b ByLine) bool {
	seen := map[time.Time]struct{}{}
	for _, s := range b {
		for d := range s {
			seen[d] = struct{}{}
		}
	}
	if len(seen) < 2 {
		return false
	}

	dates := make([]time.Time, 0, len(seen))
	mondays := 0
	for d := range seen {
		dates = append(dates, d)
		if d.Weekday() == time.Monday {
			mondays++
		}
	}
	if float64(mondays) < weeklyMondayRatio*float64(len(dates)) {
		return false
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	weekGaps := 0
	for i := 1; i < len(dates); i++ {
		gap := int(dates[i].Sub(dates[i-1]).Hours() / 24)
		if gap >= weeklyGapMinDays && gap <= weeklyGapMaxDays {
			weekGaps++
		}
	}
	return float64(weekGaps) >= weeklyGapRatio*float64(len(dates)-1)
}

// ExpandWeekly splits a weekly quantity across workdays days by integer
// division, giving the first qty%workdays days one extra unit each. The
// parts always sum back to qty: ExpandWeekly(17, 5) == [4,4,3,3,3].
func ExpandWeekly(qty, workdays int) []int {
	if workdays <= 0 {
		return nil
	}
	base := qty / workdays
	rem := qty % workdays
	out := make([]int, workdays)
	for i := range out {
		out[i] = base
		if i < rem {
			out[i]++
		}
	}
	return out
}

// ExpandWeeklyByLine rewrites every weekly bucket in b to daily values
// starting at the bucket's date. Entries beyond workdays stay untouched
// because each bucket only ever spans one working week.
func ExpandWeeklyByLine(b ByLine, workdays int) ByLine {
	out := ByLine{}
	for code, s := range b {
		daily := Daily{}
		for weekStart, qty := range s {
			parts := ExpandWeekly(int(qty+0.5), workdays)
			for i, p := range parts {
				if p != 0 {
					daily.Add(weekStart.AddDate(0, 0, i), float64(p))
				}
			}
		}
		out[code] = daily
	}
	return out
}
