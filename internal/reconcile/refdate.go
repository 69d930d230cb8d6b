package reconcile

import (
	"time"

	"github.com/adientlz/pvs-reporter/internal/series"
)

// Window is an inclusive date range.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RefDate fixes the as-of date and the three reporting windows for one run.
type RefDate struct {
	AsOf  time.Time
	Daily Window
	WTD   Window
	MTD   Window
}

// DefaultWeekendView lists the days on which the daily window widens to
// cover the weekend: reports generated on Sunday or Monday cover Friday and
// Saturday as one unit, since neither day gets its own report otherwise.
var DefaultWeekendView = []time.Weekday{time.Sunday, time.Monday}

// ReferenceDate derives the as-of date from today: normally yesterday, but
// on a configured weekend-view day the as-of date snaps to the most recent
// Saturday and the daily window stretches back to Friday. Week-to-date runs
// from the as-of week's Monday, month-to-date from the 1st.
func ReferenceDate(today time.Time, weekendView []time.Weekday) RefDate {
	if weekendView == nil {
		weekendView = DefaultWeekendView
	}
	today = series.Day(today)

	asOf := today.AddDate(0, 0, -1)
	dailyStart := asOf
	for _, wd := range weekendView {
		if today.Weekday() == wd {
			asOf = lastSaturday(today)
			dailyStart = asOf.AddDate(0, 0, -1)
			break
		}
	}

	return RefDate{
		AsOf:  asOf,
		Daily: Window{Start: dailyStart, End: asOf},
		WTD:   Window{Start: series.MondayOf(asOf), End: asOf},
		MTD:   Window{Start: series.FirstOfMonth(asOf), End: asOf},
	}
}

func lastSaturday(today time.Time) time.Time {
	d := today.AddDate(0, 0, -1)
	for d.Weekday() != time.Saturday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
