// Package series holds the sparse per-line per-day quantity maps produced by
// the loaders and consumed by the reconciliation core. Missing dates always
// read as zero; that default is part of the contract, not an accident of the
// map type.
package series

import (
	"time"
)

// Day truncates t to a UTC calendar date. All map keys in a Daily series are
// built through Day so lookups never miss on time-of-day or zone noise.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC calendar date key.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Daily maps calendar dates to quantities for one production line.
type Daily map[time.Time]float64

// Add accumulates qty on d's calendar date.
func (s Daily) Add(d time.Time, qty float64) {
	s[Day(d)] += qty
}

// Get returns the quantity for d, zero when absent.
func (s Daily) Get(d time.Time) float64 {
	return s[Day(d)]
}

// SumRange sums quantities over [start, end] inclusive, treating missing
// dates as zero.
func (s Daily) SumRange(start, end time.Time) float64 {
	total := 0.0
	for d := Day(start); !d.After(Day(end)); d = d.AddDate(0, 0, 1) {
		total += s[d]
	}
	return total
}

// Scale multiplies every quantity in place and returns the receiver.
func (s Daily) Scale(factor float64) Daily {
	for d, q := range s {
		s[d] = q * factor
	}
	return s
}

// Merge adds every entry of other into the receiver.
func (s Daily) Merge(other Daily) {
	for d, q := range other {
		s[d] += q
	}
}

// ByLine maps a normalized line code to its daily series.
type ByLine map[string]Daily

// Accumulate adds qty for (code, d), creating the series on first use.
func (b ByLine) Accumulate(code string, d time.Time, qty float64) {
	s, ok := b[code]
	if !ok {
		s = Daily{}
		b[code] = s
	}
	s.Add(d, qty)
}

// Codes returns the union of line codes across the given maps.
func Codes(maps ...ByLine) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, m := range maps {
		for code := range m {
			if _, ok := seen[code]; ok {
				continue
			}
			seen[code] = struct{}{}
			out = append(out, code)
		}
	}
	return out
}

// MondayOf returns the Monday of d's ISO week.
func MondayOf(d time.Time) time.Time {
	d = Day(d)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return d.AddDate(0, 0, -offset)
}

// FirstOfMonth returns the first calendar day of d's month.
func FirstOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}
