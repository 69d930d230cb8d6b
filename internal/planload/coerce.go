package planload

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/adientlz/pvs-reporter/internal/series"
)

// Spreadsheet serial-number dates plausible for this decade. Serials outside
// the range are treated as ordinary numbers, not dates: 40000 is late 2009,
// 50000 is mid 2036.
const (
	serialMin   = 40000
	serialMax   = 50000
	serialEpoch = "1899-12-30"
)

var serialBase = func() time.Time {
	t, _ := time.Parse("2006-01-02", serialEpoch)
	return t
}()

// CoerceDate interprets a cell value as a calendar date. Accepted forms, in
// order: spreadsheet serial numbers in the plausible range, DD/MM/YYYY, ISO
// YYYY-MM-DD (with or without a trailing clock), and a permissive day-first
// split on . / - separators. Anything else is "not a date", never an error.
func CoerceDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if v > serialMin && v < serialMax {
			return series.Day(serialBase.AddDate(0, 0, int(v))), true
		}
		return time.Time{}, false
	}

	if t, err := time.Parse("02/01/2006", s); err == nil {
		return series.Day(t), true
	}

	// ISO, tolerating a clock suffix produced by datetime cells.
	iso := s
	if i := strings.IndexAny(iso, " T"); i > 0 {
		iso = iso[:i]
	}
	if t, err := time.Parse("2006-01-02", iso); err == nil {
		return series.Day(t), true
	}

	return parseDayFirst(s)
}

// parseDayFirst handles the generic day-first forms factory spreadsheets
// produce: 3.6.2024, 03-06-2024, 3/6/24.
func parseDayFirst(s string) (time.Time, bool) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '/' || r == '-'
	})
	if len(parts) != 3 {
		return time.Time{}, false
	}

	day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if year < 100 {
		year += 2000
	}
	if day < 1 || day > 31 || month < 1 || month > 12 || year < 2000 || year > 2100 {
		return time.Time{}, false
	}

	t := series.Date(year, time.Month(month), day)
	// Reject rollovers like 31/02.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// CoerceQty interprets a cell value as a planned quantity: blank or
// unparseable cells are zero, everything else rounds to the nearest integer.
// Parse trouble never propagates into the aggregate.
func CoerceQty(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}
