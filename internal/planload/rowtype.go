package planload

import (
	"strconv"
	"strings"

	"github.com/adientlz/pvs-reporter/internal/refmap"
)

// Fill-color thresholds for SEW/ASSY classification. A cell counts as blue
// (ASSY) when its blue channel clears the high bar and red and green stay
// under the low bars; red (SEW) is symmetric. Carried over from the source
// workbooks' conventions; recalibrate against samples before trusting new
// workbook authors.
const (
	colorHighThreshold = 200
	colorLowThreshold  = 100
)

// RowView is the classification-relevant slice of one grid row, extracted by
// the grid reader so each inference strategy stays independently testable.
type RowView struct {
	// KnownCols holds the text of the small set of columns that sometimes
	// state the type outright.
	KnownCols []string
	// FillColors holds ARGB fill strings of the cells in the date-column
	// range.
	FillColors []string
	// Context holds nearby header/label texts, nearest first, from the
	// upward scan of preceding rows.
	Context []string
}

// TypeStrategy inspects a row and returns its category, or "" for no answer.
type TypeStrategy func(RowView) refmap.Category

// InferType runs strategies in order and returns the first answer. No answer
// leaves the row in the project-only bucket.
func InferType(v RowView, strategies ...TypeStrategy) refmap.Category {
	for _, s := range strategies {
		if c := s(v); c != "" {
			return c
		}
	}
	return ""
}

// DefaultTypeChain is the production inference order: explicit column text,
// then cell fill color, then upward context scan.
func DefaultTypeChain() []TypeStrategy {
	return []TypeStrategy{TypeFromKnownColumns, TypeFromFill, TypeFromContext}
}

// TypeFromKnownColumns answers when any known column literally names the
// category.
func TypeFromKnownColumns(v RowView) refmap.Category {
	return categoryToken(v.KnownCols)
}

// TypeFromContext answers from the nearest surrounding header that names the
// category.
func TypeFromContext(v RowView) refmap.Category {
	return categoryToken(v.Context)
}

func categoryToken(texts []string) refmap.Category {
	for _, s := range texts {
		upper := strings.ToUpper(s)
		if strings.Contains(upper, "SEW") {
			return refmap.CategorySEW
		}
		if strings.Contains(upper, "ASSY") {
			return refmap.CategoryASSY
		}
	}
	return ""
}

// TypeFromFill classifies by the dominant fill color across the row's date
// cells: more blue-dominant cells than red means ASSY, the reverse means
// SEW, a tie means no answer.
func TypeFromFill(v RowView) refmap.Category {
	blue, red := 0, 0
	for _, argb := range v.FillColors {
		switch CategoryForFill(argb) {
		case refmap.CategoryASSY:
			blue++
		case refmap.CategorySEW:
			red++
		}
	}
	switch {
	case blue > red:
		return refmap.CategoryASSY
	case red > blue:
		return refmap.CategorySEW
	default:
		return ""
	}
}

// CategoryForFill classifies a single ARGB fill string: blue-dominant is
// ASSY, red-dominant is SEW, anything else gives no answer.
func CategoryForFill(argb string) refmap.Category {
	r, g, b, ok := parseARGB(argb)
	if !ok {
		return ""
	}
	switch {
	case b > colorHighThreshold && r < colorLowThreshold && g < colorLowThreshold:
		return refmap.CategoryASSY
	case r > colorHighThreshold && g < colorLowThreshold && b < colorLowThreshold:
		return refmap.CategorySEW
	default:
		return ""
	}
}

func parseARGB(s string) (r, g, b int, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 8 {
		s = s[2:] // drop alpha
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	rv, err1 := strconv.ParseInt(s[0:2], 16, 0)
	gv, err2 := strconv.ParseInt(s[2:4], 16, 0)
	bv, err3 := strconv.ParseInt(s[4:6], 16, 0)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	return int(rv), int(gv), int(bv), true
}
