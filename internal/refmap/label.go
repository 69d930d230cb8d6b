package refmap

import (
	"strings"
)

var categorySuffixes = []string{" - SEW", " - ASSY", " SEW", " ASSY"}

// BaseProject strips a trailing category suffix from a display label so that
// the SEW and ASSY splits of one project share a grouping key.
// "BMW G07 - SEW" and "BMW G07 - ASSY" both yield "BMW G07".
func BaseProject(label string) string {
	s := strings.TrimSpace(label)
	upper := strings.ToUpper(s)
	for _, suffix := range categorySuffixes {
		if strings.HasSuffix(upper, suffix) {
			return strings.TrimSpace(s[:len(s)-len(suffix)])
		}
	}
	return s
}

// CategoryFromLabel infers a category from a display label by substring
// match, consulting overrides first for labels that carry neither marker.
func CategoryFromLabel(label string, overrides map[string]Category) Category {
	upper := strings.ToUpper(label)
	if c, ok := overrides[upper]; ok {
		return c
	}
	if strings.Contains(upper, "SEW") {
		return CategorySEW
	}
	if strings.Contains(upper, "ASSY") {
		return CategoryASSY
	}
	return CategoryOther
}
