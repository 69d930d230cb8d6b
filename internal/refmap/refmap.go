// Package refmap loads the production-line reference table and answers the
// lookups the loaders and the reconciliation core need: display labels per
// category, project grouping, (project, model, type) to line-code mapping,
// plan multipliers and OLK monthly targets.
package refmap

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/adientlz/pvs-reporter/internal/keys"
)

// Category classifies a production line.
type Category string

const (
	CategorySEW   Category = "SEW"
	CategoryASSY  Category = "ASSY"
	CategoryOther Category = "OTHER"
)

// Rank orders categories for report output: SEW, then ASSY, then OTHER.
func (c Category) Rank() int {
	switch c {
	case CategorySEW:
		return 0
	case CategoryASSY:
		return 1
	default:
		return 2
	}
}

// Opposite swaps SEW and ASSY; OTHER maps to itself.
func (c Category) Opposite() Category {
	switch c {
	case CategorySEW:
		return CategoryASSY
	case CategoryASSY:
		return CategorySEW
	default:
		return c
	}
}

// Row is one reference-table record. Line codes and descriptors are stored
// normalized; Multiplier defaults to 1 and OLK to 0 when the source column
// is absent.
type Row struct {
	Line       string
	Project    string
	Model      string
	SEWLabel   string
	ASSYLabel  string
	Group      string
	Type       Category
	Multiplier float64
	OLK        float64
}

// ErrNoMapping reports that no reference row matches a lookup key. Callers
// skip the offending source row and continue.
var ErrNoMapping = fmt.Errorf("refmap: no mapping")

// DefaultGroupOverrides are the hard-coded grouping exceptions: category
// variants of one brand folded into a single group, and brands that report
// under the commercial-vehicle umbrella regardless of their own name.
var DefaultGroupOverrides = map[string]string{
	"PORSCHE E3": "PORSCHE",
	"PORSCHE E4": "PORSCHE",
	"CRAFTER":    "CV",
	"MAN TGX":    "CV",
	"SPRINTER":   "CV",
}

// Table is an immutable lookup view over the reference rows for one
// reconciliation run.
type Table struct {
	rows      []Row
	byLine    map[string]*Row
	byTriplet map[string][]string
	byPair    map[string][]string
	overrides map[string]string
	log       *zap.Logger
}

// New indexes rows into a Table. overrides may be nil, in which case
// DefaultGroupOverrides apply. A nil or empty row set yields a table that
// degrades to identity mapping.
func New(rows []Row, overrides map[string]string) *Table {
	if overrides == nil {
		overrides = DefaultGroupOverrides
	}
	t := &Table{
		rows:      rows,
		byLine:    map[string]*Row{},
		byTriplet: map[string][]string{},
		byPair:    map[string][]string{},
		overrides: overrides,
		log:       zap.L().Named("refmap"),
	}
	for i := range t.rows {
		r := &t.rows[i]
		r.Line = keys.LineCode(r.Line)
		r.Project = keys.Descriptor(r.Project)
		r.Model = keys.Descriptor(r.Model)
		if r.Multiplier <= 0 {
			r.Multiplier = 1
		}
		if r.Line == "" {
			continue
		}
		if _, dup := t.byLine[r.Line]; !dup {
			t.byLine[r.Line] = r
		}
		if r.Project != "" {
			tk := tripletKey(r.Project, r.Model, r.Type)
			t.byTriplet[tk] = append(t.byTriplet[tk], r.Line)
			pk := pairKey(r.Project, r.Model)
			t.byPair[pk] = append(t.byPair[pk], r.Line)
		}
	}
	return t
}

// Len returns the number of reference rows.
func (t *Table) Len() int { return len(t.rows) }

func tripletKey(project, model string, typ Category) string {
	return project + "\x00" + model + "\x00" + string(typ)
}

func pairKey(project, model string) string {
	return project + "\x00" + model
}

// DisplayLabel returns the category-specific label for code, falling back to
// the raw code when the table has no entry or no label for that category.
func (t *Table) DisplayLabel(code string, hint Category) string {
	code = keys.LineCode(code)
	r, ok := t.byLine[code]
	if !ok {
		return code
	}
	switch hint {
	case CategorySEW:
		if r.SEWLabel != "" {
			return r.SEWLabel
		}
	case CategoryASSY:
		if r.ASSYLabel != "" {
			return r.ASSYLabel
		}
	}
	if r.SEWLabel != "" {
		return r.SEWLabel
	}
	if r.ASSYLabel != "" {
		return r.ASSYLabel
	}
	return code
}

// LineType returns the category recorded for code, CategoryOther when the
// table has no entry.
func (t *Table) LineType(code string) Category {
	if c, ok := t.ExplicitType(code); ok {
		return c
	}
	return CategoryOther
}

// ExplicitType reports the category the table records for code, if any.
// Callers fall back to label inference when the table is silent.
func (t *Table) ExplicitType(code string) (Category, bool) {
	if r, ok := t.byLine[keys.LineCode(code)]; ok && r.Type != "" {
		return r.Type, true
	}
	return "", false
}

// Multiplier returns the plan multiplier for code, 1 when unknown.
func (t *Table) Multiplier(code string) float64 {
	if r, ok := t.byLine[keys.LineCode(code)]; ok {
		return r.Multiplier
	}
	return 1
}

// OLK returns the monthly target for code, 0 when unknown.
func (t *Table) OLK(code string) float64 {
	if r, ok := t.byLine[keys.LineCode(code)]; ok {
		return r.OLK
	}
	return 0
}

// Group resolves the project group for a line code or display label: the
// override table wins, otherwise the group column, otherwise the base
// project name (label with any trailing category suffix stripped).
func (t *Table) Group(codeOrLabel string) string {
	base := BaseProject(codeOrLabel)
	if g, ok := t.overrides[strings.ToUpper(base)]; ok {
		return g
	}
	if r, ok := t.byLine[keys.LineCode(codeOrLabel)]; ok {
		if r.Group != "" {
			return r.Group
		}
		lbl := BaseProject(t.DisplayLabel(r.Line, r.Type))
		if g, ok := t.overrides[strings.ToUpper(lbl)]; ok {
			return g
		}
		if lbl != "" {
			return lbl
		}
	}
	return base
}

// LinesForTriplet resolves (project, model, type) to line codes. Misses fall
// back to the opposite category (logged), then to a unique (project, model)
// match ignoring type, then ErrNoMapping.
func (t *Table) LinesForTriplet(project, model string, typ Category) ([]string, error) {
	project = keys.Descriptor(project)
	model = keys.Descriptor(model)

	if lines, ok := t.byTriplet[tripletKey(project, model, typ)]; ok {
		return lines, nil
	}
	if lines, ok := t.byTriplet[tripletKey(project, model, typ.Opposite())]; ok {
		t.log.Warn("triplet resolved via opposite category",
			zap.String("project", project),
			zap.String("model", model),
			zap.String("requested", string(typ)),
			zap.String("used", string(typ.Opposite())),
		)
		return lines, nil
	}
	if lines, ok := t.byPair[pairKey(project, model)]; ok && len(lines) == 1 {
		return lines, nil
	}
	return nil, ErrNoMapping
}
