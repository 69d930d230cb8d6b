package planload

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/adientlz/pvs-reporter/internal/keys"
	"github.com/adientlz/pvs-reporter/internal/refmap"
	"github.com/adientlz/pvs-reporter/internal/series"
)

// Source produces the planned per-line-per-day quantity map from one
// configured backing shape. Implementations are selected by configuration,
// never auto-detected across each other.
type Source interface {
	Load(ctx context.Context) (series.ByLine, error)
}

// GridConfig configures the spreadsheet-grid source: a rectangular sheet
// with a date header row, a label column marking the planning rows, and a
// line-code or (project, model) key per row.
type GridConfig struct {
	Path        string `yaml:"path" mapstructure:"path"`
	Sheet       string `yaml:"sheet" mapstructure:"sheet"`
	TargetLabel string `yaml:"target_label" mapstructure:"target_label"`

	LabelColumn   int `yaml:"label_column" mapstructure:"label_column"`
	LineColumn    int `yaml:"line_column" mapstructure:"line_column"`
	ProjectColumn int `yaml:"project_column" mapstructure:"project_column"`
	ModelColumn   int `yaml:"model_column" mapstructure:"model_column"`

	HeaderScanRows  int `yaml:"header_scan_rows" mapstructure:"header_scan_rows"`
	MinHeaderDates  int `yaml:"min_header_dates" mapstructure:"min_header_dates"`
	LabelScanCols   int `yaml:"label_scan_cols" mapstructure:"label_scan_cols"`
	ContextScanRows int `yaml:"context_scan_rows" mapstructure:"context_scan_rows"`
	Workdays        int `yaml:"workdays" mapstructure:"workdays"`

	// TypeColumns are the columns that sometimes state SEW/ASSY outright.
	TypeColumns []int `yaml:"type_columns" mapstructure:"type_columns"`
}

func (c *GridConfig) applyDefaults() {
	if c.LabelColumn == 0 {
		c.LabelColumn = 2
	}
	if c.LineColumn == 0 {
		c.LineColumn = 1
	}
	if c.ModelColumn == 0 {
		// Column 0 is the project column in every observed layout; zero
		// means "no model column".
		c.ModelColumn = -1
	}
	if c.HeaderScanRows == 0 {
		c.HeaderScanRows = 15
	}
	if c.MinHeaderDates == 0 {
		c.MinHeaderDates = 3
	}
	if c.LabelScanCols == 0 {
		c.LabelScanCols = 8
	}
	if c.ContextScanRows == 0 {
		c.ContextScanRows = 6
	}
	if c.Workdays == 0 {
		c.Workdays = 5
	}
	if c.TypeColumns == nil {
		c.TypeColumns = []int{3, 4, 5}
	}
}

// GridSource loads the planned schedule from an xlsx grid.
type GridSource struct {
	cfg   GridConfig
	table *refmap.Table
	chain []TypeStrategy
	log   *zap.Logger
}

// NewGridSource builds a GridSource over the given reference table.
func NewGridSource(cfg GridConfig, table *refmap.Table) *GridSource {
	cfg.applyDefaults()
	return &GridSource{
		cfg:   cfg,
		table: table,
		chain: DefaultTypeChain(),
		log:   zap.L().Named("planload"),
	}
}

// Load reads the grid and returns the planned series per line. Open or
// layout failures return an error and the caller degrades to an empty plan;
// individual cell trouble never aborts the load.
func (g *GridSource) Load(ctx context.Context) (series.ByLine, error) {
	f, err := xlsx.OpenFile(g.cfg.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "planload: open workbook %s", g.cfg.Path)
	}

	sheet, err := pickSheet(f, g.cfg.Sheet)
	if err != nil {
		return nil, err
	}

	headerRow, dateCols, err := g.findDateHeader(sheet)
	if err != nil {
		return nil, err
	}
	g.log.Info("date header detected",
		zap.Int("row", headerRow), zap.Int("date_columns", len(dateCols)))

	labelCol, err := g.findLabelColumn(sheet, headerRow)
	if err != nil {
		return nil, err
	}

	out := series.ByLine{}
	for r, row := range sheet.Rows {
		if r == headerRow {
			continue
		}
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "planload: cancelled")
		}
		if !strings.EqualFold(cellText(row, labelCol), g.cfg.TargetLabel) {
			continue
		}

		perDay := series.Daily{}
		for col, d := range dateCols {
			if q := CoerceQty(cellText(row, col)); q != 0 {
				perDay.Add(d, float64(q))
			}
		}

		codes := g.resolveRowLines(sheet, r, row)
		if len(codes) == 0 {
			continue
		}
		share := 1.0 / float64(len(codes))
		for _, code := range codes {
			factor := g.table.Multiplier(code) * share
			for d, q := range perDay {
				out.Accumulate(code, d, q*factor)
			}
		}
	}

	if series.LooksWeekly(out) {
		g.log.Info("weekly-bucketed schedule detected, expanding to days",
			zap.Int("workdays", g.cfg.Workdays))
		out = series.ExpandWeeklyByLine(out, g.cfg.Workdays)
	}

	g.log.Info("planned schedule loaded", zap.Int("lines", len(out)))
	return out, nil
}

// resolveRowLines determines which line codes a planning row belongs to: the
// line-code column when present, else the (project, model, inferred type)
// triplet through the reference table. Rows that resolve nowhere are skipped
// with a diagnostic.
func (g *GridSource) resolveRowLines(sheet *xlsx.Sheet, r int, row *xlsx.Row) []string {
	if code := keys.LineCode(cellText(row, g.cfg.LineColumn)); code != "" {
		return []string{code}
	}

	project := cellText(row, g.cfg.ProjectColumn)
	model := cellText(row, g.cfg.ModelColumn)
	if strings.TrimSpace(project) == "" {
		return nil
	}

	typ := InferType(g.rowView(sheet, r, row), g.chain...)
	codes, err := g.table.LinesForTriplet(project, model, typ)
	if err != nil {
		g.log.Debug("planning row has no line mapping, skipped",
			zap.Int("row", r),
			zap.String("project", project),
			zap.String("model", model),
			zap.String("type", string(typ)),
		)
		return nil
	}
	return codes
}

// rowView extracts the classification-relevant parts of a grid row for the
// type-inference chain.
func (g *GridSource) rowView(sheet *xlsx.Sheet, r int, row *xlsx.Row) RowView {
	v := RowView{}
	for _, col := range g.cfg.TypeColumns {
		v.KnownCols = append(v.KnownCols, cellText(row, col))
	}
	for _, cell := range row.Cells {
		if style := cell.GetStyle(); style != nil && style.Fill.FgColor != "" {
			v.FillColors = append(v.FillColors, style.Fill.FgColor)
		}
	}
	for back := 1; back <= g.cfg.ContextScanRows && r-back >= 0; back++ {
		prev := sheet.Rows[r-back]
		for col := 0; col <= g.cfg.LabelColumn; col++ {
			if s := cellText(prev, col); s != "" {
				v.Context = append(v.Context, s)
			}
		}
	}
	return v
}

// findDateHeader scans the first HeaderScanRows rows and picks the one with
// the most date-like cells. Fewer than MinHeaderDates anywhere fails the
// source.
func (g *GridSource) findDateHeader(sheet *xlsx.Sheet) (int, map[int]time.Time, error) {
	bestRow, bestCount := -1, 0
	limit := g.cfg.HeaderScanRows
	if limit > len(sheet.Rows) {
		limit = len(sheet.Rows)
	}
	for r := 0; r < limit; r++ {
		count := 0
		for _, cell := range sheet.Rows[r].Cells {
			if _, ok := CoerceDate(cell.String()); ok {
				count++
			}
		}
		if count > bestCount {
			bestRow, bestCount = r, count
		}
	}
	if bestRow < 0 || bestCount < g.cfg.MinHeaderDates {
		return 0, nil, eris.Errorf(
			"planload: no date header row in first %d rows (best %d dates, need %d)",
			limit, bestCount, g.cfg.MinHeaderDates)
	}

	dateCols := map[int]time.Time{}
	for col, cell := range sheet.Rows[bestRow].Cells {
		if d, ok := CoerceDate(cell.String()); ok {
			dateCols[col] = d
		}
	}
	return bestRow, dateCols, nil
}

// findLabelColumn verifies the configured label column actually matches the
// target label somewhere; when it never does, a bounded set of columns is
// re-scanned and the one with the most matches wins. No match anywhere is a
// configuration failure for this source.
func (g *GridSource) findLabelColumn(sheet *xlsx.Sheet, headerRow int) (int, error) {
	count := g.countLabelMatches(sheet, headerRow, g.cfg.LabelColumn)
	if count > 0 {
		return g.cfg.LabelColumn, nil
	}

	bestCol, bestCount := -1, 0
	for col := 0; col < g.cfg.LabelScanCols; col++ {
		if col == g.cfg.LabelColumn {
			continue
		}
		if n := g.countLabelMatches(sheet, headerRow, col); n > bestCount {
			bestCol, bestCount = col, n
		}
	}
	if bestCol < 0 {
		return 0, eris.Errorf("planload: target label %q not found in first %d columns",
			g.cfg.TargetLabel, g.cfg.LabelScanCols)
	}
	g.log.Warn("target label not in configured column, auto-detected",
		zap.Int("configured", g.cfg.LabelColumn),
		zap.Int("detected", bestCol),
		zap.Int("matches", bestCount),
	)
	return bestCol, nil
}

func (g *GridSource) countLabelMatches(sheet *xlsx.Sheet, headerRow, col int) int {
	count := 0
	for r, row := range sheet.Rows {
		if r == headerRow {
			continue
		}
		if strings.EqualFold(cellText(row, col), g.cfg.TargetLabel) {
			count++
		}
	}
	return count
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("planload: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("planload: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func cellText(row *xlsx.Row, col int) string {
	if row == nil || col < 0 || col >= len(row.Cells) {
		return ""
	}
	return strings.TrimSpace(row.Cells[col].String())
}
