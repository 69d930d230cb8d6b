// Package extract pulls the weekly output plan out of the long-term
// planning workbook, classifying each row SEW or ASSY by cell fill color,
// and writes the result as an Excel-friendly CSV.
package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/adientlz/pvs-reporter/internal/fsx"
	"github.com/adientlz/pvs-reporter/internal/planload"
)

// Config locates the workbook and the plan rows inside it.
type Config struct {
	// Dir is scanned for .xlsx files whose name contains every token.
	Dir            string   `mapstructure:"dir" yaml:"dir"`
	FilenameTokens []string `mapstructure:"filename_tokens" yaml:"filename_tokens"`
	Sheet          string   `mapstructure:"sheet" yaml:"sheet"`
	// HeaderLabel marks the header row; RowLabel marks plan rows. Both are
	// matched in HeaderColumn.
	HeaderLabel  string `mapstructure:"header_label" yaml:"header_label"`
	RowLabel     string `mapstructure:"row_label" yaml:"row_label"`
	HeaderColumn int    `mapstructure:"header_column" yaml:"header_column"`
	// DataStartColumn is the first column whose fill color counts toward
	// classification.
	DataStartColumn int `mapstructure:"data_start_column" yaml:"data_start_column"`
	HeaderScanRows  int `mapstructure:"header_scan_rows" yaml:"header_scan_rows"`
}

func (c *Config) applyDefaults() {
	if len(c.FilenameTokens) == 0 {
		c.FilenameTokens = []string{"CW", "LTP"}
	}
	if c.Sheet == "" {
		c.Sheet = "PLANING"
	}
	if c.HeaderLabel == "" {
		c.HeaderLabel = "Week"
	}
	if c.RowLabel == "" {
		c.RowLabel = "Weekly Output PLAN"
	}
	if c.HeaderColumn == 0 {
		c.HeaderColumn = 3
	}
	if c.DataStartColumn == 0 {
		c.DataStartColumn = 6
	}
	if c.HeaderScanRows == 0 {
		c.HeaderScanRows = 100
	}
}

// Extractor runs the workbook-to-CSV extraction.
type Extractor struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config) *Extractor {
	cfg.applyDefaults()
	return &Extractor{cfg: cfg, log: zap.L().Named("extract")}
}

// FindWorkbook returns the first .xlsx in the configured directory whose
// name contains every filename token, case-insensitive.
func (e *Extractor) FindWorkbook() (string, error) {
	entries, err := os.ReadDir(e.cfg.Dir)
	if err != nil {
		return "", eris.Wrapf(err, "extract: read dir %s", e.cfg.Dir)
	}
	for _, entry := range entries {
		name := strings.ToUpper(entry.Name())
		if entry.IsDir() || !strings.HasSuffix(name, ".XLSX") {
			continue
		}
		match := true
		for _, token := range e.cfg.FilenameTokens {
			if !strings.Contains(name, strings.ToUpper(token)) {
				match = false
				break
			}
		}
		if match {
			path := filepath.Join(e.cfg.Dir, entry.Name())
			e.log.Info("found planning workbook", zap.String("path", path))
			return path, nil
		}
	}
	return "", eris.Errorf("extract: no workbook matching %v in %s", e.cfg.FilenameTokens, e.cfg.Dir)
}

// Extract reads the plan rows from the workbook at path. The returned
// records start with the header row; every row carries an extra trailing
// Type column (SEW, ASSY or empty).
func (e *Extractor) Extract(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: open workbook %s", path)
	}
	sheet, ok := f.Sheet[e.cfg.Sheet]
	if !ok {
		return nil, eris.Errorf("extract: sheet %q not found in %s", e.cfg.Sheet, path)
	}

	headerRow := -1
	limit := e.cfg.HeaderScanRows
	if limit > len(sheet.Rows) {
		limit = len(sheet.Rows)
	}
	for r := 0; r < limit; r++ {
		if cellText(sheet.Rows[r], e.cfg.HeaderColumn) == e.cfg.HeaderLabel {
			headerRow = r
			break
		}
	}
	if headerRow < 0 {
		return nil, eris.Errorf("extract: header label %q not found in column %d",
			e.cfg.HeaderLabel, e.cfg.HeaderColumn)
	}
	e.log.Info("found plan header", zap.Int("row", headerRow+1))

	header := rowTexts(sheet.Rows[headerRow])
	for i, h := range header {
		if h == "" {
			header[i] = fmt.Sprintf("Col_%d", i+1)
		}
	}
	header = append(header, "Type")

	records := [][]string{header}
	for r := headerRow + 1; r < len(sheet.Rows); r++ {
		row := sheet.Rows[r]
		if cellText(row, e.cfg.HeaderColumn) != e.cfg.RowLabel {
			continue
		}
		rec := rowTexts(row)
		rec = append(rec, string(e.rowCategory(row)))
		records = append(records, rec)
	}
	e.log.Info("extracted plan rows", zap.Int("rows", len(records)-1))
	return records, nil
}

// rowCategory answers from the first classifiable fill color in the data
// column range.
func (e *Extractor) rowCategory(row *xlsx.Row) string {
	for col := e.cfg.DataStartColumn; col < len(row.Cells); col++ {
		style := row.Cells[col].GetStyle()
		if style == nil || style.Fill.FgColor == "" {
			continue
		}
		if c := planload.CategoryForFill(style.Fill.FgColor); c != "" {
			return string(c)
		}
	}
	return ""
}

// utf8BOM keeps Excel from misreading the CSV as the legacy codepage.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes records to path atomically with a UTF-8 BOM.
func WriteCSV(path string, records [][]string) error {
	if len(records) == 0 {
		return eris.New("extract: nothing to write")
	}
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return eris.Wrap(err, "extract: encode csv")
	}
	return fsx.WriteAtomic(path, buf.Bytes(), 0o644)
}

// Process runs the full find, extract and write pipeline.
func (e *Extractor) Process(outputPath string) error {
	path, err := e.FindWorkbook()
	if err != nil {
		return err
	}
	records, err := e.Extract(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(outputPath, records); err != nil {
		return err
	}
	e.log.Info("extraction complete",
		zap.String("output", outputPath), zap.Int("rows", len(records)-1))
	return nil
}

func cellText(row *xlsx.Row, col int) string {
	if row == nil || col < 0 || col >= len(row.Cells) {
		return ""
	}
	return strings.TrimSpace(row.Cells[col].String())
}

func rowTexts(row *xlsx.Row) []string {
	out := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		out[i] = strings.TrimSpace(c.String())
	}
	return out
}
