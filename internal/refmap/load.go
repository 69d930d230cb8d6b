package refmap

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Column names recognized in the reference CSV. Matching is case-insensitive
// and tolerant of missing columns: any absent column leaves its field at the
// zero value and the table degrades per lookup.
const (
	colLine       = "prod_line"
	colProject    = "project"
	colModel      = "model"
	colSEWLabel   = "sew_label"
	colASSYLabel  = "assy_label"
	colGroup      = "group"
	colType       = "type"
	colMultiplier = "multiplier"
	colOLK        = "olk"
)

// ReadCSV parses reference rows from r. The first record is the header; rows
// whose line code normalizes to empty are skipped.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "refmap: read header")
	}

	idx := map[string]int{}
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(rec []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []Row
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "refmap: read record")
		}

		row := Row{
			Line:      field(rec, colLine),
			Project:   field(rec, colProject),
			Model:     field(rec, colModel),
			SEWLabel:  field(rec, colSEWLabel),
			ASSYLabel: field(rec, colASSYLabel),
			Group:     field(rec, colGroup),
			Type:      parseCategory(field(rec, colType)),
		}
		if v, err := strconv.ParseFloat(field(rec, colMultiplier), 64); err == nil && v > 0 {
			row.Multiplier = v
		}
		if v, err := strconv.ParseFloat(field(rec, colOLK), 64); err == nil && v > 0 {
			row.OLK = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadFile builds a Table from the reference CSV at path. A missing or
// unreadable file is not fatal: the run degrades to identity mapping.
func LoadFile(path string, overrides map[string]string) *Table {
	log := zap.L().Named("refmap")

	f, err := os.Open(path)
	if err != nil {
		log.Warn("reference table unavailable, using identity mapping",
			zap.String("path", path), zap.Error(err))
		return New(nil, overrides)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		log.Warn("reference table unreadable, using identity mapping",
			zap.String("path", path), zap.Error(err))
		return New(nil, overrides)
	}

	log.Info("reference table loaded", zap.String("path", path), zap.Int("rows", len(rows)))
	return New(rows, overrides)
}

func parseCategory(s string) Category {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SEW":
		return CategorySEW
	case "ASSY":
		return CategoryASSY
	case "":
		return ""
	default:
		return CategoryOther
	}
}
