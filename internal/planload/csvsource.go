package planload

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/adientlz/pvs-reporter/internal/keys"
	"github.com/adientlz/pvs-reporter/internal/series"
)

// CSVConfig configures the pre-normalized CSV source: one (line_code, date,
// qty) record per row with a header line. Legacy exports from the plant
// tooling arrive in Windows-1250; set that flag to transcode on read.
type CSVConfig struct {
	Path        string `yaml:"path" mapstructure:"path"`
	Windows1250 bool   `yaml:"windows1250" mapstructure:"windows1250"`
	Workdays    int    `yaml:"workdays" mapstructure:"workdays"`
}

// CSVSource loads the planned schedule from a pre-extracted CSV grid.
type CSVSource struct {
	cfg CSVConfig
	log *zap.Logger
}

// NewCSVSource builds a CSVSource.
func NewCSVSource(cfg CSVConfig) *CSVSource {
	if cfg.Workdays == 0 {
		cfg.Workdays = 5
	}
	return &CSVSource{cfg: cfg, log: zap.L().Named("planload")}
}

// Load reads the CSV and returns the planned series per line. Unparseable
// cells count as zero; rows without a line code or date are skipped.
func (c *CSVSource) Load(ctx context.Context) (series.ByLine, error) {
	f, err := os.Open(c.cfg.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "planload: open csv %s", c.cfg.Path)
	}
	defer f.Close()

	var r io.Reader = f
	if c.cfg.Windows1250 {
		r = transform.NewReader(f, charmap.Windows1250.NewDecoder())
	}

	out, err := c.read(ctx, r)
	if err != nil {
		return nil, err
	}

	if series.LooksWeekly(out) {
		c.log.Info("weekly-bucketed schedule detected, expanding to days",
			zap.Int("workdays", c.cfg.Workdays))
		out = series.ExpandWeeklyByLine(out, c.cfg.Workdays)
	}

	c.log.Info("planned schedule loaded", zap.Int("lines", len(out)))
	return out, nil
}

func (c *CSVSource) read(ctx context.Context, r io.Reader) (series.ByLine, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return series.ByLine{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "planload: read csv header")
	}

	codeIdx, dateIdx, qtyIdx := headerIndexes(header)
	if codeIdx < 0 || dateIdx < 0 || qtyIdx < 0 {
		return nil, eris.Errorf("planload: csv header missing line_code/date/qty columns: %v", header)
	}

	out := series.ByLine{}
	skipped := 0
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "planload: cancelled")
		}
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "planload: read csv record")
		}

		code := keys.LineCode(field(rec, codeIdx))
		d, ok := CoerceDate(field(rec, dateIdx))
		if code == "" || !ok {
			skipped++
			continue
		}
		if q := CoerceQty(field(rec, qtyIdx)); q != 0 {
			out.Accumulate(code, d, float64(q))
		}
	}
	if skipped > 0 {
		c.log.Debug("csv rows skipped", zap.Int("count", skipped))
	}
	return out, nil
}

func headerIndexes(header []string) (code, date, qty int) {
	code, date, qty = -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\xef\xbb\xbf"))) {
		case "line_code", "prod_line", "line":
			code = i
		case "date", "day":
			date = i
		case "qty", "quantity", "planned_qty":
			qty = i
		}
	}
	return code, date, qty
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
