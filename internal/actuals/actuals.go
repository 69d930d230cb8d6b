// Package actuals fetches realized production quantities from the ERP
// transaction history and shapes them into the per-line-per-day series the
// reconciliation core consumes.
package actuals

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adientlz/pvs-reporter/internal/keys"
	"github.com/adientlz/pvs-reporter/internal/retry"
	"github.com/adientlz/pvs-reporter/internal/series"
)

// Querier is the query surface the loader needs; *pgxpool.Pool satisfies it,
// as does a pgxmock pool in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Config tunes the actuals query.
type Config struct {
	// TransactionTypes filters completion transactions; work-order receipts
	// by default.
	TransactionTypes []string      `yaml:"transaction_types" mapstructure:"transaction_types"`
	QueryTimeout     time.Duration `yaml:"query_timeout" mapstructure:"query_timeout"`
}

func (c *Config) applyDefaults() {
	if len(c.TransactionTypes) == 0 {
		c.TransactionTypes = []string{"RCT-WO", "rct-wo"}
	}
	if c.QueryTimeout == 0 {
		c.QueryTimeout = 30 * time.Second
	}
}

// producedQuery sums completed quantity per (production line, day) by
// joining transaction history to the part master for the line assignment.
const producedQuery = `
SELECT pt.pt_prod_line AS line,
       tr.tr_effdate::date AS day,
       SUM(tr.tr_qty_loc)::float8 AS qty
FROM tr_hist tr
JOIN pt_mstr pt ON tr.tr_part = pt.pt_part
WHERE tr.tr_type = ANY($1)
  AND tr.tr_effdate::date >= $2
  AND tr.tr_effdate::date <= $3
  AND tr.tr_qty_loc > 0
GROUP BY pt.pt_prod_line, tr.tr_effdate::date`

// Loader queries realized production from the backing store.
type Loader struct {
	pool Querier
	cfg  Config
	log  *zap.Logger
}

// New builds a Loader over pool.
func New(pool Querier, cfg Config) *Loader {
	cfg.applyDefaults()
	return &Loader{pool: pool, cfg: cfg, log: zap.L().Named("actuals")}
}

// ProducedByDay returns produced quantities per line per day over
// [start, end] inclusive. Line identifiers are normalized; rows with a null
// or empty identifier are dropped. Transient database failures are retried.
func (l *Loader) ProducedByDay(ctx context.Context, start, end time.Time) (series.ByLine, error) {
	var out series.ByLine
	err := retry.Do(ctx, retry.DefaultConfig(), "produced query", func(ctx context.Context) error {
		var err error
		out, err = l.queryProduced(ctx, start, end)
		return err
	})
	return out, err
}

func (l *Loader) queryProduced(ctx context.Context, start, end time.Time) (series.ByLine, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.QueryTimeout)
	defer cancel()

	rows, err := l.pool.Query(ctx, producedQuery,
		l.cfg.TransactionTypes, series.Day(start), series.Day(end))
	if err != nil {
		return nil, eris.Wrap(err, "actuals: query produced")
	}
	defer rows.Close()

	out := series.ByLine{}
	dropped := 0
	for rows.Next() {
		var (
			line *string
			day  time.Time
			qty  float64
		)
		if err := rows.Scan(&line, &day, &qty); err != nil {
			return nil, eris.Wrap(err, "actuals: scan row")
		}
		if line == nil {
			dropped++
			continue
		}
		code := keys.LineCode(*line)
		if code == "" {
			dropped++
			continue
		}
		out.Accumulate(code, day, qty)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "actuals: iterate rows")
	}

	if dropped > 0 {
		l.log.Debug("rows without line identifier dropped", zap.Int("count", dropped))
	}
	l.log.Info("actuals loaded",
		zap.Time("start", series.Day(start)),
		zap.Time("end", series.Day(end)),
		zap.Int("lines", len(out)),
	)
	return out, nil
}
