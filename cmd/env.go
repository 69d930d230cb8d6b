package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/adientlz/pvs-reporter/internal/actuals"
	"github.com/adientlz/pvs-reporter/internal/fetch"
	"github.com/adientlz/pvs-reporter/internal/planload"
	"github.com/adientlz/pvs-reporter/internal/reconcile"
	"github.com/adientlz/pvs-reporter/internal/refmap"
	"github.com/adientlz/pvs-reporter/internal/report"
	"github.com/adientlz/pvs-reporter/internal/series"
)

// reportEnv holds the wired loaders behind a report builder. Callers should
// defer env.Close().
type reportEnv struct {
	Builder *report.Builder
	Table   *refmap.Table

	pool *pgxpool.Pool
}

func (e *reportEnv) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

// initReport loads the reference table, wires the configured plan source
// and the production database, and returns a ready builder. A missing
// database URL leaves the actuals side empty rather than failing; the
// report then runs schedule-only.
func initReport(ctx context.Context) (*reportEnv, error) {
	table := refmap.LoadFile(cfg.Refmap.Path, refmap.DefaultGroupOverrides)

	env := &reportEnv{Table: table}

	var loader report.ActualsLoader
	if cfg.Actuals.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.Actuals.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "connect production database")
		}
		env.pool = pool
		loader = actuals.New(pool, actuals.Config{
			TransactionTypes: cfg.Actuals.TransactionTypes,
			QueryTimeout:     cfg.Actuals.QueryTimeout(),
		})
	} else {
		zap.L().Warn("no production database configured, actuals side will be empty")
	}

	env.Builder = &report.Builder{
		Plans:       &fetchingSource{table: table},
		Actuals:     loader,
		Table:       table,
		WeekendView: cfg.Report.Weekdays(),
		Options:     reconcile.Options{Clamp: cfg.Report.Clamp},
	}
	return env, nil
}

// fetchingSource materializes the configured plan location on every load,
// so a workbook replaced on the share (or FTP server) is picked up without
// a restart.
type fetchingSource struct {
	table *refmap.Table
}

func (s *fetchingSource) Load(ctx context.Context) (series.ByLine, error) {
	local, cleanup, err := fetch.Materialize(ctx, cfg.Plan.Location, fetch.Options{
		Timeout:  time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		User:     cfg.Fetch.User,
		Password: cfg.Fetch.Password,
	})
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var src planload.Source
	switch cfg.Plan.Source {
	case "csv":
		src = planload.NewCSVSource(planload.CSVConfig{
			Path:        local,
			Windows1250: cfg.Plan.Windows1250,
			Workdays:    cfg.Plan.Workdays,
		})
	default:
		src = planload.NewGridSource(planload.GridConfig{
			Path:          local,
			Sheet:         cfg.Plan.Sheet,
			TargetLabel:   cfg.Plan.TargetLabel,
			LabelColumn:   cfg.Plan.LabelColumn,
			LineColumn:    cfg.Plan.LineColumn,
			ProjectColumn: cfg.Plan.ProjectColumn,
			ModelColumn:   cfg.Plan.ModelColumn,
			Workdays:      cfg.Plan.Workdays,
		}, s.table)
	}
	return src.Load(ctx)
}
