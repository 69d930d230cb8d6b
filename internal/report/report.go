// Package report assembles plan and production data into the daily
// adherence report served by the dashboard and sent by email.
package report

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/adientlz/pvs-reporter/internal/actuals"
	"github.com/adientlz/pvs-reporter/internal/fsx"
	"github.com/adientlz/pvs-reporter/internal/planload"
	"github.com/adientlz/pvs-reporter/internal/reconcile"
	"github.com/adientlz/pvs-reporter/internal/refmap"
	"github.com/adientlz/pvs-reporter/internal/rollup"
	"github.com/adientlz/pvs-reporter/internal/series"
)

// Result is the wire shape of one report run. Adherence fields inside the
// rows and totals are pointers so an undefined percentage serializes as null.
type Result struct {
	Success     bool                    `json:"success"`
	Date        string                  `json:"date,omitempty"`
	GeneratedAt string                  `json:"generated_at,omitempty"`
	Rows        []reconcile.LineMetrics `json:"rows,omitempty"`
	Totals      *rollup.CategoryTotals  `json:"totals,omitempty"`
	GroupTotals []rollup.GroupTotals    `json:"group_totals,omitempty"`
	OLKTotals   *rollup.OLKTotals       `json:"olk_totals,omitempty"`
	Error       string                  `json:"error,omitempty"`
	Timestamp   string                  `json:"timestamp,omitempty"`
}

// ActualsLoader yields produced quantities per line and day for a window.
// *actuals.Loader satisfies it.
type ActualsLoader interface {
	ProducedByDay(ctx context.Context, start, end time.Time) (series.ByLine, error)
}

var _ ActualsLoader = (*actuals.Loader)(nil)

// Builder wires the loaders together. Zero values for Now, WeekendView and
// Options fall back to wall clock and defaults.
type Builder struct {
	Plans       planload.Source
	Actuals     ActualsLoader
	Table       *refmap.Table
	WeekendView []time.Weekday
	Options     reconcile.Options
	Now         func() time.Time
}

// Build runs one full reconciliation. Loader failures degrade to an empty
// side of the comparison; only a panic escapes into a failure Result, so
// callers downstream always get a renderable payload.
func (b *Builder) Build(ctx context.Context) (res Result) {
	now := time.Now()
	if b.Now != nil {
		now = b.Now()
	}

	defer func() {
		if r := recover(); r != nil {
			zap.L().Named("report").Error("report build panicked", zap.Any("panic", r))
			res = Failure(now, "internal error while building report")
		}
	}()

	ref := reconcile.ReferenceDate(now, b.WeekendView)

	planned := b.load(ctx, "plan", func(ctx context.Context) (series.ByLine, error) {
		if b.Plans == nil {
			return series.ByLine{}, nil
		}
		return b.Plans.Load(ctx)
	})
	produced := b.load(ctx, "actuals", func(ctx context.Context) (series.ByLine, error) {
		if b.Actuals == nil {
			return series.ByLine{}, nil
		}
		return b.Actuals.ProducedByDay(ctx, ref.MTD.Start, ref.MTD.End)
	})

	rows := reconcile.Reconcile(planned, produced, ref, b.Table, b.Options)

	clamp := b.Options.Clamp
	if clamp <= 0 {
		clamp = reconcile.DefaultClamp
	}
	totals := rollup.Categories(rows, clamp)
	olk := rollup.OLK(rows)

	return Result{
		Success:     true,
		Date:        ref.AsOf.Format("2006-01-02"),
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Rows:        rows,
		Totals:      &totals,
		GroupTotals: rollup.Groups(rows, b.Table, clamp),
		OLKTotals:   &olk,
	}
}

func (b *Builder) load(ctx context.Context, side string, fn func(context.Context) (series.ByLine, error)) series.ByLine {
	out, err := fn(ctx)
	if err != nil {
		zap.L().Named("report").Error("loader failed, continuing with empty data",
			zap.String("side", side), zap.Error(err))
		return series.ByLine{}
	}
	if out == nil {
		out = series.ByLine{}
	}
	return out
}

// Failure builds the error payload the outer surfaces return when a run
// cannot produce data at all.
func Failure(now time.Time, msg string) Result {
	return Result{
		Success:   false,
		Error:     msg,
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}

// WriteJSON exports the result to path with an atomic rename.
func WriteJSON(path string, res Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return fsx.WriteAtomic(path, append(data, '\n'), 0o644)
}
