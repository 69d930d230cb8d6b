package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adientlz/pvs-reporter/internal/fsx"
	"github.com/adientlz/pvs-reporter/internal/mailer"
	"github.com/adientlz/pvs-reporter/internal/report"
	"github.com/adientlz/pvs-reporter/internal/store"
)

var (
	reportWriteFiles bool
	reportStore      bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run one reconciliation and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initReport(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res := env.Builder.Build(ctx)

		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return eris.Wrap(err, "encode result")
		}
		fmt.Println(string(out))

		if reportWriteFiles {
			if err := writeSnapshotFiles(res); err != nil {
				return err
			}
		}
		if reportStore {
			if err := storeSnapshot(ctx, res); err != nil {
				return err
			}
		}
		return nil
	},
}

func writeSnapshotFiles(res report.Result) error {
	jsonPath := filepath.Join(cfg.Report.OutputDir, "pvs_"+res.Date+".json")
	if err := report.WriteJSON(jsonPath, res); err != nil {
		return eris.Wrap(err, "write json snapshot")
	}
	zap.L().Info("wrote json snapshot", zap.String("path", jsonPath))

	html, err := mailer.Render(res)
	if err != nil {
		return eris.Wrap(err, "render html snapshot")
	}
	htmlPath := filepath.Join(cfg.Report.OutputDir, "pvs_"+res.Date+".html")
	if err := fsx.WriteAtomic(htmlPath, []byte(html), 0o644); err != nil {
		return eris.Wrap(err, "write html snapshot")
	}
	zap.L().Info("wrote html snapshot", zap.String("path", htmlPath))
	return nil
}

func storeSnapshot(ctx context.Context, res report.Result) error {
	if !res.Success {
		return eris.New("refusing to store a failed report")
	}
	snapshots, err := store.NewSQLite(cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer snapshots.Close()
	if err := snapshots.Migrate(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "encode snapshot")
	}
	if err := snapshots.Save(ctx, res.Date, payload); err != nil {
		return err
	}
	zap.L().Info("stored snapshot", zap.String("date", res.Date))
	return nil
}

func init() {
	reportCmd.Flags().BoolVar(&reportWriteFiles, "write", false, "write JSON and HTML snapshots to the output dir")
	reportCmd.Flags().BoolVar(&reportStore, "store", false, "save the result in the snapshot database")
	rootCmd.AddCommand(reportCmd)
}
