package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adientlz/pvs-reporter/internal/mailer"
)

var emailTest bool

var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Build the report and send it as an HTML email",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initReport(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		res := env.Builder.Build(ctx)
		if !res.Success {
			return eris.Errorf("report build failed: %s", res.Error)
		}

		html, err := mailer.Render(res)
		if err != nil {
			return err
		}

		reportDate, err := time.Parse("2006-01-02", res.Date)
		if err != nil {
			return eris.Wrapf(err, "bad report date %q", res.Date)
		}

		sender := mailer.New(cfg.Email)
		if err := sender.Send(mailer.Subject(reportDate), html, emailTest); err != nil {
			return err
		}
		zap.L().Info("report email sent", zap.String("date", res.Date), zap.Bool("test", emailTest))
		return nil
	},
}

func init() {
	emailCmd.Flags().BoolVar(&emailTest, "test", false, "send to the test recipient only")
	rootCmd.AddCommand(emailCmd)
}
