package main

import (
	"github.com/spf13/cobra"

	"github.com/adientlz/pvs-reporter/internal/extract"
)

var extractOut string

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract the weekly output plan from the planning workbook to CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		return extract.New(cfg.Extract).Process(extractOut)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractOut, "out", "filtered_output.csv", "output CSV path")
	rootCmd.AddCommand(extractCmd)
}
