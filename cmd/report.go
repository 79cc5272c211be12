package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/KarissaChan1/gamlss-curve-optimization/internal/curves"
	"github.com/KarissaChan1/gamlss-curve-optimization/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report <save-dir>",
	Short: "Re-render the PDF report from an existing results snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		snap, err := curves.LoadSnapshot(dir)
		if err != nil {
			return err
		}
		if err := report.Compose(dir, snap); err != nil {
			return err
		}
		log.Printf("Report written to %s/%s", dir, report.ReportFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
