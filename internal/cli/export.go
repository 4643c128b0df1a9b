package cli

import (
	"github.com/spf13/cobra"

	"creator-trends/internal/app"
)

var (
	exportPNGPath     string
	exportCSVPath     string
	exportMaxKeywords int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export top stored keywords as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			PNGPath:     exportPNGPath,
			CSVPath:     exportCSVPath,
			MaxKeywords: exportMaxKeywords,
		}
		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxKeywords, "max-keywords", 0, "Maximum keywords to export (defaults to config)")
}
