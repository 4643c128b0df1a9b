package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"creator-trends/internal/app"
)

var (
	showLimit    int
	showCategory string
	showSince    time.Duration
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display stored keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}
		if showSince < 0 {
			return fmt.Errorf("--since cannot be negative")
		}

		opts := app.ShowOptions{
			Limit:    showLimit,
			Category: showCategory,
			Since:    showSince,
		}

		return getApp().Show(cmd.Context(), cmd.OutOrStdout(), opts)
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of keywords to display")
	showCmd.Flags().StringVar(&showCategory, "category", "", "Only show keywords of this category")
	showCmd.Flags().DurationVar(&showSince, "since", 0, "Only show keywords updated within this window (e.g. 6h)")
}
