package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var notifyKeyword string

var notifyTestCmd = &cobra.Command{
	Use:   "notify-test",
	Short: "Send a sample rising-keyword alert",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := getApp().NotifyTest(cmd.Context(), notifyKeyword); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "notification sent")
		return nil
	},
}

func init() {
	notifyTestCmd.Flags().StringVar(&notifyKeyword, "keyword", "", "Keyword to mention in the alert")
}
