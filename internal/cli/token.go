package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	tokenUID   string
	tokenEmail string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed bearer token for local use",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenUID == "" {
			return fmt.Errorf("--uid must be provided")
		}
		token, err := getApp().IssueToken(tokenUID, tokenEmail)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUID, "uid", "", "Subject uid of the token")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim of the token")
}
