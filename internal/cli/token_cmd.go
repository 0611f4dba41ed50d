package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTokenCmd(app *App) *cobra.Command {
	var userID, name string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := app.Tokens.GenerateToken(userID, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().StringVar(&name, "name", "", "Display name printed on the certificate")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
