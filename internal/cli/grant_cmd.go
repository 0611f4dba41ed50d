package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/level-progression/internal/models"
)

func newGrantCmd(app *App) *cobra.Command {
	var userID, level string
	var days int

	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Grant a level to a user as if the payment had completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ev := models.PaymentCompleted{
				EventID:      "manual-" + uuid.NewString(),
				UserID:       userID,
				LevelID:      models.LevelID(level),
				DurationDays: days,
			}
			if err := app.Purchases.HandlePaymentCompleted(cmd.Context(), ev); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", level, userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().StringVar(&level, "level", "", "Level, e.g. LEVEL_A1")
	cmd.Flags().IntVar(&days, "days", 0, "Access duration in days (0 uses the configured default)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("level")
	return cmd
}
