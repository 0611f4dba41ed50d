package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/level-progression/internal/models"
)

func newSummaryCmd(app *App) *cobra.Command {
	var userID, level string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the entitlement state of a user for a level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.Summaries.Summary(cmd.Context(), userID, models.LevelID(level))
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), s)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().StringVar(&level, "level", "", "Level, e.g. LEVEL_A1")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("level")
	return cmd
}

func printSummary(w io.Writer, s models.EntitlementSummary) {
	fmt.Fprintf(w, "level:            %s\n", s.LevelID)
	fmt.Fprintf(w, "current day:      %d\n", s.CurrentDay)
	fmt.Fprintf(w, "completed:        %t\n", s.IsCompleted)
	fmt.Fprintf(w, "paused:           %t", s.IsVoluntaryPaused)
	if s.PauseScheduledEndDate != nil {
		fmt.Fprintf(w, " (until %s)", s.PauseScheduledEndDate.Format(time.RFC3339))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "pause days left:  %d\n", s.RemainingPauseDays)
	fmt.Fprintf(w, "pauses left:      %d\n", s.RemainingPauseAttempts)
	fmt.Fprintf(w, "expires at:       %s\n", s.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintf(w, "days left:        %d\n", s.DaysLeft)
	fmt.Fprintf(w, "expired:          %t\n", s.IsExpired)
}
