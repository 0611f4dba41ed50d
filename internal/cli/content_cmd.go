package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/level-progression/internal/models"
)

func newContentCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Manage lesson content",
	}

	cmd.AddCommand(newContentImportCmd(app))
	return cmd
}

func newContentImportCmd(app *App) *cobra.Command {
	var level, lesson, file string
	var day int

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate and store lesson content from a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			err = app.Content.ImportLesson(cmd.Context(), models.LevelID(level), day, models.LessonType(lesson), raw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s day %d %s\n", level, day, lesson)
			return nil
		},
	}

	cmd.Flags().StringVar(&level, "level", "", "Level, e.g. LEVEL_A1")
	cmd.Flags().IntVar(&day, "day", 0, "Day 1..50")
	cmd.Flags().StringVar(&lesson, "lesson", "", "Lesson type, e.g. DAILY_TEST")
	cmd.Flags().StringVar(&file, "file", "", "Path to a JSON array with lesson items")
	for _, name := range []string{"level", "day", "lesson", "file"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
