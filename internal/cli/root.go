// Package cli содержит команды progressionctl для обслуживания доступа к уровням.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/level-progression/internal/models"
)

// Sweeper снимает истёкшие заморозки.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Summaries читает состояние доступа.
type Summaries interface {
	Summary(ctx context.Context, userID string, level models.LevelID) (models.EntitlementSummary, error)
}

// ContentImporter загружает контент уроков.
type ContentImporter interface {
	ImportLesson(ctx context.Context, level models.LevelID, day int, lesson models.LessonType, raw []byte) error
}

// Purchases выдаёт доступ к уровню.
type Purchases interface {
	HandlePaymentCompleted(ctx context.Context, ev models.PaymentCompleted) error
}

// TokenIssuer выпускает JWT токен пользователя.
type TokenIssuer interface {
	GenerateToken(userID, displayName string) (string, error)
}

// App сервисы, которые используют команды.
type App struct {
	Sweeper   Sweeper
	Summaries Summaries
	Content   ContentImporter
	Purchases Purchases
	Tokens    TokenIssuer
}

// NewRootCmd создаёт команду progressionctl со всеми подкомандами.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "progressionctl",
		Short:         "Maintenance tool for level entitlements",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newSweepCmd(app),
		newSummaryCmd(app),
		newContentCmd(app),
		newGrantCmd(app),
		newTokenCmd(app),
	)

	return root
}
