package progression

import (
	"time"

	"github.com/magabrotheeeer/level-progression/internal/models"
)

// CertificateEligible может ли пользователь получить сертификат уровня.
func CertificateEligible(e models.LevelEntitlement) bool {
	return e.IsCompleted
}

// Summarize собирает краткое состояние доступа на момент now.
func Summarize(e models.LevelEntitlement, now time.Time) models.EntitlementSummary {
	s := models.EntitlementSummary{
		LevelID:                e.LevelID,
		CurrentDay:             e.CurrentDay,
		IsCompleted:            e.IsCompleted,
		IsVoluntaryPaused:      e.IsVoluntaryPaused,
		PauseScheduledEndDate:  e.PauseScheduledEndDate,
		RemainingPauseDays:     e.RemainingPauseDays(),
		RemainingPauseAttempts: e.RemainingPauseAttempts(),
		ExpiresAt:              e.ExpiresAt,
		IsExpired:              Expired(e, now),
	}
	if !s.IsExpired {
		s.DaysLeft = ceilDays(e.ExpiresAt.Sub(now))
	}
	return s
}

// NewEntitlement создаёт запись доступа после оплаты.
func NewEntitlement(userID string, level models.LevelID, purchaseDate time.Time, durationDays int) models.LevelEntitlement {
	return models.LevelEntitlement{
		UserID:       userID,
		LevelID:      level,
		PurchaseDate: purchaseDate,
		ExpiresAt:    purchaseDate.Add(days(durationDays)),
		CurrentDay:   1,
		PauseHistory: []models.PauseRecord{},
	}
}
