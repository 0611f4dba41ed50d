package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/level-progression/internal/models"
	"github.com/magabrotheeeer/level-progression/internal/services/purchase"
)

// PaymentService обработка события оплаты.
type PaymentService interface {
	HandlePaymentCompleted(ctx context.Context, ev models.PaymentCompleted) error
}

// PaymentHandler возвращает обработчик сообщений очереди оплат.
// Неразборчивые и невалидные события помечаются ErrPermanent.
func PaymentHandler(svc PaymentService) func(context.Context, []byte) error {
	return func(ctx context.Context, body []byte) error {
		var ev models.PaymentCompleted
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("%w: decode payment event: %v", ErrPermanent, err)
		}
		err := svc.HandlePaymentCompleted(ctx, ev)
		if errors.Is(err, purchase.ErrInvalidEvent) {
			return fmt.Errorf("%w: %v", ErrPermanent, err)
		}
		return err
	}
}
