package rabbitmq

import "github.com/magabrotheeeer/level-progression/internal/models"

const (
	// NotificationsExchange exchange уведомлений для сервиса рассылки.
	NotificationsExchange = "notifications"
	// PaymentsExchange exchange событий платёжного сервиса.
	PaymentsExchange = "payments"
	// PaymentCompletedKey ключ маршрутизации успешной оплаты.
	PaymentCompletedKey = "completed"
)

// QueueConfig очередь и её привязка к exchange.
type QueueConfig struct {
	QueueName  string
	Exchange   string
	RoutingKey string
}

// GetNotificationQueues очереди уведомлений о заморозке.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.pause.started", Exchange: NotificationsExchange, RoutingKey: models.EventPauseStarted},
		{QueueName: "notifications.pause.resumed", Exchange: NotificationsExchange, RoutingKey: models.EventPauseResumed},
	}
}

// GetPaymentQueues очередь событий оплаты с заданным именем.
func GetPaymentQueues(queueName string) []QueueConfig {
	return []QueueConfig{
		{QueueName: queueName, Exchange: PaymentsExchange, RoutingKey: PaymentCompletedKey},
	}
}
