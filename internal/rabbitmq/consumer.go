package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/level-progression/internal/lib/sl"
)

// ErrPermanent помечает сообщение, которое бессмысленно обрабатывать повторно.
var ErrPermanent = errors.New("permanent message failure")

// ConsumerMessage запускает потребителя очереди. Сообщения обрабатываются параллельно,
// не более workers одновременно. При ошибке handler сообщение возвращается в очередь,
// кроме ошибок ErrPermanent: такие сообщения отбрасываются.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, workers int,
	handler func(context.Context, []byte) error, log *slog.Logger) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	go dispatch(ctx, delivery, workers, handler, log.With(slog.String("queue", queueName)))
	return nil
}

// dispatch раздаёт сообщения обработчикам, пока не закрыт delivery или не отменён ctx.
// Сообщение, для которого не нашлось свободного обработчика до отмены, возвращается в очередь.
func dispatch(ctx context.Context, delivery <-chan amqp.Delivery, workers int,
	handler func(context.Context, []byte) error, log *slog.Logger) {
	sem := make(chan struct{}, max(workers, 1))
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				log.Warn("delivery channel closed")
				return
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				if err := d.Nack(false, true); err != nil {
					log.Error("failed to nack message", sl.Err(err))
				}
				return
			}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				handleDelivery(ctx, d, handler, log)
			}(d)
		case <-ctx.Done():
			return
		}
	}
}

// Acknowledger часть amqp.Delivery для подтверждения сообщения.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(ctx context.Context, d amqp.Delivery, handler func(context.Context, []byte) error, log *slog.Logger) {
	settle(d, handler(ctx, d.Body), log.With(slog.String("message_id", d.MessageId)))
}

func settle(a Acknowledger, err error, log *slog.Logger) {
	if err == nil {
		if ackErr := a.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
		return
	}
	requeue := !errors.Is(err, ErrPermanent)
	log.Error("failed to handle message", slog.Bool("requeue", requeue), sl.Err(err))
	if nackErr := a.Nack(false, requeue); nackErr != nil {
		log.Error("failed to nack message", sl.Err(nackErr))
	}
}
