package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Handler processes one delivery body. A returned error rejects the message
// without requeueing it.
type Handler func(ctx context.Context, messageType string, body []byte) error

const maxBackoff = 30 * time.Second

// Consume reads the durable queue until ctx is cancelled, reconnecting with
// exponential backoff whenever the broker connection is lost.
func Consume(ctx context.Context, url, queue string, handle Handler, log *zap.Logger) {
	log = log.With(zap.String("component", "amqp-consumer"), zap.String("queue", queue))
	backoff := time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("Failed to dial broker, retrying", zap.Error(err), zap.Duration("backoff", backoff))
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, queue, handle, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		log.Warn("Consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, handle Handler, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("Set QoS failed", zap.Error(err))
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handle(ctx, d.Type, d.Body); err != nil {
				log.Error("Handle message failed", zap.String("type", d.Type), zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
