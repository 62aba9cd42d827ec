package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// LogHandler returns a queue handler that writes each booking event to the
// structured log. It stands in for the email worker in development.
func LogHandler(log *zap.Logger) func(ctx context.Context, messageType string, body []byte) error {
	log = log.With(zap.String("component", "notification-consumer"))

	return func(_ context.Context, messageType string, body []byte) error {
		var msg Message
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("decode %s message: %w", messageType, err)
		}

		log.Info("Booking notification",
			zap.String("event", string(msg.Event)),
			zap.String("booking_id", msg.BookingID),
			zap.String("reference", msg.Reference),
			zap.String("status", string(msg.Status)),
			zap.String("customer_email", msg.CustomerEmail),
			zap.Time("occurred_at", msg.OccurredAt),
		)
		return nil
	}
}
