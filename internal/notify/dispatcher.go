package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"vehicle-rental/internal/data/entity"
	"vehicle-rental/internal/usecase"

	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// Publisher is the broker side of the dispatcher, satisfied by *queue.Publisher.
type Publisher interface {
	Publish(ctx context.Context, messageType string, body []byte) error
}

// Dispatcher publishes booking events in the background. Notify returns at
// once; delivery failures are logged and never reach the caller.
type Dispatcher struct {
	publisher Publisher
	now       func() time.Time
	log       *zap.Logger
	wg        sync.WaitGroup
}

func NewDispatcher(publisher Publisher, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		now:       time.Now,
		log:       log.With(zap.String("component", "notifier")),
	}
}

func (d *Dispatcher) Notify(ctx context.Context, event usecase.NotificationEvent, booking *entity.Booking) {
	if booking == nil {
		return
	}

	body, err := json.Marshal(NewMessage(event, booking, d.now()))
	if err != nil {
		d.log.Error("Failed to encode notification",
			zap.String("event", string(event)),
			zap.String("booking_id", booking.ID.String()),
			zap.Error(err),
		)
		return
	}

	// detached from the request so a finished response does not cancel delivery
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()

		if err := d.publisher.Publish(pubCtx, string(event), body); err != nil {
			d.log.Warn("Failed to publish notification",
				zap.String("event", string(event)),
				zap.String("booking_id", booking.ID.String()),
				zap.Error(err),
			)
			return
		}
		d.log.Debug("Notification published",
			zap.String("event", string(event)),
			zap.String("booking_id", booking.ID.String()),
		)
	}()
}

// Wait blocks until in-flight publishes finish; used on shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
