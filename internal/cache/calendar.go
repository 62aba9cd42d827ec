package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vehicle-rental/internal/data/entity"
	"vehicle-rental/internal/usecase"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// fenceWindow bounds how long after an invalidation a reader that loaded the
// calendar before the write committed could still try to store it.
const fenceWindow = 5 * time.Second

// setCalendar writes the entry unless an invalidation fence is live.
var setCalendar = redis.NewScript(`
	if redis.call('EXISTS', KEYS[2]) == 1 then
		return 0
	end
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
	return 1
`)

// CalendarCache stores each vehicle's live booking intervals as a JSON list
// under vehicle:<id>:calendar with a short TTL. Invalidate leaves a fence at
// vehicle:<id>:calendar:fence so a read that started before the booking
// change committed cannot put the old calendar back.
type CalendarCache struct {
	client redis.Cmdable
	ttl    time.Duration
	fence  time.Duration
	log    *zap.Logger
}

// NewCalendarCache returns a redis backed cache, or a no-op cache when client
// is nil so the service keeps working without redis.
func NewCalendarCache(client *redis.Client, ttl time.Duration, log *zap.Logger) usecase.CalendarCache {
	if client == nil {
		log.Warn("Redis unavailable, calendar cache disabled")
		return usecase.NopCalendarCache{}
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CalendarCache{
		client: client,
		ttl:    ttl,
		fence:  fenceWindow,
		log:    log.With(zap.String("component", "calendar-cache")),
	}
}

func CalendarKey(vehicleID uuid.UUID) string {
	return fmt.Sprintf("vehicle:%s:calendar", vehicleID)
}

func CalendarFenceKey(vehicleID uuid.UUID) string {
	return CalendarKey(vehicleID) + ":fence"
}

func (c *CalendarCache) Get(ctx context.Context, vehicleID uuid.UUID) ([]entity.BookingInterval, bool, error) {
	raw, err := c.client.Get(ctx, CalendarKey(vehicleID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get calendar %s: %w", vehicleID, err)
	}

	var intervals []entity.BookingInterval
	if err := json.Unmarshal([]byte(raw), &intervals); err != nil {
		// a corrupt entry is treated as a miss and overwritten by the next Set
		c.log.Warn("Discarding undecodable calendar entry",
			zap.String("vehicle_id", vehicleID.String()),
			zap.Error(err),
		)
		return nil, false, nil
	}

	return intervals, true, nil
}

func (c *CalendarCache) Set(ctx context.Context, vehicleID uuid.UUID, intervals []entity.BookingInterval) error {
	if intervals == nil {
		intervals = []entity.BookingInterval{}
	}

	data, err := json.Marshal(intervals)
	if err != nil {
		return fmt.Errorf("encode calendar %s: %w", vehicleID, err)
	}

	keys := []string{CalendarKey(vehicleID), CalendarFenceKey(vehicleID)}
	stored, err := setCalendar.Run(ctx, c.client, keys, string(data), c.ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("set calendar %s: %w", vehicleID, err)
	}
	if stored == 0 {
		c.log.Debug("Calendar changed during read, entry not stored",
			zap.String("vehicle_id", vehicleID.String()),
		)
	}
	return nil
}

// Invalidate raises the fence before deleting so no Set can land between the two.
func (c *CalendarCache) Invalidate(ctx context.Context, vehicleID uuid.UUID) error {
	if err := c.client.Set(ctx, CalendarFenceKey(vehicleID), "1", c.fence).Err(); err != nil {
		return fmt.Errorf("fence calendar %s: %w", vehicleID, err)
	}
	if err := c.client.Del(ctx, CalendarKey(vehicleID)).Err(); err != nil {
		return fmt.Errorf("invalidate calendar %s: %w", vehicleID, err)
	}
	return nil
}
