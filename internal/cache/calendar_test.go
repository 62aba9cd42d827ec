package cache_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"vehicle-rental/internal/cache"
	"vehicle-rental/internal/data/entity"
	"vehicle-rental/internal/usecase"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCalendarKey(t *testing.T) {
	id := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	assert.Equal(t, "vehicle:7c9e6679-7425-40de-944b-e07fc1f90ae7:calendar", cache.CalendarKey(id))
}

func TestNewCalendarCache_NilClient(t *testing.T) {
	c := cache.NewCalendarCache(nil, time.Minute, zap.NewNop())
	assert.IsType(t, usecase.NopCalendarCache{}, c)
}

func TestCalendarCache_Get(t *testing.T) {
	ctx := context.Background()
	vehicleID := uuid.New()
	key := cache.CalendarKey(vehicleID)

	t.Run("Hit", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		c := cache.NewCalendarCache(db, time.Minute, zap.NewNop())

		start := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
		intervals := []entity.BookingInterval{{BookingID: uuid.New(), Start: start, End: start.Add(48 * time.Hour), Status: entity.BookingStatusApproved}}
		data, err := json.Marshal(intervals)
		require.NoError(t, err)
		mock.ExpectGet(key).SetVal(string(data))

		got, hit, err := c.Get(ctx, vehicleID)
		require.NoError(t, err)
		assert.True(t, hit)
		require.Len(t, got, 1)
		assert.True(t, start.Equal(got[0].Start))
		assert.Equal(t, entity.BookingStatusApproved, got[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Miss", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		c := cache.NewCalendarCache(db, time.Minute, zap.NewNop())
		mock.ExpectGet(key).RedisNil()

		got, hit, err := c.Get(ctx, vehicleID)
		assert.NoError(t, err)
		assert.False(t, hit)
		assert.Nil(t, got)
	})

	t.Run("Corrupt entry is a miss", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		c := cache.NewCalendarCache(db, time.Minute, zap.NewNop())
		mock.ExpectGet(key).SetVal("{not json")

		_, hit, err := c.Get(ctx, vehicleID)
		assert.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("Redis error", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		c := cache.NewCalendarCache(db, time.Minute, zap.NewNop())
		mock.ExpectGet(key).SetErr(errors.New("connection refused"))

		_, hit, err := c.Get(ctx, vehicleID)
		assert.Error(t, err)
		assert.False(t, hit)
	})
}
