package utils

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// ==================== UUID ====================

func GenerateUUID() uuid.UUID {
	return uuid.New()
}

func ParseUUID(uuidStr string) (uuid.UUID, error) {
	return uuid.Parse(uuidStr)
}

// ==================== BOOKING REFERENCE ====================

// GenerateBookingRef returns a human readable reference for a booking created at t.
// Format: RENT-YYYYMMDD-HHMMSS-NNNN
func GenerateBookingRef(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("RENT-%s-%s-%04d", t.Format("20060102"), t.Format("150405"), rand.IntN(10000))
}
