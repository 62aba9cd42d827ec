package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is a staff login issued by the external identity service. Only
// lookup and cleanup happen here.
type Session struct {
	BaseSimple
	UserID    uuid.UUID  `db:"user_id"`
	Token     uuid.UUID  `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}

// ActiveAt reports whether the session can authenticate a request at t.
func (s *Session) ActiveAt(t time.Time) bool {
	return s.RevokedAt == nil && t.Before(s.ExpiresAt)
}
