package entity

import (
	"time"

	"github.com/google/uuid"
)

// Base is embedded by catalog rows (vehicles, locations, users) that are
// retired with a deleted_at stamp instead of being removed.
type Base struct {
	ID        uuid.UUID  `db:"id"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

// IsDeleted reports whether the row has been retired.
func (b Base) IsDeleted() bool {
	return b.DeletedAt != nil
}

// BaseNoDelete is for rows kept forever: bookings and payments.
type BaseNoDelete struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BaseSimple is for append-only rows.
type BaseSimple struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}
