package model

import (
	"time"

	"github.com/google/uuid"
)

// OwnedEvent is one entry of a user's owned-event set. EventID is the
// primary key, so an event belongs to at most one user.
type OwnedEvent struct {
	EventID   uuid.UUID `gorm:"type:char(36);primaryKey"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;index"`
	CreatedAt time.Time
}

// All returns every persistent model, in dependency order for migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Event{},
		&OwnedEvent{},
	}
}
