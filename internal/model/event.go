package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is a weekly recurring calendar entry. StartAt and EndAt are minutes
// since midnight.
type Event struct {
	ID          uuid.UUID `json:"eventId" gorm:"type:char(36);primaryKey"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Location    string    `json:"location,omitempty" gorm:"size:255"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Color       *int      `json:"color,omitempty"`
	StartAt     int       `json:"startAt" gorm:"not null"`
	EndAt       int       `json:"endAt" gorm:"not null"`
	DayOfWeek   int       `json:"dayOfWeek" gorm:"not null;index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"-"`
}

// BeforeCreate sets UUID before creating the record.
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
