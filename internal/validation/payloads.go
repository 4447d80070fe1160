package validation

import (
	"bytes"
	"encoding/json"
)

// Signup is the registration payload.
type Signup struct {
	Name     string `json:"name" validate:"required,displayname"`
	Email    string `json:"email" validate:"required,email,dotteddomain,max=255"`
	Password string `json:"password" validate:"required,password"`
}

// Login is the credential payload.
type Login struct {
	Email    string `json:"email" validate:"required,email,dotteddomain,max=255"`
	Password string `json:"password" validate:"required,password"`
}

// NewEvent is the payload for creating an event. Times are minutes since
// midnight; pointers distinguish a missing value from 0.
type NewEvent struct {
	Title       string `json:"title" validate:"required,notblank,max=255"`
	Location    string `json:"location" validate:"omitempty,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Color       *int   `json:"color" validate:"omitempty,min=0,max=16777215"`
	StartAt     *int   `json:"startAt" validate:"required,min=0,max=1440"`
	EndAt       *int   `json:"endAt" validate:"required,min=0,max=1440,gtfield=StartAt"`
	DayOfWeek   *int   `json:"dayOfWeek" validate:"required,weekday"`
}

// EventPatch is a partial event update. Absent fields are left unchanged;
// the merged event must still satisfy NewEvent. An explicit "color": null
// sets ClearColor and removes the color.
type EventPatch struct {
	Title       *string `json:"title" validate:"omitempty,notblank,max=255"`
	Location    *string `json:"location" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Color       *int    `json:"color" validate:"omitempty,min=0,max=16777215"`
	StartAt     *int    `json:"startAt" validate:"omitempty,min=0,max=1440"`
	EndAt       *int    `json:"endAt" validate:"omitempty,min=0,max=1440"`
	DayOfWeek   *int    `json:"dayOfWeek" validate:"omitempty,weekday"`

	ClearColor bool `json:"-"`
}

// UnmarshalJSON decodes the patch and records an explicit null color.
func (p *EventPatch) UnmarshalJSON(data []byte) error {
	type plain EventPatch
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(data, (*plain)(p)); err != nil {
		return err
	}
	if v, ok := raw["color"]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		p.ClearColor = true
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p EventPatch) Empty() bool {
	return p.Title == nil && p.Location == nil && p.Description == nil &&
		p.Color == nil && !p.ClearColor && p.StartAt == nil && p.EndAt == nil && p.DayOfWeek == nil
}

// DeleteEvents names the events to delete.
type DeleteEvents struct {
	EventIDs []string `json:"eventIds" validate:"required,min=1,max=100,dive,uuid"`
}

// EventIDs is an optional id filter for bulk fetches.
type EventIDs struct {
	IDs []string `json:"ids" validate:"omitempty,max=100,dive,uuid"`
}
