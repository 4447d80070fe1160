// Package seed loads demo users and events through the regular services, so
// seeded data passes the same validation as API traffic.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	apperr "scheduler/internal/errors"
	"scheduler/internal/service"
	"scheduler/internal/validation"
)

// DefaultEvents is a small working week used when no file is given.
var DefaultEvents = []validation.NewEvent{
	newEvent("Standup", "Room 1", 540, 555, 1),
	newEvent("Standup", "Room 1", 540, 555, 2),
	newEvent("Standup", "Room 1", 540, 555, 3),
	newEvent("Standup", "Room 1", 540, 555, 4),
	newEvent("Standup", "Room 1", 540, 555, 5),
	newEvent("Planning", "Room 2", 600, 690, 1),
	newEvent("Lunch", "", 720, 780, 3),
	newEvent("Retro", "Room 2", 900, 960, 5),
}

func newEvent(title, location string, startAt, endAt, day int) validation.NewEvent {
	return validation.NewEvent{
		Title:     title,
		Location:  location,
		StartAt:   &startAt,
		EndAt:     &endAt,
		DayOfWeek: &day,
	}
}

// Account identifies the user the events are seeded for.
type Account struct {
	Name     string
	Email    string
	Password string
}

// Result summarizes a seeding run.
type Result struct {
	Token   string
	Created int
	Skipped int
}

// Seeder creates an account (or logs into it) and adds events.
type Seeder struct {
	auth      service.AuthService
	events    service.EventService
	validator service.PayloadValidator
	logger    zerolog.Logger
}

// New creates a seeder.
func New(auth service.AuthService, events service.EventService, validator service.PayloadValidator, logger zerolog.Logger) *Seeder {
	return &Seeder{
		auth:      auth,
		events:    events,
		validator: validator,
		logger:    logger,
	}
}

// Run seeds events for account. Invalid events are skipped and logged.
func (s *Seeder) Run(ctx context.Context, account Account, events []validation.NewEvent) (*Result, error) {
	signup := validation.Signup{Name: account.Name, Email: account.Email, Password: account.Password}
	if err := s.validator.Validate(&signup); err != nil {
		return nil, fmt.Errorf("seed account: %w", err)
	}

	authResult, err := s.auth.Signup(ctx, signup)
	if errors.Is(err, apperr.ErrEmailRegistered) {
		s.logger.Info().Str("email", account.Email).Msg("account exists, logging in")
		authResult, err = s.auth.Login(ctx, validation.Login{Email: account.Email, Password: account.Password})
	}
	if err != nil {
		return nil, fmt.Errorf("seed account: %w", err)
	}

	res := &Result{Token: authResult.Token}
	for i := range events {
		ev := events[i]
		if err := s.validator.Validate(&ev); err != nil {
			s.logger.Warn().Err(err).Int("index", i).Msg("skipping invalid event")
			res.Skipped++
			continue
		}
		if _, err := s.events.Create(ctx, authResult.User.ID, ev); err != nil {
			return res, fmt.Errorf("create event %q: %w", ev.Title, err)
		}
		res.Created++
	}
	return res, nil
}

// LoadEvents reads a JSON array of events from path.
func LoadEvents(path string) ([]validation.NewEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()
	return DecodeEvents(f)
}

// DecodeEvents decodes a JSON array of events.
func DecodeEvents(r io.Reader) ([]validation.NewEvent, error) {
	var events []validation.NewEvent
	if err := json.NewDecoder(r).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}
