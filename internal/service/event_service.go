package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"scheduler/internal/cache"
	apperr "scheduler/internal/errors"
	"scheduler/internal/model"
	"scheduler/internal/repository"
	"scheduler/internal/validation"
)

// PayloadValidator validates request payloads.
type PayloadValidator interface {
	Validate(payload interface{}) error
}

// EventService manages a user's events. Every operation is scoped to the
// caller's owned set.
type EventService interface {
	// List returns the user's events. With a non-nil filter only the owned
	// ids among it are returned; the rest are dropped silently.
	List(ctx context.Context, userID uuid.UUID, filter []uuid.UUID) ([]model.Event, error)
	Get(ctx context.Context, userID, eventID uuid.UUID) (*model.Event, error)
	Create(ctx context.Context, userID uuid.UUID, req validation.NewEvent) (*model.Event, error)
	Update(ctx context.Context, userID, eventID uuid.UUID, patch validation.EventPatch) (*model.Event, error)
	// Delete removes the owned ids among eventIDs and returns them.
	Delete(ctx context.Context, userID uuid.UUID, eventIDs []uuid.UUID) ([]uuid.UUID, error)
}

type eventService struct {
	repo      repository.EventRepository
	guard     *OwnershipGuard
	validator PayloadValidator
	cache     *cache.Client
	listTTL   time.Duration
}

// NewEventService wires the event service. A nil cache or zero listTTL
// disables list caching.
func NewEventService(
	repo repository.EventRepository,
	validator PayloadValidator,
	cache *cache.Client,
	listTTL time.Duration,
) EventService {
	return &eventService{
		repo:      repo,
		guard:     NewOwnershipGuard(repo),
		validator: validator,
		cache:     cache,
		listTTL:   listTTL,
	}
}

func eventsCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("events:%s", userID)
}

func (s *eventService) List(ctx context.Context, userID uuid.UUID, filter []uuid.UUID) ([]model.Event, error) {
	if filter != nil {
		owned, err := s.guard.Owned(ctx, userID, filter)
		if err != nil {
			return nil, err
		}
		events, err := s.repo.FindByIDs(ctx, owned)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("fetch events: %w", err))
		}
		return events, nil
	}

	var cached []model.Event
	if s.cache.GetJSON(ctx, eventsCacheKey(userID), &cached) && cached != nil {
		return cached, nil
	}

	events, err := s.repo.ListOwned(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list events: %w", err))
	}
	if s.listTTL > 0 {
		s.cache.SetJSON(ctx, eventsCacheKey(userID), events, s.listTTL)
	}
	return events, nil
}

func (s *eventService) Get(ctx context.Context, userID, eventID uuid.UUID) (*model.Event, error) {
	if err := s.guard.Require(ctx, userID, eventID); err != nil {
		return nil, err
	}
	return s.find(ctx, eventID)
}

func (s *eventService) Create(ctx context.Context, userID uuid.UUID, req validation.NewEvent) (*model.Event, error) {
	event := &model.Event{
		ID:          uuid.New(),
		Title:       req.Title,
		Location:    req.Location,
		Description: req.Description,
		Color:       req.Color,
		StartAt:     *req.StartAt,
		EndAt:       *req.EndAt,
		DayOfWeek:   *req.DayOfWeek,
	}
	if err := s.repo.Create(ctx, userID, event); err != nil {
		return nil, apperr.Internal(fmt.Errorf("create event: %w", err))
	}
	s.invalidate(ctx, userID)
	return event, nil
}

// Update applies patch to an owned event. The merged result is validated
// as a whole, so a patch cannot leave endAt at or before startAt.
func (s *eventService) Update(ctx context.Context, userID, eventID uuid.UUID, patch validation.EventPatch) (*model.Event, error) {
	if patch.Empty() {
		return nil, apperr.Validation("at least one field must be provided")
	}
	if err := s.guard.Require(ctx, userID, eventID); err != nil {
		return nil, err
	}

	current, err := s.find(ctx, eventID)
	if err != nil {
		return nil, err
	}

	merged := mergePatch(current, patch)
	if err := s.validator.Validate(&merged); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, eventID, patchColumns(patch)); err != nil {
		return nil, apperr.Internal(fmt.Errorf("update event: %w", err))
	}
	s.invalidate(ctx, userID)

	current.Title = merged.Title
	current.Location = merged.Location
	current.Description = merged.Description
	current.Color = merged.Color
	current.StartAt = *merged.StartAt
	current.EndAt = *merged.EndAt
	current.DayOfWeek = *merged.DayOfWeek
	return current, nil
}

func (s *eventService) Delete(ctx context.Context, userID uuid.UUID, eventIDs []uuid.UUID) ([]uuid.UUID, error) {
	owned, err := s.guard.Owned(ctx, userID, eventIDs)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return owned, nil
	}
	if err := s.repo.DeleteOwned(ctx, userID, owned); err != nil {
		return nil, apperr.Internal(fmt.Errorf("delete events: %w", err))
	}
	s.invalidate(ctx, userID)
	return owned, nil
}

// find loads an event the index says is owned. A dangling index entry is
// reported as not found.
func (s *eventService) find(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrEventNotFound
		}
		return nil, apperr.Internal(fmt.Errorf("find event: %w", err))
	}
	return event, nil
}

func (s *eventService) invalidate(ctx context.Context, userID uuid.UUID) {
	_ = s.cache.Delete(ctx, eventsCacheKey(userID))
}

func mergePatch(current *model.Event, patch validation.EventPatch) validation.NewEvent {
	startAt, endAt, day := current.StartAt, current.EndAt, current.DayOfWeek
	merged := validation.NewEvent{
		Title:       current.Title,
		Location:    current.Location,
		Description: current.Description,
		Color:       current.Color,
		StartAt:     &startAt,
		EndAt:       &endAt,
		DayOfWeek:   &day,
	}
	if patch.Title != nil {
		merged.Title = *patch.Title
	}
	if patch.Location != nil {
		merged.Location = *patch.Location
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.ClearColor {
		merged.Color = nil
	}
	if patch.Color != nil {
		merged.Color = patch.Color
	}
	if patch.StartAt != nil {
		merged.StartAt = patch.StartAt
	}
	if patch.EndAt != nil {
		merged.EndAt = patch.EndAt
	}
	if patch.DayOfWeek != nil {
		merged.DayOfWeek = patch.DayOfWeek
	}
	return merged
}

func patchColumns(patch validation.EventPatch) map[string]interface{} {
	fields := make(map[string]interface{})
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Location != nil {
		fields["location"] = *patch.Location
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.ClearColor {
		fields["color"] = nil
	}
	if patch.Color != nil {
		fields["color"] = *patch.Color
	}
	if patch.StartAt != nil {
		fields["start_at"] = *patch.StartAt
	}
	if patch.EndAt != nil {
		fields["end_at"] = *patch.EndAt
	}
	if patch.DayOfWeek != nil {
		fields["day_of_week"] = *patch.DayOfWeek
	}
	return fields
}
