package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"scheduler/internal/model"
)

// EventRepository persists events and the owned-event index. The index
// (owned_events) is the single source of truth for who owns what.
type EventRepository interface {
	// Create inserts the event and appends it to the user's owned set in
	// one transaction.
	Create(ctx context.Context, userID uuid.UUID, event *model.Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Event, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, ids []uuid.UUID) error

	AppendOwned(ctx context.Context, userID, eventID uuid.UUID) error
	RemoveOwned(ctx context.Context, userID uuid.UUID, eventIDs []uuid.UUID) error
	OwnedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListOwned(ctx context.Context, userID uuid.UUID) ([]model.Event, error)
	// DeleteOwned removes the ids from the user's owned set and deletes the
	// events in one transaction.
	DeleteOwned(ctx context.Context, userID uuid.UUID, eventIDs []uuid.UUID) error
	// DeleteOrphans deletes events that no owned set references.
	DeleteOrphans(ctx context.Context) (int64, error)

	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo EventRepository) error) error
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, userID uuid.UUID, event *model.Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		txRepo := &eventRepository{db: tx}
		return txRepo.AppendOwned(ctx, userID, event.ID)
	})
}

func (r *eventRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var event model.Event
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Event, error) {
	events := []model.Event{}
	if len(ids) == 0 {
		return events, nil
	}
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("day_of_week, start_at").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Update applies column updates to a single event.
func (r *eventRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Event{}).Where("id = ?", id).Updates(fields).Error
}

func (r *eventRepository) Delete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Event{}).Error
}

func (r *eventRepository) AppendOwned(ctx context.Context, userID, eventID uuid.UUID) error {
	return r.db.WithContext(ctx).Create(&model.OwnedEvent{
		EventID: eventID,
		UserID:  userID,
	}).Error
}

func (r *eventRepository) RemoveOwned(ctx context.Context, userID uuid.UUID, eventIDs []uuid.UUID) error {
	if len(eventIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND event_id IN ?", userID, eventIDs).
		Delete(&model.OwnedEvent{}).Error
}

func (r *eventRepository) OwnedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if err := r.db.WithContext(ctx).Model(&model.OwnedEvent{}).
		Where("user_id = ?", userID).
		Order("created_at").
		Pluck("event_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *eventRepository) ListOwned(ctx context.Context, userID uuid.UUID) ([]model.Event, error) {
	events := []model.Event{}
	if err := r.db.WithContext(ctx).
		Joins("JOIN owned_events ON owned_events.event_id = events.id").
		Where("owned_events.user_id = ?", userID).
		Order("events.day_of_week, events.start_at").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) DeleteOwned(ctx context.Context, userID uuid.UUID, eventIDs []uuid.UUID) error {
	if len(eventIDs) == 0 {
		return nil
	}
	return r.WithTransaction(ctx, func(ctx context.Context, repo EventRepository) error {
		if err := repo.RemoveOwned(ctx, userID, eventIDs); err != nil {
			return err
		}
		return repo.Delete(ctx, eventIDs)
	})
}

func (r *eventRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	orphaned := r.db.Model(&model.OwnedEvent{}).Select("event_id")
	res := r.db.WithContext(ctx).Where("id NOT IN (?)", orphaned).Delete(&model.Event{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// WithTransaction executes a function within a database transaction.
func (r *eventRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo EventRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &eventRepository{db: tx}
		return fn(ctx, txRepo)
	})
}
