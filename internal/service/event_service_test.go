package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperr "scheduler/internal/errors"
	"scheduler/internal/model"
	"scheduler/internal/validation"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func newTestEventService(repo *MockEventRepository) EventService {
	return NewEventService(repo, validation.New(validation.DefaultDayOfWeekMax), nil, 0)
}

func standup(id uuid.UUID) *model.Event {
	return &model.Event{ID: id, Title: "Standup", StartAt: 540, EndAt: 570, DayOfWeek: 2}
}

func TestEventService_Create(t *testing.T) {
	userID := uuid.New()
	repo := new(MockEventRepository)
	repo.On("Create", mock.Anything, userID, mock.MatchedBy(func(e *model.Event) bool {
		return e.Title == "Standup" && e.StartAt == 540 && e.EndAt == 570 && e.DayOfWeek == 2 && e.ID != uuid.Nil
	})).Return(nil)

	svc := newTestEventService(repo)
	event, err := svc.Create(context.Background(), userID, validation.NewEvent{
		Title:     "Standup",
		StartAt:   intPtr(540),
		EndAt:     intPtr(570),
		DayOfWeek: intPtr(2),
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	repo.AssertExpectations(t)
}

func TestEventService_CreateStoreFailure(t *testing.T) {
	repo := new(MockEventRepository)
	repo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("write failed"))

	svc := newTestEventService(repo)
	_, err := svc.Create(context.Background(), uuid.New(), validation.NewEvent{
		Title: "Standup", StartAt: intPtr(540), EndAt: intPtr(570), DayOfWeek: intPtr(2),
	})
	assert.ErrorIs(t, err, apperr.ErrInternal)
}

func TestEventService_Get(t *testing.T) {
	userID, owned, foreign := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		name          string
		eventID       uuid.UUID
		setupMock     func(*MockEventRepository)
		expectedError error
	}{
		{
			name:    "owned event",
			eventID: owned,
			setupMock: func(m *MockEventRepository) {
				m.On("OwnedIDs", mock.Anything, userID).Return([]uuid.UUID{owned}, nil)
				m.On("FindByID", mock.Anything, owned).Return(standup(owned), nil)
			},
		},
		{
			name:    "foreign event",
			eventID: foreign,
			setupMock: func(m *MockEventRepository) {
				m.On("OwnedIDs", mock.Anything, userID).Return([]uuid.UUID{owned}, nil)
			},
			expectedError: apperr.ErrEventNotFound,
		},
		{
			name:    "dangling index entry",
			eventID: owned,
			setupMock: func(m *MockEventRepository) {
				m.On("OwnedIDs", mock.Anything, userID).Return([]uuid.UUID{owned}, nil)
				m.On("FindByID", mock.Anything, owned).Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: apperr.ErrEventNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockEventRepository)
			tt.setupMock(repo)

			event, err := newTestEventService(repo).Get(context.Background(), userID, tt.eventID)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, event)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.eventID, event.ID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestEventService_ListFiltersToOwned(t *testing.T) {
	userID, a, b, foreign := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	repo := new(MockEventRepository)
	repo.On("OwnedIDs", mock.Anything, userID).Return([]uuid.UUID{a, b}, nil)
	repo.On("FindByIDs", mock.Anything, []uuid.UUID{b}).Return([]model.Event{*standup(b)}, nil)

	events, err := newTestEventService(repo).List(context.Background(), userID, []uuid.UUID{foreign, b})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, b, events[0].ID)
	repo.AssertExpectations(t)
}

func TestEventService_ListAll(t *testing.T) {
	userID := uuid.New()
	repo := new(MockEventRepository)
	repo.On("ListOwned", mock.Anything, userID).Return([]model.Event{}, nil)

	events, err := newTestEventService(repo).List(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestEventService_ListCachedAndInvalidated(t *testing.T) {
	c, mr := newTestCache(t)
	userID, id := uuid.New(), uuid.New()
	repo := new(MockEventRepository)
	repo.On("ListOwned", mock.Anything, userID).Return([]model.Event{*standup(id)}, nil).Twice()
	repo.On("Create", mock.Anything, userID, mock.Anything).Return(nil)

	svc := NewEventService(repo, validation.New(validation.DefaultDayOfWeekMax), c, time.Minute)

	_, err := svc.List(context.Background(), userID, nil)
	require.NoError(t, err)
	cached, err := svc.List(context.Background(), userID, nil)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "Standup", cached[0].Title)
	assert.True(t, mr.Exists("events:"+userID.String()))

	_, err = svc.Create(context.Background(), userID, validation.NewEvent{
		Title: "Retro", StartAt: intPtr(600), EndAt: intPtr(660), DayOfWeek: intPtr(5),
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("events:"+userID.String()))

	_, err = svc.List(context.Background(), userID, nil)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestEventService_Update(t *testing.T) {
	userID, id := uuid.New(), uuid.New()

	tests := []struct {
		name          string
		patch         validation.EventPatch
		setupMock     func(*MockEventRepository)
		expectedError error
		check         func(*testing.T, *model.Event)
	}{
		{
			name:  "title only",
			patch: validation.EventPatch{Title: strPtr("Retro")},
			setupMock: func(m *MockEventRepository) {
				m.On("OwnedIDs", mock.Anything, userID).Return([]uuid.UUID{id}, nil)
				m.On("FindByID", mock.Anything, id).Return(standup(id), nil)
				m.On("Update", mock.Anything, id, map[string]interface{}{"title": "Retro"}).Return(nil)
			},
			check: func(t *testing.T, e *model.Event) {
				assert.Equal(t, "Retro", e.Title)
				assert.Equal(t, 540, e.StartAt)
				assert.Equal(t, 570, e.EndAt)
			},
		},
		{
			name:  "end moved before stored start",
			patch: validation.EventPatch{EndAt: intPtr(500)},
			setupMock: func(m *MockEventRepository) {
				m.On("OwnedIDs", mock.Anything, userID).Return([]uuid.UUID{id}, nil)
				m.On("FindByID", mock.Anything, id).Return(standup(id), nil)
			},
			expectedError: apperr.ErrValidation,
		},
		{
			name:  "start and end moved together",
			patch: validation.EventPatch{StartAt: intPtr(600), EndAt: intPtr(700)},
			setupMock: func(m *MockEventRepository) {
				m.On("OwnedIDs", mock.Anything, userID).Return([]uuid.UUID{id}, nil)
				m.On("FindByID", mock.Anything, id).Return(standup(id), nil)
				m.On("Update", mock.Anything, id, map[string]interface{}{"start_at": 600, "end_at": 700}).Return(nil)
			},
			check: func(t *testing.T, e *model.Event) {
				assert.Equal(t, 600, e.StartAt)
				assert.Equal(t, 700, e.EndAt)
			},
		},
		{
			name:  "clear color",
			patch: validation.EventPatch{ClearColor: true},
			setupMock: func(m *MockEventRepository) {
				colored := standup(id)
				colored.Color = intPtr(0xff0000)
				m.On("OwnedIDs", mock.Anything, userID).Return([]uuid.UUID{id}, nil)
				m.On("FindByID", mock.Anything, id).Return(colored, nil)
				m.On("Update", mock.Anything, id, map[string]interface{}{"color": nil}).Return(nil)
			},
			check: func(t *testing.T, e *model.Event) {
				assert.Nil(t, e.Color)
				assert.Equal(t, "Standup", e.Title)
			},
		},
		{
			name:  "not owned",
			patch: validation.EventPatch{Title: strPtr("Hijack")},
			setupMock: func(m *MockEventRepository) {
				m.On("OwnedIDs", mock.Anything, userID).Return([]uuid.UUID{}, nil)
			},
			expectedError: apperr.ErrEventNotFound,
		},
		{
			name:          "empty patch",
			patch:         validation.EventPatch{},
			setupMock:     func(m *MockEventRepository) {},
			expectedError: apperr.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockEventRepository)
			tt.setupMock(repo)

			event, err := newTestEventService(repo).Update(context.Background(), userID, id, tt.patch)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, event)
			} else {
				require.NoError(t, err)
				tt.check(t, event)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestEventService_DeleteReturnsOwnedSubset(t *testing.T) {
	userID, a, b, foreign := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	repo := new(MockEventRepository)
	repo.On("OwnedIDs", mock.Anything, userID).Return([]uuid.UUID{a, b}, nil)
	repo.On("DeleteOwned", mock.Anything, userID, []uuid.UUID{b, a}).Return(nil)

	deleted, err := newTestEventService(repo).Delete(context.Background(), userID, []uuid.UUID{b, foreign, a})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b, a}, deleted)
	repo.AssertExpectations(t)
}

func TestEventService_DeleteNothingOwned(t *testing.T) {
	userID := uuid.New()
	repo := new(MockEventRepository)
	repo.On("OwnedIDs", mock.Anything, userID).Return([]uuid.UUID{}, nil)

	deleted, err := newTestEventService(repo).Delete(context.Background(), userID, []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	assert.NotNil(t, deleted)
	assert.Empty(t, deleted)
	repo.AssertNotCalled(t, "DeleteOwned", mock.Anything, mock.Anything, mock.Anything)
}
