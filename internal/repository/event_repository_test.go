package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"scheduler/internal/db"
	"scheduler/internal/model"
)

// statements collects the SQL a dry-run session would have sent.
type statements struct {
	mu   sync.Mutex
	list []string
}

func (s *statements) record(tx *gorm.DB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append(s.list, tx.Dialector.Explain(tx.Statement.SQL.String(), tx.Statement.Vars...))
}

func (s *statements) last(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.list, "no statement recorded")
	return s.list[len(s.list)-1]
}

// newDryRunDB builds a MySQL-dialect session that renders SQL without a
// server.
func newDryRunDB(t *testing.T) (*gorm.DB, *statements) {
	t.Helper()
	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "scheduler:scheduler@tcp(127.0.0.1:3306)/scheduler?parseTime=True",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)

	stmts := &statements{}
	require.NoError(t, gormDB.Callback().Query().After("gorm:query").Register("test:record_query", stmts.record))
	require.NoError(t, gormDB.Callback().Update().After("gorm:update").Register("test:record_update", stmts.record))
	require.NoError(t, gormDB.Callback().Delete().After("gorm:delete").Register("test:record_delete", stmts.record))
	return gormDB, stmts
}

func TestEventRepository_ListOwnedSQL(t *testing.T) {
	gormDB, stmts := newDryRunDB(t)
	userID := uuid.New()

	_, err := NewEventRepository(gormDB).ListOwned(context.Background(), userID)
	require.NoError(t, err)

	sql := stmts.last(t)
	// columns are table-qualified: both tables carry created_at
	assert.Contains(t, sql, "SELECT `events`.`id`")
	assert.Contains(t, sql, "`events`.`created_at`")
	assert.Contains(t, sql, "FROM `events` JOIN owned_events ON owned_events.event_id = events.id")
	assert.Contains(t, sql, "WHERE owned_events.user_id = '"+userID.String()+"'")
	assert.Contains(t, sql, "ORDER BY events.day_of_week, events.start_at")
}

func TestEventRepository_DeleteOrphansSQL(t *testing.T) {
	gormDB, stmts := newDryRunDB(t)

	_, err := NewEventRepository(gormDB).DeleteOrphans(context.Background())
	require.NoError(t, err)

	sql := stmts.last(t)
	assert.Contains(t, sql, "DELETE FROM `events` WHERE id NOT IN (SELECT")
	assert.Contains(t, sql, "`event_id`")
	assert.Contains(t, sql, "FROM `owned_events`)")
}

func TestEventRepository_OwnedIDsSQL(t *testing.T) {
	gormDB, stmts := newDryRunDB(t)
	userID := uuid.New()

	ids, err := NewEventRepository(gormDB).OwnedIDs(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	sql := stmts.last(t)
	assert.Contains(t, sql, "FROM `owned_events`")
	assert.Contains(t, sql, "WHERE user_id = '"+userID.String()+"'")
	assert.Contains(t, sql, "ORDER BY created_at")
}

func TestEventRepository_UpdateClearsColumn(t *testing.T) {
	gormDB, stmts := newDryRunDB(t)
	id := uuid.New()

	require.NoError(t, NewEventRepository(gormDB).Update(context.Background(), id, map[string]interface{}{"color": nil}))

	sql := stmts.last(t)
	assert.Contains(t, sql, "UPDATE `events` SET")
	assert.Contains(t, sql, "`color`=NULL")
	assert.Contains(t, sql, "WHERE id = '"+id.String()+"'")
}

// TestEventRepository_MySQL runs against a real server when
// SCHEDULER_TEST_MYSQL_DSN is set.
func TestEventRepository_MySQL(t *testing.T) {
	dsn := os.Getenv("SCHEDULER_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("SCHEDULER_TEST_MYSQL_DSN not set")
	}

	gormDB, err := db.NewMySQL(dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	ctx := context.Background()
	repo := NewEventRepository(gormDB)
	alice, bob := uuid.New(), uuid.New()

	late := &model.Event{Title: "Retro", StartAt: 900, EndAt: 960, DayOfWeek: 5}
	early := &model.Event{Title: "Standup", StartAt: 540, EndAt: 555, DayOfWeek: 1}
	foreign := &model.Event{Title: "Gym", StartAt: 420, EndAt: 480, DayOfWeek: 1}
	require.NoError(t, repo.Create(ctx, alice, late))
	require.NoError(t, repo.Create(ctx, alice, early))
	require.NoError(t, repo.Create(ctx, bob, foreign))
	t.Cleanup(func() {
		_ = repo.DeleteOwned(ctx, alice, []uuid.UUID{late.ID, early.ID})
		_ = repo.DeleteOwned(ctx, bob, []uuid.UUID{foreign.ID})
		_ = repo.Delete(ctx, []uuid.UUID{late.ID})
	})

	events, err := repo.ListOwned(ctx, alice)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, early.ID, events[0].ID)
	assert.Equal(t, late.ID, events[1].ID)

	require.NoError(t, repo.RemoveOwned(ctx, alice, []uuid.UUID{late.ID}))
	n, err := repo.DeleteOrphans(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	_, err = repo.FindByID(ctx, late.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	_, err = repo.FindByID(ctx, foreign.ID)
	assert.NoError(t, err)
}
