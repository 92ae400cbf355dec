package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/config"
	"github.com/Leganyst/clinic-booking/internal/db"
	"github.com/Leganyst/clinic-booking/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.NewGormDB(&config.DBConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(gdb))
	return gdb
}

var base = time.Date(2025, 3, 11, 1, 0, 0, 0, time.UTC)

func halfHours(n, capacity int) []model.Slot {
	slots := make([]model.Slot, 0, n)
	for i := 0; i < n; i++ {
		slots = append(slots, model.Slot{
			StartsAt: base.Add(time.Duration(i) * 30 * time.Minute),
			Capacity: capacity,
			Active:   true,
		})
	}
	return slots
}

func TestSlotRepository_InsertIgnoreIsIdempotent(t *testing.T) {
	repo := NewGormSlotRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.InsertIgnore(ctx, halfHours(4, 2))
	require.NoError(t, err)
	assert.EqualValues(t, 4, created)

	created, err = repo.InsertIgnore(ctx, halfHours(6, 5))
	require.NoError(t, err)
	assert.EqualValues(t, 2, created)

	slots, err := repo.ListRange(ctx, base, base.Add(3*time.Hour), false)
	require.NoError(t, err)
	require.Len(t, slots, 6)
	assert.Equal(t, 2, slots[0].Capacity)
	assert.Equal(t, 5, slots[5].Capacity)
	assert.True(t, slots[0].StartsAt.Before(slots[1].StartsAt))
}

func TestSlotRepository_IncrementDecrementGuards(t *testing.T) {
	repo := NewGormSlotRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.InsertIgnore(ctx, halfHours(1, 1))
	require.NoError(t, err)
	slot, err := repo.LockByStartsAt(ctx, base)
	require.NoError(t, err)

	ok, err := repo.IncrementIfAvailable(ctx, slot.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IncrementIfAvailable(ctx, slot.ID)
	require.NoError(t, err)
	assert.False(t, ok, "capacity reached")

	ok, err = repo.DecrementIfBooked(ctx, slot.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementIfBooked(ctx, slot.ID)
	require.NoError(t, err)
	assert.False(t, ok, "booked_count never goes below zero")
}

func TestSlotRepository_SetActiveInRange(t *testing.T) {
	repo := NewGormSlotRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.InsertIgnore(ctx, halfHours(4, 1))
	require.NoError(t, err)

	changed, err := repo.SetActiveInRange(ctx, base, base.Add(time.Hour), false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, changed)

	changed, err = repo.SetActiveInRange(ctx, base, base.Add(time.Hour), false)
	require.NoError(t, err)
	assert.EqualValues(t, 0, changed)

	active, err := repo.ListRange(ctx, base, base.Add(2*time.Hour), true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, base.Add(time.Hour), active[0].StartsAt.UTC())

	closed, err := repo.LockByStartsAt(ctx, base)
	require.NoError(t, err)
	ok, err := repo.IncrementIfAvailable(ctx, closed.ID)
	require.NoError(t, err)
	assert.False(t, ok, "closed slot does not accept bookings")
}

func TestSlotRepository_LockByStartsAtNotFound(t *testing.T) {
	repo := NewGormSlotRepository(newTestDB(t))
	_, err := repo.LockByStartsAt(context.Background(), base)
	assert.ErrorIs(t, err, ErrNotFound)
}
