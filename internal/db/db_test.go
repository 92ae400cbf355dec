package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/config"
)

type note struct {
	ID   uint
	Text string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := NewGormDB(&config.DBConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&note{}))
	return gdb
}

func TestNewGormDB_SQLiteSingleConnection(t *testing.T) {
	gdb := newTestDB(t)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestTxManager_CommitAndRollback(t *testing.T) {
	gdb := newTestDB(t)
	m := NewTxManager(gdb)
	ctx := context.Background()

	err := m.InTx(ctx, func(ctx context.Context) error {
		return Conn(ctx, gdb).Create(&note{Text: "kept"}).Error
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = m.InTx(ctx, func(ctx context.Context) error {
		if err := Conn(ctx, gdb).Create(&note{Text: "dropped"}).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var texts []string
	require.NoError(t, gdb.Model(&note{}).Order("id").Pluck("text", &texts).Error)
	assert.Equal(t, []string{"kept"}, texts)
}

func TestTxManager_NestedJoinsOuter(t *testing.T) {
	gdb := newTestDB(t)
	m := NewTxManager(gdb)
	boom := errors.New("outer failed")

	err := m.InTx(context.Background(), func(ctx context.Context) error {
		outer := TxFromContext(ctx)
		require.NotNil(t, outer)

		inner := m.InTx(ctx, func(ctx context.Context) error {
			assert.Same(t, outer, TxFromContext(ctx))
			return Conn(ctx, gdb).Create(&note{Text: "inner"}).Error
		})
		require.NoError(t, inner)
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, gdb.Model(&note{}).Count(&count).Error)
	assert.Zero(t, count)
}
