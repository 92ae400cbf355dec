package booking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/config"
	"github.com/Leganyst/clinic-booking/internal/db"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
)

type fixture struct {
	db      *gorm.DB
	hours   calendar.WorkingHours
	now     time.Time
	day     time.Time
	stores  Stores
	engine  *Engine
	manager *Manager
	maint   *Maintenance
}

// newFixture поднимает in-memory SQLite. "Сейчас" — понедельник
// 2025-03-10 07:00 по Хошимину, рабочий день теста — вторник 2025-03-11.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := db.NewGormDB(&config.DBConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(gdb))

	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	hours := calendar.DefaultWorkingHours(loc)

	f := &fixture{
		db:    gdb,
		hours: hours,
		now:   time.Date(2025, 3, 10, 7, 0, 0, 0, loc),
		day:   time.Date(2025, 3, 11, 0, 0, 0, 0, loc),
		stores: Stores{
			Slots:         repository.NewGormSlotRepository(gdb),
			Appointments:  repository.NewGormAppointmentRepository(gdb),
			Services:      repository.NewGormServiceRepository(gdb),
			Practitioners: repository.NewGormPractitionerRepository(gdb),
			Events:        repository.NewGormEventRepository(gdb),
		},
	}

	clock := WithClock(func() time.Time { return f.now })
	tx := db.NewTxManager(gdb)
	log := zap.NewNop()

	f.engine = NewEngine(tx, f.stores.Slots, hours, log, clock)
	f.manager = NewManager(tx, f.engine, f.stores, log, clock)
	f.maint = NewMaintenance(tx, f.stores.Slots, f.stores.Events, hours, []time.Weekday{time.Sunday}, log)
	return f
}

// at — время на рабочем дне теста.
func (f *fixture) at(hour, min int) time.Time {
	return time.Date(f.day.Year(), f.day.Month(), f.day.Day(), hour, min, 0, 0, f.hours.Location)
}

func (f *fixture) seed(t *testing.T, capacity int) {
	t.Helper()
	created, err := f.maint.InitializeSlotsForDate(context.Background(), f.day, capacity)
	require.NoError(t, err)
	require.Equal(t, 16, created)
}

func (f *fixture) slotAt(t *testing.T, start time.Time) model.Slot {
	t.Helper()
	var s model.Slot
	require.NoError(t, f.db.First(&s, "starts_at = ?", start.UTC()).Error)
	return s
}

func (f *fixture) setBooked(t *testing.T, start time.Time, booked int) {
	t.Helper()
	require.NoError(t, f.db.Model(&model.Slot{}).
		Where("starts_at = ?", start.UTC()).
		Update("booked_count", booked).Error)
}

func (f *fixture) service(t *testing.T, minutes int) *model.Service {
	t.Helper()
	s := &model.Service{Name: fmt.Sprintf("service-%d", minutes), DurationMinutes: minutes, IsActive: true}
	require.NoError(t, f.stores.Services.Create(context.Background(), s))
	return s
}

func (f *fixture) practitioner(t *testing.T, active bool) *model.Practitioner {
	t.Helper()
	p := &model.Practitioner{DisplayName: "Dr. Tran", IsActive: active}
	require.NoError(t, f.stores.Practitioners.Create(context.Background(), p))
	return p
}

func clockStrings(ts []time.Time) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Format("15:04"))
	}
	return out
}
