package booking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
)

// Maintenance — административные операции над ёмкостью слотов.
type Maintenance struct {
	tx     Transactor
	slots  repository.SlotRepository
	events repository.EventRepository
	hours  calendar.WorkingHours
	closed map[time.Weekday]bool
	log    *zap.Logger
}

func NewMaintenance(
	tx Transactor,
	slots repository.SlotRepository,
	events repository.EventRepository,
	hours calendar.WorkingHours,
	closedWeekdays []time.Weekday,
	log *zap.Logger,
) *Maintenance {
	closed := make(map[time.Weekday]bool, len(closedWeekdays))
	for _, wd := range closedWeekdays {
		closed[wd] = true
	}
	return &Maintenance{
		tx:     tx,
		slots:  slots,
		events: events,
		hours:  hours,
		closed: closed,
		log:    log,
	}
}

// InitializeSlotsForDate создаёт недостающие слоты дня. Уже существующие
// слоты не трогаются, повторный вызов ничего не меняет.
func (m *Maintenance) InitializeSlotsForDate(ctx context.Context, date time.Time, capacity int) (int, error) {
	if capacity <= 0 {
		return 0, newError(CodeValidation, "capacity must be positive, got %d", capacity)
	}

	grid, err := m.hours.SlotGrid(date)
	if err != nil {
		return 0, fmt.Errorf("build slot grid: %w", err)
	}
	slots := make([]model.Slot, 0, len(grid))
	for _, tr := range grid {
		slots = append(slots, model.Slot{
			StartsAt: tr.Start.UTC(),
			Capacity: capacity,
			Active:   true,
		})
	}

	day := m.hours.Date(date).Format(calendar.DateLayout)
	var created int64
	err = m.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = m.slots.InsertIgnore(ctx, slots)
		if err != nil {
			return fmt.Errorf("insert slots for %s: %w", day, err)
		}
		if created == 0 {
			return nil
		}
		return m.record(ctx, model.EventTypeSlotsInitialized, map[string]any{
			"date":     day,
			"created":  created,
			"capacity": capacity,
		})
	})
	if err != nil {
		return 0, err
	}

	if created > 0 {
		m.log.Info("slots initialized",
			zap.String("date", day),
			zap.Int64("created", created),
			zap.Int("capacity", capacity),
		)
	}
	return int(created), nil
}

// UpdateCapacityForDate меняет ёмкость всех слотов дня. Если хотя бы в
// одном слоте занято больше мест, чем newCapacity, ничего не меняется.
func (m *Maintenance) UpdateCapacityForDate(ctx context.Context, date time.Time, newCapacity int) (int, error) {
	if newCapacity <= 0 {
		return 0, newError(CodeValidation, "capacity must be positive, got %d", newCapacity)
	}

	from := m.hours.Date(date)
	to := from.AddDate(0, 0, 1)
	day := from.Format(calendar.DateLayout)

	var updated int64
	err := m.tx.InTx(ctx, func(ctx context.Context) error {
		locked, err := m.slots.LockRange(ctx, from, to, false)
		if err != nil {
			return fmt.Errorf("lock slots for %s: %w", day, err)
		}
		for _, s := range locked {
			if s.BookedCount > newCapacity {
				return newError(CodeValidation, "slot %s has %d bookings, more than new capacity %d",
					s.StartsAt.In(m.hours.Location).Format("15:04"), s.BookedCount, newCapacity)
			}
		}

		updated, err = m.slots.UpdateCapacityInRange(ctx, from, to, newCapacity)
		if err != nil {
			return fmt.Errorf("update capacity for %s: %w", day, err)
		}
		return m.record(ctx, model.EventTypeCapacityUpdated, map[string]any{
			"date":     day,
			"capacity": newCapacity,
			"slots":    updated,
		})
	})
	if err != nil {
		return 0, err
	}

	m.log.Info("slot capacity updated",
		zap.String("date", day),
		zap.Int("capacity", newCapacity),
		zap.Int64("slots", updated),
	)
	return int(updated), nil
}

// CloseSlots деактивирует слоты в [from, to). Занятые места сохраняются,
// уже записанные приёмы можно отменить.
func (m *Maintenance) CloseSlots(ctx context.Context, from, to time.Time) (int, error) {
	return m.setActive(ctx, from, to, false)
}

// ReopenSlots снова активирует слоты в [from, to).
func (m *Maintenance) ReopenSlots(ctx context.Context, from, to time.Time) (int, error) {
	return m.setActive(ctx, from, to, true)
}

func (m *Maintenance) setActive(ctx context.Context, from, to time.Time, active bool) (int, error) {
	period, err := calendar.NewTimeRange(from, to)
	if err != nil {
		return 0, newError(CodeInvalidTimeRange, "period end must be after start")
	}

	eventType := model.EventTypeSlotsClosed
	if active {
		eventType = model.EventTypeSlotsReopened
	}

	var changed int64
	err = m.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		changed, err = m.slots.SetActiveInRange(ctx, period.Start, period.End, active)
		if err != nil {
			return fmt.Errorf("set slots active=%t: %w", active, err)
		}
		return m.record(ctx, eventType, map[string]any{
			"from":  period.Start.UTC(),
			"to":    period.End.UTC(),
			"slots": changed,
		})
	})
	if err != nil {
		return 0, err
	}

	m.log.Info("slots availability changed",
		zap.Bool("active", active),
		zap.Time("from", period.Start),
		zap.Time("to", period.End),
		zap.Int64("slots", changed),
	)
	return int(changed), nil
}

// SeedHorizon инициализирует слоты на days дней вперёд начиная с from,
// пропуская выходные дни клиники.
func (m *Maintenance) SeedHorizon(ctx context.Context, from time.Time, days, capacity int) (int, error) {
	start := m.hours.Date(from)
	total := 0
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		if m.closed[day.Weekday()] {
			continue
		}
		created, err := m.InitializeSlotsForDate(ctx, day, capacity)
		if err != nil {
			return total, fmt.Errorf("seed %s: %w", day.Format(calendar.DateLayout), err)
		}
		total += created
	}
	return total, nil
}

func (m *Maintenance) record(ctx context.Context, eventType model.EventType, details map[string]any) error {
	if err := m.events.Record(ctx, eventType, nil, details); err != nil {
		return fmt.Errorf("record %s event: %w", eventType, err)
	}
	return nil
}
