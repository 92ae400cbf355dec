package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
)

// Engine — учёт ёмкости слотов: поиск свободных окон, резервирование
// и освобождение.
type Engine struct {
	tx    Transactor
	slots repository.SlotRepository
	hours calendar.WorkingHours
	now   func() time.Time
	log   *zap.Logger
}

func NewEngine(
	tx Transactor,
	slots repository.SlotRepository,
	hours calendar.WorkingHours,
	log *zap.Logger,
	opts ...Option,
) *Engine {
	s := applyOptions(opts)
	return &Engine{
		tx:    tx,
		slots: slots,
		hours: hours,
		now:   s.now,
		log:   log,
	}
}

// Hours — рабочее окно, по которому работает движок.
func (e *Engine) Hours() calendar.WorkingHours {
	return e.hours
}

// AvailableStartTimes возвращает времена начала, с которых услуга
// длительностью durationMinutes помещается в свободные слоты дня date.
func (e *Engine) AvailableStartTimes(ctx context.Context, date time.Time, durationMinutes int) ([]time.Time, error) {
	if durationMinutes <= 0 {
		return nil, newError(CodeInvalidTimeRange, "duration must be positive, got %d minutes", durationMinutes)
	}
	return e.AvailableStartTimesForSlots(ctx, date, calendar.SlotsNeeded(durationMinutes))
}

// AvailableStartTimesForSlots — тот же поиск по количеству слотов.
func (e *Engine) AvailableStartTimesForSlots(ctx context.Context, date time.Time, n int) ([]time.Time, error) {
	if n < 1 {
		return nil, newError(CodeInvalidTimeRange, "slots needed must be at least 1, got %d", n)
	}

	now := e.now().In(e.hours.Location)
	day := e.hours.Date(date)
	today := e.hours.Date(now)
	if day.Before(today) {
		return []time.Time{}, nil
	}

	from, closeAt := e.hours.DayBounds(day)
	if day.Equal(today) {
		if b := calendar.NextSlotBoundary(now); b.After(from) {
			from = b
		}
	}
	if !from.Before(closeAt) {
		return []time.Time{}, nil
	}

	slots, err := e.slots.ListRange(ctx, from, closeAt, true)
	if err != nil {
		return nil, fmt.Errorf("list slots for %s: %w", day.Format(calendar.DateLayout), err)
	}

	starts := make([]time.Time, 0, len(slots))
	for i := 0; i+n-1 < len(slots); i++ {
		start := slots[i].StartsAt
		if !e.hours.Contains(start, calendar.WindowEnd(start, n)) {
			continue
		}
		if windowFree(slots[i : i+n]) {
			starts = append(starts, start.In(e.hours.Location))
		}
	}
	return starts, nil
}

// windowFree — слоты идут подряд с шагом в один слот и все доступны.
func windowFree(window []model.Slot) bool {
	for k := range window {
		if !window[k].Available() {
			return false
		}
		if k > 0 && window[k].StartsAt.Sub(window[k-1].StartsAt) != calendar.SlotDuration {
			return false
		}
	}
	return true
}

// AllSlotsForDate — все слоты дня (включая закрытые и заполненные).
func (e *Engine) AllSlotsForDate(ctx context.Context, date time.Time) ([]model.Slot, error) {
	day := e.hours.Date(date)
	slots, err := e.slots.ListRange(ctx, day, day.AddDate(0, 0, 1), false)
	if err != nil {
		return nil, fmt.Errorf("list slots for %s: %w", day.Format(calendar.DateLayout), err)
	}
	return e.localize(slots), nil
}

// validateWindow проверяет окно из n слотов от start без обращения к БД.
func (e *Engine) validateWindow(start time.Time, n int) error {
	if !start.After(e.now()) {
		return newError(CodeBookingInPast, "start %s is not in the future", start.In(e.hours.Location).Format(time.RFC3339))
	}
	if n < 1 {
		return newError(CodeInvalidTimeRange, "slots needed must be at least 1, got %d", n)
	}
	if !e.hours.Contains(start, calendar.WindowEnd(start, n)) {
		return newError(CodeOutsideWorkingHours, "window %s-%s is outside working hours",
			start.In(e.hours.Location).Format("2006-01-02 15:04"),
			calendar.WindowEnd(start, n).In(e.hours.Location).Format("15:04"))
	}
	return nil
}

// Reserve атомарно занимает n последовательных слотов начиная со start.
// Если хотя бы один слот недоступен, ничего не меняется и возвращается
// ErrSlotFull.
func (e *Engine) Reserve(ctx context.Context, start time.Time, n int) ([]model.Slot, error) {
	if err := e.validateWindow(start, n); err != nil {
		return nil, err
	}

	var reserved []model.Slot
	err := e.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		reserved, err = e.reserveLocked(ctx, start, n)
		return err
	})
	if err != nil {
		if CodeOf(err) == CodeSlotFull {
			e.log.Debug("reserve: window unavailable",
				zap.Time("start", start),
				zap.Int("slots", n),
			)
		}
		return nil, err
	}

	e.log.Info("reserve: slots reserved",
		zap.Time("start", start),
		zap.Int("slots", n),
	)
	return e.localize(reserved), nil
}

func (e *Engine) reserveLocked(ctx context.Context, start time.Time, n int) ([]model.Slot, error) {
	end := calendar.WindowEnd(start, n)

	locked, err := e.slots.LockRange(ctx, start, end, true)
	if err != nil {
		return nil, fmt.Errorf("lock slots: %w", err)
	}
	if len(locked) != n {
		return nil, newError(CodeSlotFull, "expected %d active slots from %s, found %d", n, start.UTC().Format(time.RFC3339), len(locked))
	}
	for k := range locked {
		want := start.Add(time.Duration(k) * calendar.SlotDuration)
		if !locked[k].StartsAt.Equal(want) {
			return nil, newError(CodeSlotFull, "slot grid gap at %s", want.UTC().Format(time.RFC3339))
		}
		if !locked[k].Available() {
			return nil, newError(CodeSlotFull, "slot %s is full", locked[k].StartsAt.UTC().Format(time.RFC3339))
		}
	}

	for k := range locked {
		ok, err := e.slots.IncrementIfAvailable(ctx, locked[k].ID)
		if err != nil {
			return nil, fmt.Errorf("increment slot %s: %w", locked[k].ID, err)
		}
		if !ok {
			// Без строковых блокировок (SQLite) слот мог заполниться между
			// чтением и обновлением; транзакция откатится целиком.
			return nil, newError(CodeSlotFull, "slot %s is full", locked[k].StartsAt.UTC().Format(time.RFC3339))
		}
		locked[k].BookedCount++
	}
	return locked, nil
}

// Release возвращает по одному месту в каждый слот с указанным временем
// начала. Слоты блокируются по возрастанию времени.
func (e *Engine) Release(ctx context.Context, starts []time.Time) error {
	if len(starts) == 0 {
		return newError(CodeValidation, "nothing to release")
	}

	ordered := make([]time.Time, len(starts))
	copy(ordered, starts)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Equal(ordered[i-1]) {
			return newError(CodeValidation, "slot %s listed twice", ordered[i].UTC().Format(time.RFC3339))
		}
	}

	err := e.tx.InTx(ctx, func(ctx context.Context) error {
		for _, start := range ordered {
			if err := e.releaseOne(ctx, start); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.log.Info("release: slots released", zap.Int("slots", len(ordered)))
	return nil
}

func (e *Engine) releaseOne(ctx context.Context, start time.Time) error {
	slot, err := e.slots.LockByStartsAt(ctx, start)
	if errors.Is(err, repository.ErrNotFound) {
		return newError(CodeSlotNotFound, "no slot starts at %s", start.UTC().Format(time.RFC3339))
	}
	if err != nil {
		return fmt.Errorf("lock slot %s: %w", start.UTC().Format(time.RFC3339), err)
	}
	if slot.BookedCount <= 0 {
		return newError(CodeValidation, "slot %s has nothing to release", start.UTC().Format(time.RFC3339))
	}

	ok, err := e.slots.DecrementIfBooked(ctx, slot.ID)
	if err != nil {
		return fmt.Errorf("decrement slot %s: %w", slot.ID, err)
	}
	if !ok {
		return newError(CodeValidation, "slot %s has nothing to release", start.UTC().Format(time.RFC3339))
	}
	return nil
}

func (e *Engine) localize(slots []model.Slot) []model.Slot {
	for i := range slots {
		slots[i].StartsAt = slots[i].StartsAt.In(e.hours.Location)
	}
	return slots
}
