package calendar

import (
	"errors"
	"fmt"
	"time"
)

// SlotDuration — фиксированная длительность одного слота клиники.
const SlotDuration = 30 * time.Minute

// DateLayout — формат календарной даты во всех внешних интерфейсах.
const DateLayout = "2006-01-02"

var ErrInvalidWorkingHours = errors.New("invalid working hours")

// ClockTime — время суток без даты.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime разбирает строку вида "08:00".
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("parse clock time %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c ClockTime) minutes() int {
	return c.Hour*60 + c.Minute
}

// On возвращает момент времени c в день date (в часовом поясе date).
func (c ClockTime) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, date.Location())
}

// WorkingHours описывает рабочее окно клиники: [Open, Close) за вычетом
// обеденного перерыва [LunchStart, LunchEnd).
type WorkingHours struct {
	Location   *time.Location
	Open       ClockTime
	Close      ClockTime
	LunchStart ClockTime
	LunchEnd   ClockTime
}

// DefaultWorkingHours — 08:00–17:00 с обедом 12:00–13:00.
func DefaultWorkingHours(loc *time.Location) WorkingHours {
	if loc == nil {
		loc = time.UTC
	}
	return WorkingHours{
		Location:   loc,
		Open:       ClockTime{Hour: 8},
		Close:      ClockTime{Hour: 17},
		LunchStart: ClockTime{Hour: 12},
		LunchEnd:   ClockTime{Hour: 13},
	}
}

func (h WorkingHours) Validate() error {
	if h.Location == nil {
		return fmt.Errorf("%w: location is required", ErrInvalidWorkingHours)
	}
	if h.Open.minutes() >= h.Close.minutes() {
		return fmt.Errorf("%w: open %s must be before close %s", ErrInvalidWorkingHours, h.Open, h.Close)
	}
	if h.LunchStart.minutes() > h.LunchEnd.minutes() {
		return fmt.Errorf("%w: lunch start %s is after lunch end %s", ErrInvalidWorkingHours, h.LunchStart, h.LunchEnd)
	}
	if h.Open.minutes()%30 != 0 || h.Close.minutes()%30 != 0 {
		return fmt.Errorf("%w: open and close must be on a 30-minute boundary", ErrInvalidWorkingHours)
	}
	return nil
}

// Date возвращает календарную дату t (полночь) в часовом поясе клиники.
func (h WorkingHours) Date(t time.Time) time.Time {
	y, m, d := t.In(h.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, h.Location)
}

// ParseDate разбирает дату формата DateLayout в часовом поясе клиники.
func (h WorkingHours) ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, h.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}

// DayBounds возвращает время открытия и закрытия клиники в день date.
func (h WorkingHours) DayBounds(date time.Time) (openAt, closeAt time.Time) {
	day := h.Date(date)
	return h.Open.On(day), h.Close.On(day)
}

// Contains проверяет, что интервал [start, end) целиком лежит в рабочем
// окне одного дня и не пересекается с обедом.
func (h WorkingHours) Contains(start, end time.Time) bool {
	start = start.In(h.Location)
	end = end.In(h.Location)

	if !end.After(start) {
		return false
	}
	if !h.Date(start).Equal(h.Date(end)) {
		return false
	}

	openAt, closeAt := h.DayBounds(start)
	if start.Before(openAt) || end.After(closeAt) {
		return false
	}

	lunch := TimeRange{Start: h.LunchStart.On(start), End: h.LunchEnd.On(start)}
	if !lunch.End.After(lunch.Start) {
		return true
	}
	return !rangesOverlap(TimeRange{Start: start, End: end}, lunch, false)
}

// SlotGrid возвращает все 30-минутные слоты дня, попадающие в рабочее окно.
func (h WorkingHours) SlotGrid(date time.Time) ([]TimeRange, error) {
	openAt, closeAt := h.DayBounds(date)
	all, err := SplitToTimeSlots(TimeRange{Start: openAt, End: closeAt}, SlotDuration, 0)
	if err != nil {
		return nil, err
	}

	grid := make([]TimeRange, 0, len(all))
	for _, tr := range all {
		if h.Contains(tr.Start, tr.End) {
			grid = append(grid, tr)
		}
	}
	return grid, nil
}

// SlotsNeeded — сколько слотов нужно услуге длительностью durationMinutes.
func SlotsNeeded(durationMinutes int) int {
	if durationMinutes <= 0 {
		return 0
	}
	slot := int(SlotDuration / time.Minute)
	return (durationMinutes + slot - 1) / slot
}

// WindowEnd — конец окна из n последовательных слотов, начинающегося в start.
func WindowEnd(start time.Time, n int) time.Time {
	return start.Add(time.Duration(n) * SlotDuration)
}

// NextSlotBoundary возвращает ближайшую границу слота строго после now.
func NextSlotBoundary(now time.Time) time.Time {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	elapsed := now.Sub(midnight)
	return midnight.Add((elapsed/SlotDuration + 1) * SlotDuration)
}
