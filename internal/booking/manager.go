package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
)

// Stores — хранилища, с которыми работает менеджер приёмов.
type Stores struct {
	Slots         repository.SlotRepository
	Appointments  repository.AppointmentRepository
	Services      repository.ServiceRepository
	Practitioners repository.PractitionerRepository
	Events        repository.EventRepository
}

type Contact struct {
	Channel model.ContactChannel
	Value   string
}

// CreateParams — создание приёма из уже зарезервированных слотов.
type CreateParams struct {
	CustomerID uuid.UUID
	ServiceID  uuid.UUID
	SlotIDs    []uuid.UUID
	Contact    Contact
	Notes      string
	Status     model.AppointmentStatus
}

// BookParams — резервирование и создание приёма одной транзакцией.
type BookParams struct {
	CustomerID uuid.UUID
	ServiceID  uuid.UUID
	Start      time.Time
	Contact    Contact
	Notes      string
	Status     model.AppointmentStatus
}

// Manager ведёт жизненный цикл приёма и держит ёмкость слотов
// согласованной с ним.
type Manager struct {
	tx     Transactor
	engine *Engine
	stores Stores
	hours  calendar.WorkingHours
	now    func() time.Time
	log    *zap.Logger
}

func NewManager(tx Transactor, engine *Engine, stores Stores, log *zap.Logger, opts ...Option) *Manager {
	s := applyOptions(opts)
	return &Manager{
		tx:     tx,
		engine: engine,
		stores: stores,
		hours:  engine.Hours(),
		now:    s.now,
		log:    log,
	}
}

func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.localize(appt), nil
}

// ListByCustomer — приёмы клиента, новые сверху.
func (m *Manager) ListByCustomer(ctx context.Context, customerID uuid.UUID, page, pageSize int) (calendar.Page[model.Appointment], error) {
	page, pageSize, offset := calendar.NormalizePage(page, pageSize)
	appts, total, err := m.stores.Appointments.ListByCustomer(ctx, customerID, pageSize, offset)
	if err != nil {
		return calendar.Page[model.Appointment]{}, fmt.Errorf("list appointments of customer %s: %w", customerID, err)
	}
	for i := range appts {
		m.localize(&appts[i])
	}
	return calendar.NewPage(appts, page, pageSize, int(total)), nil
}

// CreateAppointment создаёт приём из слотов, которые вызывающий уже
// зарезервировал через Engine.Reserve.
func (m *Manager) CreateAppointment(ctx context.Context, p CreateParams) (*model.Appointment, error) {
	if len(p.SlotIDs) == 0 {
		return nil, newError(CodeSlotFull, "no slots reserved")
	}
	status, err := initialStatus(p.Status)
	if err != nil {
		return nil, err
	}

	var created *model.Appointment
	err = m.tx.InTx(ctx, func(ctx context.Context) error {
		service, err := m.activeService(ctx, p.ServiceID)
		if err != nil {
			return err
		}

		slots, err := m.stores.Slots.ListByIDs(ctx, uniqueIDs(p.SlotIDs))
		if err != nil {
			return fmt.Errorf("load slots: %w", err)
		}
		if len(slots) != len(p.SlotIDs) {
			return newError(CodeValidation, "some of %d slots do not exist or are duplicated", len(p.SlotIDs))
		}
		if err := checkConsecutive(slots); err != nil {
			return err
		}
		if need := calendar.SlotsNeeded(service.DurationMinutes); len(slots) != need {
			return newError(CodeValidation, "service %s needs %d slots, got %d", service.ID, need, len(slots))
		}

		slots, err = m.claimReserved(ctx, slots)
		if err != nil {
			return err
		}

		created, err = m.insert(ctx, p.CustomerID, service.ID, status, p.Contact, p.Notes, slots)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m.localize(created), nil
}

// Book резервирует окно под услугу и создаёт приём в одной транзакции.
func (m *Manager) Book(ctx context.Context, p BookParams) (*model.Appointment, error) {
	status, err := initialStatus(p.Status)
	if err != nil {
		return nil, err
	}

	var created *model.Appointment
	err = m.tx.InTx(ctx, func(ctx context.Context) error {
		service, err := m.activeService(ctx, p.ServiceID)
		if err != nil {
			return err
		}
		n := calendar.SlotsNeeded(service.DurationMinutes)
		if err := m.engine.validateWindow(p.Start, n); err != nil {
			return err
		}

		end := calendar.WindowEnd(p.Start, n)
		if err := m.checkCustomerFree(ctx, p.CustomerID, p.Start, end, nil); err != nil {
			return err
		}

		slots, err := m.engine.Reserve(ctx, p.Start, n)
		if err != nil {
			return err
		}

		created, err = m.insert(ctx, p.CustomerID, service.ID, status, p.Contact, p.Notes, slots)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("appointment booked",
		zap.String("appointment_id", created.ID.String()),
		zap.String("customer_id", created.CustomerID.String()),
		zap.Time("starts_at", created.StartsAt),
	)
	return m.localize(created), nil
}

func (m *Manager) Confirm(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return m.transition(ctx, id, ActionConfirm, model.EventTypeAppointmentConfirmed, nil)
}

// CheckIn допустим только в день приёма.
func (m *Manager) CheckIn(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return m.transition(ctx, id, ActionCheckIn, model.EventTypeAppointmentCheckedIn, func(appt *model.Appointment) error {
		if !m.hours.Date(m.now()).Equal(m.hours.Date(appt.StartsAt)) {
			return newError(CodeValidation, "check-in is only allowed on %s", m.hours.Date(appt.StartsAt).Format(calendar.DateLayout))
		}
		return nil
	})
}

func (m *Manager) Complete(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return m.transition(ctx, id, ActionComplete, model.EventTypeAppointmentCompleted, nil)
}

// Cancel отменяет приём и освобождает ровно те слоты, что он занимал.
func (m *Manager) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Appointment, error) {
	var out *model.Appointment
	err := m.tx.InTx(ctx, func(ctx context.Context) error {
		appt, err := m.load(ctx, id)
		if err != nil {
			return err
		}
		to, err := Transition(appt.Status, ActionCancel)
		if err != nil {
			return err
		}

		now := m.now().UTC()
		extra := map[string]any{"cancelled_at": now}
		if reason = strings.TrimSpace(reason); reason != "" {
			extra["notes"] = strings.TrimSpace(appt.Notes + "\nCancellation reason: " + reason)
		}
		if err := m.compareAndSet(ctx, appt, to, extra); err != nil {
			return err
		}

		if len(appt.Slots) > 0 {
			starts := make([]time.Time, 0, len(appt.Slots))
			for _, link := range appt.Slots {
				starts = append(starts, link.SlotStartsAt)
			}
			if err := m.engine.Release(ctx, starts); err != nil {
				return err
			}
		}

		if err := m.record(ctx, model.EventTypeAppointmentCancelled, appt.ID, map[string]any{
			"from":   appt.Status,
			"reason": reason,
			"slots":  len(appt.Slots),
		}); err != nil {
			return err
		}

		out, err = m.load(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("appointment cancelled", zap.String("appointment_id", id.String()))
	return m.localize(out), nil
}

// Reschedule переносит приём на newStart: старые слоты освобождаются,
// новое окно резервируется, ссылки перепривязываются. Если новое окно
// занято, транзакция откатывается и приём остаётся на старом месте.
func (m *Manager) Reschedule(ctx context.Context, id uuid.UUID, newStart time.Time) (*model.Appointment, error) {
	var out *model.Appointment
	err := m.tx.InTx(ctx, func(ctx context.Context) error {
		appt, err := m.load(ctx, id)
		if err != nil {
			return err
		}
		if _, err := Transition(appt.Status, ActionReschedule); err != nil {
			return err
		}
		if !appt.StartsAt.After(m.now()) {
			return newError(CodeAppointmentStatusInvalid, "appointment started at %s and can no longer be rescheduled",
				appt.StartsAt.In(m.hours.Location).Format(time.RFC3339))
		}

		n := len(appt.Slots)
		if n == 0 {
			service, err := m.activeService(ctx, appt.ServiceID)
			if err != nil {
				return err
			}
			n = calendar.SlotsNeeded(service.DurationMinutes)
		}
		if err := m.engine.validateWindow(newStart, n); err != nil {
			return err
		}
		if newStart.Equal(appt.StartsAt) {
			return newError(CodeValidation, "appointment already starts at %s", newStart.In(m.hours.Location).Format(time.RFC3339))
		}

		end := calendar.WindowEnd(newStart, n)
		if err := m.checkCustomerFree(ctx, appt.CustomerID, newStart, end, &appt.ID); err != nil {
			return err
		}
		if appt.PractitionerID != nil {
			if err := m.checkPractitionerFree(ctx, *appt.PractitionerID, newStart, end, appt.ID); err != nil {
				return err
			}
		}

		if len(appt.Slots) > 0 {
			old := make([]time.Time, 0, len(appt.Slots))
			for _, link := range appt.Slots {
				old = append(old, link.SlotStartsAt)
			}
			if err := m.engine.Release(ctx, old); err != nil {
				return err
			}
		}

		slots, err := m.engine.Reserve(ctx, newStart, n)
		if err != nil {
			return err
		}

		if err := m.stores.Appointments.ReplaceSlots(ctx, appt.ID, links(slots), dateOf(m.hours, newStart), newStart, end); err != nil {
			return fmt.Errorf("relink appointment %s: %w", appt.ID, err)
		}

		if err := m.record(ctx, model.EventTypeAppointmentRescheduled, appt.ID, map[string]any{
			"from": appt.StartsAt.UTC(),
			"to":   newStart.UTC(),
		}); err != nil {
			return err
		}

		out, err = m.load(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("appointment rescheduled",
		zap.String("appointment_id", id.String()),
		zap.Time("starts_at", newStart),
	)
	return m.localize(out), nil
}

// AssignPractitioner назначает врача, если у него нет пересекающихся
// неотменённых приёмов.
func (m *Manager) AssignPractitioner(ctx context.Context, id, practitionerID uuid.UUID) (*model.Appointment, error) {
	var out *model.Appointment
	err := m.tx.InTx(ctx, func(ctx context.Context) error {
		appt, err := m.load(ctx, id)
		if err != nil {
			return err
		}
		if _, err := Transition(appt.Status, ActionAssign); err != nil {
			return err
		}

		p, err := m.stores.Practitioners.LockByID(ctx, practitionerID)
		if errors.Is(err, repository.ErrNotFound) {
			return newError(CodeValidation, "practitioner %s not found", practitionerID)
		}
		if err != nil {
			return fmt.Errorf("lock practitioner %s: %w", practitionerID, err)
		}
		if !p.IsActive {
			return newError(CodeValidation, "practitioner %s is not active", practitionerID)
		}

		if err := m.checkPractitionerFree(ctx, practitionerID, appt.StartsAt, appt.EndsAt, appt.ID); err != nil {
			return err
		}

		if err := m.stores.Appointments.SetPractitioner(ctx, appt.ID, practitionerID); err != nil {
			return fmt.Errorf("assign practitioner: %w", err)
		}
		if err := m.record(ctx, model.EventTypePractitionerAssigned, appt.ID, map[string]any{
			"practitioner_id": practitionerID,
		}); err != nil {
			return err
		}

		out, err = m.load(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m.localize(out), nil
}

// transition — переход без изменения слотов (confirm, check-in, complete).
func (m *Manager) transition(
	ctx context.Context,
	id uuid.UUID,
	action Action,
	eventType model.EventType,
	guard func(*model.Appointment) error,
) (*model.Appointment, error) {
	var out *model.Appointment
	err := m.tx.InTx(ctx, func(ctx context.Context) error {
		appt, err := m.load(ctx, id)
		if err != nil {
			return err
		}
		to, err := Transition(appt.Status, action)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(appt); err != nil {
				return err
			}
		}
		if err := m.compareAndSet(ctx, appt, to, nil); err != nil {
			return err
		}
		if err := m.record(ctx, eventType, appt.ID, map[string]any{"from": appt.Status, "to": to}); err != nil {
			return err
		}

		out, err = m.load(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("appointment status changed",
		zap.String("appointment_id", id.String()),
		zap.String("action", string(action)),
		zap.String("status", string(out.Status)),
	)
	return m.localize(out), nil
}

func (m *Manager) compareAndSet(ctx context.Context, appt *model.Appointment, to model.AppointmentStatus, extra map[string]any) error {
	ok, err := m.stores.Appointments.UpdateStatus(ctx, appt.ID, appt.Status, to, extra)
	if err != nil {
		return fmt.Errorf("update appointment %s status: %w", appt.ID, err)
	}
	if !ok {
		return newError(CodeAppointmentStatusInvalid, "appointment %s is no longer %s", appt.ID, appt.Status)
	}
	return nil
}

func (m *Manager) insert(
	ctx context.Context,
	customerID, serviceID uuid.UUID,
	status model.AppointmentStatus,
	contact Contact,
	notes string,
	slots []model.Slot,
) (*model.Appointment, error) {
	start := slots[0].StartsAt
	appt := &model.Appointment{
		CustomerID:     customerID,
		ServiceID:      serviceID,
		Date:           dateOf(m.hours, start),
		StartsAt:       start.UTC(),
		EndsAt:         calendar.WindowEnd(start, len(slots)).UTC(),
		Status:         status,
		ContactChannel: contact.Channel,
		ContactValue:   contact.Value,
		Notes:          notes,
		Slots:          links(slots),
	}
	if err := m.stores.Appointments.Create(ctx, appt); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	if err := m.record(ctx, model.EventTypeAppointmentCreated, appt.ID, map[string]any{
		"customer_id": customerID,
		"service_id":  serviceID,
		"status":      status,
		"slots":       len(slots),
	}); err != nil {
		return nil, err
	}
	return m.load(ctx, appt.ID)
}

func (m *Manager) load(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, err := m.stores.Appointments.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(CodeAppointmentNotFound, "appointment %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment %s: %w", id, err)
	}
	return appt, nil
}

func (m *Manager) activeService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	service, err := m.stores.Services.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(CodeValidation, "service %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get service %s: %w", id, err)
	}
	if !service.IsActive {
		return nil, newError(CodeValidation, "service %s is not active", id)
	}
	if service.DurationMinutes <= 0 {
		return nil, newError(CodeInvalidTimeRange, "service %s has no duration", id)
	}
	return service, nil
}

func (m *Manager) checkCustomerFree(ctx context.Context, customerID uuid.UUID, from, to time.Time, exclude *uuid.UUID) error {
	busy, err := m.stores.Appointments.ListOverlapping(ctx, repository.OverlapFilter{
		CustomerID: &customerID,
		ExcludeID:  exclude,
		From:       from,
		To:         to,
	})
	if err != nil {
		return fmt.Errorf("check customer overlap: %w", err)
	}
	if hasOverlap(from, to, busy) {
		return newError(CodeBookingConflict, "customer %s already has an appointment at that time", customerID)
	}
	return nil
}

func (m *Manager) checkPractitionerFree(ctx context.Context, practitionerID uuid.UUID, from, to time.Time, exclude uuid.UUID) error {
	busy, err := m.stores.Appointments.ListOverlapping(ctx, repository.OverlapFilter{
		PractitionerID: &practitionerID,
		ExcludeID:      &exclude,
		From:           from,
		To:             to,
	})
	if err != nil {
		return fmt.Errorf("check practitioner overlap: %w", err)
	}
	if hasOverlap(from, to, busy) {
		return newError(CodeBookingConflict, "practitioner %s is busy at that time", practitionerID)
	}
	return nil
}

func (m *Manager) record(ctx context.Context, eventType model.EventType, appointmentID uuid.UUID, details map[string]any) error {
	if err := m.stores.Events.Record(ctx, eventType, &appointmentID, details); err != nil {
		return fmt.Errorf("record %s event: %w", eventType, err)
	}
	return nil
}

func (m *Manager) localize(appt *model.Appointment) *model.Appointment {
	loc := m.hours.Location
	appt.StartsAt = appt.StartsAt.In(loc)
	appt.EndsAt = appt.EndsAt.In(loc)
	for i := range appt.Slots {
		appt.Slots[i].SlotStartsAt = appt.Slots[i].SlotStartsAt.In(loc)
	}
	return appt
}

// hasOverlap перепроверяет пересечения уже в памяти, по полуинтервалам.
func hasOverlap(from, to time.Time, appts []model.Appointment) bool {
	existing := make([]calendar.TimeRange, 0, len(appts))
	for _, a := range appts {
		existing = append(existing, calendar.TimeRange{Start: a.StartsAt, End: a.EndsAt})
	}
	overlap, _ := calendar.HasOverlap(calendar.TimeRange{Start: from, End: to}, existing, false)
	return overlap
}

func initialStatus(s model.AppointmentStatus) (model.AppointmentStatus, error) {
	if s == "" {
		return model.AppointmentStatusPending, nil
	}
	if !initialStatuses[s] {
		return "", newError(CodeValidation, "appointment cannot be created in status %s", s)
	}
	return s, nil
}

// claimReserved блокирует слоты и проверяет, что в каждом есть
// резервирование, ещё не привязанное к неотменённому приёму.
func (m *Manager) claimReserved(ctx context.Context, slots []model.Slot) ([]model.Slot, error) {
	start := slots[0].StartsAt
	locked, err := m.stores.Slots.LockRange(ctx, start, calendar.WindowEnd(start, len(slots)), false)
	if err != nil {
		return nil, fmt.Errorf("lock slots: %w", err)
	}
	if len(locked) != len(slots) {
		return nil, newError(CodeValidation, "expected %d slots from %s, found %d", len(slots), start.UTC().Format(time.RFC3339), len(locked))
	}

	ids := make([]uuid.UUID, 0, len(locked))
	for _, s := range locked {
		ids = append(ids, s.ID)
	}
	claims, err := m.stores.Appointments.CountClaims(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("count slot claims: %w", err)
	}
	for _, s := range locked {
		if claims[s.ID] >= s.BookedCount {
			return nil, newError(CodeValidation, "slot %s has no unclaimed reservation (booked %d, claimed %d)",
				s.StartsAt.UTC().Format(time.RFC3339), s.BookedCount, claims[s.ID])
		}
	}
	return locked, nil
}

func checkConsecutive(slots []model.Slot) error {
	for i := 1; i < len(slots); i++ {
		if slots[i].StartsAt.Sub(slots[i-1].StartsAt) != calendar.SlotDuration {
			return newError(CodeValidation, "slots are not consecutive at %s", slots[i].StartsAt.UTC().Format(time.RFC3339))
		}
	}
	return nil
}

func links(slots []model.Slot) []model.AppointmentSlot {
	out := make([]model.AppointmentSlot, 0, len(slots))
	for i, s := range slots {
		out = append(out, model.AppointmentSlot{
			SlotOrder:    i,
			SlotID:       s.ID,
			SlotStartsAt: s.StartsAt.UTC(),
		})
	}
	return out
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// dateOf — календарная дата в часовом поясе клиники, сохранённая как UTC-полночь.
func dateOf(hours calendar.WorkingHours, t time.Time) datatypes.Date {
	y, mo, d := t.In(hours.Location).Date()
	return datatypes.Date(time.Date(y, mo, d, 0, 0, 0, 0, time.UTC))
}
