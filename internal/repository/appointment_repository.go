package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/db"
	"github.com/Leganyst/clinic-booking/internal/model"
)

// OverlapFilter — поиск приёмов, пересекающих [From, To).
// Отменённые приёмы не учитываются.
type OverlapFilter struct {
	CustomerID     *uuid.UUID
	PractitionerID *uuid.UUID
	ExcludeID      *uuid.UUID
	From           time.Time
	To             time.Time
}

type AppointmentRepository interface {
	// Создать приём вместе со ссылками на слоты.
	Create(ctx context.Context, appt *model.Appointment) error
	// Приём по ID со слотами, упорядоченными по slot_order.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	// CAS-смена статуса: обновляет только если текущий статус равен from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus, extra map[string]any) (bool, error)
	// Приёмы клиента, новые сверху, с пагинацией.
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]model.Appointment, int64, error)
	ListOverlapping(ctx context.Context, f OverlapFilter) ([]model.Appointment, error)
	// Перепривязать приём к новым слотам и новому времени.
	ReplaceSlots(ctx context.Context, id uuid.UUID, links []model.AppointmentSlot, date datatypes.Date, startsAt, endsAt time.Time) error
	SetPractitioner(ctx context.Context, id uuid.UUID, practitionerID uuid.UUID) error
	// Сколько мест в каждом слоте уже занято неотменёнными приёмами.
	CountClaims(ctx context.Context, slotIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type GormAppointmentRepository struct {
	db *gorm.DB
}

func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

func orderedSlots(q *gorm.DB) *gorm.DB {
	return q.Order("slot_order ASC")
}

func (r *GormAppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	return db.Conn(ctx, r.db).Create(appt).Error
}

func (r *GormAppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var a model.Appointment
	err := db.Conn(ctx, r.db).
		Preload("Slots", orderedSlots).
		First(&a, "id = ?", id).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &a, nil
}

func (r *GormAppointmentRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	from, to model.AppointmentStatus,
	extra map[string]any,
) (bool, error) {
	update := map[string]any{
		"status": to,
	}
	for k, v := range extra {
		update[k] = v
	}
	res := db.Conn(ctx, r.db).
		Model(&model.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(update)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormAppointmentRepository) ListByCustomer(
	ctx context.Context,
	customerID uuid.UUID,
	limit, offset int,
) ([]model.Appointment, int64, error) {
	var (
		appts []model.Appointment
		total int64
	)

	q := db.Conn(ctx, r.db).
		Model(&model.Appointment{}).
		Where("customer_id = ?", customerID)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Preload("Slots", orderedSlots).Order("starts_at DESC").Find(&appts).Error; err != nil {
		return nil, 0, err
	}

	return appts, total, nil
}

func (r *GormAppointmentRepository) ListOverlapping(ctx context.Context, f OverlapFilter) ([]model.Appointment, error) {
	q := db.Conn(ctx, r.db).
		Model(&model.Appointment{}).
		Where("status <> ?", model.AppointmentStatusCancelled).
		Where("starts_at < ? AND ends_at > ?", f.To.UTC(), f.From.UTC())

	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.PractitionerID != nil {
		q = q.Where("practitioner_id = ?", *f.PractitionerID)
	}
	if f.ExcludeID != nil {
		q = q.Where("id <> ?", *f.ExcludeID)
	}

	var appts []model.Appointment
	if err := q.Order("starts_at ASC").Find(&appts).Error; err != nil {
		return nil, err
	}
	return appts, nil
}

func (r *GormAppointmentRepository) ReplaceSlots(
	ctx context.Context,
	id uuid.UUID,
	links []model.AppointmentSlot,
	date datatypes.Date,
	startsAt, endsAt time.Time,
) error {
	conn := db.Conn(ctx, r.db)

	if err := conn.Where("appointment_id = ?", id).Delete(&model.AppointmentSlot{}).Error; err != nil {
		return err
	}
	for i := range links {
		links[i].AppointmentID = id
	}
	if len(links) > 0 {
		if err := conn.Create(&links).Error; err != nil {
			return err
		}
	}

	return conn.Model(&model.Appointment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"date":      date,
			"starts_at": startsAt.UTC(),
			"ends_at":   endsAt.UTC(),
		}).Error
}

func (r *GormAppointmentRepository) SetPractitioner(ctx context.Context, id uuid.UUID, practitionerID uuid.UUID) error {
	return db.Conn(ctx, r.db).
		Model(&model.Appointment{}).
		Where("id = ?", id).
		Update("practitioner_id", practitionerID).
		Error
}

func (r *GormAppointmentRepository) CountClaims(ctx context.Context, slotIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	claims := make(map[uuid.UUID]int, len(slotIDs))
	if len(slotIDs) == 0 {
		return claims, nil
	}

	var rows []struct {
		SlotID  uuid.UUID
		Claimed int
	}
	err := db.Conn(ctx, r.db).
		Model(&model.AppointmentSlot{}).
		Select("appointment_slots.slot_id AS slot_id, COUNT(*) AS claimed").
		Joins("JOIN appointments ON appointments.id = appointment_slots.appointment_id").
		Where("appointment_slots.slot_id IN ?", slotIDs).
		Where("appointments.status <> ?", model.AppointmentStatusCancelled).
		Group("appointment_slots.slot_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		claims[row.SlotID] = row.Claimed
	}
	return claims, nil
}
