package repository

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/db"
	"github.com/Leganyst/clinic-booking/internal/model"
)

type EventRepository interface {
	// Записать событие аудита; details сериализуется в JSON.
	Record(ctx context.Context, eventType model.EventType, appointmentID *uuid.UUID, details any) error
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]model.Event, error)
	ListByType(ctx context.Context, eventType model.EventType) ([]model.Event, error)
}

type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) Record(ctx context.Context, eventType model.EventType, appointmentID *uuid.UUID, details any) error {
	ev := &model.Event{
		EventType:     eventType,
		AppointmentID: appointmentID,
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			return err
		}
		ev.Details = datatypes.JSON(raw)
	}
	return db.Conn(ctx, r.db).Create(ev).Error
}

func (r *GormEventRepository) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]model.Event, error) {
	var events []model.Event
	err := db.Conn(ctx, r.db).
		Where("appointment_id = ?", appointmentID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *GormEventRepository) ListByType(ctx context.Context, eventType model.EventType) ([]model.Event, error) {
	var events []model.Event
	err := db.Conn(ctx, r.db).
		Where("event_type = ?", eventType).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
