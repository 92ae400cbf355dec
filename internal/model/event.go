package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Тип события аудита.
type EventType string

const (
	EventTypeAppointmentCreated     EventType = "appointment_created"
	EventTypeAppointmentConfirmed   EventType = "appointment_confirmed"
	EventTypeAppointmentCheckedIn   EventType = "appointment_checked_in"
	EventTypeAppointmentCompleted   EventType = "appointment_completed"
	EventTypeAppointmentCancelled   EventType = "appointment_cancelled"
	EventTypeAppointmentRescheduled EventType = "appointment_rescheduled"
	EventTypePractitionerAssigned   EventType = "practitioner_assigned"
	EventTypeSlotsInitialized       EventType = "slots_initialized"
	EventTypeCapacityUpdated        EventType = "capacity_updated"
	EventTypeSlotsClosed            EventType = "slots_closed"
	EventTypeSlotsReopened          EventType = "slots_reopened"
)

// events — события аудита, пишутся в той же транзакции, что и изменение.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	AppointmentID *uuid.UUID `gorm:"type:uuid;index"`

	Details datatypes.JSON

	Appointment *Appointment `gorm:"foreignKey:AppointmentID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
