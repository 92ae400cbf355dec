package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	AppointmentStatusPending        AppointmentStatus = "PENDING"
	AppointmentStatusPendingDeposit AppointmentStatus = "PENDING_DEPOSIT"
	AppointmentStatusConfirmed      AppointmentStatus = "CONFIRMED"
	AppointmentStatusCheckedIn      AppointmentStatus = "CHECKED_IN"
	AppointmentStatusCompleted      AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled      AppointmentStatus = "CANCELLED"
)

// Terminal — из статуса нет переходов.
func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

type ContactChannel string

const (
	ContactChannelPhone    ContactChannel = "PHONE"
	ContactChannelEmail    ContactChannel = "EMAIL"
	ContactChannelTelegram ContactChannel = "TELEGRAM"
	ContactChannelZalo     ContactChannel = "ZALO"
)

// appointments
type Appointment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CustomerID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ServiceID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	PractitionerID *uuid.UUID `gorm:"type:uuid;index"`

	// Календарная дата приёма в часовом поясе клиники.
	Date     datatypes.Date `gorm:"not null;index"`
	StartsAt time.Time      `gorm:"not null;index"`
	EndsAt   time.Time      `gorm:"not null"`

	Status AppointmentStatus `gorm:"type:varchar(32);not null;index"`

	ContactChannel ContactChannel `gorm:"type:varchar(32)"`
	ContactValue   string         `gorm:"type:varchar(255)"`
	Notes          string         `gorm:"type:text"`

	CancelledAt *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	// Упорядоченные по SlotOrder ссылки на занятые слоты.
	Slots []AppointmentSlot `gorm:"foreignKey:AppointmentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	Service      *Service      `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Practitioner *Practitioner `gorm:"foreignKey:PractitionerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (a *Appointment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// appointment_slots — связь приёма со слотом, ключ (appointment_id, slot_order).
type AppointmentSlot struct {
	AppointmentID uuid.UUID `gorm:"type:uuid;primaryKey;autoIncrement:false"`
	SlotOrder     int       `gorm:"primaryKey;autoIncrement:false"`

	SlotID       uuid.UUID `gorm:"type:uuid;not null;index"`
	SlotStartsAt time.Time `gorm:"not null"`

	Slot *Slot `gorm:"foreignKey:SlotID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}
