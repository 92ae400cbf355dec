package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// slots — общий для всей клиники 30-минутный слот с ёмкостью.
// Инвариант: 0 <= BookedCount <= Capacity.
type Slot struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	StartsAt time.Time `gorm:"not null;uniqueIndex"`

	Capacity    int `gorm:"not null;check:chk_slots_capacity,capacity > 0"`
	BookedCount int `gorm:"not null;default:0;check:chk_slots_booked,booked_count >= 0 AND booked_count <= capacity"`

	// Неактивные слоты (закрытие клиники) не удаляются.
	Active bool `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (s *Slot) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Available — слот активен и в нём есть свободное место.
func (s *Slot) Available() bool {
	return s.Active && s.BookedCount < s.Capacity
}

// Remaining — количество свободных мест.
func (s *Slot) Remaining() int {
	if s.BookedCount >= s.Capacity {
		return 0
	}
	return s.Capacity - s.BookedCount
}
