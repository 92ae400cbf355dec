package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Practitioner — врач/специалист. Слоты общие для клиники, поэтому здесь
// нет собственного расписания: только проверка пересечений при назначении.
type Practitioner struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	DisplayName string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	IsActive bool `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (p *Practitioner) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
