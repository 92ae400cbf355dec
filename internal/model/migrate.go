package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей записи в клинику.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Service{},
		&Practitioner{},
		&Slot{},
		&Appointment{},
		&AppointmentSlot{},
		&Event{},
	)
}
