package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound — запись не найдена.
var ErrNotFound = errors.New("record not found")

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
