package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/clinic-booking/internal/db"
	"github.com/Leganyst/clinic-booking/internal/model"
)

type PractitionerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Practitioner, error)
	// Строка врача под блокировкой: сериализует назначения на одного врача.
	LockByID(ctx context.Context, id uuid.UUID) (*model.Practitioner, error)
	Create(ctx context.Context, p *model.Practitioner) error
}

type GormPractitionerRepository struct {
	db *gorm.DB
}

func NewGormPractitionerRepository(db *gorm.DB) *GormPractitionerRepository {
	return &GormPractitionerRepository{db: db}
}

func (r *GormPractitionerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Practitioner, error) {
	var p model.Practitioner
	if err := db.Conn(ctx, r.db).First(&p, "id = ?", id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (r *GormPractitionerRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Practitioner, error) {
	var p model.Practitioner
	err := db.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (r *GormPractitionerRepository) Create(ctx context.Context, p *model.Practitioner) error {
	return db.Conn(ctx, r.db).Create(p).Error
}
