package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/clinic-booking/internal/db"
	"github.com/Leganyst/clinic-booking/internal/model"
)

type SlotRepository interface {
	// Слоты в полуинтервале [from, to) по возрастанию времени.
	ListRange(ctx context.Context, from, to time.Time, activeOnly bool) ([]model.Slot, error)
	// То же, но с блокировкой строк (SELECT ... FOR UPDATE).
	LockRange(ctx context.Context, from, to time.Time, activeOnly bool) ([]model.Slot, error)
	// Слот по времени начала под блокировкой, независимо от active.
	LockByStartsAt(ctx context.Context, startsAt time.Time) (*model.Slot, error)
	// Слоты по ID по возрастанию времени.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Slot, error)
	// booked_count+1, если слот активен и не заполнен.
	IncrementIfAvailable(ctx context.Context, id uuid.UUID) (bool, error)
	// booked_count-1, если booked_count > 0.
	DecrementIfBooked(ctx context.Context, id uuid.UUID) (bool, error)
	// Вставка с ON CONFLICT (starts_at) DO NOTHING, возвращает число созданных.
	InsertIgnore(ctx context.Context, slots []model.Slot) (int64, error)
	UpdateCapacityInRange(ctx context.Context, from, to time.Time, capacity int) (int64, error)
	SetActiveInRange(ctx context.Context, from, to time.Time, active bool) (int64, error)
}

type GormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

func (r *GormSlotRepository) rangeQuery(ctx context.Context, from, to time.Time, activeOnly bool) *gorm.DB {
	q := db.Conn(ctx, r.db).
		Model(&model.Slot{}).
		Where("starts_at >= ? AND starts_at < ?", from.UTC(), to.UTC())
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	return q.Order("starts_at ASC")
}

func (r *GormSlotRepository) ListRange(ctx context.Context, from, to time.Time, activeOnly bool) ([]model.Slot, error) {
	var slots []model.Slot
	if err := r.rangeQuery(ctx, from, to, activeOnly).Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) LockRange(ctx context.Context, from, to time.Time, activeOnly bool) ([]model.Slot, error) {
	var slots []model.Slot
	err := r.rangeQuery(ctx, from, to, activeOnly).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) LockByStartsAt(ctx context.Context, startsAt time.Time) (*model.Slot, error) {
	var slot model.Slot
	err := db.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("starts_at = ?", startsAt.UTC()).
		First(&slot).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &slot, nil
}

func (r *GormSlotRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Slot, error) {
	if len(ids) == 0 {
		return []model.Slot{}, nil
	}
	var slots []model.Slot
	err := db.Conn(ctx, r.db).
		Where("id IN ?", ids).
		Order("starts_at ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) IncrementIfAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	res := db.Conn(ctx, r.db).
		Model(&model.Slot{}).
		Where("id = ? AND booked_count < capacity AND active = ?", id, true).
		Updates(map[string]any{"booked_count": gorm.Expr("booked_count + 1")})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormSlotRepository) DecrementIfBooked(ctx context.Context, id uuid.UUID) (bool, error) {
	res := db.Conn(ctx, r.db).
		Model(&model.Slot{}).
		Where("id = ? AND booked_count > 0", id).
		Updates(map[string]any{"booked_count": gorm.Expr("booked_count - 1")})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormSlotRepository) InsertIgnore(ctx context.Context, slots []model.Slot) (int64, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	res := db.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "starts_at"}},
			DoNothing: true,
		}).
		Create(&slots)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *GormSlotRepository) UpdateCapacityInRange(ctx context.Context, from, to time.Time, capacity int) (int64, error) {
	res := db.Conn(ctx, r.db).
		Model(&model.Slot{}).
		Where("starts_at >= ? AND starts_at < ?", from.UTC(), to.UTC()).
		Updates(map[string]any{"capacity": capacity})
	return res.RowsAffected, res.Error
}

func (r *GormSlotRepository) SetActiveInRange(ctx context.Context, from, to time.Time, active bool) (int64, error) {
	res := db.Conn(ctx, r.db).
		Model(&model.Slot{}).
		Where("starts_at >= ? AND starts_at < ?", from.UTC(), to.UTC()).
		Where("active = ?", !active).
		Updates(map[string]any{"active": active})
	return res.RowsAffected, res.Error
}
