package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/lk2023060901/iqac-backend/internal/record/biz"
	"github.com/lk2023060901/iqac-backend/internal/record/models"
	"gorm.io/gorm"
)

// RecordRepo implements biz.RecordRepo on PostgreSQL via GORM.
type RecordRepo struct {
	db *gorm.DB
}

func NewRecordRepo(db *gorm.DB) *RecordRepo {
	return &RecordRepo{db: db}
}

func (r *RecordRepo) Create(ctx context.Context, record *models.Record) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create record: %w", err)
	}
	return nil
}

func (r *RecordRepo) GetByID(ctx context.Context, kind models.Kind, id uint) (*models.Record, error) {
	var record models.Record
	err := r.db.WithContext(ctx).
		Where("kind = ? AND id = ?", kind, id).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to query record %d: %w", id, err)
	}
	return &record, nil
}

// ListByStatus returns records of one kind in one status, newest upload
// first. The ordering is part of the API contract.
func (r *RecordRepo) ListByStatus(ctx context.Context, kind models.Kind, status models.Status) ([]*models.Record, error) {
	var records []*models.Record
	err := r.db.WithContext(ctx).
		Where("kind = ? AND status = ?", kind, status).
		Order("uploaded_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

// UpdateStatus sets the status of a single record and reports how many
// rows changed. Zero means the id does not exist for that kind; callers
// translate that to not-found.
func (r *RecordRepo) UpdateStatus(ctx context.Context, kind models.Kind, id uint, status models.Status) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Record{}).
		Where("kind = ? AND id = ?", kind, id).
		Update("status", status)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update record %d status: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}
