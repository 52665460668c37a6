package repository

import (
	"context"
	"errors"

	"github.com/sjperalta/techlog-api/internal/models"
	"gorm.io/gorm"
)

// FluidsRepository defines the interface for fluids record data access
type FluidsRepository interface {
	FindByLog(ctx context.Context, logID uint) (*models.FluidsRecord, error)
	Save(ctx context.Context, record *models.FluidsRecord) error
}

type fluidsRepository struct {
	db *gorm.DB
}

// NewFluidsRepository creates a new fluids repository
func NewFluidsRepository(db *gorm.DB) FluidsRepository {
	return &fluidsRepository{db: db}
}

// FindByLog returns nil without error when the page has no fluids record yet
func (r *fluidsRepository) FindByLog(ctx context.Context, logID uint) (*models.FluidsRecord, error) {
	var record models.FluidsRecord
	err := r.db.WithContext(ctx).Where("log_id = ?", logID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *fluidsRepository) Save(ctx context.Context, record *models.FluidsRecord) error {
	return translate(r.db.WithContext(ctx).Save(record).Error)
}
