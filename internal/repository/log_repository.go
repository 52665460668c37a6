package repository

import (
	"context"

	"github.com/sjperalta/techlog-api/internal/models"
	"gorm.io/gorm"
)

// LogRepository defines the interface for log page data access
type LogRepository interface {
	List(ctx context.Context) ([]models.Log, error)
	FindByID(ctx context.Context, id uint) (*models.Log, error)
	FindByIDWithDetails(ctx context.Context, id uint) (*models.Log, error)
}

type logRepository struct {
	db *gorm.DB
}

// NewLogRepository creates a new log repository
func NewLogRepository(db *gorm.DB) LogRepository {
	return &logRepository{db: db}
}

func (r *logRepository) List(ctx context.Context) ([]models.Log, error) {
	var logs []models.Log
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	return logs, err
}

func (r *logRepository) FindByID(ctx context.Context, id uint) (*models.Log, error) {
	var log models.Log
	err := r.db.WithContext(ctx).
		Preload("Flight").
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		Preload("Entries.Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&log, id).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// FindByIDWithDetails also loads the aircraft and the check authorizations (reports)
func (r *logRepository) FindByIDWithDetails(ctx context.Context, id uint) (*models.Log, error) {
	var log models.Log
	err := r.db.WithContext(ctx).
		Preload("Flight.Aircraft").
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq ASC")
		}).
		Preload("Entries.Components", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Checks").
		First(&log, id).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}
