package repository

import (
	"context"

	"github.com/sjperalta/techlog-api/internal/models"
	"gorm.io/gorm"
)

// LogEntryRepository defines the interface for log entry data access
type LogEntryRepository interface {
	Save(ctx context.Context, entry *models.LogEntry) error
	Delete(ctx context.Context, logID, id uint) error
}

type logEntryRepository struct {
	db *gorm.DB
}

// NewLogEntryRepository creates a new log entry repository
func NewLogEntryRepository(db *gorm.DB) LogEntryRepository {
	return &logEntryRepository{db: db}
}

// Save inserts or updates the entry and replaces its component rows
func (r *logEntryRepository) Save(ctx context.Context, entry *models.LogEntry) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Components").Save(entry).Error; err != nil {
			return err
		}
		if err := tx.Where("log_entry_id = ?", entry.ID).Delete(&models.ComponentRow{}).Error; err != nil {
			return err
		}
		if len(entry.Components) == 0 {
			return nil
		}
		for i := range entry.Components {
			entry.Components[i].ID = 0
			entry.Components[i].LogEntryID = entry.ID
		}
		return tx.Create(&entry.Components).Error
	})
	return translate(err)
}

func (r *logEntryRepository) Delete(ctx context.Context, logID, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("log_entry_id = ?", id).Delete(&models.ComponentRow{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ? AND log_id = ?", id, logID).Delete(&models.LogEntry{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
