package repository

import (
	"context"

	"github.com/sjperalta/techlog-api/internal/models"
	"gorm.io/gorm"
)

// CheckRepository defines the interface for check authorization data access
type CheckRepository interface {
	FindByLog(ctx context.Context, logID uint) ([]models.CheckAuthorization, error)
	SaveAll(ctx context.Context, logID uint, auths []models.CheckAuthorization) error
}

type checkRepository struct {
	db *gorm.DB
}

// NewCheckRepository creates a new check repository
func NewCheckRepository(db *gorm.DB) CheckRepository {
	return &checkRepository{db: db}
}

func (r *checkRepository) FindByLog(ctx context.Context, logID uint) ([]models.CheckAuthorization, error) {
	var auths []models.CheckAuthorization
	err := r.db.WithContext(ctx).
		Where("log_id = ?", logID).
		Order("auth_date ASC").
		Find(&auths).Error
	return auths, err
}

// SaveAll persists the full check set of a log page. Authorizations are immutable, so only
// check types not yet stored are inserted; auths is updated with the new ids.
func (r *checkRepository) SaveAll(ctx context.Context, logID uint, auths []models.CheckAuthorization) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored []models.CheckType
		if err := tx.Model(&models.CheckAuthorization{}).
			Where("log_id = ?", logID).
			Pluck("check_type", &stored).Error; err != nil {
			return err
		}
		existing := make(map[models.CheckType]bool, len(stored))
		for _, t := range stored {
			existing[t] = true
		}

		for i := range auths {
			if existing[auths[i].CheckType] {
				continue
			}
			auths[i].LogID = logID
			if err := tx.Create(&auths[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translate(err)
}
