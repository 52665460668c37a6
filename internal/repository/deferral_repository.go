package repository

import (
	"context"
	"errors"

	"github.com/sjperalta/techlog-api/internal/models"
	"gorm.io/gorm"
)

// Deferral status filters
const (
	DeferralStatusOpen        = "open"
	DeferralStatusEntered     = "entered"
	DeferralStatusCleared     = "cleared"
	DeferralStatusOutstanding = "outstanding"
)

// DeferralQuery filters the deferral register
type DeferralQuery struct {
	Status   string
	Category string
	Search   string
}

// DeferralRepository defines the interface for deferral data access
type DeferralRepository interface {
	List(ctx context.Context, query *DeferralQuery) ([]models.Deferral, error)
	FindByNumber(ctx context.Context, number string) (*models.Deferral, error)
	Create(ctx context.Context, deferral *models.Deferral) error
	Update(ctx context.Context, deferral *models.Deferral) error
	DeleteByNumber(ctx context.Context, number string) error
}

type deferralRepository struct {
	db *gorm.DB
}

// NewDeferralRepository creates a new deferral repository
func NewDeferralRepository(db *gorm.DB) DeferralRepository {
	return &deferralRepository{db: db}
}

func (r *deferralRepository) List(ctx context.Context, query *DeferralQuery) ([]models.Deferral, error) {
	var deferrals []models.Deferral
	db := r.db.WithContext(ctx).Model(&models.Deferral{})

	if query != nil {
		switch query.Status {
		case DeferralStatusOpen:
			db = db.Where("entered_auth_id IS NULL AND cleared_auth_id IS NULL")
		case DeferralStatusEntered:
			db = db.Where("entered_auth_id IS NOT NULL AND cleared_auth_id IS NULL")
		case DeferralStatusCleared:
			db = db.Where("cleared_auth_id IS NOT NULL")
		case DeferralStatusOutstanding:
			db = db.Where("cleared_auth_id IS NULL")
		}
		if query.Category != "" {
			db = db.Where("category = ?", query.Category)
		}
		if query.Search != "" {
			search := "%" + query.Search + "%"
			db = db.Where("number ILIKE ? OR description ILIKE ? OR mel_cdl_ref ILIKE ?", search, search, search)
		}
	}

	err := db.Order("number ASC").Find(&deferrals).Error
	return deferrals, err
}

func (r *deferralRepository) FindByNumber(ctx context.Context, number string) (*models.Deferral, error) {
	var deferral models.Deferral
	err := r.db.WithContext(ctx).Where("number = ?", number).First(&deferral).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &deferral, nil
}

func (r *deferralRepository) Create(ctx context.Context, deferral *models.Deferral) error {
	return translate(r.db.WithContext(ctx).Create(deferral).Error)
}

// Update writes every column so a revert can null the authorization pairs again
func (r *deferralRepository) Update(ctx context.Context, deferral *models.Deferral) error {
	if deferral.ID == 0 {
		existing, err := r.FindByNumber(ctx, deferral.Number)
		if err != nil {
			return err
		}
		if existing == nil {
			return gorm.ErrRecordNotFound
		}
		deferral.ID = existing.ID
		deferral.CreatedAt = existing.CreatedAt
	}
	return translate(r.db.WithContext(ctx).Save(deferral).Error)
}

// DeleteByNumber removes a deferral that was never entered
func (r *deferralRepository) DeleteByNumber(ctx context.Context, number string) error {
	result := r.db.WithContext(ctx).
		Where("number = ? AND entered_auth_id IS NULL AND cleared_auth_id IS NULL", number).
		Delete(&models.Deferral{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
