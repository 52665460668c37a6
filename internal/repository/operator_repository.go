package repository

import (
	"context"
	"errors"

	"github.com/sjperalta/techlog-api/internal/models"
	"gorm.io/gorm"
)

// OperatorRepository defines the interface for operator data access
type OperatorRepository interface {
	FindByAuthID(ctx context.Context, authID string) (*models.Operator, error)
	List(ctx context.Context) ([]models.Operator, error)
	Create(ctx context.Context, operator *models.Operator) error
}

type operatorRepository struct {
	db *gorm.DB
}

// NewOperatorRepository creates a new operator repository
func NewOperatorRepository(db *gorm.DB) OperatorRepository {
	return &operatorRepository{db: db}
}

// FindByAuthID returns nil without error for an unregistered auth id
func (r *operatorRepository) FindByAuthID(ctx context.Context, authID string) (*models.Operator, error) {
	var operator models.Operator
	err := r.db.WithContext(ctx).Where("auth_id = ?", authID).First(&operator).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &operator, nil
}

func (r *operatorRepository) List(ctx context.Context) ([]models.Operator, error) {
	var operators []models.Operator
	err := r.db.WithContext(ctx).Order("auth_id ASC").Find(&operators).Error
	return operators, err
}

func (r *operatorRepository) Create(ctx context.Context, operator *models.Operator) error {
	return translate(r.db.WithContext(ctx).Create(operator).Error)
}
