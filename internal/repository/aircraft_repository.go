package repository

import (
	"context"

	"github.com/sjperalta/techlog-api/internal/models"
	"gorm.io/gorm"
)

// AircraftRepository defines the interface for aircraft data access
type AircraftRepository interface {
	List(ctx context.Context) ([]models.Aircraft, error)
	FindByID(ctx context.Context, id uint) (*models.Aircraft, error)
	Registrations(ctx context.Context) ([]string, error)
	Create(ctx context.Context, aircraft *models.Aircraft) error
}

type aircraftRepository struct {
	db *gorm.DB
}

// NewAircraftRepository creates a new aircraft repository
func NewAircraftRepository(db *gorm.DB) AircraftRepository {
	return &aircraftRepository{db: db}
}

func (r *aircraftRepository) List(ctx context.Context) ([]models.Aircraft, error) {
	var aircraft []models.Aircraft
	err := r.db.WithContext(ctx).Order("registration ASC").Find(&aircraft).Error
	return aircraft, err
}

func (r *aircraftRepository) FindByID(ctx context.Context, id uint) (*models.Aircraft, error) {
	var aircraft models.Aircraft
	if err := r.db.WithContext(ctx).First(&aircraft, id).Error; err != nil {
		return nil, err
	}
	return &aircraft, nil
}

func (r *aircraftRepository) Registrations(ctx context.Context) ([]string, error) {
	var regs []string
	err := r.db.WithContext(ctx).Model(&models.Aircraft{}).Pluck("registration", &regs).Error
	return regs, err
}

func (r *aircraftRepository) Create(ctx context.Context, aircraft *models.Aircraft) error {
	return translate(r.db.WithContext(ctx).Create(aircraft).Error)
}
