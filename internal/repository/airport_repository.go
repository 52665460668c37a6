package repository

import (
	"context"

	"github.com/sjperalta/techlog-api/internal/models"
	"gorm.io/gorm"
)

// AirportRepository defines the interface for airport data access
type AirportRepository interface {
	List(ctx context.Context) ([]models.Airport, error)
	Codes(ctx context.Context) ([]string, error)
	Create(ctx context.Context, airport *models.Airport) error
}

type airportRepository struct {
	db *gorm.DB
}

// NewAirportRepository creates a new airport repository
func NewAirportRepository(db *gorm.DB) AirportRepository {
	return &airportRepository{db: db}
}

func (r *airportRepository) List(ctx context.Context) ([]models.Airport, error) {
	var airports []models.Airport
	err := r.db.WithContext(ctx).Order("code ASC").Find(&airports).Error
	return airports, err
}

func (r *airportRepository) Codes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).Model(&models.Airport{}).Pluck("code", &codes).Error
	return codes, err
}

func (r *airportRepository) Create(ctx context.Context, airport *models.Airport) error {
	return translate(r.db.WithContext(ctx).Create(airport).Error)
}
