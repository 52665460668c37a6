package repository

import (
	"context"

	"github.com/sjperalta/techlog-api/internal/models"
	"gorm.io/gorm"
)

// FlightRepository defines the interface for flight data access
type FlightRepository interface {
	List(ctx context.Context) ([]models.Flight, error)
	FindByID(ctx context.Context, id uint) (*models.Flight, error)
	Numbers(ctx context.Context) ([]string, error)
	CreateWithLog(ctx context.Context, flight *models.Flight, log *models.Log) error
}

type flightRepository struct {
	db *gorm.DB
}

// NewFlightRepository creates a new flight repository
func NewFlightRepository(db *gorm.DB) FlightRepository {
	return &flightRepository{db: db}
}

func (r *flightRepository) List(ctx context.Context) ([]models.Flight, error) {
	var flights []models.Flight
	err := r.db.WithContext(ctx).
		Preload("Aircraft").
		Order("flight_leg ASC, id DESC").
		Find(&flights).Error
	return flights, err
}

func (r *flightRepository) FindByID(ctx context.Context, id uint) (*models.Flight, error) {
	var flight models.Flight
	err := r.db.WithContext(ctx).Preload("Aircraft").First(&flight, id).Error
	if err != nil {
		return nil, err
	}
	return &flight, nil
}

func (r *flightRepository) Numbers(ctx context.Context) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&models.Flight{}).Pluck("flight_number", &numbers).Error
	return numbers, err
}

// CreateWithLog inserts the flight and its log page with the next page number. A current
// flight first pushes every other flight one leg back and clears their current flag.
func (r *flightRepository) CreateWithLog(ctx context.Context, flight *models.Flight, log *models.Log) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if flight.CurrentFlight {
			flight.FlightLeg = 0
			if err := tx.Model(&models.Flight{}).
				Where("flight_leg >= ?", 0).
				Updates(map[string]interface{}{
					"flight_leg":     gorm.Expr("flight_leg + 1"),
					"current_flight": false,
				}).Error; err != nil {
				return err
			}
		}

		if err := tx.Omit("Aircraft").Create(flight).Error; err != nil {
			return err
		}

		var lastPage int
		if err := tx.Model(&models.Log{}).
			Select("COALESCE(MAX(log_page_number), 0)").
			Scan(&lastPage).Error; err != nil {
			return err
		}

		log.FlightID = flight.ID
		log.LogPageNumber = lastPage + 1
		return tx.Omit("Flight", "Entries", "Checks").Create(log).Error
	})
	return translate(err)
}
