package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sjperalta/techlog-api/internal/identifier"
	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/sjperalta/techlog-api/internal/repository"
	"github.com/sjperalta/techlog-api/pkg/logger"
)

// RegistryService creates the aircraft, airports and flights the log pages hang off.
// Identifiers are drawn from the allocator so they stay sequential per prefix.
type RegistryService struct {
	repos     *repository.Repositories
	allocator *identifier.Allocator
	auditSvc  *AuditService
}

func NewRegistryService(repos *repository.Repositories, allocator *identifier.Allocator, auditSvc *AuditService) *RegistryService {
	return &RegistryService{repos: repos, allocator: allocator, auditSvc: auditSvc}
}

// AircraftInput is the payload for registering an aircraft
type AircraftInput struct {
	TypeCode     string `json:"type_code" binding:"max=16"`
	SerialNumber string `json:"serial_number" binding:"max=64"`
	Operator     string `json:"operator" binding:"max=128"`
}

// AirportInput is the payload for registering an airport
type AirportInput struct {
	ICAO string `json:"icao" binding:"omitempty,len=4,alpha"`
	Name string `json:"name" binding:"required,max=128"`
}

// FlightInput is the payload for creating a flight and its log page.
// A current flight always becomes leg 0; other flights default to leg 1.
type FlightInput struct {
	AircraftID    *uint      `json:"aircraft_id"`
	Origin        string     `json:"origin" binding:"max=16"`
	Destination   string     `json:"destination" binding:"max=16"`
	CurrentFlight bool       `json:"current_flight"`
	FlightLeg     int        `json:"flight_leg" binding:"min=0"`
	DepartedAt    *time.Time `json:"departed_at"`
}

func (s *RegistryService) ListAircraft(ctx context.Context) ([]models.Aircraft, error) {
	return s.repos.Aircraft.List(ctx)
}

func (s *RegistryService) CreateAircraft(ctx context.Context, input AircraftInput, actorID uint) (*models.Aircraft, error) {
	aircraft := &models.Aircraft{
		TypeCode:     strings.ToUpper(strings.TrimSpace(input.TypeCode)),
		SerialNumber: strings.TrimSpace(input.SerialNumber),
		Operator:     strings.TrimSpace(input.Operator),
	}

	_, err := s.allocator.Allocate(ctx, identifier.PrefixRegistration, s.repos.Aircraft.Registrations,
		func(ctx context.Context, id string) error {
			aircraft.ID = 0
			aircraft.Registration = id
			return s.repos.Aircraft.Create(ctx, aircraft)
		})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actorID, "Aircraft", aircraft.ID, fmt.Sprintf("Aircraft registered: %s", aircraft.Registration))
	return aircraft, nil
}

func (s *RegistryService) ListAirports(ctx context.Context) ([]models.Airport, error) {
	return s.repos.Airport.List(ctx)
}

func (s *RegistryService) CreateAirport(ctx context.Context, input AirportInput, actorID uint) (*models.Airport, error) {
	airport := &models.Airport{
		ICAO: strings.ToUpper(strings.TrimSpace(input.ICAO)),
		Name: strings.TrimSpace(input.Name),
	}

	_, err := s.allocator.Allocate(ctx, identifier.PrefixAirport, s.repos.Airport.Codes,
		func(ctx context.Context, id string) error {
			airport.ID = 0
			airport.Code = id
			return s.repos.Airport.Create(ctx, airport)
		})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actorID, "Airport", airport.ID, fmt.Sprintf("Airport registered: %s %s", airport.Code, airport.Name))
	return airport, nil
}

func (s *RegistryService) ListFlights(ctx context.Context) ([]models.Flight, error) {
	return s.repos.Flight.List(ctx)
}

// CreateFlight inserts the flight and opens its log page. A current flight pushes every
// other flight one leg back.
func (s *RegistryService) CreateFlight(ctx context.Context, input FlightInput, actorID uint) (*models.Flight, *models.Log, error) {
	if input.AircraftID != nil {
		if _, err := s.repos.Aircraft.FindByID(ctx, *input.AircraftID); err != nil {
			return nil, nil, fmt.Errorf("%w: aircraft %d", ErrNotFound, *input.AircraftID)
		}
	}

	flight := &models.Flight{
		AircraftID:    input.AircraftID,
		Origin:        strings.ToUpper(strings.TrimSpace(input.Origin)),
		Destination:   strings.ToUpper(strings.TrimSpace(input.Destination)),
		CurrentFlight: input.CurrentFlight,
		FlightLeg:     input.FlightLeg,
		DepartedAt:    input.DepartedAt,
	}
	if !flight.CurrentFlight && flight.FlightLeg == 0 {
		flight.FlightLeg = 1
	}
	log := &models.Log{}

	_, err := s.allocator.Allocate(ctx, identifier.PrefixFlight, s.repos.Flight.Numbers,
		func(ctx context.Context, id string) error {
			flight.ID = 0
			flight.FlightNumber = id
			*log = models.Log{}
			return s.repos.Flight.CreateWithLog(ctx, flight, log)
		})
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Flight created", "flight_number", flight.FlightNumber, "current", flight.CurrentFlight, "log_page", log.LogPageNumber)
	s.audit(ctx, actorID, "Flight", flight.ID, fmt.Sprintf("Flight created: %s (log page %d)", flight.FlightNumber, log.LogPageNumber))
	return flight, log, nil
}

// ListDeferrals returns the deferral register
func (s *RegistryService) ListDeferrals(ctx context.Context, query *repository.DeferralQuery) ([]models.Deferral, error) {
	return s.repos.Deferral.List(ctx, query)
}

func (s *RegistryService) audit(ctx context.Context, actorID uint, entity string, id uint, details string) {
	if s.auditSvc == nil {
		return
	}
	s.auditSvc.LogAsync(ctx, actorID, models.AuditActionCreate, entity, id, details)
}
