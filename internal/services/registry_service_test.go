package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/sjperalta/techlog-api/internal/identifier"
	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/sjperalta/techlog-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFlightRepo struct {
	repository.FlightRepository
	numbers     []string
	createCalls int
	mockCreate  func(flight *models.Flight, log *models.Log) error
}

func (m *mockFlightRepo) Numbers(ctx context.Context) ([]string, error) {
	return append([]string(nil), m.numbers...), nil
}

func (m *mockFlightRepo) CreateWithLog(ctx context.Context, flight *models.Flight, log *models.Log) error {
	m.createCalls++
	return m.mockCreate(flight, log)
}

type mockAircraftRepo struct {
	repository.AircraftRepository
	registrations []string
}

func (m *mockAircraftRepo) Registrations(ctx context.Context) ([]string, error) {
	return m.registrations, nil
}

func (m *mockAircraftRepo) FindByID(ctx context.Context, id uint) (*models.Aircraft, error) {
	if id != 3 {
		return nil, fmt.Errorf("aircraft %d: record not found", id)
	}
	return &models.Aircraft{ID: 3, Registration: "REGN-00003"}, nil
}

func (m *mockAircraftRepo) Create(ctx context.Context, aircraft *models.Aircraft) error {
	aircraft.ID = 11
	m.registrations = append(m.registrations, aircraft.Registration)
	return nil
}

func newTestAllocator() *identifier.Allocator {
	return identifier.NewAllocator(3).WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} })
}

func TestRegistryService_CreateFlight_RetriesOnConflict(t *testing.T) {
	flights := &mockFlightRepo{numbers: []string{"FL-00001", "FL-00003"}}
	flights.mockCreate = func(flight *models.Flight, log *models.Log) error {
		if flights.createCalls == 1 {
			// another writer took the number between read and commit
			flights.numbers = append(flights.numbers, flight.FlightNumber)
			return identifier.ErrConflict
		}
		flight.ID = 9
		log.ID = 21
		log.FlightID = flight.ID
		log.LogPageNumber = 5
		return nil
	}
	audits := &mockAuditRepo{}
	aircraftID := uint(3)

	svc := NewRegistryService(&repository.Repositories{Flight: flights, Aircraft: &mockAircraftRepo{}}, newTestAllocator(), NewAuditService(audits, nil))

	flight, log, err := svc.CreateFlight(context.Background(), FlightInput{AircraftID: &aircraftID, Origin: "ams", Destination: "lhr", CurrentFlight: true}, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, flights.createCalls)
	assert.Equal(t, "FL-00005", flight.FlightNumber)
	assert.Equal(t, "AMS", flight.Origin)
	assert.Equal(t, 5, log.LogPageNumber)
	require.Len(t, audits.created, 1)
	assert.Equal(t, "Flight", audits.created[0].Entity)
}

func TestRegistryService_CreateFlight_NonCurrentDefaultsToLegOne(t *testing.T) {
	flights := &mockFlightRepo{}
	flights.mockCreate = func(flight *models.Flight, log *models.Log) error { return nil }
	svc := NewRegistryService(&repository.Repositories{Flight: flights, Aircraft: &mockAircraftRepo{}}, newTestAllocator(), nil)

	flight, _, err := svc.CreateFlight(context.Background(), FlightInput{}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, flight.FlightLeg)
	assert.Equal(t, "FL-00001", flight.FlightNumber)
}

func TestRegistryService_CreateFlight_UnknownAircraft(t *testing.T) {
	flights := &mockFlightRepo{}
	svc := NewRegistryService(&repository.Repositories{Flight: flights, Aircraft: &mockAircraftRepo{}}, newTestAllocator(), nil)

	aircraftID := uint(99)
	_, _, err := svc.CreateFlight(context.Background(), FlightInput{AircraftID: &aircraftID}, 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, flights.createCalls)
}

func TestRegistryService_CreateAircraft(t *testing.T) {
	aircraft := &mockAircraftRepo{registrations: []string{"REGN-00002", "N123AB"}}
	svc := NewRegistryService(&repository.Repositories{Aircraft: aircraft}, newTestAllocator(), nil)

	created, err := svc.CreateAircraft(context.Background(), AircraftInput{TypeCode: "a320"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "REGN-00003", created.Registration)
	assert.Equal(t, "A320", created.TypeCode)
}
