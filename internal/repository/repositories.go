package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Log      LogRepository
	LogEntry LogEntryRepository
	Check    CheckRepository
	Deferral DeferralRepository
	Flight   FlightRepository
	Airport  AirportRepository
	Aircraft AircraftRepository
	Fluids   FluidsRepository
	Operator OperatorRepository
	Audit    AuditRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Log:      NewLogRepository(db),
		LogEntry: NewLogEntryRepository(db),
		Check:    NewCheckRepository(db),
		Deferral: NewDeferralRepository(db),
		Flight:   NewFlightRepository(db),
		Airport:  NewAirportRepository(db),
		Aircraft: NewAircraftRepository(db),
		Fluids:   NewFluidsRepository(db),
		Operator: NewOperatorRepository(db),
		Audit:    NewAuditRepository(db),
	}
}
