package models

import (
	"time"
)

// Aircraft is a registered airframe
type Aircraft struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Registration string    `gorm:"size:16;not null;uniqueIndex" json:"registration"`
	TypeCode     string    `gorm:"size:16" json:"type_code"`
	SerialNumber string    `gorm:"size:64" json:"serial_number"`
	Operator     string    `gorm:"size:128" json:"operator"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for Aircraft
func (Aircraft) TableName() string {
	return "aircraft"
}

// Airport is a station flights operate between
type Airport struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:16;not null;uniqueIndex" json:"code"`
	ICAO      string    `gorm:"column:icao;size:4" json:"icao"`
	Name      string    `gorm:"size:128" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Airport
func (Airport) TableName() string {
	return "airports"
}

// Flight is one operated leg. FlightLeg 0 is the leg presently in operation; the
// CurrentFlight flag lives here and nowhere else.
type Flight struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	FlightNumber  string     `gorm:"size:16;not null;uniqueIndex" json:"flight_number"`
	AircraftID    *uint      `gorm:"index" json:"aircraft_id"`
	Origin        string     `gorm:"size:16" json:"origin"`
	Destination   string     `gorm:"size:16" json:"destination"`
	FlightLeg     int        `gorm:"not null;default:0;index" json:"flight_leg"`
	CurrentFlight bool       `gorm:"not null;default:false;index" json:"current_flight"`
	DepartedAt    *time.Time `json:"departed_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Associations
	Aircraft *Aircraft `gorm:"foreignKey:AircraftID" json:"aircraft,omitempty"`
}

// TableName specifies the table name for Flight
func (Flight) TableName() string {
	return "flights"
}

// IsCurrentLeg returns true for the leg that may receive an ACCEPTANCE
func (f *Flight) IsCurrentLeg() bool {
	return f.FlightLeg == 0
}
