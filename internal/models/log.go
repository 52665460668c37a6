package models

import (
	"time"
)

// Log is one log page bound to one flight leg
type Log struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	LogPageNumber int       `gorm:"not null;uniqueIndex" json:"log_page_number"`
	FlightID      uint      `gorm:"not null;index" json:"flight_id"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Associations
	Flight  Flight               `gorm:"foreignKey:FlightID" json:"flight"`
	Entries []LogEntry           `gorm:"foreignKey:LogID" json:"entries,omitempty"`
	Checks  []CheckAuthorization `gorm:"foreignKey:LogID" json:"-"`
}

// TableName specifies the table name for Log
func (Log) TableName() string {
	return "logs"
}

// LogSummary is the navigator's view of a log page
type LogSummary struct {
	ID            uint      `json:"id"`
	LogPageNumber int       `json:"log_page_number"`
	FlightID      uint      `json:"flight_id"`
	FlightNumber  string    `json:"flight_number"`
	FlightLeg     int       `json:"flight_leg"`
	CurrentFlight bool      `json:"current_flight"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToSummary converts Log to LogSummary using its loaded flight
func (l *Log) ToSummary() LogSummary {
	return LogSummary{
		ID:            l.ID,
		LogPageNumber: l.LogPageNumber,
		FlightID:      l.FlightID,
		FlightNumber:  l.Flight.FlightNumber,
		FlightLeg:     l.Flight.FlightLeg,
		CurrentFlight: l.Flight.CurrentFlight,
		CreatedAt:     l.CreatedAt,
	}
}
