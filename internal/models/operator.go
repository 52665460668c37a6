package models

import (
	"time"
)

// Operator is a certifying engineer whose auth id appears on sign-offs
type Operator struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AuthID       string    `gorm:"size:64;not null;uniqueIndex" json:"auth_id"`
	Name         string    `gorm:"size:128;not null" json:"name"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName specifies the table name for Operator
func (Operator) TableName() string {
	return "operators"
}
