package models

import (
	"time"

	"gorm.io/datatypes"
)

// FluidsRecord holds a log page's fluid uplift / de-icing sheet and its DEICING authorization
type FluidsRecord struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	LogID         uint           `gorm:"not null;uniqueIndex" json:"log_id"`
	Data          datatypes.JSON `gorm:"type:jsonb" json:"data"`
	Description   string         `gorm:"type:text" json:"description"`
	AuthID        *string        `gorm:"size:64" json:"auth_id"`
	AuthName      *string        `gorm:"size:128" json:"auth_name"`
	AuthDate      *time.Time     `json:"auth_date"`
	SignaturePath *string        `json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName specifies the table name for FluidsRecord
func (FluidsRecord) TableName() string {
	return "fluids_records"
}

// IsAuthorized returns true once DEICING has been signed; the record is then sealed
func (f *FluidsRecord) IsAuthorized() bool {
	return f != nil && f.AuthID != nil
}
