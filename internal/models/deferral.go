package models

import (
	"time"
)

// Deferral categories
const (
	CategoryA = "A"
	CategoryB = "B"
	CategoryC = "C"
	CategoryD = "D"
	CategoryU = "U"
)

// IsValidCategory returns true for the MEL/CDL categories A, B, C, D and U
func IsValidCategory(c string) bool {
	switch c {
	case CategoryA, CategoryB, CategoryC, CategoryD, CategoryU:
		return true
	}
	return false
}

// Deferral is an open maintenance item tracked across log entries by its DEF number
type Deferral struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Number          string     `gorm:"size:16;not null;uniqueIndex" json:"deferral_number"`
	Type            string     `gorm:"size:16" json:"type"`
	Category        string     `gorm:"size:1" json:"category"`
	MELCDLRef       string     `gorm:"column:mel_cdl_ref;size:64" json:"mel_cdl_ref"`
	Description     string     `gorm:"type:text" json:"description"`
	RaisedLogID     *uint      `gorm:"index" json:"raised_log_id"`
	RaisedEntrySeq  *int       `json:"raised_entry_seq"`
	EnteredAuthID   *string    `gorm:"size:64" json:"entered_auth_id"`
	EnteredAuthName *string    `gorm:"size:128" json:"entered_auth_name"`
	EnteredAt       *time.Time `json:"entered_at"`
	ClearedAuthID   *string    `gorm:"size:64" json:"cleared_auth_id"`
	ClearedAuthName *string    `gorm:"size:128" json:"cleared_auth_name"`
	ClearedAt       *time.Time `json:"cleared_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Deferral
func (Deferral) TableName() string {
	return "deferrals"
}

// IsEntered returns true once the raising entry has been authorized
func (d *Deferral) IsEntered() bool {
	return d.EnteredAuthID != nil
}

// IsCleared returns true once a clearing entry has been authorized
func (d *Deferral) IsCleared() bool {
	return d.ClearedAuthID != nil
}

// MarkEntered stamps the entered authorization pair
func (d *Deferral) MarkEntered(s Signoff, at time.Time) {
	d.EnteredAuthID = &s.AuthID
	d.EnteredAuthName = &s.AuthName
	d.EnteredAt = &at
}

// MarkCleared stamps the cleared authorization pair
func (d *Deferral) MarkCleared(s Signoff, at time.Time) {
	d.ClearedAuthID = &s.AuthID
	d.ClearedAuthName = &s.AuthName
	d.ClearedAt = &at
}

// Status returns open, entered or cleared
func (d *Deferral) Status() string {
	switch {
	case d.IsCleared():
		return "cleared"
	case d.IsEntered():
		return "entered"
	default:
		return "open"
	}
}
