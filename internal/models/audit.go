package models

import (
	"time"
)

// Audit actions
const (
	AuditActionShortSign  = "SHORT_SIGN"
	AuditActionActionAuth = "ACTION_AUTH"
	AuditActionAuthorize  = "AUTHORIZE_CHECK"
	AuditActionDeicing    = "AUTHORIZE_DEICING"
	AuditActionCreate     = "CREATE"
	AuditActionUpdate     = "UPDATE"
	AuditActionDelete     = "DELETE"
	AuditActionCancelAuth = "CANCEL_AUTH"
)

// AuditLog represents a sign-off or registry change
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`           // API user from the bearer token
	AuthID    string    `gorm:"size:64;index" json:"auth_id"`   // Certifying operator, for sign-offs
	Action    string    `gorm:"size:50;not null" json:"action"` // SHORT_SIGN, ACTION_AUTH, AUTHORIZE_CHECK, CREATE...
	Entity    string    `gorm:"size:50;not null" json:"entity"` // LogEntry, Check, Flight, Deferral...
	EntityID  uint      `json:"entity_id"`
	Details   string    `gorm:"type:text" json:"details"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
