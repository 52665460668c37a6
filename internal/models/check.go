package models

import (
	"time"
)

// CheckType names one authorization on a log page
type CheckType string

// Check type constants
const (
	CheckTransit    CheckType = "TRANSIT"
	CheckDaily      CheckType = "DAILY"
	CheckETOPS      CheckType = "ETOPS"
	CheckLetter     CheckType = "LETTER"
	CheckPDI        CheckType = "PDI"
	CheckAcceptance CheckType = "ACCEPTANCE"
	CheckDeicing    CheckType = "DEICING"
)

// GatingChecks must all be authorized before ACCEPTANCE
var GatingChecks = []CheckType{CheckTransit, CheckDaily, CheckETOPS, CheckLetter, CheckPDI}

// LETTER check service options
const (
	SvcOptionA = "A"
	SvcOptionC = "C"
	SvcOptionD = "D"
)

// ParseCheckType validates a check type coming from a request
func ParseCheckType(s string) (CheckType, bool) {
	switch t := CheckType(s); t {
	case CheckTransit, CheckDaily, CheckETOPS, CheckLetter, CheckPDI, CheckAcceptance, CheckDeicing:
		return t, true
	}
	return "", false
}

// IsValidSvcOption returns true for the LETTER service options A, C and D
func IsValidSvcOption(opt string) bool {
	return opt == SvcOptionA || opt == SvcOptionC || opt == SvcOptionD
}

// CheckAuthorization is a granted check on a log page. Its presence seals the check.
type CheckAuthorization struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	LogID         uint      `gorm:"not null;uniqueIndex:idx_check_authorizations_log_type" json:"log_id"`
	CheckType     CheckType `gorm:"size:16;not null;uniqueIndex:idx_check_authorizations_log_type" json:"check_type"`
	AuthID        string    `gorm:"size:64;not null" json:"auth_id"`
	AuthName      string    `gorm:"size:128;not null" json:"auth_name"`
	AuthDate      time.Time `gorm:"not null" json:"auth_date"`
	SvcOption     *string   `gorm:"size:1" json:"svc_option,omitempty"`
	SignaturePath *string   `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for CheckAuthorization
func (CheckAuthorization) TableName() string {
	return "check_authorizations"
}

// CheckSet is the authorizations of one log page keyed by type
type CheckSet map[CheckType]CheckAuthorization

// NewCheckSet indexes a list of authorizations by type
func NewCheckSet(auths []CheckAuthorization) CheckSet {
	set := make(CheckSet, len(auths))
	for _, a := range auths {
		set[a.CheckType] = a
	}
	return set
}

// Has returns true if the check type is authorized
func (s CheckSet) Has(t CheckType) bool {
	_, ok := s[t]
	return ok
}

// Missing lists the types from required that are not authorized, in order
func (s CheckSet) Missing(required []CheckType) []CheckType {
	var missing []CheckType
	for _, t := range required {
		if !s.Has(t) {
			missing = append(missing, t)
		}
	}
	return missing
}

// Sealed returns true once ACCEPTANCE is authorized
func (s CheckSet) Sealed() bool {
	return s.Has(CheckAcceptance)
}

// Clone copies the set so a transition can be staged without mutating the original
func (s CheckSet) Clone() CheckSet {
	c := make(CheckSet, len(s))
	for k, v := range s {
		v.SvcOption = clonePtr(v.SvcOption)
		v.SignaturePath = clonePtr(v.SignaturePath)
		c[k] = v
	}
	return c
}

// List flattens the set in check order
func (s CheckSet) List() []CheckAuthorization {
	order := append(append([]CheckType(nil), GatingChecks...), CheckAcceptance)
	var out []CheckAuthorization
	for _, t := range order {
		if a, ok := s[t]; ok {
			out = append(out, a)
		}
	}
	return out
}

// CheckStatus is the JSON view of one check on a log page
type CheckStatus struct {
	CheckType    CheckType  `json:"check_type"`
	State        string     `json:"state"`
	AuthID       string     `json:"auth_id,omitempty"`
	AuthName     string     `json:"auth_name,omitempty"`
	AuthDate     *time.Time `json:"auth_date,omitempty"`
	SvcOption    *string    `json:"svc_option,omitempty"`
	Authorizable bool       `json:"authorizable"`
}
