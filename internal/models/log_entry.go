package models

import (
	"strings"
	"time"
)

// Entry classification constants
const (
	ClassificationLine     = "LINE"
	ClassificationPirep    = "PIREP"
	ClassificationInfoOnly = "INFO_ONLY"
)

// Deferral action constants
const (
	DeferralActionRaised  = "RAISED"
	DeferralActionWorked  = "WORKED"
	DeferralActionCleared = "CLEARED"
)

// Deferral type constants
const (
	DeferralTypeMajor = "MAJOR"
	DeferralTypeMinor = "MINOR"
)

// Entry lifecycle states. The state is derived from which sign-offs are present.
const (
	EntryStateDrafting    = "drafting"
	EntryStateShortSigned = "short_signed"
	EntryStateSealed      = "sealed"
)

// IndependentInspectionStatements are shown on an entry when independent inspection is checked
var IndependentInspectionStatements = [2]string{
	"I certify that the work specified was carried out in accordance with the approved data and the aircraft is considered ready for release to service in respect of that work.",
	"I certify that an independent inspection of the work specified has been carried out and the work has been found to be satisfactory.",
}

// Signoff is the {authId, authName} pair recorded by an authorization
type Signoff struct {
	AuthID   string `json:"auth_id"`
	AuthName string `json:"auth_name"`
}

// LogEntry is one defect/action record on a log page
type LogEntry struct {
	ID                     uint           `gorm:"primaryKey" json:"persisted_id"`
	LogID                  uint           `gorm:"not null;uniqueIndex:idx_log_entries_log_seq" json:"log_id"`
	Seq                    int            `gorm:"not null;uniqueIndex:idx_log_entries_log_seq" json:"id"`
	Classification         string         `gorm:"size:16;not null;default:LINE" json:"classification"`
	RaisedBy               string         `gorm:"size:128" json:"raised_by"`
	DefectDetails          string         `gorm:"type:text" json:"defect_details"`
	ATACode                string         `gorm:"size:16" json:"ata_code"`
	MMSGFCRef              string         `gorm:"column:mmsg_fc_ref;size:64" json:"mmsg_fc_ref"`
	SDR                    bool           `gorm:"column:sdr;default:false" json:"sdr"`
	ActionDetails          string         `gorm:"type:text" json:"action_details"`
	DeferralChecked        bool           `gorm:"default:false" json:"deferral_checked"`
	DeferralAction         string         `gorm:"size:16" json:"deferral_action"`
	DeferralType           string         `gorm:"size:16" json:"deferral_type"`
	DeferralNumber         string         `gorm:"size:16;index" json:"deferral_number"`
	MELCDLRef              string         `gorm:"column:mel_cdl_ref;size:64" json:"mel_cdl_ref"`
	Category               string         `gorm:"size:1" json:"category"`
	IndependentInspection  bool           `gorm:"default:false" json:"independent_inspection_checked"`
	Components             []ComponentRow `gorm:"foreignKey:LogEntryID;constraint:OnDelete:CASCADE" json:"components"`
	ShortSignAuthID        *string        `gorm:"size:64" json:"-"`
	ShortSignAuthName      *string        `gorm:"size:128" json:"-"`
	ShortSignedAt          *time.Time     `json:"short_signed_at"`
	ShortSignSignaturePath *string        `json:"-"`
	ActionAuthID           *string        `gorm:"size:64" json:"-"`
	ActionAuthName         *string        `gorm:"size:128" json:"-"`
	ActionAuthAt           *time.Time     `json:"action_auth_at"`
	ActionSignaturePath    *string        `json:"-"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// TableName specifies the table name for LogEntry
func (LogEntry) TableName() string {
	return "log_entries"
}

// ComponentRow is a part swapped during the action, ordered by Position
type ComponentRow struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	LogEntryID uint   `gorm:"not null;index" json:"-"`
	Position   int    `gorm:"not null" json:"position"`
	PartNo     string `gorm:"size:64" json:"part_no"`
	SerialOn   string `gorm:"size:64" json:"serial_on"`
	PartOff    string `gorm:"size:64" json:"part_off"`
	SerialOff  string `gorm:"size:64" json:"serial_off"`
	GRN        string `gorm:"column:grn;size:64" json:"grn"`
}

// TableName specifies the table name for ComponentRow
func (ComponentRow) TableName() string {
	return "log_entry_components"
}

// ShortSign returns the short-sign authorization, or nil when absent
func (e *LogEntry) ShortSign() *Signoff {
	if e.ShortSignAuthID == nil {
		return nil
	}
	return &Signoff{AuthID: *e.ShortSignAuthID, AuthName: deref(e.ShortSignAuthName)}
}

// ActionAuth returns the action authorization, or nil when absent
func (e *LogEntry) ActionAuth() *Signoff {
	if e.ActionAuthID == nil {
		return nil
	}
	return &Signoff{AuthID: *e.ActionAuthID, AuthName: deref(e.ActionAuthName)}
}

// SetShortSign records the first-stage authorization
func (e *LogEntry) SetShortSign(s Signoff, at time.Time) {
	e.ShortSignAuthID = &s.AuthID
	e.ShortSignAuthName = &s.AuthName
	e.ShortSignedAt = &at
}

// SetActionAuth records the terminal authorization
func (e *LogEntry) SetActionAuth(s Signoff, at time.Time) {
	e.ActionAuthID = &s.AuthID
	e.ActionAuthName = &s.AuthName
	e.ActionAuthAt = &at
}

// State derives the lifecycle state from the recorded sign-offs
func (e *LogEntry) State() string {
	switch {
	case e.ShortSignAuthID != nil && e.ActionAuthID != nil:
		return EntryStateSealed
	case e.ShortSignAuthID != nil:
		return EntryStateShortSigned
	default:
		return EntryStateDrafting
	}
}

// IsSealed returns true once both sign-offs are present
func (e *LogEntry) IsSealed() bool {
	return e.State() == EntryStateSealed
}

// HasActionDetails returns true if the justification text is filled in
func (e *LogEntry) HasActionDetails() bool {
	return strings.TrimSpace(e.ActionDetails) != ""
}

// MayShortSign returns true if the entry can receive its short sign
func (e *LogEntry) MayShortSign() bool {
	return e.State() == EntryStateDrafting && e.HasActionDetails()
}

// MayActionAuth returns true if the entry can receive its action authorization
func (e *LogEntry) MayActionAuth() bool {
	return e.State() == EntryStateShortSigned && e.HasActionDetails()
}

// Clone returns a deep copy so a transition can be attempted without touching the original
func (e *LogEntry) Clone() *LogEntry {
	c := *e
	c.Components = append([]ComponentRow(nil), e.Components...)
	c.ShortSignAuthID = clonePtr(e.ShortSignAuthID)
	c.ShortSignAuthName = clonePtr(e.ShortSignAuthName)
	c.ShortSignedAt = clonePtr(e.ShortSignedAt)
	c.ShortSignSignaturePath = clonePtr(e.ShortSignSignaturePath)
	c.ActionAuthID = clonePtr(e.ActionAuthID)
	c.ActionAuthName = clonePtr(e.ActionAuthName)
	c.ActionAuthAt = clonePtr(e.ActionAuthAt)
	c.ActionSignaturePath = clonePtr(e.ActionSignaturePath)
	return &c
}

// LogEntryResponse is the JSON response format for log entries
type LogEntryResponse struct {
	ID                    int            `json:"id"`
	PersistedID           *uint          `json:"persisted_id"`
	State                 string         `json:"state"`
	Classification        string         `json:"classification"`
	RaisedBy              string         `json:"raised_by"`
	DefectDetails         string         `json:"defect_details"`
	ATACode               string         `json:"ata_code"`
	MMSGFCRef             string         `json:"mmsg_fc_ref"`
	SDR                   bool           `json:"sdr"`
	ActionDetails         string         `json:"action_details"`
	DeferralChecked       bool           `json:"deferral_checked"`
	DeferralAction        string         `json:"deferral_action,omitempty"`
	DeferralType          string         `json:"deferral_type,omitempty"`
	DeferralNumber        string         `json:"deferral_number,omitempty"`
	MELCDLRef             string         `json:"mel_cdl_ref,omitempty"`
	Category              string         `json:"category,omitempty"`
	IndependentInspection bool           `json:"independent_inspection_checked"`
	InspectionStatements  []string       `json:"inspection_statements,omitempty"`
	Components            []ComponentRow `json:"components"`
	ShortSignAuth         *Signoff       `json:"short_sign_auth"`
	ShortSignedAt         *time.Time     `json:"short_signed_at,omitempty"`
	ActionAuth            *Signoff       `json:"action_auth"`
	ActionAuthAt          *time.Time     `json:"action_auth_at,omitempty"`
	CanShortSign          bool           `json:"can_short_sign"`
	CanActionAuth         bool           `json:"can_action_auth"`
	Editable              bool           `json:"editable"`
}

// ToResponse converts LogEntry to LogEntryResponse
func (e *LogEntry) ToResponse() LogEntryResponse {
	resp := LogEntryResponse{
		ID:                    e.Seq,
		State:                 e.State(),
		Classification:        e.Classification,
		RaisedBy:              e.RaisedBy,
		DefectDetails:         e.DefectDetails,
		ATACode:               e.ATACode,
		MMSGFCRef:             e.MMSGFCRef,
		SDR:                   e.SDR,
		ActionDetails:         e.ActionDetails,
		DeferralChecked:       e.DeferralChecked,
		IndependentInspection: e.IndependentInspection,
		Components:            e.Components,
		ShortSignAuth:         e.ShortSign(),
		ShortSignedAt:         e.ShortSignedAt,
		ActionAuth:            e.ActionAuth(),
		ActionAuthAt:          e.ActionAuthAt,
		CanShortSign:          e.MayShortSign(),
		CanActionAuth:         e.MayActionAuth(),
		Editable:              !e.IsSealed(),
	}

	if e.ID != 0 {
		id := e.ID
		resp.PersistedID = &id
	}
	if resp.Components == nil {
		resp.Components = []ComponentRow{}
	}

	// Deferral sub-fields only apply while the deferral box is ticked
	if e.DeferralChecked {
		resp.DeferralAction = e.DeferralAction
		resp.DeferralType = e.DeferralType
		resp.DeferralNumber = e.DeferralNumber
		resp.MELCDLRef = e.MELCDLRef
		resp.Category = e.Category
	}
	if e.IndependentInspection {
		resp.InspectionStatements = IndependentInspectionStatements[:]
	}

	return resp
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
