package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/sjperalta/techlog-api/internal/capture"
	"github.com/sjperalta/techlog-api/internal/identifier"
	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/sjperalta/techlog-api/internal/statemachine"
	"github.com/sjperalta/techlog-api/pkg/logger"
)

// ComponentInput is one row of the components table as submitted by the user
type ComponentInput struct {
	PartNo    string `json:"part_no" validate:"max=64"`
	SerialOn  string `json:"serial_on" validate:"max=64"`
	PartOff   string `json:"part_off" validate:"max=64"`
	SerialOff string `json:"serial_off" validate:"max=64"`
	GRN       string `json:"grn" validate:"max=64"`
}

// EntryPatch carries the fields to change on an unsealed entry. Nil fields are left alone;
// a non-nil Components replaces the whole table.
type EntryPatch struct {
	Classification        *string           `json:"classification"`
	RaisedBy              *string           `json:"raised_by" validate:"omitempty,max=128"`
	DefectDetails         *string           `json:"defect_details"`
	ATACode               *string           `json:"ata_code" validate:"omitempty,max=16"`
	MMSGFCRef             *string           `json:"mmsg_fc_ref" validate:"omitempty,max=64"`
	SDR                   *bool             `json:"sdr"`
	ActionDetails         *string           `json:"action_details"`
	DeferralChecked       *bool             `json:"deferral_checked"`
	DeferralAction        *string           `json:"deferral_action"`
	DeferralType          *string           `json:"deferral_type"`
	DeferralNumber        *string           `json:"deferral_number" validate:"omitempty,max=16"`
	MELCDLRef             *string           `json:"mel_cdl_ref" validate:"omitempty,max=64"`
	Category              *string           `json:"category"`
	IndependentInspection *bool             `json:"independent_inspection_checked"`
	Components            *[]ComponentInput `json:"components" validate:"omitempty,dive"`
}

func (p EntryPatch) apply(e *models.LogEntry) error {
	if p.Classification != nil {
		switch *p.Classification {
		case models.ClassificationLine, models.ClassificationPirep, models.ClassificationInfoOnly:
			e.Classification = *p.Classification
		default:
			return newValidationError("classification", "must be LINE, PIREP or INFO_ONLY")
		}
	}
	if p.DeferralAction != nil {
		switch *p.DeferralAction {
		case "", models.DeferralActionRaised, models.DeferralActionWorked, models.DeferralActionCleared:
			e.DeferralAction = *p.DeferralAction
		default:
			return newValidationError("deferral_action", "must be RAISED, WORKED or CLEARED")
		}
	}
	if p.DeferralType != nil {
		switch *p.DeferralType {
		case "", models.DeferralTypeMajor, models.DeferralTypeMinor:
			e.DeferralType = *p.DeferralType
		default:
			return newValidationError("deferral_type", "must be MAJOR or MINOR")
		}
	}
	if p.Category != nil {
		if *p.Category != "" && !models.IsValidCategory(*p.Category) {
			return newValidationError("category", "must be one of A, B, C, D or U")
		}
		e.Category = *p.Category
	}

	setString(&e.RaisedBy, p.RaisedBy)
	setString(&e.DefectDetails, p.DefectDetails)
	setString(&e.ATACode, p.ATACode)
	setString(&e.MMSGFCRef, p.MMSGFCRef)
	setString(&e.ActionDetails, p.ActionDetails)
	setString(&e.DeferralNumber, p.DeferralNumber)
	setString(&e.MELCDLRef, p.MELCDLRef)
	setBool(&e.SDR, p.SDR)
	setBool(&e.DeferralChecked, p.DeferralChecked)
	setBool(&e.IndependentInspection, p.IndependentInspection)

	if p.Components != nil {
		rows := make([]models.ComponentRow, len(*p.Components))
		for i, c := range *p.Components {
			rows[i] = models.ComponentRow{
				LogEntryID: e.ID,
				Position:   i + 1,
				PartNo:     c.PartNo,
				SerialOn:   c.SerialOn,
				PartOff:    c.PartOff,
				SerialOff:  c.SerialOff,
				GRN:        c.GRN,
			}
		}
		e.Components = rows
	}

	if e.DeferralChecked && e.DeferralAction == "" {
		return newValidationError("deferral_action", "a deferral action is required when deferral is checked")
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// AddEntry appends a new drafting entry with the next local sequence number
func (s *LogWorkflowState) AddEntry(ctx context.Context, patch EntryPatch) (models.LogEntry, error) {
	if s.pending != nil {
		return models.LogEntry{}, ErrAuthorizationPending
	}

	entry := &models.LogEntry{
		LogID:          s.log.ID,
		Seq:            s.nextSeq(),
		Classification: models.ClassificationLine,
	}
	if err := patch.apply(entry); err != nil {
		return models.LogEntry{}, err
	}
	allocated, err := s.resolveDeferral(ctx, &models.LogEntry{}, entry)
	if err != nil {
		return models.LogEntry{}, err
	}

	saved, err := s.store.SaveLogEntry(ctx, s.log.ID, entry)
	if err != nil {
		s.discardDeferral(ctx, allocated)
		return models.LogEntry{}, collaboratorErr("SaveLogEntry", err)
	}
	if saved == nil {
		saved = entry
	}

	s.entries = append(s.entries, saved)
	logger.Info("Log entry added", "log_id", s.log.ID, "entry_seq", saved.Seq)
	return *saved.Clone(), nil
}

// UpdateEntry edits an entry that is not yet sealed
func (s *LogWorkflowState) UpdateEntry(ctx context.Context, seq int, patch EntryPatch) (models.LogEntry, error) {
	if s.pending != nil {
		return models.LogEntry{}, ErrAuthorizationPending
	}
	entry := s.find(seq)
	if entry == nil {
		return models.LogEntry{}, ErrEntryNotFound
	}
	if entry.IsSealed() {
		return models.LogEntry{}, ErrEntrySealed
	}

	working := entry.Clone()
	if err := patch.apply(working); err != nil {
		return models.LogEntry{}, err
	}
	allocated, err := s.resolveDeferral(ctx, entry, working)
	if err != nil {
		return models.LogEntry{}, err
	}

	saved, err := s.store.SaveLogEntry(ctx, s.log.ID, working)
	if err != nil {
		s.discardDeferral(ctx, allocated)
		return models.LogEntry{}, collaboratorErr("SaveLogEntry", err)
	}
	s.replace(saved, working)
	return *s.find(seq).Clone(), nil
}

// RemoveEntry deletes an entry that is not yet sealed
func (s *LogWorkflowState) RemoveEntry(ctx context.Context, seq int) error {
	if s.pending != nil {
		return ErrAuthorizationPending
	}
	idx := s.indexOf(seq)
	if idx < 0 {
		return ErrEntryNotFound
	}
	entry := s.entries[idx]
	if entry.IsSealed() {
		return ErrEntrySealed
	}

	if entry.ID != 0 {
		if err := s.store.DeleteLogEntry(ctx, s.log.ID, entry.ID); err != nil {
			return collaboratorErr("DeleteLogEntry", err)
		}
	}
	if entry.DeferralChecked && entry.DeferralNumber != "" {
		if d, err := s.deferralRaisedBy(ctx, seq); err == nil && d != nil && !d.IsEntered() {
			s.discardDeferral(ctx, d.Number)
		}
	}

	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	logger.Info("Log entry removed", "log_id", s.log.ID, "entry_seq", seq)
	return nil
}

// RequestShortSign opens the capture dialog for the first-stage sign-off of an entry
func (s *LogWorkflowState) RequestShortSign(ctx context.Context, seq int) error {
	if s.pending != nil {
		return ErrAuthorizationPending
	}
	entry := s.find(seq)
	if entry == nil {
		return ErrEntryNotFound
	}
	if err := shortSignable(entry); err != nil {
		return err
	}

	return s.open(PendingAuthorization{
		Label:    fmt.Sprintf("Short Sign - Entry %d", seq),
		Kind:     PendingShortSign,
		EntrySeq: seq,
	}, func(ctx context.Context, creds capture.Credentials) error {
		return s.completeShortSign(ctx, seq, creds)
	})
}

// RequestActionAuth opens the capture dialog for the terminal sign-off of an entry.
// A sealed entry is rejected without touching the store.
func (s *LogWorkflowState) RequestActionAuth(ctx context.Context, seq int) error {
	if s.pending != nil {
		return ErrAuthorizationPending
	}
	entry := s.find(seq)
	if entry == nil {
		return ErrEntryNotFound
	}
	if err := actionAuthorizable(entry); err != nil {
		return err
	}

	return s.open(PendingAuthorization{
		Label:    fmt.Sprintf("Action Authorization - Entry %d", seq),
		Kind:     PendingActionAuth,
		EntrySeq: seq,
	}, func(ctx context.Context, creds capture.Credentials) error {
		return s.completeActionAuth(ctx, seq, creds)
	})
}

func shortSignable(e *models.LogEntry) error {
	switch e.State() {
	case models.EntryStateSealed:
		return ErrEntrySealed
	case models.EntryStateShortSigned:
		return ErrAlreadyShortSigned
	}
	if !e.HasActionDetails() {
		return newValidationError("action_details", "action details are required before signing")
	}
	return nil
}

func actionAuthorizable(e *models.LogEntry) error {
	switch e.State() {
	case models.EntryStateSealed:
		return ErrEntrySealed
	case models.EntryStateDrafting:
		return ErrShortSignRequired
	}
	if !e.HasActionDetails() {
		return newValidationError("action_details", "action details are required before signing")
	}
	return nil
}

func (s *LogWorkflowState) completeShortSign(ctx context.Context, seq int, creds capture.Credentials) error {
	entry := s.find(seq)
	if entry == nil {
		return ErrEntryNotFound
	}
	if err := shortSignable(entry); err != nil {
		return err
	}

	signoff := signoffFrom(creds)
	working := entry.Clone()
	if err := statemachine.NewEntryFSM(working).ShortSign(ctx, signoff, s.now()); err != nil {
		return err
	}

	path, err := s.saveSignature(ctx, creds, PendingShortSign)
	if err != nil {
		return err
	}
	working.ShortSignSignaturePath = path

	saved, err := s.store.SaveLogEntry(ctx, s.log.ID, working)
	if err != nil {
		s.discardSignature(ctx, path)
		return collaboratorErr("SaveLogEntry", err)
	}
	s.replace(saved, working)

	s.record(ctx, AuthorizationEvent{
		Action:   models.AuditActionShortSign,
		Entity:   "log_entry",
		EntityID: uint(seq),
		Signoff:  signoff,
	})
	return nil
}

func (s *LogWorkflowState) completeActionAuth(ctx context.Context, seq int, creds capture.Credentials) error {
	entry := s.find(seq)
	if entry == nil {
		return ErrEntryNotFound
	}
	if err := actionAuthorizable(entry); err != nil {
		return err
	}

	signoff := signoffFrom(creds)
	at := s.now()
	working := entry.Clone()
	if err := statemachine.NewEntryFSM(working).ActionAuth(ctx, signoff, at); err != nil {
		return err
	}

	path, err := s.saveSignature(ctx, creds, PendingActionAuth)
	if err != nil {
		return err
	}
	working.ActionSignaturePath = path

	revert, err := s.stampDeferral(ctx, working, signoff, at)
	if err != nil {
		s.discardSignature(ctx, path)
		return err
	}

	saved, err := s.store.SaveLogEntry(ctx, s.log.ID, working)
	if err != nil {
		revert(ctx)
		s.discardSignature(ctx, path)
		return collaboratorErr("SaveLogEntry", err)
	}
	s.replace(saved, working)

	s.record(ctx, AuthorizationEvent{
		Action:   models.AuditActionActionAuth,
		Entity:   "log_entry",
		EntityID: uint(seq),
		Signoff:  signoff,
		Details:  working.DeferralNumber,
	})
	return nil
}

// resolveDeferral allocates a DEF number the first time an entry raises a deferral and
// copies the deferral's details onto entries that work or clear an existing one. It
// returns the number when one was allocated by this call.
func (s *LogWorkflowState) resolveDeferral(ctx context.Context, original, working *models.LogEntry) (string, error) {
	if !working.DeferralChecked {
		return "", nil
	}

	switch working.DeferralAction {
	case models.DeferralActionRaised:
		if original.DeferralAction == models.DeferralActionRaised && original.DeferralNumber != "" {
			working.DeferralNumber = original.DeferralNumber
			return "", nil
		}
		// an entry that raised before and was switched away gets its own number back
		d, err := s.deferralRaisedBy(ctx, working.Seq)
		if err != nil {
			return "", err
		}
		if d != nil {
			working.DeferralNumber = d.Number
			return "", nil
		}
		number, err := s.allocateDeferral(ctx, working)
		if err != nil {
			return "", err
		}
		working.DeferralNumber = number
		return number, nil

	case models.DeferralActionWorked, models.DeferralActionCleared:
		if working.DeferralNumber == "" {
			return "", newValidationError("deferral_number", "select the deferral being worked or cleared")
		}
		d, err := s.findDeferral(ctx, working.DeferralNumber)
		if err != nil {
			return "", err
		}
		if d == nil {
			return "", newValidationError("deferral_number", fmt.Sprintf("deferral %s does not exist", working.DeferralNumber))
		}
		changed := working.DeferralNumber != original.DeferralNumber || working.DeferralAction != original.DeferralAction
		if changed && d.IsCleared() {
			return "", newValidationError("deferral_number", fmt.Sprintf("deferral %s is already cleared", d.Number))
		}
		working.DeferralType = d.Type
		working.Category = d.Category
		working.MELCDLRef = d.MELCDLRef
	}
	return "", nil
}

// deferralRaisedBy returns the deferral this page's entry seq raised, if any
func (s *LogWorkflowState) deferralRaisedBy(ctx context.Context, seq int) (*models.Deferral, error) {
	deferrals, err := s.store.FetchDeferrals(ctx)
	if err != nil {
		return nil, collaboratorErr("FetchDeferrals", err)
	}
	for i := range deferrals {
		d := &deferrals[i]
		if d.RaisedLogID != nil && *d.RaisedLogID == s.log.ID && d.RaisedEntrySeq != nil && *d.RaisedEntrySeq == seq {
			return d, nil
		}
	}
	return nil, nil
}

// discardDeferral removes a deferral whose raising entry was never stored
func (s *LogWorkflowState) discardDeferral(ctx context.Context, number string) {
	if number == "" {
		return
	}
	if err := s.store.DeleteDeferral(ctx, number); err != nil {
		logger.Error("Failed to discard deferral", "deferral_number", number, "error", err)
		return
	}
	logger.Info("Deferral discarded", "deferral_number", number, "log_id", s.log.ID)
}

func (s *LogWorkflowState) allocateDeferral(ctx context.Context, entry *models.LogEntry) (string, error) {
	logID := s.log.ID
	seq := entry.Seq

	list := func(ctx context.Context) ([]string, error) {
		deferrals, err := s.store.FetchDeferrals(ctx)
		if err != nil {
			return nil, err
		}
		numbers := make([]string, len(deferrals))
		for i, d := range deferrals {
			numbers[i] = d.Number
		}
		return numbers, nil
	}
	commit := func(ctx context.Context, number string) error {
		return s.store.CreateDeferral(ctx, &models.Deferral{
			Number:         number,
			Type:           entry.DeferralType,
			Category:       entry.Category,
			MELCDLRef:      entry.MELCDLRef,
			Description:    entry.DefectDetails,
			RaisedLogID:    &logID,
			RaisedEntrySeq: &seq,
		})
	}

	number, err := s.opts.Allocator.Allocate(ctx, identifier.PrefixDeferral, list, commit)
	if err != nil {
		return "", collaboratorErr("AllocateDeferral", err)
	}
	logger.Info("Deferral raised", "deferral_number", number, "log_id", logID, "entry_seq", seq)
	return number, nil
}

func (s *LogWorkflowState) findDeferral(ctx context.Context, number string) (*models.Deferral, error) {
	deferrals, err := s.store.FetchDeferrals(ctx)
	if err != nil {
		return nil, collaboratorErr("FetchDeferrals", err)
	}
	for i := range deferrals {
		if deferrals[i].Number == number {
			return &deferrals[i], nil
		}
	}
	return nil, nil
}

// stampDeferral records the entered or cleared authorization on the deferral referenced by
// a sealing entry. The returned func restores the previous record.
func (s *LogWorkflowState) stampDeferral(ctx context.Context, entry *models.LogEntry, signoff models.Signoff, at time.Time) (func(context.Context), error) {
	noop := func(context.Context) {}
	if !entry.DeferralChecked || entry.DeferralNumber == "" {
		return noop, nil
	}
	if entry.DeferralAction != models.DeferralActionRaised && entry.DeferralAction != models.DeferralActionCleared {
		return noop, nil
	}

	d, err := s.findDeferral(ctx, entry.DeferralNumber)
	if err != nil {
		return nil, err
	}
	if d == nil {
		logger.Warn("Deferral referenced by entry not found", "deferral_number", entry.DeferralNumber, "entry_seq", entry.Seq)
		return noop, nil
	}

	if entry.DeferralAction == models.DeferralActionCleared && d.IsCleared() {
		return nil, newValidationError("deferral_number", fmt.Sprintf("deferral %s is already cleared", d.Number))
	}

	before := *d
	if entry.DeferralAction == models.DeferralActionRaised {
		d.MarkEntered(signoff, at)
	} else {
		d.MarkCleared(signoff, at)
	}
	if err := s.store.UpdateDeferral(ctx, d); err != nil {
		return nil, collaboratorErr("UpdateDeferral", err)
	}

	return func(ctx context.Context) {
		if err := s.store.UpdateDeferral(ctx, &before); err != nil {
			logger.Error("Failed to revert deferral", "deferral_number", before.Number, "error", err)
		}
	}, nil
}

func (s *LogWorkflowState) find(seq int) *models.LogEntry {
	if i := s.indexOf(seq); i >= 0 {
		return s.entries[i]
	}
	return nil
}

func (s *LogWorkflowState) indexOf(seq int) int {
	for i, e := range s.entries {
		if e.Seq == seq {
			return i
		}
	}
	return -1
}

func (s *LogWorkflowState) nextSeq() int {
	highest := 0
	for _, e := range s.entries {
		if e.Seq > highest {
			highest = e.Seq
		}
	}
	return highest + 1
}

// replace swaps in the persisted entry; working is used when the store echoes nothing back
func (s *LogWorkflowState) replace(saved, working *models.LogEntry) {
	if saved == nil {
		saved = working
	}
	if i := s.indexOf(working.Seq); i >= 0 {
		s.entries[i] = saved
	}
}
