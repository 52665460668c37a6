package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sjperalta/techlog-api/internal/capture"
	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/sjperalta/techlog-api/internal/statemachine"
	"gorm.io/datatypes"
)

// CheckStatuses lists the gating checks and ACCEPTANCE with whether each may be authorized now
func (s *LogWorkflowState) CheckStatuses() []models.CheckStatus {
	order := append(append([]models.CheckType(nil), models.GatingChecks...), models.CheckAcceptance)
	out := make([]models.CheckStatus, 0, len(order))

	for _, t := range order {
		status := models.CheckStatus{CheckType: t, State: statemachine.CheckStateUnchecked}
		if auth, ok := s.checks[t]; ok {
			at := auth.AuthDate
			status.State = statemachine.CheckStateAuthorized
			status.AuthID = auth.AuthID
			status.AuthName = auth.AuthName
			status.AuthDate = &at
			status.SvcOption = auth.SvcOption
		}
		// LETTER also needs a service option, which is chosen at request time
		status.Authorizable = s.pending == nil && s.checkAuthorizable(t, models.SvcOptionA) == nil
		out = append(out, status)
	}
	return out
}

// RequestCheckAuthorization opens the capture dialog for one of the gating checks or ACCEPTANCE.
// svcOption is required for LETTER and ignored otherwise.
func (s *LogWorkflowState) RequestCheckAuthorization(ctx context.Context, t models.CheckType, svcOption string) error {
	if s.pending != nil {
		return ErrAuthorizationPending
	}
	if t == models.CheckDeicing {
		return fmt.Errorf("%w: %s is authorized through the fluids record", ErrUnknownCheck, t)
	}
	if !isSealableCheck(t) {
		return fmt.Errorf("%w: %s", ErrUnknownCheck, t)
	}
	if err := s.checkAuthorizable(t, svcOption); err != nil {
		return err
	}

	return s.open(PendingAuthorization{
		Label: string(t),
		Kind:  PendingCheck,
		Check: t,
	}, func(ctx context.Context, creds capture.Credentials) error {
		return s.completeCheck(ctx, t, svcOption, creds)
	})
}

func isSealableCheck(t models.CheckType) bool {
	if t == models.CheckAcceptance {
		return true
	}
	for _, g := range models.GatingChecks {
		if g == t {
			return true
		}
	}
	return false
}

// checkAuthorizable applies the gating rules. For ACCEPTANCE the leg is checked before
// completeness so a historical page is rejected whatever its checks.
func (s *LogWorkflowState) checkAuthorizable(t models.CheckType, svcOption string) error {
	if s.checks.Sealed() {
		return ErrCheckSetSealed
	}
	if s.checks.Has(t) {
		return ErrCheckSealed
	}

	switch t {
	case models.CheckLetter:
		if !models.IsValidSvcOption(svcOption) {
			return newValidationError("svc_option", "LETTER check requires service option A, C or D")
		}
	case models.CheckAcceptance:
		if !s.log.Flight.IsCurrentLeg() {
			return ErrNotCurrentLeg
		}
		if missing := s.checks.Missing(models.GatingChecks); len(missing) > 0 {
			return &ValidationError{
				Field:   "checks",
				Message: "all checks must be authorized before acceptance",
				Missing: missing,
			}
		}
	}
	return nil
}

func (s *LogWorkflowState) completeCheck(ctx context.Context, t models.CheckType, svcOption string, creds capture.Credentials) error {
	if err := s.checkAuthorizable(t, svcOption); err != nil {
		return err
	}

	signoff := signoffFrom(creds)
	auth := models.CheckAuthorization{
		LogID:     s.log.ID,
		CheckType: t,
		AuthID:    signoff.AuthID,
		AuthName:  signoff.AuthName,
		AuthDate:  s.now(),
	}
	if t == models.CheckLetter {
		opt := svcOption
		auth.SvcOption = &opt
	}

	path, err := s.saveSignature(ctx, creds, strings.ToLower(string(t)))
	if err != nil {
		return err
	}
	auth.SignaturePath = path

	next := s.checks.Clone()
	if err := statemachine.NewCheckFSM(next, t).Authorize(ctx, auth); err != nil {
		s.discardSignature(ctx, path)
		return err
	}
	if err := s.store.SaveChecks(ctx, s.log.ID, next); err != nil {
		s.discardSignature(ctx, path)
		return collaboratorErr("SaveChecks", err)
	}
	s.checks = next

	details := ""
	if auth.SvcOption != nil {
		details = "svc option " + *auth.SvcOption
	}
	s.record(ctx, AuthorizationEvent{
		Action:   models.AuditActionAuthorize,
		Entity:   "check:" + string(t),
		EntityID: s.log.ID,
		Signoff:  signoff,
		Details:  details,
	})
	return nil
}

// UpdateFluids saves the fluids sheet without authorizing it
func (s *LogWorkflowState) UpdateFluids(ctx context.Context, data json.RawMessage, description string) (*models.FluidsRecord, error) {
	if s.pending != nil {
		return nil, ErrAuthorizationPending
	}
	if s.fluids.IsAuthorized() {
		return nil, ErrCheckSealed
	}
	if err := validateFluidsData(data); err != nil {
		return nil, err
	}

	record := s.stageFluids(data, description)
	if err := s.store.SaveFluids(ctx, s.log.ID, record); err != nil {
		return nil, collaboratorErr("SaveFluids", err)
	}
	s.fluids = record
	return s.Fluids(), nil
}

// RequestDeicingAuthorization opens the capture dialog for the DEICING sign-off. The fluids
// description is the justification and must not be empty.
func (s *LogWorkflowState) RequestDeicingAuthorization(ctx context.Context, data json.RawMessage, description string) error {
	if s.pending != nil {
		return ErrAuthorizationPending
	}
	if s.fluids.IsAuthorized() {
		return ErrCheckSealed
	}
	if strings.TrimSpace(description) == "" {
		return newValidationError("description", "fluids description is required before de-icing authorization")
	}
	if err := validateFluidsData(data); err != nil {
		return err
	}

	return s.open(PendingAuthorization{
		Label: string(models.CheckDeicing),
		Kind:  PendingDeicing,
		Check: models.CheckDeicing,
	}, func(ctx context.Context, creds capture.Credentials) error {
		return s.completeDeicing(ctx, data, description, creds)
	})
}

func (s *LogWorkflowState) completeDeicing(ctx context.Context, data json.RawMessage, description string, creds capture.Credentials) error {
	if s.fluids.IsAuthorized() {
		return ErrCheckSealed
	}

	signoff := signoffFrom(creds)
	record := s.stageFluids(data, description)
	at := s.now()
	record.AuthID = &signoff.AuthID
	record.AuthName = &signoff.AuthName
	record.AuthDate = &at

	path, err := s.saveSignature(ctx, creds, PendingDeicing)
	if err != nil {
		return err
	}
	record.SignaturePath = path

	if err := s.store.SaveFluids(ctx, s.log.ID, record); err != nil {
		s.discardSignature(ctx, path)
		return collaboratorErr("SaveFluids", err)
	}
	s.fluids = record

	s.record(ctx, AuthorizationEvent{
		Action:   models.AuditActionDeicing,
		Entity:   "fluids_record",
		EntityID: s.log.ID,
		Signoff:  signoff,
	})
	return nil
}

func (s *LogWorkflowState) stageFluids(data json.RawMessage, description string) *models.FluidsRecord {
	record := &models.FluidsRecord{LogID: s.log.ID, Description: description}
	if s.fluids != nil {
		record.ID = s.fluids.ID
		record.CreatedAt = s.fluids.CreatedAt
		record.Data = s.fluids.Data
	}
	if len(data) > 0 {
		record.Data = datatypes.JSON(data)
	}
	return record
}

func validateFluidsData(data json.RawMessage) error {
	if len(data) > 0 && !json.Valid(data) {
		return newValidationError("data", "fluids data must be valid JSON")
	}
	return nil
}
