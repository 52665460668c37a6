// Package workflow owns the sign-off rules of one log page: entry lifecycle, check
// gating and the de-icing authorization. All mutation goes through LogWorkflowState
// so the invariants are checked in one place.
package workflow

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sjperalta/techlog-api/internal/capture"
	"github.com/sjperalta/techlog-api/internal/identifier"
	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/sjperalta/techlog-api/pkg/logger"
)

// Pending authorization kinds
const (
	PendingShortSign  = "short_sign"
	PendingActionAuth = "action_auth"
	PendingCheck      = "check"
	PendingDeicing    = "deicing"
)

// Options carries the optional collaborators of a LogWorkflowState
type Options struct {
	Allocator  *identifier.Allocator
	Signatures SignatureSink
	Recorder   Recorder
	Now        func() time.Time
}

// PendingAuthorization describes the transition waiting on the capture dialog
type PendingAuthorization struct {
	Label    string           `json:"label"`
	Kind     string           `json:"kind"`
	EntrySeq int              `json:"entry_id,omitempty"`
	Check    models.CheckType `json:"check_type,omitempty"`
}

// LogWorkflowState is the single owner of one log page's entries, checks and fluids record
type LogWorkflowState struct {
	store  Store
	dialog *capture.Controller
	opts   Options

	log     *models.Log
	entries []*models.LogEntry
	checks  models.CheckSet
	fluids  *models.FluidsRecord
	pending *PendingAuthorization
}

// Load reads a log page with its entries, checks and fluids record. Nothing is cached:
// every call is a fresh read.
func Load(ctx context.Context, store Store, dialog *capture.Controller, logID uint, opts Options) (*LogWorkflowState, error) {
	if opts.Allocator == nil {
		opts.Allocator = identifier.NewAllocator(5)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	log, err := store.FetchLog(ctx, logID)
	if err != nil {
		return nil, collaboratorErr("FetchLog", err)
	}
	checks, err := store.FetchChecks(ctx, logID)
	if err != nil {
		return nil, collaboratorErr("FetchChecks", err)
	}
	fluids, err := store.FetchFluidsAndDeicingAuth(ctx, logID)
	if err != nil {
		return nil, collaboratorErr("FetchFluidsAndDeicingAuth", err)
	}
	if checks == nil {
		checks = models.CheckSet{}
	}

	entries := make([]*models.LogEntry, 0, len(log.Entries))
	for i := range log.Entries {
		entries = append(entries, log.Entries[i].Clone())
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	log.Entries = nil

	return &LogWorkflowState{
		store:   store,
		dialog:  dialog,
		opts:    opts,
		log:     log,
		entries: entries,
		checks:  checks,
		fluids:  fluids,
	}, nil
}

// LogID returns the id of the log page
func (s *LogWorkflowState) LogID() uint {
	return s.log.ID
}

// Log returns the log page header with its flight
func (s *LogWorkflowState) Log() models.Log {
	return *s.log
}

// Entries returns copies of the entries in sequence order
func (s *LogWorkflowState) Entries() []models.LogEntry {
	out := make([]models.LogEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = *e.Clone()
	}
	return out
}

// Entry returns a copy of the entry with the given local sequence number
func (s *LogWorkflowState) Entry(seq int) (models.LogEntry, bool) {
	e := s.find(seq)
	if e == nil {
		return models.LogEntry{}, false
	}
	return *e.Clone(), true
}

// Checks returns a copy of the check set
func (s *LogWorkflowState) Checks() models.CheckSet {
	return s.checks.Clone()
}

// Fluids returns a copy of the fluids record, or nil
func (s *LogWorkflowState) Fluids() *models.FluidsRecord {
	if s.fluids == nil {
		return nil
	}
	f := *s.fluids
	return &f
}

// Pending returns the transition waiting on the capture dialog, or nil
func (s *LogWorkflowState) Pending() *PendingAuthorization {
	if s.pending == nil {
		return nil
	}
	p := *s.pending
	return &p
}

// HasPending returns true while a capture dialog is open for this page
func (s *LogWorkflowState) HasPending() bool {
	return s.pending != nil
}

// open registers the pending transition and hands the request to the capture dialog.
// The pending marker is cleared when the dialog resolves or is cancelled.
func (s *LogWorkflowState) open(p PendingAuthorization, onResolve func(ctx context.Context, creds capture.Credentials) error) error {
	if s.pending != nil {
		return ErrAuthorizationPending
	}

	req := capture.Request{
		Label: p.Label,
		OnResolve: func(ctx context.Context, creds capture.Credentials) error {
			defer s.clearPending()
			return onResolve(ctx, creds)
		},
		OnCancel: s.clearPending,
	}

	s.pending = &p
	if err := s.dialog.Open(req); err != nil {
		s.pending = nil
		if errors.Is(err, capture.ErrBusy) {
			return ErrAuthorizationPending
		}
		return err
	}
	return nil
}

func (s *LogWorkflowState) clearPending() {
	s.pending = nil
}

func (s *LogWorkflowState) now() time.Time {
	return s.opts.Now()
}

func (s *LogWorkflowState) saveSignature(ctx context.Context, creds capture.Credentials, kind string) (*string, error) {
	if !creds.HasSignature() || s.opts.Signatures == nil {
		return nil, nil
	}
	path, err := s.opts.Signatures.SaveSignature(ctx, creds.Signature, kind)
	if err != nil {
		return nil, collaboratorErr("SaveSignature", err)
	}
	return &path, nil
}

func (s *LogWorkflowState) discardSignature(ctx context.Context, path *string) {
	if path == nil || s.opts.Signatures == nil {
		return
	}
	if err := s.opts.Signatures.DeleteSignature(ctx, *path); err != nil {
		logger.Warn("Failed to discard signature", "path", *path, "error", err)
	}
}

func (s *LogWorkflowState) record(ctx context.Context, event AuthorizationEvent) {
	event.LogID = s.log.ID
	logger.Info("Authorization granted",
		"action", event.Action,
		"entity", event.Entity,
		"entity_id", event.EntityID,
		"log_id", event.LogID,
		"auth_id", event.Signoff.AuthID,
	)
	if s.opts.Recorder != nil {
		s.opts.Recorder.RecordAuthorization(ctx, event)
	}
}

func signoffFrom(creds capture.Credentials) models.Signoff {
	return models.Signoff{AuthID: creds.AuthID, AuthName: creds.AuthName}
}
