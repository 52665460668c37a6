package statemachine

import (
	"context"
	"fmt"
	"time"

	"github.com/looplab/fsm"
	"github.com/sjperalta/techlog-api/internal/models"
)

// Entry events
const (
	EventShortSign  = "short_sign"
	EventActionAuth = "action_auth"
)

// EntryFSM wraps a log entry with its sign-off state machine
type EntryFSM struct {
	entry *models.LogEntry
	fsm   *fsm.FSM
}

// NewEntryFSM creates a new entry state machine starting from the entry's derived state
func NewEntryFSM(entry *models.LogEntry) *EntryFSM {
	efsm := &EntryFSM{
		entry: entry,
	}

	efsm.fsm = fsm.NewFSM(
		entry.State(),
		fsm.Events{
			// drafting → short_signed
			{Name: EventShortSign, Src: []string{models.EntryStateDrafting}, Dst: models.EntryStateShortSigned},

			// short_signed → sealed (terminal)
			{Name: EventActionAuth, Src: []string{models.EntryStateShortSigned}, Dst: models.EntryStateSealed},
		},
		fsm.Callbacks{},
	)

	return efsm
}

// ShortSign records the first-stage authorization
func (e *EntryFSM) ShortSign(ctx context.Context, signoff models.Signoff, at time.Time) error {
	if !e.entry.MayShortSign() {
		return fmt.Errorf("entry %d cannot be short signed in current state: %s", e.entry.Seq, e.entry.State())
	}

	if err := e.fsm.Event(ctx, EventShortSign); err != nil {
		return fmt.Errorf("failed to short sign entry: %w", err)
	}

	e.entry.SetShortSign(signoff, at)
	return nil
}

// ActionAuth records the terminal authorization and seals the entry
func (e *EntryFSM) ActionAuth(ctx context.Context, signoff models.Signoff, at time.Time) error {
	if !e.entry.MayActionAuth() {
		return fmt.Errorf("entry %d cannot be action authorized in current state: %s", e.entry.Seq, e.entry.State())
	}

	if err := e.fsm.Event(ctx, EventActionAuth); err != nil {
		return fmt.Errorf("failed to action authorize entry: %w", err)
	}

	e.entry.SetActionAuth(signoff, at)
	return nil
}

// Current returns the current state
func (e *EntryFSM) Current() string {
	return e.fsm.Current()
}

// Can checks if a transition is possible
func (e *EntryFSM) Can(event string) bool {
	return e.fsm.Can(event)
}
