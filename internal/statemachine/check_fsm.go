package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
	"github.com/sjperalta/techlog-api/internal/models"
)

// Check states
const (
	CheckStateUnchecked  = "unchecked"
	CheckStateAuthorized = "authorized"
)

// EventAuthorize is the only check transition
const EventAuthorize = "authorize"

// CheckFSM wraps one check type of a log page's check set
type CheckFSM struct {
	checks    models.CheckSet
	checkType models.CheckType
	fsm       *fsm.FSM
}

// NewCheckFSM creates the one-shot state machine for checkType within checks
func NewCheckFSM(checks models.CheckSet, checkType models.CheckType) *CheckFSM {
	cfsm := &CheckFSM{
		checks:    checks,
		checkType: checkType,
	}

	initial := CheckStateUnchecked
	if checks.Has(checkType) {
		initial = CheckStateAuthorized
	}

	cfsm.fsm = fsm.NewFSM(
		initial,
		fsm.Events{
			// unchecked → authorized (sealed)
			{Name: EventAuthorize, Src: []string{CheckStateUnchecked}, Dst: CheckStateAuthorized},
		},
		fsm.Callbacks{},
	)

	return cfsm
}

// Authorize stores auth into the check set
func (c *CheckFSM) Authorize(ctx context.Context, auth models.CheckAuthorization) error {
	if auth.CheckType != c.checkType {
		return fmt.Errorf("authorization for %s cannot be applied to %s", auth.CheckType, c.checkType)
	}

	if err := c.fsm.Event(ctx, EventAuthorize); err != nil {
		return fmt.Errorf("failed to authorize %s: %w", c.checkType, err)
	}

	c.checks[c.checkType] = auth
	return nil
}

// Current returns the current state
func (c *CheckFSM) Current() string {
	return c.fsm.Current()
}

// Can checks if a transition is possible
func (c *CheckFSM) Can(event string) bool {
	return c.fsm.Can(event)
}
