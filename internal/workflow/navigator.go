package workflow

import (
	"context"
	"sort"

	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/sjperalta/techlog-api/pkg/logger"
)

// Loader opens the workflow state of one log page
type Loader func(ctx context.Context, logID uint) (*LogWorkflowState, error)

// Navigator moves between log pages in creation order. It never moves past the page of
// the current flight.
type Navigator struct {
	store Store
	load  Loader

	logs         []models.Log
	selected     int
	currentIndex int
	state        *LogWorkflowState
}

// NewNavigator creates a navigator; call Load before using it
func NewNavigator(store Store, load Loader) *Navigator {
	return &Navigator{
		store:        store,
		load:         load,
		selected:     -1,
		currentIndex: -1,
	}
}

// Load reads the log pages and their flights and selects the current flight's page,
// or the newest page when no flight is current.
func (n *Navigator) Load(ctx context.Context) error {
	logs, err := n.store.FetchLogs(ctx)
	if err != nil {
		return collaboratorErr("FetchLogs", err)
	}
	if len(logs) == 0 {
		return ErrNoLogs
	}
	flights, err := n.store.FetchFlights(ctx)
	if err != nil {
		return collaboratorErr("FetchFlights", err)
	}

	byID := make(map[uint]models.Flight, len(flights))
	for _, f := range flights {
		byID[f.ID] = f
	}
	for i := range logs {
		if f, ok := byID[logs[i].FlightID]; ok {
			logs[i].Flight = f
		}
		logs[i].Entries = nil
	}

	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].CreatedAt.Equal(logs[j].CreatedAt) {
			return logs[i].ID < logs[j].ID
		}
		return logs[i].CreatedAt.Before(logs[j].CreatedAt)
	})

	current := -1
	for i := range logs {
		if logs[i].Flight.CurrentFlight {
			current = i
		}
	}
	selected := current
	if selected < 0 {
		logger.Warn("No current flight among log pages, selecting newest", "logs", len(logs))
		selected = len(logs) - 1
	}

	state, err := n.load(ctx, logs[selected].ID)
	if err != nil {
		return err
	}

	n.logs = logs
	n.currentIndex = current
	n.selected = selected
	n.state = state
	return nil
}

// Previous moves to the older page. It reports false when already on the first page.
func (n *Navigator) Previous(ctx context.Context) (bool, error) {
	if n.state != nil && n.state.HasPending() {
		return false, ErrAuthorizationPending
	}
	if n.selected <= 0 {
		return false, nil
	}
	return n.moveTo(ctx, n.selected-1)
}

// Next moves to the newer page. It is a no-op on the current flight's page.
func (n *Navigator) Next(ctx context.Context) (bool, error) {
	if n.state != nil && n.state.HasPending() {
		return false, ErrAuthorizationPending
	}
	if !n.CanNext() {
		return false, nil
	}
	return n.moveTo(ctx, n.selected+1)
}

// Reload re-reads the selected page
func (n *Navigator) Reload(ctx context.Context) error {
	if n.selected < 0 {
		return n.Load(ctx)
	}
	if n.state != nil && n.state.HasPending() {
		return ErrAuthorizationPending
	}
	_, err := n.moveTo(ctx, n.selected)
	return err
}

// moveTo reads the target page fresh; on failure the selection is left unchanged
func (n *Navigator) moveTo(ctx context.Context, idx int) (bool, error) {
	state, err := n.load(ctx, n.logs[idx].ID)
	if err != nil {
		return false, err
	}
	n.selected = idx
	n.state = state
	return true, nil
}

// CanPrevious reports whether an older page exists
func (n *Navigator) CanPrevious() bool {
	return n.selected > 0
}

// CanNext reports whether a newer page up to the current flight's exists
func (n *Navigator) CanNext() bool {
	return n.currentIndex >= 0 && n.selected < n.currentIndex
}

// SelectedIndex returns the index of the selected page, or -1 before Load
func (n *Navigator) SelectedIndex() int {
	return n.selected
}

// CurrentIndex returns the index of the current flight's page, or -1 if none
func (n *Navigator) CurrentIndex() int {
	return n.currentIndex
}

// State returns the workflow of the selected page
func (n *Navigator) State() *LogWorkflowState {
	return n.state
}

// Logs returns summaries of all pages in navigation order
func (n *Navigator) Logs() []models.LogSummary {
	out := make([]models.LogSummary, len(n.logs))
	for i := range n.logs {
		out[i] = n.logs[i].ToSummary()
	}
	return out
}
