package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newNavigatorStore builds three log pages created an hour apart. current is the index of
// the page whose flight is current, or -1 for none.
func newNavigatorStore(current int) *mockStore {
	m := newMockStore()
	for i := 0; i < 3; i++ {
		id := uint(i + 1)
		m.flights = append(m.flights, models.Flight{
			ID:            id,
			FlightNumber:  "FL-0000" + string(rune('1'+i)),
			FlightLeg:     2 - i,
			CurrentFlight: i == current,
		})
		m.logs[id] = &models.Log{
			ID:            id,
			LogPageNumber: i + 1,
			FlightID:      id,
			CreatedAt:     fixedNow.Add(time.Duration(i) * time.Hour),
			Entries:       []models.LogEntry{draftEntry(1, "Checked")},
		}
	}
	return m
}

func newTestNavigator(t *testing.T, m *mockStore) *Navigator {
	t.Helper()
	nav := NewNavigator(m, func(ctx context.Context, logID uint) (*LogWorkflowState, error) {
		return Load(ctx, m, newTestDialog(), logID, testOptions())
	})
	require.NoError(t, nav.Load(context.Background()))
	return nav
}

func TestNavigator_SelectsCurrentFlight(t *testing.T) {
	nav := newTestNavigator(t, newNavigatorStore(1))

	assert.Equal(t, 1, nav.SelectedIndex())
	assert.Equal(t, 1, nav.CurrentIndex())
	assert.Equal(t, uint(2), nav.State().LogID())

	logs := nav.Logs()
	require.Len(t, logs, 3)
	assert.Equal(t, []uint{1, 2, 3}, []uint{logs[0].ID, logs[1].ID, logs[2].ID})
	assert.True(t, logs[1].CurrentFlight)
}

func TestNavigator_NextStopsAtCurrentFlight(t *testing.T) {
	ctx := context.Background()
	nav := newTestNavigator(t, newNavigatorStore(1))

	moved, err := nav.Next(ctx)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 1, nav.SelectedIndex())

	moved, err = nav.Previous(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 0, nav.SelectedIndex())
	assert.Equal(t, uint(1), nav.State().LogID())

	moved, err = nav.Previous(ctx)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 0, nav.SelectedIndex())

	moved, err = nav.Next(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 1, nav.SelectedIndex())
	assert.False(t, nav.CanNext())
}

func TestNavigator_NeverPassesCurrentIndex(t *testing.T) {
	ctx := context.Background()

	for current := 0; current < 3; current++ {
		nav := newTestNavigator(t, newNavigatorStore(current))
		for nav.CanPrevious() {
			_, err := nav.Previous(ctx)
			require.NoError(t, err)
		}
		for i := 0; i < 5; i++ {
			_, err := nav.Next(ctx)
			require.NoError(t, err)
			assert.LessOrEqual(t, nav.SelectedIndex(), nav.CurrentIndex())
		}
		assert.Equal(t, current, nav.SelectedIndex())
	}
}

func TestNavigator_NoCurrentFlight(t *testing.T) {
	ctx := context.Background()
	nav := newTestNavigator(t, newNavigatorStore(-1))

	assert.Equal(t, -1, nav.CurrentIndex())
	assert.Equal(t, 2, nav.SelectedIndex())

	moved, err := nav.Next(ctx)
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = nav.Previous(ctx)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = nav.Next(ctx)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 1, nav.SelectedIndex())
}

func TestNavigator_RefetchesOnEverySwitch(t *testing.T) {
	ctx := context.Background()
	m := newNavigatorStore(2)
	nav := newTestNavigator(t, m)
	assert.Equal(t, 1, m.fetchLogCalls)

	_, err := nav.Previous(ctx)
	require.NoError(t, err)
	_, err = nav.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, m.fetchLogCalls)

	// an edit made elsewhere shows up on the next switch
	m.logs[2].Entries[0].ActionDetails = "Re-checked"
	_, err = nav.Previous(ctx)
	require.NoError(t, err)
	entry, ok := nav.State().Entry(1)
	require.True(t, ok)
	assert.Equal(t, "Re-checked", entry.ActionDetails)
}

func TestNavigator_FailedLoadKeepsSelection(t *testing.T) {
	ctx := context.Background()
	m := newNavigatorStore(1)
	nav := newTestNavigator(t, m)
	before := nav.State()

	m.mockFetchLog = func(ctx context.Context, logID uint) (*models.Log, error) {
		return nil, errors.New("connection refused")
	}

	moved, err := nav.Previous(ctx)
	assert.False(t, moved)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, 1, nav.SelectedIndex())
	assert.Same(t, before, nav.State())
}

func TestNavigator_BlockedWhileAuthorizationPending(t *testing.T) {
	ctx := context.Background()
	nav := newTestNavigator(t, newNavigatorStore(1))

	require.NoError(t, nav.State().RequestShortSign(ctx, 1))

	_, err := nav.Previous(ctx)
	assert.ErrorIs(t, err, ErrAuthorizationPending)
	assert.Equal(t, 1, nav.SelectedIndex())
}

func TestNavigator_NoLogs(t *testing.T) {
	m := newMockStore()
	nav := NewNavigator(m, func(ctx context.Context, logID uint) (*LogWorkflowState, error) {
		return Load(ctx, m, newTestDialog(), logID, testOptions())
	})

	assert.ErrorIs(t, nav.Load(context.Background()), ErrNoLogs)
	assert.Equal(t, -1, nav.SelectedIndex())
}
