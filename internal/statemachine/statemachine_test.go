package statemachine

import (
	"context"
	"testing"
	"time"

	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var signedAt = time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)

func TestEntryFSM_OrderedSignoff(t *testing.T) {
	ctx := context.Background()
	entry := &models.LogEntry{Seq: 1, ActionDetails: "Replaced nav light lens"}
	efsm := NewEntryFSM(entry)

	assert.Equal(t, models.EntryStateDrafting, efsm.Current())
	assert.False(t, efsm.Can(EventActionAuth))

	err := efsm.ActionAuth(ctx, models.Signoff{AuthID: "B1-77", AuthName: "K. Ito"}, signedAt)
	assert.Error(t, err)
	assert.Nil(t, entry.ActionAuth())

	require.NoError(t, efsm.ShortSign(ctx, models.Signoff{AuthID: "B1-77", AuthName: "K. Ito"}, signedAt))
	assert.Equal(t, models.EntryStateShortSigned, efsm.Current())
	assert.Equal(t, models.EntryStateShortSigned, entry.State())

	require.NoError(t, efsm.ActionAuth(ctx, models.Signoff{AuthID: "B2-10", AuthName: "M. Diaz"}, signedAt))
	assert.Equal(t, models.EntryStateSealed, efsm.Current())
	assert.True(t, entry.IsSealed())
	assert.Equal(t, "B2-10", entry.ActionAuth().AuthID)
}

func TestEntryFSM_SealedIsTerminal(t *testing.T) {
	ctx := context.Background()
	entry := &models.LogEntry{Seq: 2, ActionDetails: "Checked"}
	entry.SetShortSign(models.Signoff{AuthID: "a", AuthName: "A"}, signedAt)
	entry.SetActionAuth(models.Signoff{AuthID: "b", AuthName: "B"}, signedAt)

	efsm := NewEntryFSM(entry)
	assert.Equal(t, models.EntryStateSealed, efsm.Current())
	assert.False(t, efsm.Can(EventShortSign))
	assert.False(t, efsm.Can(EventActionAuth))

	assert.Error(t, efsm.ShortSign(ctx, models.Signoff{AuthID: "x", AuthName: "X"}, signedAt))
	assert.Error(t, efsm.ActionAuth(ctx, models.Signoff{AuthID: "x", AuthName: "X"}, signedAt))
	assert.Equal(t, "b", entry.ActionAuth().AuthID)
}

func TestEntryFSM_RequiresActionDetails(t *testing.T) {
	entry := &models.LogEntry{Seq: 3, ActionDetails: "   "}
	efsm := NewEntryFSM(entry)

	err := efsm.ShortSign(context.Background(), models.Signoff{AuthID: "a", AuthName: "A"}, signedAt)
	assert.Error(t, err)
	assert.Nil(t, entry.ShortSign())
}

func TestCheckFSM_OneShot(t *testing.T) {
	ctx := context.Background()
	checks := models.CheckSet{}
	cfsm := NewCheckFSM(checks, models.CheckDaily)

	assert.Equal(t, CheckStateUnchecked, cfsm.Current())
	require.NoError(t, cfsm.Authorize(ctx, models.CheckAuthorization{CheckType: models.CheckDaily, AuthID: "a", AuthName: "A", AuthDate: signedAt}))
	assert.True(t, checks.Has(models.CheckDaily))
	assert.Equal(t, CheckStateAuthorized, cfsm.Current())

	again := NewCheckFSM(checks, models.CheckDaily)
	assert.False(t, again.Can(EventAuthorize))
	err := again.Authorize(ctx, models.CheckAuthorization{CheckType: models.CheckDaily, AuthID: "b", AuthName: "B", AuthDate: signedAt})
	assert.Error(t, err)
	assert.Equal(t, "a", checks[models.CheckDaily].AuthID)
}

func TestCheckFSM_RejectsMismatchedType(t *testing.T) {
	checks := models.CheckSet{}
	cfsm := NewCheckFSM(checks, models.CheckPDI)

	err := cfsm.Authorize(context.Background(), models.CheckAuthorization{CheckType: models.CheckETOPS, AuthID: "a", AuthName: "A"})
	assert.Error(t, err)
	assert.Empty(t, checks)
}
