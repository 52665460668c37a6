package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sjperalta/techlog-api/internal/identifier"
	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockCheckRepo struct {
	CheckRepository
	mockSaveAll func(ctx context.Context, logID uint, auths []models.CheckAuthorization) error
}

func (m *mockCheckRepo) SaveAll(ctx context.Context, logID uint, auths []models.CheckAuthorization) error {
	return m.mockSaveAll(ctx, logID, auths)
}

type mockLogEntryRepo struct {
	LogEntryRepository
	saved []*models.LogEntry
}

func (m *mockLogEntryRepo) Save(ctx context.Context, entry *models.LogEntry) error {
	entry.ID = 42
	m.saved = append(m.saved, entry)
	return nil
}

type mockDeferralRepo struct {
	DeferralRepository
	deleted []string
}

func (m *mockDeferralRepo) DeleteByNumber(ctx context.Context, number string) error {
	if number == "DEF-00002" {
		return gorm.ErrRecordNotFound
	}
	m.deleted = append(m.deleted, number)
	return nil
}

func TestWorkflowStore_SaveChecksWritesBackIDs(t *testing.T) {
	at := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	repo := &mockCheckRepo{
		mockSaveAll: func(ctx context.Context, logID uint, auths []models.CheckAuthorization) error {
			assert.Equal(t, uint(7), logID)
			for i := range auths {
				auths[i].ID = uint(i + 1)
			}
			return nil
		},
	}
	store := NewWorkflowStore(&Repositories{Check: repo})

	checks := models.CheckSet{
		models.CheckTransit: {CheckType: models.CheckTransit, AuthID: "a", AuthName: "A", AuthDate: at},
		models.CheckDaily:   {CheckType: models.CheckDaily, AuthID: "a", AuthName: "A", AuthDate: at},
	}
	require.NoError(t, store.SaveChecks(context.Background(), 7, checks))

	assert.Equal(t, uint(1), checks[models.CheckTransit].ID)
	assert.Equal(t, uint(2), checks[models.CheckDaily].ID)
}

func TestWorkflowStore_SaveLogEntryLeavesInputUntouched(t *testing.T) {
	repo := &mockLogEntryRepo{}
	store := NewWorkflowStore(&Repositories{LogEntry: repo})

	entry := &models.LogEntry{Seq: 3, ActionDetails: "Reset"}
	saved, err := store.SaveLogEntry(context.Background(), 9, entry)
	require.NoError(t, err)

	assert.Equal(t, uint(42), saved.ID)
	assert.Equal(t, uint(9), saved.LogID)
	assert.Zero(t, entry.ID)
	assert.Zero(t, entry.LogID)
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey), identifier.ErrConflict)

	other := errors.New("connection refused")
	assert.Equal(t, other, translate(other))
}

func TestWorkflowStore_DeleteDeferral(t *testing.T) {
	repo := &mockDeferralRepo{}
	store := NewWorkflowStore(&Repositories{Deferral: repo})

	require.NoError(t, store.DeleteDeferral(context.Background(), "DEF-00001"))
	assert.Equal(t, []string{"DEF-00001"}, repo.deleted)

	err := store.DeleteDeferral(context.Background(), "DEF-00002")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
