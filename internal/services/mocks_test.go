package services

import (
	"context"
	"errors"
	"time"

	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/sjperalta/techlog-api/internal/repository"
	"github.com/sjperalta/techlog-api/internal/workflow"
)

var fixedNow = time.Date(2026, 5, 4, 9, 15, 0, 0, time.UTC)

type mockAuditRepo struct {
	repository.AuditRepository
	created []models.AuditLog
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *models.AuditLog) error {
	m.created = append(m.created, *entry)
	return nil
}

type mockOperatorRepo struct {
	repository.OperatorRepository
	operators map[string]*models.Operator
}

func (m *mockOperatorRepo) FindByAuthID(ctx context.Context, authID string) (*models.Operator, error) {
	if op, ok := m.operators[authID]; ok {
		return op, nil
	}
	return nil, nil
}

// memoryStore serves one log page on the current flight
type memoryStore struct {
	workflow.Store
	log    models.Log
	checks models.CheckSet
	nextID uint
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		log: models.Log{
			ID:            7,
			LogPageNumber: 3,
			FlightID:      1,
			CreatedAt:     fixedNow,
			Flight:        models.Flight{ID: 1, FlightNumber: "FL-00001", CurrentFlight: true},
		},
		checks: models.CheckSet{},
		nextID: 100,
	}
}

func (m *memoryStore) FetchLogs(ctx context.Context) ([]models.Log, error) {
	return []models.Log{{ID: m.log.ID, LogPageNumber: m.log.LogPageNumber, FlightID: m.log.FlightID, CreatedAt: m.log.CreatedAt}}, nil
}

func (m *memoryStore) FetchFlights(ctx context.Context) ([]models.Flight, error) {
	return []models.Flight{m.log.Flight}, nil
}

func (m *memoryStore) FetchLog(ctx context.Context, logID uint) (*models.Log, error) {
	if logID != m.log.ID {
		return nil, errors.New("record not found")
	}
	out := m.log
	out.Entries = make([]models.LogEntry, len(m.log.Entries))
	for i := range m.log.Entries {
		out.Entries[i] = *m.log.Entries[i].Clone()
	}
	return &out, nil
}

func (m *memoryStore) FetchChecks(ctx context.Context, logID uint) (models.CheckSet, error) {
	return m.checks.Clone(), nil
}

func (m *memoryStore) SaveChecks(ctx context.Context, logID uint, checks models.CheckSet) error {
	m.checks = checks.Clone()
	return nil
}

func (m *memoryStore) FetchFluidsAndDeicingAuth(ctx context.Context, logID uint) (*models.FluidsRecord, error) {
	return nil, nil
}

func (m *memoryStore) SaveLogEntry(ctx context.Context, logID uint, entry *models.LogEntry) (*models.LogEntry, error) {
	saved := entry.Clone()
	if saved.ID == 0 {
		m.nextID++
		saved.ID = m.nextID
	}
	for i := range m.log.Entries {
		if m.log.Entries[i].Seq == saved.Seq {
			m.log.Entries[i] = *saved.Clone()
			return saved, nil
		}
	}
	m.log.Entries = append(m.log.Entries, *saved.Clone())
	return saved, nil
}

func strPtr(s string) *string { return &s }
