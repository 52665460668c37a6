package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sjperalta/techlog-api/internal/capture"
	"github.com/sjperalta/techlog-api/internal/identifier"
	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 4, 9, 15, 0, 0, time.UTC)

var (
	inspector = capture.Credentials{AuthID: "B1-77", AuthName: "K. Ito"}
	certifier = capture.Credentials{AuthID: "B2-10", AuthName: "M. Diaz"}
)

type mockStore struct {
	Store
	logs      map[uint]*models.Log
	flights   []models.Flight
	checks    map[uint]models.CheckSet
	fluids    map[uint]*models.FluidsRecord
	deferrals []models.Deferral
	nextID    uint

	fetchLogCalls       int
	saveEntryCalls      int
	saveChecksCalls     int
	updateDeferralCalls int
	deleteDeferralCalls int

	mockFetchLog       func(ctx context.Context, logID uint) (*models.Log, error)
	mockSaveLogEntry   func(ctx context.Context, logID uint, entry *models.LogEntry) (*models.LogEntry, error)
	mockSaveChecks     func(ctx context.Context, logID uint, checks models.CheckSet) error
	mockCreateDeferral func(ctx context.Context, d *models.Deferral) error
}

func newMockStore() *mockStore {
	return &mockStore{
		logs:   make(map[uint]*models.Log),
		checks: make(map[uint]models.CheckSet),
		fluids: make(map[uint]*models.FluidsRecord),
		nextID: 100,
	}
}

func (m *mockStore) FetchLogs(ctx context.Context) ([]models.Log, error) {
	out := make([]models.Log, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, models.Log{ID: l.ID, LogPageNumber: l.LogPageNumber, FlightID: l.FlightID, CreatedAt: l.CreatedAt})
	}
	return out, nil
}

func (m *mockStore) FetchLog(ctx context.Context, logID uint) (*models.Log, error) {
	m.fetchLogCalls++
	if m.mockFetchLog != nil {
		return m.mockFetchLog(ctx, logID)
	}
	l, ok := m.logs[logID]
	if !ok {
		return nil, errors.New("record not found")
	}
	out := *l
	out.Entries = make([]models.LogEntry, len(l.Entries))
	for i := range l.Entries {
		out.Entries[i] = *l.Entries[i].Clone()
	}
	for _, f := range m.flights {
		if f.ID == l.FlightID {
			out.Flight = f
		}
	}
	return &out, nil
}

func (m *mockStore) SaveLogEntry(ctx context.Context, logID uint, entry *models.LogEntry) (*models.LogEntry, error) {
	m.saveEntryCalls++
	if m.mockSaveLogEntry != nil {
		return m.mockSaveLogEntry(ctx, logID, entry)
	}
	return m.saveEntry(logID, entry), nil
}

func (m *mockStore) saveEntry(logID uint, entry *models.LogEntry) *models.LogEntry {
	saved := entry.Clone()
	if saved.ID == 0 {
		m.nextID++
		saved.ID = m.nextID
	}
	l := m.logs[logID]
	for i := range l.Entries {
		if l.Entries[i].Seq == saved.Seq {
			l.Entries[i] = *saved.Clone()
			return saved
		}
	}
	l.Entries = append(l.Entries, *saved.Clone())
	return saved
}

func (m *mockStore) DeleteLogEntry(ctx context.Context, logID uint, entryID uint) error {
	l := m.logs[logID]
	for i := range l.Entries {
		if l.Entries[i].ID == entryID {
			l.Entries = append(l.Entries[:i], l.Entries[i+1:]...)
			return nil
		}
	}
	return errors.New("record not found")
}

func (m *mockStore) FetchChecks(ctx context.Context, logID uint) (models.CheckSet, error) {
	return m.checks[logID].Clone(), nil
}

func (m *mockStore) SaveChecks(ctx context.Context, logID uint, checks models.CheckSet) error {
	m.saveChecksCalls++
	if m.mockSaveChecks != nil {
		return m.mockSaveChecks(ctx, logID, checks)
	}
	m.checks[logID] = checks.Clone()
	return nil
}

func (m *mockStore) FetchDeferrals(ctx context.Context) ([]models.Deferral, error) {
	return append([]models.Deferral(nil), m.deferrals...), nil
}

func (m *mockStore) CreateDeferral(ctx context.Context, d *models.Deferral) error {
	if m.mockCreateDeferral != nil {
		return m.mockCreateDeferral(ctx, d)
	}
	for _, existing := range m.deferrals {
		if existing.Number == d.Number {
			return identifier.ErrConflict
		}
	}
	m.nextID++
	d.ID = m.nextID
	m.deferrals = append(m.deferrals, *d)
	return nil
}

func (m *mockStore) UpdateDeferral(ctx context.Context, d *models.Deferral) error {
	m.updateDeferralCalls++
	for i := range m.deferrals {
		if m.deferrals[i].Number == d.Number {
			m.deferrals[i] = *d
			return nil
		}
	}
	return errors.New("record not found")
}

func (m *mockStore) DeleteDeferral(ctx context.Context, number string) error {
	m.deleteDeferralCalls++
	for i := range m.deferrals {
		if m.deferrals[i].Number == number {
			m.deferrals = append(m.deferrals[:i], m.deferrals[i+1:]...)
			return nil
		}
	}
	return errors.New("record not found")
}

func (m *mockStore) FetchFlights(ctx context.Context) ([]models.Flight, error) {
	return append([]models.Flight(nil), m.flights...), nil
}

func (m *mockStore) FetchAirports(ctx context.Context) ([]models.Airport, error) {
	return nil, nil
}

func (m *mockStore) FetchFluidsAndDeicingAuth(ctx context.Context, logID uint) (*models.FluidsRecord, error) {
	f, ok := m.fluids[logID]
	if !ok {
		return nil, nil
	}
	out := *f
	return &out, nil
}

func (m *mockStore) SaveFluids(ctx context.Context, logID uint, record *models.FluidsRecord) error {
	saved := *record
	if saved.ID == 0 {
		m.nextID++
		saved.ID = m.nextID
		record.ID = saved.ID
	}
	m.fluids[logID] = &saved
	return nil
}

type mockSignatureSink struct {
	saved   [][]byte
	deleted []string
}

func (s *mockSignatureSink) SaveSignature(ctx context.Context, image []byte, kind string) (string, error) {
	s.saved = append(s.saved, image)
	return "signatures/" + kind + ".png", nil
}

func (s *mockSignatureSink) DeleteSignature(ctx context.Context, path string) error {
	s.deleted = append(s.deleted, path)
	return nil
}

type mockRecorder struct {
	events []AuthorizationEvent
}

func (r *mockRecorder) RecordAuthorization(ctx context.Context, event AuthorizationEvent) {
	r.events = append(r.events, event)
}

// newFixture builds a store holding log page 10 on flight 1 at the given leg
func newFixture(leg int, entries ...models.LogEntry) *mockStore {
	m := newMockStore()
	m.flights = []models.Flight{{ID: 1, FlightNumber: "FL-00001", FlightLeg: leg, CurrentFlight: leg == 0}}
	m.logs[10] = &models.Log{ID: 10, LogPageNumber: 1, FlightID: 1, CreatedAt: fixedNow, Entries: entries}
	return m
}

func testOptions() Options {
	return Options{
		Allocator: identifier.NewAllocator(3).WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
		Now:       func() time.Time { return fixedNow },
	}
}

func loadState(t *testing.T, m *mockStore) (*LogWorkflowState, *capture.Controller) {
	t.Helper()
	dialog := newTestDialog()
	state, err := Load(context.Background(), m, dialog, 10, testOptions())
	require.NoError(t, err)
	return state, dialog
}

func newTestDialog() *capture.Controller {
	return capture.NewController(nil)
}

func draftEntry(seq int, action string) models.LogEntry {
	return models.LogEntry{
		ID:             uint(seq),
		LogID:          10,
		Seq:            seq,
		Classification: models.ClassificationLine,
		DefectDetails:  "Left nav light inoperative",
		ActionDetails:  action,
	}
}

func allGatingChecks() models.CheckSet {
	set := models.CheckSet{}
	for _, t := range models.GatingChecks {
		set[t] = models.CheckAuthorization{LogID: 10, CheckType: t, AuthID: "B1-77", AuthName: "K. Ito", AuthDate: fixedNow}
	}
	return set
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
