package repository

import (
	"context"

	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/sjperalta/techlog-api/internal/workflow"
)

// workflowStore serves the workflow's persistence needs from the repositories
type workflowStore struct {
	repos *Repositories
}

// NewWorkflowStore adapts the repositories to workflow.Store
func NewWorkflowStore(repos *Repositories) workflow.Store {
	return &workflowStore{repos: repos}
}

func (s *workflowStore) FetchLogs(ctx context.Context) ([]models.Log, error) {
	return s.repos.Log.List(ctx)
}

func (s *workflowStore) FetchLog(ctx context.Context, logID uint) (*models.Log, error) {
	return s.repos.Log.FindByID(ctx, logID)
}

func (s *workflowStore) SaveLogEntry(ctx context.Context, logID uint, entry *models.LogEntry) (*models.LogEntry, error) {
	saved := entry.Clone()
	saved.LogID = logID
	if err := s.repos.LogEntry.Save(ctx, saved); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *workflowStore) DeleteLogEntry(ctx context.Context, logID uint, entryID uint) error {
	return s.repos.LogEntry.Delete(ctx, logID, entryID)
}

func (s *workflowStore) FetchChecks(ctx context.Context, logID uint) (models.CheckSet, error) {
	auths, err := s.repos.Check.FindByLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	return models.NewCheckSet(auths), nil
}

// SaveChecks stores the whole set and writes the assigned ids back into it
func (s *workflowStore) SaveChecks(ctx context.Context, logID uint, checks models.CheckSet) error {
	auths := checks.List()
	if err := s.repos.Check.SaveAll(ctx, logID, auths); err != nil {
		return err
	}
	for _, a := range auths {
		checks[a.CheckType] = a
	}
	return nil
}

func (s *workflowStore) FetchDeferrals(ctx context.Context) ([]models.Deferral, error) {
	return s.repos.Deferral.List(ctx, nil)
}

func (s *workflowStore) CreateDeferral(ctx context.Context, deferral *models.Deferral) error {
	return s.repos.Deferral.Create(ctx, deferral)
}

func (s *workflowStore) UpdateDeferral(ctx context.Context, deferral *models.Deferral) error {
	return s.repos.Deferral.Update(ctx, deferral)
}

func (s *workflowStore) DeleteDeferral(ctx context.Context, number string) error {
	return s.repos.Deferral.DeleteByNumber(ctx, number)
}

func (s *workflowStore) FetchFlights(ctx context.Context) ([]models.Flight, error) {
	return s.repos.Flight.List(ctx)
}

func (s *workflowStore) FetchAirports(ctx context.Context) ([]models.Airport, error) {
	return s.repos.Airport.List(ctx)
}

func (s *workflowStore) FetchFluidsAndDeicingAuth(ctx context.Context, logID uint) (*models.FluidsRecord, error) {
	return s.repos.Fluids.FindByLog(ctx, logID)
}

func (s *workflowStore) SaveFluids(ctx context.Context, logID uint, record *models.FluidsRecord) error {
	record.LogID = logID
	return s.repos.Fluids.Save(ctx, record)
}
