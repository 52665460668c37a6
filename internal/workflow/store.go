package workflow

import (
	"context"

	"github.com/sjperalta/techlog-api/internal/models"
)

// Store is the persistence collaborator the workflow reads from and writes through.
// CreateDeferral must return an error wrapping identifier.ErrConflict when the number is taken.
type Store interface {
	FetchLogs(ctx context.Context) ([]models.Log, error)
	FetchLog(ctx context.Context, logID uint) (*models.Log, error)
	SaveLogEntry(ctx context.Context, logID uint, entry *models.LogEntry) (*models.LogEntry, error)
	DeleteLogEntry(ctx context.Context, logID uint, entryID uint) error

	FetchChecks(ctx context.Context, logID uint) (models.CheckSet, error)
	SaveChecks(ctx context.Context, logID uint, checks models.CheckSet) error

	FetchDeferrals(ctx context.Context) ([]models.Deferral, error)
	CreateDeferral(ctx context.Context, deferral *models.Deferral) error
	UpdateDeferral(ctx context.Context, deferral *models.Deferral) error
	DeleteDeferral(ctx context.Context, number string) error

	FetchFlights(ctx context.Context) ([]models.Flight, error)
	FetchAirports(ctx context.Context) ([]models.Airport, error)

	FetchFluidsAndDeicingAuth(ctx context.Context, logID uint) (*models.FluidsRecord, error)
	SaveFluids(ctx context.Context, logID uint, record *models.FluidsRecord) error
}

// SignatureSink stores a drawn signature bitmap and returns where it was put.
// DeleteSignature discards a stored bitmap whose authorization was rolled back.
type SignatureSink interface {
	SaveSignature(ctx context.Context, image []byte, kind string) (string, error)
	DeleteSignature(ctx context.Context, path string) error
}

// Recorder receives a note of every granted authorization (audit trail)
type Recorder interface {
	RecordAuthorization(ctx context.Context, event AuthorizationEvent)
}

// AuthorizationEvent describes one granted authorization
type AuthorizationEvent struct {
	Action   string
	Entity   string
	EntityID uint
	LogID    uint
	Signoff  models.Signoff
	Details  string
}
