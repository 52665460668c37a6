package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sjperalta/techlog-api/internal/jobs"
	"github.com/sjperalta/techlog-api/internal/models"
	"github.com/sjperalta/techlog-api/internal/repository"
	"github.com/sjperalta/techlog-api/internal/workflow"
	"github.com/sjperalta/techlog-api/pkg/logger"
)

type AuditService struct {
	repo   repository.AuditRepository
	worker *jobs.Worker
	now    func() time.Time
}

func NewAuditService(repo repository.AuditRepository, worker *jobs.Worker) *AuditService {
	return &AuditService{repo: repo, worker: worker, now: time.Now}
}

// Log records an audit entry
func (s *AuditService) Log(ctx context.Context, userID uint, action, entity string, entityID uint, details, ip, userAgent string) error {
	return s.repo.Create(ctx, &models.AuditLog{
		UserID:    userID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: s.now(),
	})
}

// LogAsync records an audit entry in the background. A failed write is only logged.
func (s *AuditService) LogAsync(ctx context.Context, userID uint, action, entity string, entityID uint, details string) {
	if s.worker == nil {
		if err := s.Log(ctx, userID, action, entity, entityID, details, "", ""); err != nil {
			logger.Error("Failed to write audit log", "entity", entity, "entity_id", entityID, "error", err)
		}
		return
	}
	s.worker.EnqueueAsync("audit:"+entity, func(ctx context.Context) error {
		return s.Log(ctx, userID, action, entity, entityID, details, "", "")
	})
}

// List retrieves audit logs with filters
func (s *AuditService) List(ctx context.Context, query *repository.AuditQuery) ([]models.AuditLog, int64, error) {
	return s.repo.List(ctx, query)
}

// Recorder returns a workflow.Recorder that attributes sign-offs to the given API user
func (s *AuditService) Recorder(userID uint) workflow.Recorder {
	return &authorizationRecorder{audit: s, userID: userID}
}

type authorizationRecorder struct {
	audit  *AuditService
	userID uint
}

// RecordAuthorization writes the audit row in the background; a failed write is logged
// and never undoes the authorization
func (r *authorizationRecorder) RecordAuthorization(ctx context.Context, event workflow.AuthorizationEvent) {
	entry := &models.AuditLog{
		UserID:    r.userID,
		AuthID:    event.Signoff.AuthID,
		Action:    event.Action,
		Entity:    event.Entity,
		EntityID:  event.EntityID,
		Details:   fmt.Sprintf("log %d: %s (%s)", event.LogID, event.Details, event.Signoff.AuthName),
		CreatedAt: r.audit.now(),
	}

	write := func(ctx context.Context) error {
		return r.audit.repo.Create(ctx, entry)
	}
	if r.audit.worker == nil {
		if err := write(ctx); err != nil {
			logger.Error("Failed to record authorization", "action", event.Action, "error", err)
		}
		return
	}
	r.audit.worker.Enqueue("audit:"+event.Action, write)
}
