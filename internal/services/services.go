package services

import (
	"github.com/sjperalta/techlog-api/internal/config"
	"github.com/sjperalta/techlog-api/internal/identifier"
	"github.com/sjperalta/techlog-api/internal/jobs"
	"github.com/sjperalta/techlog-api/internal/repository"
	"github.com/sjperalta/techlog-api/internal/storage"
)

// Services holds all service instances
type Services struct {
	Workflow *WorkflowService
	Registry *RegistryService
	Operator *OperatorService
	Report   *ReportService
	Audit    *AuditService
	Job      *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, storage *storage.LocalStorage, cfg *config.Config) *Services {
	auditSvc := NewAuditService(repos.Audit, worker)
	operatorSvc := NewOperatorService(repos.Operator, auditSvc)

	allocator := identifier.NewAllocator(cfg.IDAllocationMaxAttempts)

	workflowSvc := NewWorkflowService(
		repository.NewWorkflowStore(repos),
		operatorSvc,
		storage,
		auditSvc,
		allocator,
		cfg.SessionIdleTimeout(),
	)

	return &Services{
		Workflow: workflowSvc,
		Registry: NewRegistryService(repos, allocator, auditSvc),
		Operator: operatorSvc,
		Report:   NewReportService(repos.Log, repos.Fluids, repos.Deferral, storage),
		Audit:    auditSvc,
		Job:      NewJobService(worker, workflowSvc),
	}
}
