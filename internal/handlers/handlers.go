package handlers

import (
	"github.com/sjperalta/techlog-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health   *HealthHandler
	Session  *SessionHandler
	Registry *RegistryHandler
	Report   *ReportHandler
	Audit    *AuditHandler
	Job      *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(),
		Session:  NewSessionHandler(svcs.Workflow),
		Registry: NewRegistryHandler(svcs.Registry, svcs.Operator),
		Report:   NewReportHandler(svcs.Report),
		Audit:    NewAuditHandler(svcs.Audit),
		Job:      NewJobHandler(svcs.Job),
	}
}
