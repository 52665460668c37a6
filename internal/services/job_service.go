package services

import (
	"github.com/sjperalta/techlog-api/internal/jobs"
)

type JobService struct {
	worker   *jobs.Worker
	workflow *WorkflowService
}

func NewJobService(worker *jobs.Worker, workflow *WorkflowService) *JobService {
	return &JobService{
		worker:   worker,
		workflow: workflow,
	}
}

// JobStatus reports background worker load and open workflow sessions
type JobStatus struct {
	jobs.WorkerStats
	OpenSessions int `json:"open_sessions"`
}

func (s *JobService) GetStatus() JobStatus {
	status := JobStatus{WorkerStats: s.worker.GetStats()}
	if s.workflow != nil {
		status.OpenSessions = s.workflow.SessionCount()
	}
	return status
}
