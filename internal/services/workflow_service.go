package services

import (
	"context"

	"workflow-sync/backend/internal/logging"
	"workflow-sync/backend/pkg/models"
)

// WorkflowService serves on-demand list and run requests directly against
// the remote source, independent of the synchronization schedule.
type WorkflowService struct {
	source WorkflowSource
	logger *logging.Logger
}

// NewWorkflowService creates a new WorkflowService.
func NewWorkflowService(source WorkflowSource, logger *logging.Logger) *WorkflowService {
	return &WorkflowService{
		source: source,
		logger: logger,
	}
}

// ListWorkflows returns the remote workflows. Errors are returned unchanged.
func (s *WorkflowService) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	return s.source.ListWorkflows(ctx)
}

// RunWorkflow triggers the workflow and reports whether the remote accepted
// the request. Any failure yields false.
func (s *WorkflowService) RunWorkflow(ctx context.Context, id int) bool {
	ok, err := s.source.RunWorkflow(ctx, id)
	if err != nil {
		s.logger.Warn("Workflow run request failed", "workflow_id", id, "error", err)
		return false
	}
	return ok
}
