package services

import (
	"context"

	"workflow-sync/backend/pkg/models"
)

// WorkflowSource is the authoritative remote workflow collection.
type WorkflowSource interface {
	// ListWorkflows returns every remote workflow.
	ListWorkflows(ctx context.Context) ([]models.Workflow, error)
	// RunWorkflow triggers a remote execution of the workflow with the given id.
	RunWorkflow(ctx context.Context, id int) (bool, error)
}

// SyncRecorder receives the outcome of every reconciliation pass.
type SyncRecorder interface {
	RecordPass(ctx context.Context, report models.SyncReport)
}

type nopRecorder struct{}

func (nopRecorder) RecordPass(context.Context, models.SyncReport) {}
