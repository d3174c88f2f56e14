package repository

import (
	"context"

	"workflow-sync/backend/pkg/models"
)

// WorkflowStore is the local copy of the remote workflow collection. Every
// method runs in its own connection scope; writes are transactional.
type WorkflowStore interface {
	// ListWorkflows returns every stored workflow ordered by id.
	ListWorkflows(ctx context.Context) ([]models.Workflow, error)
	// AddWorkflows inserts new workflows in one bulk operation.
	AddWorkflows(ctx context.Context, workflows []models.Workflow) error
	// UpdateWorkflows overwrites every column of the given workflows.
	UpdateWorkflows(ctx context.Context, workflows []models.Workflow) error
	// DeleteWorkflows removes the workflows with the given ids.
	DeleteWorkflows(ctx context.Context, ids []int) error
}
