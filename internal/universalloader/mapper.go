package universalloader

import "workflow-sync/backend/pkg/models"

// remoteWorkflow is the wire shape of a workflow in the remote API.
type remoteWorkflow struct {
	ID                int     `json:"id"`
	Name              *string `json:"name"`
	IsActive          bool    `json:"isActive"`
	MultiExecBehavior *string `json:"multiExecBehavior"`
}

func (w remoteWorkflow) toModel() models.Workflow {
	return models.Workflow{
		ID:                w.ID,
		Name:              w.Name,
		IsActive:          w.IsActive,
		MultiExecBehavior: w.MultiExecBehavior,
	}
}

func mapWorkflows(in []remoteWorkflow) []models.Workflow {
	out := make([]models.Workflow, 0, len(in))
	for _, w := range in {
		out = append(out, w.toModel())
	}
	return out
}
