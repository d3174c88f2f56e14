package models

// Workflow mirrors a workflow record of the remote automation service.
// The ID is assigned remotely and is never generated locally.
type Workflow struct {
	ID                int     `json:"workflowID" db:"id"`
	Name              *string `json:"workflowName" db:"name"`
	IsActive          bool    `json:"isActive" db:"is_active"`
	MultiExecBehavior *string `json:"multiExecBehavior" db:"multi_exec_behavior"`
}

// StringPtr is a small helper for building optional fields.
func StringPtr(s string) *string {
	return &s
}
