// Package api contains the HTTP handlers for the workflow service
package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"

	"workflow-sync/backend/internal/logging"
	"workflow-sync/backend/pkg/models"
)

const (
	runSucceededMessage = "Workflow executed successfully"
	runFailedMessage    = "Failed to execute workflow"
)

// WorkflowRunner lists and triggers workflows on the remote service.
type WorkflowRunner interface {
	ListWorkflows(ctx context.Context) ([]models.Workflow, error)
	RunWorkflow(ctx context.Context, id int) bool
}

// RunResult is the body returned by the run endpoint.
type RunResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewRunResult builds the run response for the remote outcome.
func NewRunResult(ok bool) RunResult {
	if ok {
		return RunResult{Success: true, Message: runSucceededMessage}
	}
	return RunResult{Success: false, Message: runFailedMessage}
}

// Server holds the dependencies for the API server.
type Server struct {
	workflows WorkflowRunner
	logger    *logging.Logger
	version   string
}

// NewServer creates a new Server.
func NewServer(workflows WorkflowRunner, logger *logging.Logger, version string) *Server {
	return &Server{
		workflows: workflows,
		logger:    logger,
		version:   version,
	}
}

// RegisterHandlers mounts the workflow routes on the /api/v1 group.
func RegisterHandlers(g *echo.Group, s *Server) {
	g.GET("/workflow", s.ListWorkflows)
	g.POST("/workflow/:id/run", s.RunWorkflow)
}

// ListWorkflows returns the workflows currently known to the remote service
// (GET /api/v1/workflow)
func (s *Server) ListWorkflows(c echo.Context) error {
	workflows, err := s.workflows.ListWorkflows(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list workflows").SetInternal(err)
	}
	if workflows == nil {
		workflows = []models.Workflow{}
	}
	return c.JSON(http.StatusOK, workflows)
}

// RunWorkflow triggers a workflow run on the remote service
// (POST /api/v1/workflow/{id}/run)
func (s *Server) RunWorkflow(c echo.Context) error {
	var id int
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid format for parameter id: "+err.Error())
	}

	result := NewRunResult(s.workflows.RunWorkflow(c.Request().Context(), id))
	if result.Success {
		s.logger.Info("Workflow executed", "workflow_id", id)
	}
	return c.JSON(http.StatusOK, result)
}
