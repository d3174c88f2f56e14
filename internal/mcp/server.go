// Package mcp exposes the workflow operations as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"workflow-sync/backend/internal/api"
	"workflow-sync/backend/internal/logging"
)

type Server struct {
	mcpServer *server.MCPServer
	workflows api.WorkflowRunner
	logger    *logging.Logger
}

func NewServer(workflows api.WorkflowRunner, logger *logging.Logger, version string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Workflow Sync",
			version,
			server.WithToolCapabilities(true),
		),
		workflows: workflows,
		logger:    logger,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_workflows",
			mcp.WithDescription("List the workflows defined on the remote service"),
		),
		s.handleListWorkflows,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"run_workflow",
			mcp.WithDescription("Trigger a run of a remote workflow"),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("The remote workflow ID")),
		),
		s.handleRunWorkflow,
	)
}

func (s *Server) handleListWorkflows(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	workflows, err := s.workflows.ListWorkflows(ctx)
	if err != nil {
		s.logger.Error("MCP list_workflows failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list workflows: %v", err)), nil
	}

	jsonBytes, err := json.Marshal(workflows)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode workflows: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleRunWorkflow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	// JSON numbers arrive as float64.
	raw, ok := args["id"].(float64)
	if !ok {
		return mcp.NewToolResultError("Missing required parameter: id"), nil
	}
	id := int(raw)
	if float64(id) != raw {
		return mcp.NewToolResultError("Parameter id must be an integer"), nil
	}

	result := api.NewRunResult(s.workflows.RunWorkflow(ctx, id))
	jsonBytes, _ := json.Marshal(result)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// MountHTTPHandlers serves the streamable HTTP transport on /mcp and the
// legacy SSE transport on /mcp/sse and /mcp/message.
func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	streamable := server.NewStreamableHTTPServer(mcpServer, server.WithEndpointPath("/mcp"))
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.Handle("/mcp", streamable)
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
