// Package mcp exposes splint to AI agents over the Model Context Protocol.
// One Service instance spans the whole session, so an agent can run a
// scenario and then review the healing events it produced.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ormasoftchile/splint/pkg/healing"
)

// Service carries the state shared by the MCP tools.
type Service struct {
	tracker *healing.Tracker
}

// NewService creates the shared tool state. A nil tracker gets a fresh one.
func NewService(tracker *healing.Tracker) *Service {
	if tracker == nil {
		tracker = healing.NewTracker()
	}
	return &Service{tracker: tracker}
}

// NewServer creates a new MCP server with the splint tools registered.
func NewServer(version string) *server.MCPServer {
	return NewService(nil).Server(version)
}

// Server builds an MCP server around this service.
func (s *Service) Server(version string) *server.MCPServer {
	srv := server.NewMCPServer(
		"splint",
		version,
		server.WithToolCapabilities(true),
	)

	// Register tools
	srv.AddTool(
		mcp.NewTool("splint/validate",
			mcp.WithDescription("Validate a splint scenario or component YAML file"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the scenario or component YAML file")),
		),
		s.HandleValidate,
	)

	srv.AddTool(
		mcp.NewTool("splint/run",
			mcp.WithDescription("Execute a splint scenario (defaults to the dry-run driver for safety)"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the scenario YAML file")),
			mcp.WithString("driver", mcp.Description("Browser driver: dry-run or chrome")),
			mcp.WithString("base_url", mcp.Description("Base URL for relative navigations and API requests")),
			mcp.WithString("trace", mcp.Description("Path to write the JSONL trace to (optional)")),
		),
		s.HandleRun,
	)

	srv.AddTool(
		mcp.NewTool("splint/schema",
			mcp.WithDescription("Export splint JSON Schema (scenario or component)"),
			mcp.WithString("type", mcp.Required(), mcp.Description("Schema type: 'scenario' or 'component'")),
		),
		s.HandleSchema,
	)

	srv.AddTool(
		mcp.NewTool("splint/healing_pending",
			mcp.WithDescription("List healing events awaiting review"),
		),
		s.HandleHealingPending,
	)

	srv.AddTool(
		mcp.NewTool("splint/healing_approve",
			mcp.WithDescription("Approve a pending healing event so later runs pin the healed strategy"),
			mcp.WithString("event_id", mcp.Required(), mcp.Description("Healing event identifier (run_id:step_id)")),
			mcp.WithString("note", mcp.Description("Reviewer note (optional)")),
		),
		s.HandleHealingApprove,
	)

	srv.AddTool(
		mcp.NewTool("splint/healing_reject",
			mcp.WithDescription("Reject a pending healing event"),
			mcp.WithString("event_id", mcp.Required(), mcp.Description("Healing event identifier (run_id:step_id)")),
			mcp.WithString("note", mcp.Description("Reviewer note (optional)")),
		),
		s.HandleHealingReject,
	)

	return srv
}
