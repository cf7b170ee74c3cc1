package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ormasoftchile/splint/pkg/component"
	"github.com/ormasoftchile/splint/pkg/driver"
	"github.com/ormasoftchile/splint/pkg/engine"
	"github.com/ormasoftchile/splint/pkg/healing"
	"github.com/ormasoftchile/splint/pkg/schema"
	"github.com/ormasoftchile/splint/pkg/trace"
)

// HandleValidate implements the splint/validate MCP tool.
func (s *Service) HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	// Detect component vs scenario
	if isComponentFile(path) {
		c, errs := schema.ValidateComponentFile(path)
		if schema.HasErrors(errs) {
			return errorResult(formatErrors(errs)), nil
		}
		return textResult(fmt.Sprintf("✓ component %s is valid (%d steps)", c.ID, len(c.Steps))), nil
	}

	sc, errs := schema.ValidateScenarioFile(path)
	if schema.HasErrors(errs) {
		return errorResult(formatErrors(errs)), nil
	}
	return textResult(fmt.Sprintf("✓ %s is valid (%d steps)", sc.Name, len(sc.Steps))), nil
}

// HandleSchema implements the splint/schema MCP tool.
func (s *Service) HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	schemaType, _ := args["type"].(string)

	var data []byte
	var err error

	switch schemaType {
	case "scenario":
		data, err = schema.GenerateScenarioJSONSchema()
	case "component":
		data, err = schema.GenerateComponentJSONSchema()
	default:
		return errorResult(fmt.Sprintf("unknown schema type %q, use 'scenario' or 'component'", schemaType)), nil
	}

	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

// HandleRun implements the splint/run MCP tool.
func (s *Service) HandleRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}

	driverName, _ := args["driver"].(string)
	if driverName == "" {
		driverName = "dry-run" // safe default for AI agents
	}

	// Validate before executing
	sc, errs := schema.ValidateScenarioFile(path)
	if schema.HasErrors(errs) {
		return errorResult(formatErrors(errs)), nil
	}

	// Parse vars
	vars := make(map[string]any)
	if rawVars, ok := args["vars"].(map[string]any); ok {
		for k, v := range rawVars {
			vars[k] = v
		}
	}

	baseURL, _ := args["base_url"].(string)
	cfg := engine.Config{
		RunID:   engine.GenerateRunID(),
		BaseURL: baseURL,
		Vars:    vars,
		Loader:  &component.FileLoader{Dir: filepath.Dir(path)},
		Tracker: s.tracker,
	}
	switch driverName {
	case "dry-run":
		cfg.Driver = driver.NewDryRun()
	case "chrome":
		cfg.Driver = driver.NewChrome(driver.ChromeOptions{Headless: true})
	default:
		return errorResult(fmt.Sprintf("unknown driver %q, use 'dry-run' or 'chrome'", driverName)), nil
	}

	if tracePath, _ := args["trace"].(string); tracePath != "" {
		sink, err := trace.NewFileWriter(tracePath, cfg.RunID)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		cfg.Sink = sink
	}

	result := engine.New(sc, cfg).Run(ctx)

	// Build response
	run := result.Run
	response := map[string]any{
		"run_id":   run.ID,
		"status":   run.Status,
		"driver":   driverName,
		"duration": run.Duration().String(),
		"summary":  run.Summary,
	}
	if result.Error != nil {
		response["error"] = result.Error.Error()
	}
	if len(result.HealingEvents) > 0 {
		healed := make([]map[string]any, 0, len(result.HealingEvents))
		for _, evt := range result.HealingEvents {
			entry := map[string]any{
				"event_id":   evt.Key(),
				"step_id":    evt.StepID,
				"original":   strategyRef(evt.Original),
				"healed":     strategyRef(evt.Healed),
				"confidence": evt.Confidence,
				"decision":   string(healingStatus(s, evt.Key())),
			}
			healed = append(healed, entry)
		}
		response["healing_events"] = healed
	}
	if failed := failedSteps(result); len(failed) > 0 {
		response["failed_steps"] = failed
	}

	data, _ := json.MarshalIndent(response, "", "  ")

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: result.Failed(),
	}, nil
}

// HandleHealingPending implements the splint/healing_pending MCP tool.
func (s *Service) HandleHealingPending(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pending := s.tracker.PendingEvents()

	entries := make([]map[string]any, 0, len(pending))
	for _, evt := range pending {
		entries = append(entries, map[string]any{
			"event_id":    evt.Key(),
			"scenario_id": evt.ScenarioID,
			"step_id":     evt.StepID,
			"original":    strategyRef(evt.Original),
			"healed":      strategyRef(evt.Healed),
			"confidence":  evt.Confidence,
			"created_at":  evt.CreatedAt,
		})
	}

	data, _ := json.MarshalIndent(map[string]any{
		"pending": entries,
		"count":   len(entries),
	}, "", "  ")
	return textResult(string(data)), nil
}

// HandleHealingApprove implements the splint/healing_approve MCP tool.
func (s *Service) HandleHealingApprove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.decide(req, true)
}

// HandleHealingReject implements the splint/healing_reject MCP tool.
func (s *Service) HandleHealingReject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.decide(req, false)
}

func (s *Service) decide(req mcp.CallToolRequest, approve bool) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	eventID, _ := args["event_id"].(string)
	if eventID == "" {
		return errorResult("event_id argument is required"), nil
	}
	note, _ := args["note"].(string)

	var d *healing.Decision
	if approve {
		d = s.tracker.Approve(eventID, "mcp", note)
	} else {
		d = s.tracker.Reject(eventID, "mcp", note)
	}
	if d == nil {
		return errorResult(fmt.Sprintf("unknown healing event %q", eventID)), nil
	}
	return textResult(fmt.Sprintf("✓ %s is %s", eventID, d.Status)), nil
}

// isComponentFile checks if a file is a component definition.
func isComponentFile(path string) bool {
	return strings.Contains(path, ".component.")
}

func healingStatus(s *Service, eventID string) healing.DecisionStatus {
	if d := s.tracker.Decision(eventID); d != nil {
		return d.Status
	}
	return healing.StatusPending
}

func failedSteps(result *engine.ExecutionResult) []map[string]any {
	var failed []map[string]any
	for _, sr := range result.StepResults {
		if sr.Status != engine.StepFailed || sr.Error == nil {
			continue
		}
		failed = append(failed, map[string]any{
			"step_id": sr.StepID,
			"kind":    sr.Error.Kind,
			"message": sr.Error.Message,
		})
	}
	return failed
}

func strategyRef(s schema.LocatorStrategy) string {
	return string(s.Type) + "=" + s.Value
}

func formatErrors(errs []*schema.ValidationError) string {
	var msgs []string
	for _, e := range errs {
		if e.Severity == "error" {
			msgs = append(msgs, e.Error())
		}
	}
	return strings.Join(msgs, "; ")
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
