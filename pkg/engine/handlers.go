package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/expr-lang/expr"

	"github.com/ormasoftchile/splint/pkg/driver"
	"github.com/ormasoftchile/splint/pkg/healing"
	"github.com/ormasoftchile/splint/pkg/interp"
	"github.com/ormasoftchile/splint/pkg/jsonpath"
	"github.com/ormasoftchile/splint/pkg/locator"
	"github.com/ormasoftchile/splint/pkg/schema"
	"github.com/ormasoftchile/splint/pkg/transport"
)

// lookupLocator materializes the element locator a target references.
func (e *Engine) lookupLocator(target *schema.ElementTarget) (*schema.ElementLocator, error) {
	if target.IsRef() {
		loc, ok := e.scenario.Element(target.Ref)
		if !ok {
			return nil, fmt.Errorf("element ref %q is not declared in the scenario", target.Ref)
		}
		return loc, nil
	}
	return target.Inline(), nil
}

// resolveTarget resolves an element target against the live session,
// consulting the tracker for an approved healed strategy first and
// recording a healing event when a non-primary strategy wins. A false
// return means the result has already been failed.
func (e *Engine) resolveTarget(ctx context.Context, step *schema.Step, target *schema.ElementTarget, result *StepResult) (driver.Element, bool) {
	loc, err := e.lookupLocator(target)
	if err != nil {
		e.failStep(result, "element_not_found", err)
		return nil, false
	}

	var pinned *schema.LocatorStrategy
	if loc.HealingAllowed() {
		pinned = e.cfg.Tracker.HealedStrategy(e.scenario.ID, step.ID)
	}
	res, err := locator.ResolvePinned(ctx, loc, e.session, pinned)
	if err != nil {
		e.failStep(result, "element_not_found", err)
		return nil, false
	}
	if res.Healed {
		e.recordHealing(step, loc, res, result)
	}
	return res.Element, true
}

// recordHealing marks the result healed and files the event with the
// tracker, honoring the locator's own auto-approve policy on top of the
// tracker threshold.
func (e *Engine) recordHealing(step *schema.Step, loc *schema.ElementLocator, res *locator.Resolution, result *StepResult) {
	evt := healing.Event{
		ScenarioID: e.scenario.ID,
		StepID:     step.ID,
		RunID:      e.run.ID,
		Original:   res.Primary,
		Healed:     res.Strategy,
		Confidence: res.Confidence,
		CreatedAt:  time.Now().UTC(),
	}
	eventID := e.cfg.Tracker.RecordEvent(evt)
	if hc := loc.Healing; hc != nil && hc.AutoApprove && res.Confidence >= hc.ConfidenceThreshold {
		if d := e.cfg.Tracker.Decision(eventID); d == nil || d.Status == healing.StatusPending {
			e.cfg.Tracker.Approve(eventID, "policy", "locator auto-approve policy")
		}
	}
	e.events = append(e.events, evt)

	result.Status = StepHealed
	result.Healing = &HealingInfo{
		Original:   res.Primary,
		Used:       res.Strategy,
		Confidence: res.Confidence,
		EventID:    eventID,
	}
}

// recordPathHealing files a healed response path as a healing event using
// api-path strategies, so path heals go through the same review workflow
// as locator heals.
func (e *Engine) recordPathHealing(step *schema.Step, originalPath string, lookup jsonpath.Lookup, result *StepResult) {
	original := schema.LocatorStrategy{Type: schema.StrategyAPIPath, Value: originalPath}
	used := schema.LocatorStrategy{Type: schema.StrategyAPIPath, Value: lookup.UsedPath}
	evt := healing.Event{
		ScenarioID: e.scenario.ID,
		StepID:     step.ID,
		RunID:      e.run.ID,
		Original:   original,
		Healed:     used,
		Confidence: lookup.Confidence,
		CreatedAt:  time.Now().UTC(),
	}
	eventID := e.cfg.Tracker.RecordEvent(evt)
	e.events = append(e.events, evt)

	if result.Status != StepFailed {
		result.Status = StepHealed
	}
	if result.Healing == nil {
		result.Healing = &HealingInfo{
			Original:   original,
			Used:       used,
			Confidence: lookup.Confidence,
			EventID:    eventID,
		}
	}
}

func (e *Engine) executeNavigateStep(ctx context.Context, step *schema.Step, result *StepResult) {
	cfg := step.Navigate
	url := e.resolveURL(interp.String(cfg.URL, e.vars))
	if err := e.session.Navigate(ctx, url); err != nil {
		e.failStep(result, "navigation", err)
		return
	}
	if cfg.WaitUntil != "" {
		if err := e.session.WaitForLoadState(ctx, cfg.WaitUntil); err != nil {
			e.failStep(result, "navigation", err)
		}
	}
}

func (e *Engine) executeClickStep(ctx context.Context, step *schema.Step, result *StepResult) {
	el, ok := e.resolveTarget(ctx, step, &step.Click.Element, result)
	if !ok {
		return
	}
	if err := el.Click(ctx); err != nil {
		e.failStep(result, "interaction", err)
	}
}

func (e *Engine) executeFillStep(ctx context.Context, step *schema.Step, result *StepResult) {
	cfg := step.Fill
	el, ok := e.resolveTarget(ctx, step, &cfg.Element, result)
	if !ok {
		return
	}
	if err := el.Fill(ctx, interp.String(cfg.Value, e.vars), cfg.Clear); err != nil {
		e.failStep(result, "interaction", err)
	}
}

func (e *Engine) executeSelectStep(ctx context.Context, step *schema.Step, result *StepResult) {
	cfg := step.Select
	el, ok := e.resolveTarget(ctx, step, &cfg.Element, result)
	if !ok {
		return
	}
	if err := el.SelectOption(ctx, interp.String(cfg.Value, e.vars)); err != nil {
		e.failStep(result, "interaction", err)
	}
}

func (e *Engine) executeHoverStep(ctx context.Context, step *schema.Step, result *StepResult) {
	el, ok := e.resolveTarget(ctx, step, &step.Hover.Element, result)
	if !ok {
		return
	}
	if err := el.Hover(ctx); err != nil {
		e.failStep(result, "interaction", err)
	}
}

func (e *Engine) executeWaitStep(ctx context.Context, step *schema.Step, result *StepResult) {
	cfg := step.Wait
	switch {
	case cfg.Duration > 0:
		if err := e.session.WaitForTimeout(ctx, time.Duration(cfg.Duration)*time.Millisecond); err != nil {
			e.failStep(result, "wait", err)
		}
	case cfg.Element != nil:
		el, ok := e.resolveTarget(ctx, step, cfg.Element, result)
		if !ok {
			return
		}
		if err := el.WaitFor(ctx, cfg.State); err != nil {
			e.failStep(result, "wait", err)
		}
	case cfg.LoadState != "":
		if err := e.session.WaitForLoadState(ctx, cfg.LoadState); err != nil {
			e.failStep(result, "wait", err)
		}
	default:
		result.Status = StepFailed
		result.Error = &StepError{Kind: "internal", Message: "wait step configures no duration, element or load state"}
	}
}

func (e *Engine) executeAssertStep(ctx context.Context, step *schema.Step, result *StepResult) {
	cfg := step.Assert
	el, ok := e.resolveTarget(ctx, step, &cfg.Element, result)
	if !ok {
		return
	}
	name := cfg.Element.Ref
	if name == "" {
		name = cfg.Element.Name
	}
	if name == "" {
		name = "element"
	}

	switch cfg.Condition {
	case "visible":
		visible, err := el.IsVisible(ctx)
		if err != nil {
			e.failStep(result, "assertion", err)
			return
		}
		if !visible {
			e.failAssertion(result, fmt.Sprintf("%s is not visible", name))
		}
	case "hidden":
		hidden, err := el.IsHidden(ctx)
		if err != nil {
			e.failStep(result, "assertion", err)
			return
		}
		if !hidden {
			e.failAssertion(result, fmt.Sprintf("%s is not hidden", name))
		}
	case "text":
		text, err := el.TextContent(ctx)
		if err != nil {
			e.failStep(result, "assertion", err)
			return
		}
		expected := interp.String(cfg.Expected, e.vars)
		if cfg.Operator == "contains" {
			if !strings.Contains(text, expected) {
				e.failAssertion(result, fmt.Sprintf("%s text %q does not contain %q", name, text, expected))
			}
		} else {
			if text != expected {
				e.failAssertion(result, fmt.Sprintf("%s text = %q, want %q", name, text, expected))
			}
		}
	default:
		result.Status = StepFailed
		result.Error = &StepError{Kind: "internal", Message: fmt.Sprintf("unknown assert condition %q", cfg.Condition)}
	}
}

func (e *Engine) executeScreenshotStep(ctx context.Context, step *schema.Step, result *StepResult) {
	cfg := step.Screenshot
	path := interp.String(cfg.Path, e.vars)
	if path == "" {
		path = filepath.Join(e.cfg.ScreenshotDir, fmt.Sprintf("%s-%s.png", e.run.ID, step.ID))
	}
	if err := e.session.Screenshot(ctx, path, cfg.FullPage); err != nil {
		e.failStep(result, "screenshot", err)
		return
	}
	stepContext(result).Screenshot = path
}

func (e *Engine) executeAPIRequestStep(ctx context.Context, step *schema.Step, result *StepResult) {
	cfg := step.Request
	req := transport.Request{
		Method: cfg.Method,
		URL:    interp.String(cfg.URL, e.vars),
		Body:   interp.Tree(cfg.Body, e.vars),
	}
	if len(cfg.Headers) > 0 {
		req.Headers = make(map[string]string, len(cfg.Headers))
		for k, v := range cfg.Headers {
			req.Headers[k] = interp.String(v, e.vars)
		}
	}
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil {
			req.Timeout = d
		}
	}

	resp, err := e.cfg.Transport.Do(ctx, req)
	if err != nil {
		e.failStep(result, "request", err)
		return
	}
	if cfg.SaveAs != "" {
		e.responses[cfg.SaveAs] = resp
	}
}

func (e *Engine) executeAPIAssertStep(ctx context.Context, step *schema.Step, result *StepResult) {
	cfg := step.APIAssert
	resp, ok := e.responses[cfg.Response]
	if !ok {
		e.failAssertion(result, fmt.Sprintf("no saved response %q; an earlier api-request step must save_as it", cfg.Response))
		return
	}

	var body any
	var bodyErr error
	bodyParsed := false

	var failures []string
	for i, check := range cfg.Checks {
		op := check.Operator
		if op == "" {
			if check.Expected == nil {
				op = "exists"
			} else {
				op = "equals"
			}
		}

		switch check.Kind {
		case "status":
			if !jsonpath.Compare(resp.Status, check.Expected, op) {
				failures = append(failures, fmt.Sprintf("status = %d, want %s %v", resp.Status, op, check.Expected))
			}
		case "header":
			value := resp.Header(check.Header)
			if op == "exists" {
				if value == "" {
					failures = append(failures, fmt.Sprintf("header %q is absent", check.Header))
				}
				continue
			}
			if !jsonpath.Compare(value, check.Expected, op) {
				failures = append(failures, fmt.Sprintf("header %q = %q, want %s %v", check.Header, value, op, check.Expected))
			}
		case "body":
			if !bodyParsed {
				body, bodyErr = resp.JSON()
				bodyParsed = true
			}
			if bodyErr != nil {
				failures = append(failures, fmt.Sprintf("parse body of %q: %v", cfg.Response, bodyErr))
				continue
			}
			lookup := jsonpath.GetWithHealing(body, check.Path, check.MinConfidence)
			if !lookup.Found {
				failures = append(failures, fmt.Sprintf("path %q not found in response %q", check.Path, cfg.Response))
				continue
			}
			if lookup.Healed {
				e.recordPathHealing(step, check.Path, lookup, result)
			}
			if !jsonpath.Compare(lookup.Value, check.Expected, op) {
				failures = append(failures, fmt.Sprintf("%s = %v, want %s %v", lookup.UsedPath, lookup.Value, op, check.Expected))
			}
		default:
			failures = append(failures, fmt.Sprintf("checks[%d]: unknown kind %q", i, check.Kind))
		}
	}

	if len(failures) > 0 {
		e.failAssertion(result, strings.Join(failures, "; "))
	}
}

func (e *Engine) executeScriptStep(ctx context.Context, step *schema.Step, result *StepResult) {
	cfg := step.Script
	program, err := expr.Compile(cfg.Expression, expr.Env(e.vars))
	if err != nil {
		e.failStep(result, "script", fmt.Errorf("compile expression: %w", err))
		return
	}
	output, err := expr.Run(program, e.vars)
	if err != nil {
		e.failStep(result, "script", fmt.Errorf("run expression: %w", err))
		return
	}
	if cfg.SaveAs != "" {
		e.vars[cfg.SaveAs] = output
	}
}
