package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/expr-lang/expr"

	"github.com/ormasoftchile/splint/pkg/component"
	"github.com/ormasoftchile/splint/pkg/driver"
	"github.com/ormasoftchile/splint/pkg/healing"
	"github.com/ormasoftchile/splint/pkg/locator"
	"github.com/ormasoftchile/splint/pkg/schema"
	"github.com/ormasoftchile/splint/pkg/trace"
	"github.com/ormasoftchile/splint/pkg/transport"
)

// Config carries the resources and settings of one run. New fills zero
// values with defaults: a generated run ID, a dry-run driver, a transport
// against BaseURL, a fresh tracker.
type Config struct {
	RunID          string
	BaseURL        string
	Vars           map[string]any
	DefaultTimeout time.Duration
	ScreenshotDir  string
	Driver         driver.Driver
	Transport      *transport.Client
	Loader         component.Loader
	Tracker        *healing.Tracker
	Sink           *trace.Writer
}

// Engine executes one scenario. Create a fresh engine per run; an engine is
// neither reusable nor safe for concurrent use. The step loop owns the
// browser session, the saved-response map and the variable scope.
type Engine struct {
	scenario *schema.Scenario
	cfg      Config
	timeout  time.Duration

	run       *TestRun
	steps     []schema.Step
	index     int
	results   []*StepResult
	events    []healing.Event
	responses map[string]*transport.Response
	vars      map[string]any
	session   driver.Session
	halted    bool
	started   bool
	finished  bool
}

// New prepares an engine for one run of the scenario.
func New(sc *schema.Scenario, cfg Config) *Engine {
	if cfg.RunID == "" {
		cfg.RunID = GenerateRunID()
	}
	if cfg.Driver == nil {
		cfg.Driver = driver.NewDryRun()
	}
	if cfg.Transport == nil {
		cfg.Transport = transport.New(cfg.BaseURL)
	}
	if cfg.Tracker == nil {
		cfg.Tracker = healing.NewTracker()
	}
	if cfg.ScreenshotDir == "" {
		cfg.ScreenshotDir = "screenshots"
	}
	timeout := cfg.DefaultTimeout
	if timeout <= 0 && sc.Defaults != nil && sc.Defaults.Timeout != "" {
		if d, err := time.ParseDuration(sc.Defaults.Timeout); err == nil {
			timeout = d
		}
	}
	return &Engine{
		scenario:  sc,
		cfg:       cfg,
		timeout:   timeout,
		responses: make(map[string]*transport.Response),
	}
}

// Start creates the TestRun, acquires the browser session and expands
// component steps into the flat execution list. On error the run is sealed
// as failed with the session released, and the error is returned.
func (e *Engine) Start(ctx context.Context) error {
	if e.started {
		return errors.New("run already started")
	}
	e.started = true

	e.vars = BuildVariables(e.scenario, e.cfg.Vars)
	e.run = &TestRun{
		ID:           e.cfg.RunID,
		ScenarioID:   e.scenario.ID,
		ScenarioName: e.scenario.Name,
		Status:       RunRunning,
		BaseURL:      e.cfg.BaseURL,
		Variables:    e.vars,
		StartedAt:    time.Now().UTC(),
	}
	e.emitRunStart()

	sess, err := e.cfg.Driver.NewSession(ctx)
	if err != nil {
		err = fmt.Errorf("acquire browser session: %w", err)
		e.abort(err)
		return err
	}
	e.session = sess

	steps, err := (&component.Expander{Loader: e.cfg.Loader}).Expand(ctx, e.scenario.Steps, e.vars)
	if err != nil {
		err = fmt.Errorf("expand components: %w", err)
		e.abort(err)
		return err
	}
	e.steps = steps
	return nil
}

// Next executes the next step and advances the loop. The returned error is
// reserved for protocol misuse; step failures live in the result.
func (e *Engine) Next(ctx context.Context) (*StepResult, error) {
	if !e.started {
		return nil, errors.New("run not started")
	}
	if e.Done() {
		return nil, errors.New("no steps left")
	}
	index := e.index
	step := e.steps[index]
	e.index++

	e.emitStepStart(step)
	eventMark := len(e.events)
	result := e.executeStep(ctx, index, step)
	e.results = append(e.results, result)
	e.emitStepComplete(result)
	for _, evt := range e.events[eventMark:] {
		e.emitStepHealed(evt)
	}

	if result.Status == StepFailed && !step.ContinueOnError {
		e.halted = true
	}
	return result, nil
}

// Finish seals the run: final status, summary against the authored step
// count, run_complete event, session release. Calling it again just
// returns the assembled result.
func (e *Engine) Finish() *ExecutionResult {
	if e.started && !e.finished {
		e.finished = true
		e.run.Status = DetermineRunStatus(e.results)
		e.run.CompletedAt = time.Now().UTC()
		e.run.Summary = Summarize(len(e.scenario.Steps), e.results)
		e.emitRunComplete(nil)
		e.releaseSession()
	}
	return &ExecutionResult{
		Run:           e.run,
		StepResults:   e.results,
		HealingEvents: e.events,
	}
}

// Run executes the whole scenario: Start, every step until done or halted,
// Finish. Run-level failures come back in the result's Error field.
func (e *Engine) Run(ctx context.Context) *ExecutionResult {
	if err := e.Start(ctx); err != nil {
		res := e.Finish()
		res.Error = err
		return res
	}
	for !e.Done() {
		if _, err := e.Next(ctx); err != nil {
			break
		}
	}
	return e.Finish()
}

// Done reports whether the step loop has nothing left to execute, either
// because every step ran or because a failure halted the run.
func (e *Engine) Done() bool {
	return e.finished || e.halted || e.index >= len(e.steps)
}

// Position returns the next step index and the expanded step count.
func (e *Engine) Position() (int, int) {
	return e.index, len(e.steps)
}

// CurrentStep returns the step Next would execute, or nil when done.
func (e *Engine) CurrentStep() *schema.Step {
	if e.Done() {
		return nil
	}
	return &e.steps[e.index]
}

// RunInfo returns the run record, nil before Start.
func (e *Engine) RunInfo() *TestRun { return e.run }

// Results returns the step results collected so far.
func (e *Engine) Results() []*StepResult { return e.results }

// Vars returns the live variable scope. Script steps write into it.
func (e *Engine) Vars() map[string]any { return e.vars }

// Responses returns the saved API responses by name.
func (e *Engine) Responses() map[string]*transport.Response { return e.responses }

// HealingEvents returns the healing events recorded during this run.
func (e *Engine) HealingEvents() []healing.Event { return e.events }

// abort seals the run as failed outside the step loop: timestamps
// recorded, summary over whatever already ran, session released.
func (e *Engine) abort(err error) {
	e.finished = true
	e.run.Status = RunFailed
	e.run.CompletedAt = time.Now().UTC()
	e.run.Summary = Summarize(len(e.scenario.Steps), e.results)
	e.emitRunComplete(&trace.Failure{Kind: "run", Message: err.Error()})
	e.releaseSession()
}

func (e *Engine) releaseSession() {
	if e.session == nil {
		return
	}
	// A fresh context: the step context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	e.session.Close(ctx)
	e.session = nil
}

// executeStep runs one step through its handler with the when guard, the
// step timeout and panic recovery applied.
func (e *Engine) executeStep(ctx context.Context, index int, step schema.Step) *StepResult {
	start := time.Now()
	result := &StepResult{
		RunID:     e.run.ID,
		StepID:    step.ID,
		StepIndex: index,
		Type:      step.Type,
		Status:    StepPassed,
		StartedAt: start,
	}

	if step.When != "" {
		matched, err := e.evalCondition(step.When)
		switch {
		case err != nil:
			result.Status = StepFailed
			result.Error = &StepError{Kind: "script", Message: fmt.Sprintf("when guard: %v", err)}
		case !matched:
			result.Status = StepSkipped
		}
		if result.Status != StepPassed {
			result.EndedAt = time.Now()
			result.DurationMs = result.EndedAt.Sub(start).Milliseconds()
			return result
		}
	}

	logMark := len(e.session.ConsoleLogs())

	stepCtx := ctx
	if timeout := e.stepTimeout(step); timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	e.dispatch(stepCtx, &step, result)

	if logs := e.session.ConsoleLogs(); len(logs) > logMark {
		stepContext(result).Logs = logs[logMark:]
	}
	result.EndedAt = time.Now()
	result.DurationMs = result.EndedAt.Sub(start).Milliseconds()
	return result
}

// dispatch routes a step to its handler, converting panics into failed
// results with the stack preserved.
func (e *Engine) dispatch(ctx context.Context, step *schema.Step, result *StepResult) {
	defer func() {
		if r := recover(); r != nil {
			result.Status = StepFailed
			result.Error = &StepError{
				Kind:    "panic",
				Message: fmt.Sprintf("step handler panicked: %v", r),
				Stack:   string(debug.Stack()),
			}
		}
	}()

	switch step.Type {
	case schema.StepNavigate:
		e.executeNavigateStep(ctx, step, result)
	case schema.StepClick:
		e.executeClickStep(ctx, step, result)
	case schema.StepFill:
		e.executeFillStep(ctx, step, result)
	case schema.StepSelect:
		e.executeSelectStep(ctx, step, result)
	case schema.StepHover:
		e.executeHoverStep(ctx, step, result)
	case schema.StepWait:
		e.executeWaitStep(ctx, step, result)
	case schema.StepAssert:
		e.executeAssertStep(ctx, step, result)
	case schema.StepScreenshot:
		e.executeScreenshotStep(ctx, step, result)
	case schema.StepAPIRequest:
		e.executeAPIRequestStep(ctx, step, result)
	case schema.StepAPIAssert:
		e.executeAPIAssertStep(ctx, step, result)
	case schema.StepScript:
		e.executeScriptStep(ctx, step, result)
	case schema.StepComponent:
		// Expansion replaced these before the loop started.
		result.Status = StepFailed
		result.Error = &StepError{Kind: "internal", Message: fmt.Sprintf("component step %q survived expansion", step.ID)}
	default:
		result.Status = StepFailed
		result.Error = &StepError{Kind: "internal", Message: fmt.Sprintf("unknown step type %q", step.Type)}
	}
}

// evalCondition evaluates a when guard with expr against the variable
// scope. An empty condition is always true.
func (e *Engine) evalCondition(exprStr string) (bool, error) {
	exprStr = strings.TrimSpace(exprStr)
	if exprStr == "" {
		return true, nil
	}
	program, err := expr.Compile(exprStr, expr.Env(e.vars), expr.AsBool())
	if err != nil {
		return false, fmt.Errorf("compile condition %q: %w", exprStr, err)
	}
	output, err := expr.Run(program, e.vars)
	if err != nil {
		return false, fmt.Errorf("eval condition %q: %w", exprStr, err)
	}
	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("condition %q did not return bool (got %T)", exprStr, output)
	}
	return result, nil
}

// stepTimeout returns the timeout bounding a step: the step's own override,
// else the run default. Zero means unbounded.
func (e *Engine) stepTimeout(step schema.Step) time.Duration {
	if step.Timeout != "" {
		if d, err := time.ParseDuration(step.Timeout); err == nil {
			return d
		}
	}
	return e.timeout
}

// resolveURL joins a relative URL onto the run's base URL.
func (e *Engine) resolveURL(u string) string {
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") || e.cfg.BaseURL == "" {
		return u
	}
	return strings.TrimRight(e.cfg.BaseURL, "/") + "/" + strings.TrimLeft(u, "/")
}

// failStep marks a result failed, refining the kind for timeouts and
// exhausted locators.
func (e *Engine) failStep(result *StepResult, kind string, err error) {
	var notFound *locator.ElementNotFoundError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = "timeout"
	case errors.As(err, &notFound):
		kind = "element_not_found"
	}
	result.Status = StepFailed
	result.Error = &StepError{Kind: kind, Message: err.Error()}
}

// failAssertion marks a result failed with an assertion message.
func (e *Engine) failAssertion(result *StepResult, msg string) {
	result.Status = StepFailed
	result.Error = &StepError{Kind: "assertion", Message: msg}
}

// stepContext lazily attaches a context record to a result.
func stepContext(r *StepResult) *StepContext {
	if r.Context == nil {
		r.Context = &StepContext{}
	}
	return r.Context
}

func (e *Engine) emitRunStart() {
	if e.cfg.Sink == nil {
		return
	}
	e.cfg.Sink.EmitRunStart(e.scenario.ID, e.scenario.Name, e.vars)
}

func (e *Engine) emitStepStart(step schema.Step) {
	if e.cfg.Sink == nil {
		return
	}
	e.cfg.Sink.EmitStepStart(step.ID, string(step.Type), step.Description)
}

func (e *Engine) emitStepComplete(r *StepResult) {
	if e.cfg.Sink == nil {
		return
	}
	var failure *trace.Failure
	if r.Error != nil {
		failure = &trace.Failure{Kind: r.Error.Kind, Message: r.Error.Message}
	}
	e.cfg.Sink.EmitStepComplete(r.StepID, r.Status, time.Duration(r.DurationMs)*time.Millisecond, failure)
}

func (e *Engine) emitStepHealed(evt healing.Event) {
	if e.cfg.Sink == nil {
		return
	}
	status := string(healing.StatusPending)
	if d := e.cfg.Tracker.Decision(evt.Key()); d != nil {
		status = string(d.Status)
	}
	e.cfg.Sink.EmitStepHealed(evt, status)
}

func (e *Engine) emitRunComplete(failure *trace.Failure) {
	if e.cfg.Sink == nil {
		return
	}
	s := e.run.Summary
	summary := map[string]any{
		"total":   s.Total,
		"passed":  s.Passed,
		"failed":  s.Failed,
		"skipped": s.Skipped,
		"healed":  s.Healed,
	}
	e.cfg.Sink.EmitRunComplete(e.run.Status, summary, e.run.Duration(), failure)
}
