// Package schema defines the Go struct types for scenario and component
// YAML documents and provides strict parsing.
package schema

// StepType discriminates the closed set of step variants. Dispatch over
// step types is exhaustive; adding a type is a deliberate extension.
type StepType string

const (
	StepNavigate   StepType = "navigate"
	StepClick      StepType = "click"
	StepFill       StepType = "fill"
	StepSelect     StepType = "select"
	StepHover      StepType = "hover"
	StepWait       StepType = "wait"
	StepAssert     StepType = "assert"
	StepScreenshot StepType = "screenshot"
	StepAPIRequest StepType = "api-request"
	StepAPIAssert  StepType = "api-assert"
	StepComponent  StepType = "component"
	StepScript     StepType = "script"
)

// StepTypes lists every known step type, in dispatch order.
var StepTypes = []StepType{
	StepNavigate, StepClick, StepFill, StepSelect, StepHover, StepWait,
	StepAssert, StepScreenshot, StepAPIRequest, StepAPIAssert,
	StepComponent, StepScript,
}

// StrategyType identifies one way of locating an element (or, for
// api-path, a JSON path into an API response).
type StrategyType string

const (
	StrategyTestID  StrategyType = "testId"
	StrategyRole    StrategyType = "role"
	StrategyText    StrategyType = "text"
	StrategyLabel   StrategyType = "label"
	StrategyCSS     StrategyType = "css"
	StrategyXPath   StrategyType = "xpath"
	StrategyAPIPath StrategyType = "api-path"
)

// StrategyTypes lists every known locator strategy type.
var StrategyTypes = []StrategyType{
	StrategyTestID, StrategyRole, StrategyText, StrategyLabel,
	StrategyCSS, StrategyXPath, StrategyAPIPath,
}

// Scenario is the top-level document describing one executable test
// scenario. It is an immutable input to a run; the engine never mutates it.
type Scenario struct {
	APIVersion  string                     `yaml:"apiVersion"            json:"apiVersion"            jsonschema:"required,enum=scenario/v1"`
	ID          string                     `yaml:"id"                    json:"id"                    jsonschema:"required"`
	Name        string                     `yaml:"name"                  json:"name"                  jsonschema:"required"`
	Description string                     `yaml:"description,omitempty" json:"description,omitempty"`
	Priority    string                     `yaml:"priority,omitempty"    json:"priority,omitempty"    jsonschema:"enum=low,enum=medium,enum=high,enum=critical"`
	Tags        []string                   `yaml:"tags,omitempty"        json:"tags,omitempty"`
	Variables   []Variable                 `yaml:"variables,omitempty"   json:"variables,omitempty"`
	Elements    map[string]*ElementLocator `yaml:"elements,omitempty"    json:"elements,omitempty"`
	Defaults    *Defaults                  `yaml:"defaults,omitempty"    json:"defaults,omitempty"`
	Steps       []Step                     `yaml:"steps"                 json:"steps"                 jsonschema:"required,minItems=1"`
}

// Element looks up a named locator from the scenario's elements registry.
func (s *Scenario) Element(ref string) (*ElementLocator, bool) {
	if s.Elements == nil {
		return nil, false
	}
	loc, ok := s.Elements[ref]
	return loc, ok
}

// Variable declares a scenario variable with an optional default value.
// Defaults are materialized at run start and may be overridden by the caller.
type Variable struct {
	Name        string `yaml:"name"                  json:"name"                  jsonschema:"required"`
	Default     any    `yaml:"default,omitempty"     json:"default,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Defaults specifies execution settings applied to all steps.
type Defaults struct {
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"pattern=^[0-9]+(ms|s|m|h)$"`
}

// ElementLocator describes an element through an ordered set of location
// strategies plus an optional healing policy.
type ElementLocator struct {
	Name       string            `yaml:"name,omitempty"    json:"name,omitempty"`
	Strategies []LocatorStrategy `yaml:"strategies"        json:"strategies"        jsonschema:"required,minItems=1"`
	Healing    *HealingConfig    `yaml:"healing,omitempty" json:"healing,omitempty"`
}

// HealingAllowed reports whether fallback to lower-priority strategies is
// permitted. Absent config means allowed.
func (l *ElementLocator) HealingAllowed() bool {
	if l.Healing == nil || l.Healing.Enabled == nil {
		return true
	}
	return *l.Healing.Enabled
}

// LocatorStrategy is one way to identify an element. Value carries the
// type-specific payload (test id, role, visible text, label text, CSS
// selector, XPath expression, or JSON path). Lower priority is tried first.
type LocatorStrategy struct {
	Type     StrategyType `yaml:"type"            json:"type"            jsonschema:"required,enum=testId,enum=role,enum=text,enum=label,enum=css,enum=xpath,enum=api-path"`
	Value    string       `yaml:"value"           json:"value"           jsonschema:"required"`
	Name     string       `yaml:"name,omitempty"  json:"name,omitempty"`
	Exact    bool         `yaml:"exact,omitempty" json:"exact,omitempty"`
	Priority int          `yaml:"priority"        json:"priority"`
}

// HealingConfig controls self-healing behavior for one locator.
// Enabled is a pointer so an omitted flag reads as "allowed".
type HealingConfig struct {
	Enabled             *bool   `yaml:"enabled,omitempty"              json:"enabled,omitempty"`
	AutoApprove         bool    `yaml:"auto_approve,omitempty"         json:"auto_approve,omitempty"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold,omitempty" json:"confidence_threshold,omitempty" jsonschema:"minimum=0,maximum=1"`
}

// ElementTarget references the element a UI step acts on: either a ref
// into the scenario's elements registry, or an inline locator. Exactly one
// form must be used.
type ElementTarget struct {
	Ref        string            `yaml:"ref,omitempty"        json:"ref,omitempty"`
	Name       string            `yaml:"name,omitempty"       json:"name,omitempty"`
	Strategies []LocatorStrategy `yaml:"strategies,omitempty" json:"strategies,omitempty"`
	Healing    *HealingConfig    `yaml:"healing,omitempty"    json:"healing,omitempty"`
}

// IsRef reports whether the target references the elements registry.
func (t *ElementTarget) IsRef() bool { return t.Ref != "" }

// Inline returns the target's inline locator form.
func (t *ElementTarget) Inline() *ElementLocator {
	return &ElementLocator{Name: t.Name, Strategies: t.Strategies, Healing: t.Healing}
}

// Step is a single unit of work, dispatched by Type. Exactly one of the
// per-type config fields must be set, matching the type.
type Step struct {
	ID              string   `yaml:"id,omitempty"                json:"id,omitempty"`
	Type            StepType `yaml:"type"                        json:"type" jsonschema:"required,enum=navigate,enum=click,enum=fill,enum=select,enum=hover,enum=wait,enum=assert,enum=screenshot,enum=api-request,enum=api-assert,enum=component,enum=script"`
	Description     string   `yaml:"description,omitempty"       json:"description,omitempty"`
	When            string   `yaml:"when,omitempty"              json:"when,omitempty"`
	Timeout         string   `yaml:"timeout,omitempty"           json:"timeout,omitempty" jsonschema:"pattern=^[0-9]+(ms|s|m|h)$"`
	ContinueOnError bool     `yaml:"continue_on_error,omitempty" json:"continue_on_error,omitempty"`

	Navigate   *NavigateConfig   `yaml:"navigate,omitempty"   json:"navigate,omitempty"`
	Click      *ClickConfig      `yaml:"click,omitempty"      json:"click,omitempty"`
	Fill       *FillConfig       `yaml:"fill,omitempty"       json:"fill,omitempty"`
	Select     *SelectConfig     `yaml:"select,omitempty"     json:"select,omitempty"`
	Hover      *HoverConfig      `yaml:"hover,omitempty"      json:"hover,omitempty"`
	Wait       *WaitConfig       `yaml:"wait,omitempty"       json:"wait,omitempty"`
	Assert     *AssertConfig     `yaml:"assert,omitempty"     json:"assert,omitempty"`
	Screenshot *ScreenshotConfig `yaml:"screenshot,omitempty" json:"screenshot,omitempty"`
	Request    *RequestConfig    `yaml:"request,omitempty"    json:"request,omitempty"`
	APIAssert  *APIAssertConfig  `yaml:"api_assert,omitempty" json:"api_assert,omitempty"`
	Component  *ComponentConfig  `yaml:"component,omitempty"  json:"component,omitempty"`
	Script     *ScriptConfig     `yaml:"script,omitempty"     json:"script,omitempty"`
}

// NavigateConfig loads a URL. Relative URLs resolve against the run's base
// URL. WaitUntil optionally blocks until the given load state.
type NavigateConfig struct {
	URL       string `yaml:"url"                  json:"url" jsonschema:"required"`
	WaitUntil string `yaml:"wait_until,omitempty" json:"wait_until,omitempty" jsonschema:"enum=load,enum=domcontentloaded,enum=networkidle"`
}

// ClickConfig clicks the first match of the target element.
type ClickConfig struct {
	Element ElementTarget `yaml:"element" json:"element" jsonschema:"required"`
}

// FillConfig types a value into the target element, optionally clearing
// the existing content first.
type FillConfig struct {
	Element ElementTarget `yaml:"element"         json:"element" jsonschema:"required"`
	Value   string        `yaml:"value"           json:"value"   jsonschema:"required"`
	Clear   bool          `yaml:"clear,omitempty" json:"clear,omitempty"`
}

// SelectConfig selects an option (by value) in the target element.
type SelectConfig struct {
	Element ElementTarget `yaml:"element" json:"element" jsonschema:"required"`
	Value   string        `yaml:"value"   json:"value"   jsonschema:"required"`
}

// HoverConfig hovers over the target element.
type HoverConfig struct {
	Element ElementTarget `yaml:"element" json:"element" jsonschema:"required"`
}

// WaitConfig pauses execution: a fixed duration in milliseconds, an element
// reaching a state, or a page load state. Exactly one form must be used.
type WaitConfig struct {
	Duration  int            `yaml:"duration,omitempty"   json:"duration,omitempty" jsonschema:"minimum=0"`
	Element   *ElementTarget `yaml:"element,omitempty"    json:"element,omitempty"`
	State     string         `yaml:"state,omitempty"      json:"state,omitempty" jsonschema:"enum=visible,enum=hidden"`
	LoadState string         `yaml:"load_state,omitempty" json:"load_state,omitempty" jsonschema:"enum=load,enum=domcontentloaded,enum=networkidle"`
}

// AssertConfig checks a condition on the target element. Text conditions
// compare the element's text content with the expected value.
type AssertConfig struct {
	Element  ElementTarget `yaml:"element"            json:"element"   jsonschema:"required"`
	Condition string       `yaml:"condition"          json:"condition" jsonschema:"required,enum=visible,enum=hidden,enum=text"`
	Operator string        `yaml:"operator,omitempty" json:"operator,omitempty" jsonschema:"enum=equals,enum=contains"`
	Expected string        `yaml:"expected,omitempty" json:"expected,omitempty"`
}

// ScreenshotConfig captures the page to a file. Path defaults to
// <screenshot dir>/<run id>-<step id>.png.
type ScreenshotConfig struct {
	Path     string `yaml:"path,omitempty"      json:"path,omitempty"`
	FullPage bool   `yaml:"full_page,omitempty" json:"full_page,omitempty"`
}

// RequestConfig performs an HTTP request through the transport. SaveAs
// stores the response under a name for later api-assert steps.
type RequestConfig struct {
	Method  string            `yaml:"method"            json:"method" jsonschema:"required,enum=GET,enum=POST,enum=PUT,enum=PATCH,enum=DELETE,enum=HEAD,enum=OPTIONS"`
	URL     string            `yaml:"url"               json:"url"    jsonschema:"required"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Body    any               `yaml:"body,omitempty"    json:"body,omitempty"`
	Timeout string            `yaml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"pattern=^[0-9]+(ms|s|m|h)$"`
	SaveAs  string            `yaml:"save_as,omitempty" json:"save_as,omitempty"`
}

// APIAssertConfig runs checks against a previously saved response.
type APIAssertConfig struct {
	Response string     `yaml:"response" json:"response" jsonschema:"required"`
	Checks   []APICheck `yaml:"checks"   json:"checks"   jsonschema:"required,minItems=1"`
}

// APICheck is one assertion on a saved response: the status code, a header,
// or a JSON body path. Body checks may heal the path when the exact path
// misses; MinConfidence bounds accepted alternatives (default 0.7).
type APICheck struct {
	Kind          string  `yaml:"kind"                     json:"kind" jsonschema:"required,enum=status,enum=header,enum=body"`
	Header        string  `yaml:"header,omitempty"         json:"header,omitempty"`
	Path          string  `yaml:"path,omitempty"           json:"path,omitempty"`
	Operator      string  `yaml:"operator,omitempty"       json:"operator,omitempty" jsonschema:"enum=equals,enum=contains,enum=matches,enum=exists,enum=type"`
	Expected      any     `yaml:"expected,omitempty"       json:"expected,omitempty"`
	MinConfidence float64 `yaml:"min_confidence,omitempty" json:"min_confidence,omitempty" jsonschema:"minimum=0,maximum=1"`
}

// ComponentConfig expands a reusable component in place of this step.
type ComponentConfig struct {
	ID     string         `yaml:"id"               json:"id" jsonschema:"required"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// ScriptConfig evaluates an expression with access to the run's variables.
// The embedding system is responsible for sandboxing script sources.
type ScriptConfig struct {
	Expression string `yaml:"expression"        json:"expression" jsonschema:"required"`
	SaveAs     string `yaml:"save_as,omitempty" json:"save_as,omitempty"`
}

// Component is a named, reusable bundle of steps with declared parameters.
// Components are loaded on demand by id and expanded inline before a run.
type Component struct {
	APIVersion  string         `yaml:"apiVersion"            json:"apiVersion" jsonschema:"required,enum=component/v1"`
	ID          string         `yaml:"id"                    json:"id"         jsonschema:"required"`
	Name        string         `yaml:"name,omitempty"        json:"name,omitempty"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Parameters  []ParameterDef `yaml:"parameters,omitempty"  json:"parameters,omitempty"`
	Steps       []Step         `yaml:"steps"                 json:"steps" jsonschema:"required,minItems=1"`
}

// ParameterDef declares one component parameter.
type ParameterDef struct {
	Name        string `yaml:"name"                  json:"name" jsonschema:"required"`
	Type        string `yaml:"type,omitempty"        json:"type,omitempty" jsonschema:"enum=string,enum=number,enum=boolean"`
	Required    bool   `yaml:"required,omitempty"    json:"required,omitempty"`
	Default     any    `yaml:"default,omitempty"     json:"default,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}
