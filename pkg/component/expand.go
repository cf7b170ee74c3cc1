package component

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ormasoftchile/splint/pkg/interp"
	"github.com/ormasoftchile/splint/pkg/schema"
)

// MaxDepth caps nested component expansion. Hitting it almost always means
// a component cycle.
const MaxDepth = 10

// Expander turns component steps into inline step sequences.
type Expander struct {
	Loader Loader
}

// Expand replaces every component step in steps with the component's steps,
// cloned under fresh identities and interpolated against the bound
// parameter scope. Expansion is recursive; nested components expand within
// their parent's bound scope.
func (e *Expander) Expand(ctx context.Context, steps []schema.Step, scope map[string]any) ([]schema.Step, error) {
	return e.expand(ctx, steps, scope, 0)
}

func (e *Expander) expand(ctx context.Context, steps []schema.Step, scope map[string]any, depth int) ([]schema.Step, error) {
	if depth > MaxDepth {
		return nil, fmt.Errorf("component expansion exceeded depth %d; check for a component cycle", MaxDepth)
	}

	var out []schema.Step
	for _, step := range steps {
		if step.Type != schema.StepComponent {
			out = append(out, step)
			continue
		}
		if step.Component == nil {
			return nil, fmt.Errorf("step %q: component step without component configuration", step.ID)
		}
		if e.Loader == nil {
			return nil, fmt.Errorf("step %q: no component loader configured", step.ID)
		}

		comp, err := e.Loader.Load(ctx, step.Component.ID)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", step.ID, err)
		}

		bound, err := BindParameters(comp, step.Component.Params, scope)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", step.ID, err)
		}

		// Parameter bindings win over same-named inherited variables.
		merged := make(map[string]any, len(scope)+len(bound))
		for k, v := range scope {
			merged[k] = v
		}
		for k, v := range bound {
			merged[k] = v
		}

		expanded := make([]schema.Step, 0, len(comp.Steps))
		for _, inner := range comp.Steps {
			cloned, err := cloneStep(inner, merged)
			if err != nil {
				return nil, fmt.Errorf("component %q step %q: %w", comp.ID, inner.ID, err)
			}
			expanded = append(expanded, cloned)
		}

		// The component's own steps may contain components.
		expanded, err = e.expand(ctx, expanded, merged, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

// BindParameters computes the bound value of every declared parameter:
// the caller-provided value (interpolated against the caller's scope when
// it carries placeholders), else the declared default, else an error when
// the parameter is required.
func BindParameters(comp *schema.Component, params map[string]any, callerScope map[string]any) (map[string]any, error) {
	bound := make(map[string]any, len(comp.Parameters))
	for _, p := range comp.Parameters {
		if v, ok := params[p.Name]; ok && v != nil {
			if s, isString := v.(string); isString && strings.Contains(s, "{{") {
				v = interp.String(s, callerScope)
			}
			bound[p.Name] = v
			continue
		}
		if p.Default != nil {
			bound[p.Name] = p.Default
			continue
		}
		if p.Required {
			return nil, fmt.Errorf("required parameter %q of component %q has no value", p.Name, comp.ID)
		}
	}
	return bound, nil
}

// cloneStep deep-copies a step under a fresh identity with every string in
// its tree interpolated against the bound scope. The copy goes through the
// step's JSON form, which is exactly the tree interpolation operates on.
func cloneStep(step schema.Step, scope map[string]any) (schema.Step, error) {
	raw, err := json.Marshal(step)
	if err != nil {
		return schema.Step{}, fmt.Errorf("clone: %w", err)
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return schema.Step{}, fmt.Errorf("clone: %w", err)
	}
	tree = interp.Tree(tree, scope)
	interpolated, err := json.Marshal(tree)
	if err != nil {
		return schema.Step{}, fmt.Errorf("clone: %w", err)
	}
	var cloned schema.Step
	if err := json.Unmarshal(interpolated, &cloned); err != nil {
		return schema.Step{}, fmt.Errorf("clone: %w", err)
	}
	cloned.ID = freshID(step.ID)
	return cloned, nil
}

// freshID derives a collision-free identity for an expanded step, keeping
// the declared id as a readable prefix.
func freshID(base string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if base == "" {
		return "step-" + suffix
	}
	return base + "-" + suffix
}
