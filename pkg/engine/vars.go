package engine

import "github.com/ormasoftchile/splint/pkg/schema"

// BuildVariables materializes the run's variable scope: scenario defaults
// first, caller overrides second. Variables declared without a default stay
// absent until overridden, so their tokens interpolate literally.
func BuildVariables(sc *schema.Scenario, overrides map[string]any) map[string]any {
	vars := make(map[string]any)
	for _, v := range sc.Variables {
		if v.Default != nil {
			vars[v.Name] = v.Default
		}
	}
	for k, v := range overrides {
		vars[k] = v
	}
	return vars
}

// DetermineRunStatus folds step results into a run status: failed when at
// least one step failed, passed otherwise. Healed and skipped steps never
// fail a run.
func DetermineRunStatus(results []*StepResult) string {
	for _, r := range results {
		if r.Status == StepFailed {
			return RunFailed
		}
	}
	return RunPassed
}

// Summarize counts results by status. Total is the authored step count, not
// the expanded one, so a halted or component-heavy run still reads against
// what the scenario declares.
func Summarize(total int, results []*StepResult) StepsSummary {
	s := StepsSummary{Total: total}
	for _, r := range results {
		switch r.Status {
		case StepPassed:
			s.Passed++
		case StepFailed:
			s.Failed++
		case StepSkipped:
			s.Skipped++
		case StepHealed:
			s.Healed++
		}
	}
	return s
}
