package locator

import "github.com/ormasoftchile/splint/pkg/schema"

// ChangeContext carries what is known about how the element moved between
// the original and the healed strategy.
type ChangeContext struct {
	PositionChanged bool
	ParentChanged   bool
	// TextSimilarity is the textual similarity of the old and new match,
	// in [0,1].
	TextSimilarity float64
}

// changePenalty scores how much trust a strategy change costs, keyed by
// (original, healed) type. Unlisted pairs cost the default.
var changePenalty = map[[2]schema.StrategyType]float64{
	{schema.StrategyTestID, schema.StrategyRole}: 0.1,
	{schema.StrategyTestID, schema.StrategyText}: 0.15,
	{schema.StrategyTestID, schema.StrategyCSS}:  0.3,
	{schema.StrategyRole, schema.StrategyText}:   0.1,
	{schema.StrategyRole, schema.StrategyCSS}:    0.25,
	{schema.StrategyText, schema.StrategyCSS}:    0.2,
}

const defaultChangePenalty = 0.2

// CalculateHealingConfidence scores the quality of a strategy change for
// the approval workflow. Starts at 1.0, subtracts the pair penalty, adjusts
// for context, and clamps to [0,1].
func CalculateHealingConfidence(original, healed schema.LocatorStrategy, chg *ChangeContext) float64 {
	confidence := 1.0

	penalty, ok := changePenalty[[2]schema.StrategyType{original.Type, healed.Type}]
	if !ok {
		penalty = defaultChangePenalty
	}
	confidence -= penalty

	if chg != nil {
		if chg.PositionChanged {
			confidence -= 0.1
		}
		if chg.ParentChanged {
			confidence -= 0.15
		}
		if chg.TextSimilarity > 0.9 {
			confidence += 0.1
		}
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
