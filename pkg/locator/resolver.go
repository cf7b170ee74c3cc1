// Package locator resolves element locators against a live page by trying
// strategies in priority order, reporting a healed resolution whenever a
// non-primary strategy wins.
package locator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ormasoftchile/splint/pkg/driver"
	"github.com/ormasoftchile/splint/pkg/schema"
)

// Finder is the part of a browser session the resolver needs.
type Finder interface {
	Locate(strategy schema.LocatorStrategy) driver.Selection
}

// Resolution is a successful element lookup. Primary is the strategy that
// was supposed to win, the first in sorted order; healing records pair it
// with the strategy that actually did.
type Resolution struct {
	Element    driver.Element
	Strategy   schema.LocatorStrategy
	Primary    schema.LocatorStrategy
	Healed     bool
	Confidence float64
}

// ElementNotFoundError reports that every strategy of a locator was tried
// without a match.
type ElementNotFoundError struct {
	Locator   *schema.ElementLocator
	Attempted []schema.LocatorStrategy
}

func (e *ElementNotFoundError) Error() string {
	types := make([]string, len(e.Attempted))
	for i, s := range e.Attempted {
		types[i] = string(s.Type)
	}
	name := e.Locator.Name
	if name == "" {
		name = "element"
	}
	return fmt.Sprintf("element %q not found; attempted strategies: %s", name, strings.Join(types, ", "))
}

// baseConfidence scores a healed single-match win by the reliability of the
// winning strategy type.
var baseConfidence = map[schema.StrategyType]float64{
	schema.StrategyTestID: 1.0,
	schema.StrategyRole:   0.95,
	schema.StrategyText:   0.9,
	schema.StrategyLabel:  0.9,
	schema.StrategyCSS:    0.8,
	schema.StrategyXPath:  0.7,
}

const unknownStrategyConfidence = 0.5

// multiMatchConfidence applies when a healed strategy matches more than one
// element; the first match is used.
const multiMatchConfidence = 0.7

// Resolve tries each strategy in ascending priority order and returns the
// first that matches. A win by any strategy other than the first in sorted
// order is a heal. Locators with healing disabled only try their primary
// strategy. Exhausting every strategy returns ElementNotFoundError.
func Resolve(ctx context.Context, loc *schema.ElementLocator, finder Finder) (*Resolution, error) {
	sorted := sortedStrategies(loc.Strategies)
	if !loc.HealingAllowed() && len(sorted) > 1 {
		sorted = sorted[:1]
	}
	for i, strategy := range sorted {
		sel := finder.Locate(strategy)
		count, err := sel.Count(ctx)
		if err != nil || count == 0 {
			// A counting failure means this strategy cannot match right
			// now; move on like a zero count.
			continue
		}

		healed := i != 0
		confidence := baseConfidence[strategy.Type]
		if confidence == 0 {
			confidence = unknownStrategyConfidence
		}
		if count > 1 {
			confidence = multiMatchConfidence
		}
		if !healed {
			confidence = 1.0
		}
		return &Resolution{
			Element:    sel.First(),
			Strategy:   strategy,
			Primary:    sorted[0],
			Healed:     healed,
			Confidence: confidence,
		}, nil
	}
	return nil, &ElementNotFoundError{Locator: loc, Attempted: sorted}
}

// ResolvePinned tries an approved healed strategy before the declared ones.
// A pin that matches counts as the primary: not healed, full confidence.
// A pin that misses falls back to the normal resolution order.
func ResolvePinned(ctx context.Context, loc *schema.ElementLocator, finder Finder, pinned *schema.LocatorStrategy) (*Resolution, error) {
	if pinned == nil {
		return Resolve(ctx, loc, finder)
	}
	sel := finder.Locate(*pinned)
	if count, err := sel.Count(ctx); err == nil && count > 0 {
		res := &Resolution{
			Element:    sel.First(),
			Strategy:   *pinned,
			Primary:    *pinned,
			Healed:     false,
			Confidence: 1.0,
		}
		if sorted := sortedStrategies(loc.Strategies); len(sorted) > 0 {
			res.Primary = sorted[0]
		}
		return res, nil
	}
	res, err := Resolve(ctx, loc, finder)
	if err != nil {
		var notFound *ElementNotFoundError
		if errors.As(err, &notFound) {
			notFound.Attempted = append([]schema.LocatorStrategy{*pinned}, notFound.Attempted...)
		}
		return nil, err
	}
	return res, nil
}

// sortedStrategies orders strategies ascending by priority, keeping the
// declared order for equal priorities.
func sortedStrategies(strategies []schema.LocatorStrategy) []schema.LocatorStrategy {
	sorted := make([]schema.LocatorStrategy, len(strategies))
	copy(sorted, strategies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return sorted
}
