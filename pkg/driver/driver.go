// Package driver abstracts the browser automation layer. The engine and the
// locator resolver only see these interfaces. Two implementations ship:
// chromedp for real Chrome sessions, and a dry-run adapter that satisfies
// every lookup without a browser. Tests substitute scripted fakes.
package driver

import (
	"context"
	"time"

	"github.com/ormasoftchile/splint/pkg/schema"
)

// Driver opens browser sessions. One session serves exactly one run.
type Driver interface {
	NewSession(ctx context.Context) (Session, error)
}

// Session is an exclusive browser context. All page-level operations and
// element lookups for a run go through it.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	WaitForTimeout(ctx context.Context, d time.Duration) error
	WaitForLoadState(ctx context.Context, state string) error
	Screenshot(ctx context.Context, path string, fullPage bool) error
	Evaluate(ctx context.Context, expression string) (any, error)

	// Locate returns the elements matching one strategy. It never touches
	// the page by itself; Count and the element operations do.
	Locate(strategy schema.LocatorStrategy) Selection

	// ConsoleLogs returns every console line captured since the session
	// started. Callers slice it to attribute lines to a step.
	ConsoleLogs() []string

	Close(ctx context.Context) error
}

// Selection is the set of elements matching a strategy.
type Selection interface {
	Count(ctx context.Context) (int, error)
	First() Element
}

// Element acts on a single located element.
type Element interface {
	Click(ctx context.Context) error
	Fill(ctx context.Context, value string, clear bool) error
	Clear(ctx context.Context) error
	Hover(ctx context.Context) error
	SelectOption(ctx context.Context, value string) error
	IsVisible(ctx context.Context) (bool, error)
	IsHidden(ctx context.Context) (bool, error)
	TextContent(ctx context.Context) (string, error)
	WaitFor(ctx context.Context, state string) error
}
