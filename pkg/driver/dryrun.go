package driver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ormasoftchile/splint/pkg/schema"
)

// DryRun is a driver that never touches a browser: every page action
// succeeds immediately and every locator strategy matches exactly once, so
// the primary strategy always wins and nothing heals. API and script steps
// still execute for real; only the page is simulated. Element state reads
// as present and visible, and content reads as empty text.
type DryRun struct{}

// NewDryRun creates the dry-run driver.
func NewDryRun() *DryRun { return &DryRun{} }

func (d *DryRun) NewSession(ctx context.Context) (Session, error) {
	return &dryRunSession{}, nil
}

// dryRunSession records each action it was asked to perform, one line per
// call, so callers can report what a real run would have done.
type dryRunSession struct {
	mu      sync.Mutex
	url     string
	actions []string
}

func (s *dryRunSession) record(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, fmt.Sprintf(format, args...))
}

// Actions returns everything the session was asked to do, in order.
func (s *dryRunSession) Actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.actions))
	copy(out, s.actions)
	return out
}

func (s *dryRunSession) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	s.url = url
	s.mu.Unlock()
	s.record("navigate %s", url)
	return nil
}

func (s *dryRunSession) Title(ctx context.Context) (string, error) { return "", nil }

func (s *dryRunSession) URL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url, nil
}

func (s *dryRunSession) WaitForTimeout(ctx context.Context, d time.Duration) error {
	// No real sleeping; a dry run should finish instantly.
	s.record("wait %s", d)
	return nil
}

func (s *dryRunSession) WaitForLoadState(ctx context.Context, state string) error {
	s.record("wait for load state %s", state)
	return nil
}

func (s *dryRunSession) Screenshot(ctx context.Context, path string, fullPage bool) error {
	s.record("screenshot %s", path)
	return nil
}

func (s *dryRunSession) Evaluate(ctx context.Context, expression string) (any, error) {
	s.record("evaluate %s", expression)
	return nil, nil
}

func (s *dryRunSession) Locate(strategy schema.LocatorStrategy) Selection {
	return &dryRunSelection{session: s, strategy: strategy}
}

func (s *dryRunSession) ConsoleLogs() []string { return nil }

func (s *dryRunSession) Close(ctx context.Context) error { return nil }

type dryRunSelection struct {
	session  *dryRunSession
	strategy schema.LocatorStrategy
}

func (sel *dryRunSelection) Count(ctx context.Context) (int, error) { return 1, nil }

func (sel *dryRunSelection) First() Element {
	return &dryRunElement{session: sel.session, strategy: sel.strategy}
}

type dryRunElement struct {
	session  *dryRunSession
	strategy schema.LocatorStrategy
}

func (el *dryRunElement) describe() string {
	return fmt.Sprintf("%s=%s", el.strategy.Type, el.strategy.Value)
}

func (el *dryRunElement) Click(ctx context.Context) error {
	el.session.record("click %s", el.describe())
	return nil
}

func (el *dryRunElement) Fill(ctx context.Context, value string, clear bool) error {
	el.session.record("fill %s with %q", el.describe(), value)
	return nil
}

func (el *dryRunElement) Clear(ctx context.Context) error {
	el.session.record("clear %s", el.describe())
	return nil
}

func (el *dryRunElement) Hover(ctx context.Context) error {
	el.session.record("hover %s", el.describe())
	return nil
}

func (el *dryRunElement) SelectOption(ctx context.Context, value string) error {
	el.session.record("select %q in %s", value, el.describe())
	return nil
}

func (el *dryRunElement) IsVisible(ctx context.Context) (bool, error) { return true, nil }

func (el *dryRunElement) IsHidden(ctx context.Context) (bool, error) { return false, nil }

func (el *dryRunElement) TextContent(ctx context.Context) (string, error) { return "", nil }

func (el *dryRunElement) WaitFor(ctx context.Context, state string) error {
	el.session.record("wait for %s to be %s", el.describe(), state)
	return nil
}
