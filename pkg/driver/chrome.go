package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/ormasoftchile/splint/pkg/schema"
)

// ChromeOptions configures the Chrome driver.
type ChromeOptions struct {
	Headless  bool
	UserAgent string
	// ExecPath overrides the browser binary. Empty uses chromedp's lookup.
	ExecPath string
}

// Chrome drives a real browser over the DevTools protocol.
type Chrome struct {
	opts ChromeOptions
}

// NewChrome creates a Chrome driver.
func NewChrome(opts ChromeOptions) *Chrome {
	return &Chrome{opts: opts}
}

// NewSession starts a browser and returns an exclusive session bound to it.
func (c *Chrome) NewSession(ctx context.Context) (Session, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !c.opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if c.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(c.opts.UserAgent))
	}
	if c.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	sess := &chromeSession{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{browserCancel, allocCancel},
	}
	chromedp.ListenTarget(browserCtx, sess.captureConsole)

	// Force the browser to start now so session failures surface here, not
	// inside the first step.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return sess, nil
}

type chromeSession struct {
	ctx     context.Context
	cancels []context.CancelFunc

	mu   sync.Mutex
	logs []string
}

// captureConsole records console API calls and uncaught exceptions so step
// results can attach the page's own output.
func (s *chromeSession) captureConsole(ev any) {
	switch e := ev.(type) {
	case *cdpruntime.EventConsoleAPICalled:
		parts := make([]string, 0, len(e.Args))
		for _, arg := range e.Args {
			if len(arg.Value) > 0 {
				parts = append(parts, string(arg.Value))
			} else if arg.Description != "" {
				parts = append(parts, arg.Description)
			}
		}
		s.appendLog(fmt.Sprintf("console.%s: %s", e.Type, strings.Join(parts, " ")))
	case *cdpruntime.EventExceptionThrown:
		if e.ExceptionDetails != nil {
			s.appendLog("exception: " + e.ExceptionDetails.Error())
		}
	}
}

func (s *chromeSession) appendLog(line string) {
	s.mu.Lock()
	s.logs = append(s.logs, line)
	s.mu.Unlock()
}

func (s *chromeSession) ConsoleLogs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.logs))
	copy(out, s.logs)
	return out
}

// run executes chromedp actions on the session, honoring the caller's
// deadline without detaching from the browser context.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := s.ctx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(s.ctx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *chromeSession) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

func (s *chromeSession) URL(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

func (s *chromeSession) WaitForTimeout(ctx context.Context, d time.Duration) error {
	return s.run(ctx, chromedp.Sleep(d))
}

func (s *chromeSession) WaitForLoadState(ctx context.Context, state string) error {
	var expr string
	switch state {
	case "domcontentloaded":
		expr = `document.readyState !== "loading"`
	case "networkidle":
		// The DevTools protocol has no direct idle signal here; settle for
		// full load plus a quiet interval.
		var done bool
		if err := s.run(ctx, chromedp.Poll(`document.readyState === "complete"`, &done)); err != nil {
			return fmt.Errorf("wait for load state %q: %w", state, err)
		}
		return s.run(ctx, chromedp.Sleep(500*time.Millisecond))
	default: // "load" and unspecified
		expr = `document.readyState === "complete"`
	}
	var done bool
	if err := s.run(ctx, chromedp.Poll(expr, &done)); err != nil {
		return fmt.Errorf("wait for load state %q: %w", state, err)
	}
	return nil
}

func (s *chromeSession) Screenshot(ctx context.Context, path string, fullPage bool) error {
	var buf []byte
	var action chromedp.Action
	if fullPage {
		action = chromedp.FullScreenshot(&buf, 90)
	} else {
		action = chromedp.CaptureScreenshot(&buf)
	}
	if err := s.run(ctx, action); err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create screenshot dir: %w", err)
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

func (s *chromeSession) Evaluate(ctx context.Context, expression string) (any, error) {
	var result any
	if err := s.run(ctx, chromedp.Evaluate(expression, &result)); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	return result, nil
}

func (s *chromeSession) Locate(strategy schema.LocatorStrategy) Selection {
	return &chromeSelection{sess: s, q: compileStrategy(strategy)}
}

func (s *chromeSession) Close(ctx context.Context) error {
	err := chromedp.Cancel(s.ctx)
	for _, cancel := range s.cancels {
		cancel()
	}
	return err
}

type chromeSelection struct {
	sess *chromeSession
	q    query
}

func (sel *chromeSelection) Count(ctx context.Context) (int, error) {
	if sel.q.empty() {
		return 0, nil
	}
	lit, _ := json.Marshal(sel.q.selector)
	var expr string
	if sel.q.xpath {
		expr = fmt.Sprintf(`document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotLength`, lit)
	} else {
		expr = fmt.Sprintf(`document.querySelectorAll(%s).length`, lit)
	}
	var count int
	if err := sel.sess.run(ctx, chromedp.Evaluate(expr, &count)); err != nil {
		return 0, fmt.Errorf("count matches: %w", err)
	}
	return count, nil
}

func (sel *chromeSelection) First() Element {
	return &chromeElement{sess: sel.sess, q: sel.q}
}

type chromeElement struct {
	sess *chromeSession
	q    query
}

// by returns the chromedp query option matching the selector kind. Element
// actions operate on the first match, which is chromedp's own behavior for
// these options.
func (el *chromeElement) by() chromedp.QueryOption {
	if el.q.xpath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func (el *chromeElement) Click(ctx context.Context) error {
	if err := el.sess.run(ctx, chromedp.Click(el.q.selector, el.by())); err != nil {
		return fmt.Errorf("click: %w", err)
	}
	return nil
}

func (el *chromeElement) Fill(ctx context.Context, value string, clear bool) error {
	actions := []chromedp.Action{}
	if clear {
		actions = append(actions, chromedp.Clear(el.q.selector, el.by()))
	}
	actions = append(actions, chromedp.SendKeys(el.q.selector, value, el.by()))
	if err := el.sess.run(ctx, actions...); err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	return nil
}

func (el *chromeElement) Clear(ctx context.Context) error {
	if err := el.sess.run(ctx, chromedp.Clear(el.q.selector, el.by())); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

func (el *chromeElement) Hover(ctx context.Context) error {
	expr := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		el.scrollIntoView({block: "center"});
		el.dispatchEvent(new MouseEvent("mouseover", {bubbles: true}));
		el.dispatchEvent(new MouseEvent("mouseenter", {bubbles: true}));
		return true;
	})()`, el.findExpr())
	var ok bool
	if err := el.sess.run(ctx, chromedp.Evaluate(expr, &ok)); err != nil {
		return fmt.Errorf("hover: %w", err)
	}
	if !ok {
		return fmt.Errorf("hover: element not found")
	}
	return nil
}

func (el *chromeElement) SelectOption(ctx context.Context, value string) error {
	if err := el.sess.run(ctx, chromedp.SetValue(el.q.selector, value, el.by())); err != nil {
		return fmt.Errorf("select option: %w", err)
	}
	return nil
}

func (el *chromeElement) IsVisible(ctx context.Context) (bool, error) {
	expr := fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		const style = getComputedStyle(el);
		if (style.display === "none" || style.visibility === "hidden") return false;
		const rect = el.getBoundingClientRect();
		return rect.width > 0 && rect.height > 0;
	})()`, el.findExpr())
	var visible bool
	if err := el.sess.run(ctx, chromedp.Evaluate(expr, &visible)); err != nil {
		return false, fmt.Errorf("visibility check: %w", err)
	}
	return visible, nil
}

func (el *chromeElement) IsHidden(ctx context.Context) (bool, error) {
	visible, err := el.IsVisible(ctx)
	if err != nil {
		return false, err
	}
	return !visible, nil
}

func (el *chromeElement) TextContent(ctx context.Context) (string, error) {
	var text string
	if err := el.sess.run(ctx, chromedp.Text(el.q.selector, &text, el.by())); err != nil {
		return "", fmt.Errorf("text content: %w", err)
	}
	return text, nil
}

func (el *chromeElement) WaitFor(ctx context.Context, state string) error {
	switch state {
	case "hidden":
		expr := fmt.Sprintf(`(() => {
			const el = %s;
			if (!el) return true;
			const style = getComputedStyle(el);
			if (style.display === "none" || style.visibility === "hidden") return true;
			const rect = el.getBoundingClientRect();
			return rect.width === 0 || rect.height === 0;
		})()`, el.findExpr())
		var hidden bool
		if err := el.sess.run(ctx, chromedp.Poll(expr, &hidden)); err != nil {
			return fmt.Errorf("wait for hidden: %w", err)
		}
		return nil
	default: // "visible" and unspecified
		if err := el.sess.run(ctx, chromedp.WaitVisible(el.q.selector, el.by())); err != nil {
			return fmt.Errorf("wait for visible: %w", err)
		}
		return nil
	}
}

// findExpr is a JS expression resolving to the first matching element or
// null.
func (el *chromeElement) findExpr() string {
	lit, _ := json.Marshal(el.q.selector)
	if el.q.xpath {
		return fmt.Sprintf(`document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`, lit)
	}
	return fmt.Sprintf(`document.querySelector(%s)`, lit)
}
