package renderer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"carscout/config"
)

// Renderer is the browser-automation surface the extractors drive. A
// Session satisfies it; tests substitute a fake serving canned HTML.
type Renderer interface {
	Navigate(url string) error
	Reload() error
	WaitVisible(sel string, timeout time.Duration) error
	Text(sel string) (string, error)
	Attribute(sel, name string) (string, error)
	Click(sel string) error
	ExpandAll(sel string) (int, error)
	HTML() (string, error)
	Close()
}

// Session is one live headless-browser tab. Acquire one per page visit
// and always release it — a leaked session is a leaked OS process.
type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc
	closed  bool
}

// New starts a browser tab using the engine profile from the config.
func New(cfg *config.Config) (*Session, error) {
	p := profileFor(cfg.Renderer)

	bin := findBinary(cfg.ChromeBin, p.binaries)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(p.userAgent),
	)
	if bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	s := &Session{
		ctx:     tabCtx,
		cancels: []context.CancelFunc{cancelTab, cancelAlloc},
	}

	// Spawn the browser process up front so a broken install fails here,
	// not on the first navigation.
	if err := chromedp.Run(tabCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("renderer: start browser: %w", err)
	}

	return s, nil
}

// Navigate loads the given URL in the session tab.
func (s *Session) Navigate(url string) error {
	return chromedp.Run(s.ctx, chromedp.Navigate(url))
}

// Reload refreshes the current page.
func (s *Session) Reload() error {
	return chromedp.Run(s.ctx, chromedp.Reload())
}

// WaitVisible blocks until the selector matches a visible element or the
// timeout elapses.
func (s *Session) WaitVisible(sel string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, chromedp.WaitVisible(sel, chromedp.ByQuery))
}

// Text returns the inner text of the first element matching sel.
func (s *Session) Text(sel string) (string, error) {
	var out string
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Text(sel, &out, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return out, nil
}

// Attribute returns the named attribute of the first element matching sel.
func (s *Session) Attribute(sel, name string) (string, error) {
	var val string
	var ok bool
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.AttributeValue(sel, name, &val, &ok, chromedp.ByQuery)); err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("renderer: attribute %q not present on %q", name, sel)
	}
	return val, nil
}

// Click clicks the first element matching sel.
func (s *Session) Click(sel string) error {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	return chromedp.Run(ctx, chromedp.Click(sel, chromedp.ByQuery))
}

// ExpandAll fires a synthetic click on every element matching sel and
// returns how many were clicked. Used for collapsed feature groups that
// only render their items once opened.
func (s *Session) ExpandAll(sel string) (int, error) {
	js := fmt.Sprintf(`(function() {
		var els = document.querySelectorAll(%q);
		var n = 0;
		els.forEach(function(el) { el.click(); n++; });
		return n;
	})()`, sel)

	var n int
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &n)); err != nil {
		return 0, err
	}
	return n, nil
}

// HTML returns the rendered page source.
func (s *Session) HTML() (string, error) {
	var html string
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Close releases the tab and the browser process. Safe to call twice.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, cancel := range s.cancels {
		cancel()
	}
}

func findBinary(explicit string, candidates []string) string {
	if explicit != "" {
		return explicit
	}

	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
