// Package browser wraps Playwright behind the small surface sitescan needs:
// one headless Chromium session, navigation, content reads, and the
// fill/press/wait primitives used by the search-form test.
package browser

import (
	"fmt"
	"io"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Defaults for session setup.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

// Options configures a browser session.
type Options struct {
	// Headless controls whether the browser runs without a visible window.
	Headless bool

	// Timeout bounds navigations and load-state waits.
	Timeout time.Duration
}

// Session is a live browser session. It is a scoped resource: acquired once
// at the start of a run, used for every navigation in it, and closed at the
// end regardless of outcome.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	timeout float64 // milliseconds, Playwright's unit
}

// Launch installs and starts the Playwright driver, launches Chromium, and
// opens a fresh page.
func Launch(opts Options) (*Session, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	timeoutMs := float64(opts.Timeout.Milliseconds())

	// Driver output would interleave with our own logging; discard it.
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	page.SetDefaultTimeout(timeoutMs)

	return &Session{
		pw:      pw,
		browser: browser,
		context: context,
		page:    page,
		timeout: timeoutMs,
	}, nil
}

// Navigate loads the given URL and waits for the load event.
func (s *Session) Navigate(url string) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		Timeout: &s.timeout,
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Content returns the rendered HTML of the current page.
func (s *Session) Content() (string, error) {
	html, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("content read failed: %w", err)
	}
	return html, nil
}

// Count returns the number of elements matching the selector.
func (s *Session) Count(selector string) (int, error) {
	count, err := s.page.Locator(selector).Count()
	if err != nil {
		return 0, fmt.Errorf("locator count failed: %w", err)
	}
	return count, nil
}

// Fill sets the value of the input matching the selector.
func (s *Session) Fill(selector, value string) error {
	if err := s.page.Fill(selector, value); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

// PressEnter dispatches an Enter key press to the page, submitting the
// focused form.
func (s *Session) PressEnter() error {
	if err := s.page.Keyboard().Press("Enter"); err != nil {
		return fmt.Errorf("key press failed: %w", err)
	}
	return nil
}

// WaitForLoad waits for the page to go network-idle after a navigation,
// bounded by the session timeout.
func (s *Session) WaitForLoad() error {
	err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: &s.timeout,
	})
	if err != nil {
		return fmt.Errorf("load wait failed: %w", err)
	}
	return nil
}

// Sleep pauses for a fixed duration on the page's clock.
func (s *Session) Sleep(d time.Duration) {
	s.page.WaitForTimeout(float64(d.Milliseconds()))
}

// URL returns the current page URL.
func (s *Session) URL() string {
	return s.page.URL()
}

// Close tears down the page, context, browser, and driver. Individual close
// errors are ignored so cleanup always runs to completion.
func (s *Session) Close() error {
	_ = s.page.Close()
	_ = s.context.Close()
	_ = s.browser.Close()

	if err := s.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

// SearchInputSelector builds the selector for a search input driven by the
// given form parameter name.
func SearchInputSelector(param string) string {
	return fmt.Sprintf("input[name=%q]", param)
}
