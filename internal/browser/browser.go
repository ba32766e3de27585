package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	defaultNavTimeout = 30 * time.Second
	defaultSettleTime = 5 * time.Second
	quietWindow       = 300 * time.Millisecond
)

var ErrBadURL = errors.New("bad url")

// Capturer loads pages and returns their rendered markup.
type Capturer interface {
	Capture(ctx context.Context, url string) (string, error)
	Close(ctx context.Context) error
}

// Launcher owns playwright lifecycle.
type Launcher struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

func NewLauncher(ctx context.Context, headless bool) (*Launcher, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		Args: []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	return &Launcher{pw: pw, browser: browser}, nil
}

// NewCapturer opens a fresh browser context. A non-empty storagePath that
// exists on disk is loaded as playwright storage state (cookies, local storage).
func (l *Launcher) NewCapturer(ctx context.Context, storagePath string) (Capturer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(true),
	}
	if strings.TrimSpace(storagePath) != "" {
		if _, err := os.Stat(storagePath); err == nil {
			opts.StorageStatePath = playwright.String(storagePath)
		}
	}
	bctx, err := l.browser.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("new context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, fmt.Errorf("new page: %w", err)
	}
	page.SetDefaultTimeout(float64(defaultNavTimeout.Milliseconds()))
	return &capturer{context: bctx, page: page}, nil
}

func (l *Launcher) Close() error {
	if l.browser != nil {
		_ = l.browser.Close()
	}
	if l.pw != nil {
		return l.pw.Stop()
	}
	return nil
}

type capturer struct {
	context playwright.BrowserContext
	page    playwright.Page
}

func (c *capturer) Close(ctx context.Context) error {
	_ = ctx
	if c.page != nil {
		_ = c.page.Close()
	}
	if c.context != nil {
		return c.context.Close()
	}
	return nil
}

func (c *capturer) Capture(ctx context.Context, raw string) (string, error) {
	target, err := ValidateURL(raw)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := c.page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(float64(defaultNavTimeout.Milliseconds())),
	}); err != nil {
		return "", wrap(err)
	}
	if err := c.waitForStableDOM(ctx, defaultSettleTime); err != nil {
		return "", err
	}
	content, err := c.page.Content()
	return content, wrap(err)
}

// waitForStableDOM waits for network idle and then for a short window
// without DOM mutations.
func (c *capturer) waitForStableDOM(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		_ = c.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
			State:   playwright.LoadStateDomcontentloaded,
			Timeout: playwright.Float(1000),
		})
	}
	script := `
		(quiet) => {
			return new Promise((resolve) => {
				let timeoutId;
				const observer = new MutationObserver(() => {
					clearTimeout(timeoutId);
					timeoutId = setTimeout(() => {
						observer.disconnect();
						resolve();
					}, quiet);
				});
				observer.observe(document.documentElement, {
					childList: true,
					subtree: true,
					attributes: true
				});
				timeoutId = setTimeout(() => {
					observer.disconnect();
					resolve();
				}, quiet);
			});
		}
	`
	_, err := c.page.Evaluate(script, quietWindow.Milliseconds())
	return wrap(err)
}

// ValidateURL accepts absolute http(s) and file URLs.
func ValidateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrBadURL, raw, err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return "", fmt.Errorf("%w %q: missing host", ErrBadURL, raw)
		}
	case "file":
		if u.Path == "" {
			return "", fmt.Errorf("%w %q: missing path", ErrBadURL, raw)
		}
	default:
		return "", fmt.Errorf("%w %q: unsupported scheme", ErrBadURL, raw)
	}
	return u.String(), nil
}

func wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("playwright: %w", err)
}
