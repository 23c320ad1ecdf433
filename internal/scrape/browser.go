package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// minContentLength is the minimum HTML body length to consider a plain
// HTTP fetch successful. Shorter pages are likely JavaScript-rendered.
const minContentLength = 500

// ErrBrowserUnavailable indicates headless rendering could not start,
// usually because no Chrome binary is installed.
var ErrBrowserUnavailable = errors.New("headless browser unavailable")

// ShouldUseBrowser returns true if the fetched HTML is too short,
// indicating the page is likely a JavaScript-rendered SPA.
func ShouldUseBrowser(html string) bool {
	return len(strings.TrimSpace(html)) < minContentLength
}

// renderWithBrowser renders a page in a headless browser and returns the
// rendered HTML. Requires Chrome/Chromium on the system.
func renderWithBrowser(ctx context.Context, url string, timeout time.Duration) (string, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// Give client-side rendering time to populate the listing.
		chromedp.Sleep(3*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if strings.Contains(err.Error(), "executable file not found") {
			return "", fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
		}
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	return html, nil
}
