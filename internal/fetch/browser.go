package fetch

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
)

// BrowserFetcher renders a page in headless Chrome before extracting its
// body text, so client-rendered company sites still yield research text.
// It needs a Chrome/Chromium binary on the host; deployments without one
// should stick with the HTTPFetcher.
type BrowserFetcher struct {
	cfg config
}

// NewBrowserFetcher creates a headless-browser fetcher.
func NewBrowserFetcher(opts ...Option) *BrowserFetcher {
	return &BrowserFetcher{cfg: newConfig(opts)}
}

// Fetch navigates to the URL, waits for the body, and returns its rendered
// text bounded to the char budget. Failures (no browser, navigation error,
// timeout) come back as explanatory strings.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) string {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var text string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Text("body", &text, chromedp.ByQuery),
	)
	if err != nil {
		f.cfg.logger.DebugContext(ctx, "browser fetch failed", "url", url, "error", err)
		return fmt.Sprintf("Could not fetch %s: %v", url, err)
	}

	text = collapseWhitespace(text)
	if text == "" {
		return fmt.Sprintf("No readable text found at %s", url)
	}
	return truncate(text, f.cfg.budget)
}
