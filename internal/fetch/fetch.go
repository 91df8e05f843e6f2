// Package fetch turns a company web page into bounded plain text for the
// research prompt. Fetchers never return errors: any failure comes back as
// an explanatory string, which downstream steps treat as a degraded
// research snippet.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// DefaultCharBudget bounds fetched text to keep downstream prompt cost flat.
const DefaultCharBudget = 2000

const defaultTimeout = 15 * time.Second

// Option configures a fetcher.
type Option func(*config)

type config struct {
	budget     int
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

func newConfig(opts []Option) config {
	cfg := config{
		budget:  DefaultCharBudget,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{Timeout: cfg.timeout}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return cfg
}

// WithCharBudget bounds the returned text length.
func WithCharBudget(n int) Option {
	return func(c *config) { c.budget = n }
}

// WithTimeout bounds the whole fetch.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithHTTPClient overrides the HTTP client (HTTPFetcher only).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) { c.httpClient = hc }
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// HTTPFetcher fetches a page with a plain GET and strips its markup. Good
// enough for server-rendered sites; JS-heavy sites need the BrowserFetcher.
type HTTPFetcher struct {
	cfg config
}

// NewHTTPFetcher creates a plain-HTTP fetcher.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	return &HTTPFetcher{cfg: newConfig(opts)}
}

// Fetch returns the page's plain text bounded to the char budget, or an
// explanatory string on any failure.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) string {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Sprintf("Could not fetch %s: %v", url, err)
	}
	req.Header.Set("User-Agent", "prospect-research/1.0")

	resp, err := f.cfg.httpClient.Do(req)
	if err != nil {
		f.cfg.logger.DebugContext(ctx, "fetch failed", "url", url, "error", err)
		return fmt.Sprintf("Could not fetch %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Sprintf("Fetching %s returned status %d", url, resp.StatusCode)
	}

	text, err := htmlToText(resp.Body)
	if err != nil {
		return fmt.Sprintf("Could not parse %s: %v", url, err)
	}
	if text == "" {
		return fmt.Sprintf("No readable text found at %s", url)
	}
	return truncate(text, f.cfg.budget)
}

// htmlToText extracts visible text from an HTML document, skipping script
// and style subtrees and collapsing whitespace.
func htmlToText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(parts, " "), nil
}

// collapseWhitespace flattens runs of whitespace (including newlines from
// rendered page text) into single spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, budget int) string {
	if budget <= 0 || len(s) <= budget {
		return s
	}
	return s[:budget]
}
