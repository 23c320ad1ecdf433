// Package scrape fetches careers pages and job postings. It extracts
// candidate job links from listing pages and plain text from posting
// pages, with a shared politeness limiter and retrying detail fetches.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ScoutlyBot/1.0)"

// Error represents an error during page fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scrape error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("scrape error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures a Scraper.
type Options struct {
	Timeout        time.Duration
	UserAgent      string
	RequestsPerSec float64
	UseBrowser     bool
}

// DefaultOptions returns sensible defaults for scraping.
func DefaultOptions() *Options {
	return &Options{
		Timeout:        DefaultTimeout,
		UserAgent:      DefaultUserAgent,
		RequestsPerSec: 2,
	}
}

// Scraper fetches pages with a shared rate limiter so concurrent
// organization scrapes do not hammer a host.
type Scraper struct {
	client     *http.Client
	userAgent  string
	limiter    *rate.Limiter
	useBrowser bool
}

// New creates a Scraper from options.
func New(opts *Options) *Scraper {
	if opts == nil {
		opts = DefaultOptions()
	}
	rps := opts.RequestsPerSec
	if rps <= 0 {
		rps = 2
	}
	return &Scraper{
		client:     &http.Client{Timeout: opts.Timeout},
		userAgent:  opts.UserAgent,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		useBrowser: opts.UseBrowser,
	}
}

// FetchHTML retrieves the HTML content of a URL, waiting on the
// politeness limiter first.
func (s *Scraper) FetchHTML(ctx context.Context, urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", &Error{URL: urlStr, Message: "rate limiter wait canceled", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return string(body), &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	html := string(body)
	if s.useBrowser && ShouldUseBrowser(html) {
		rendered, err := renderWithBrowser(ctx, urlStr, s.client.Timeout)
		if err != nil {
			// Plain HTML is still usable when rendering fails.
			return html, nil
		}
		return rendered, nil
	}

	return html, nil
}

// ExtractMainText parses posting HTML and returns the main body text.
func ExtractMainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, .ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup").Remove()

	var mainContent *goquery.Selection
	for _, selector := range jobPostingSelectors() {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	return cleanWhitespace(mainContent.Text()), nil
}

// jobPostingSelectors returns selectors optimized for job board pages.
func jobPostingSelectors() []string {
	return []string{
		".job-description",
		".job-content",
		"#job-description",
		"#job-content",
		".posting-content",
		".job-details",
		"[data-testid='job-description']",
		"main",
		"article",
		".content",
		"#content",
	}
}

// cleanWhitespace normalizes whitespace in text.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
