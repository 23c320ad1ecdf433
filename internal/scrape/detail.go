package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	maxDetailAttempts = 5
	baseRetryDelay    = time.Second
	maxRetryDelay     = 30 * time.Second
)

// JobDetail is the fetched content of a single job posting.
type JobDetail struct {
	URL     string
	Title   string
	Content string
}

// FetchJobDetail fetches a posting page and extracts its text, retrying
// transient failures with exponential backoff.
func (s *Scraper) FetchJobDetail(ctx context.Context, urlStr string) (*JobDetail, error) {
	var lastErr error
	for attempt := 1; attempt <= maxDetailAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, retryDelay(attempt)); err != nil {
				return nil, err
			}
		}

		html, err := s.FetchHTML(ctx, urlStr)
		if err != nil {
			lastErr = err
			if !isTransient(err) {
				return nil, err
			}
			continue
		}

		text, err := ExtractMainText(html)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			lastErr = &Error{URL: urlStr, Message: "posting page has no text content"}
			continue
		}

		return &JobDetail{
			URL:     urlStr,
			Title:   extractTitle(html),
			Content: text,
		}, nil
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", maxDetailAttempts, lastErr)
}

// retryDelay doubles per attempt starting at baseRetryDelay, capped at
// maxRetryDelay.
func retryDelay(attempt int) time.Duration {
	d := baseRetryDelay << (attempt - 2)
	if d > maxRetryDelay || d <= 0 {
		return maxRetryDelay
	}
	return d
}

// isTransient reports whether a fetch error is worth retrying. Network
// failures and server-side statuses are; client errors like 404 are not.
func isTransient(err error) bool {
	var fetchErr *Error
	if !errors.As(err, &fetchErr) {
		return true
	}
	msg := fetchErr.Message
	if strings.HasPrefix(msg, "HTTP status ") {
		code := strings.TrimPrefix(msg, "HTTP status ")
		return strings.HasPrefix(code, "5") || code == "429" || code == "408"
	}
	return msg == "HTTP request failed" || msg == "failed to read response body" ||
		msg == "posting page has no text content"
}

func extractTitle(html string) string {
	start := strings.Index(strings.ToLower(html), "<title")
	if start < 0 {
		return ""
	}
	rest := html[start:]
	open := strings.Index(rest, ">")
	end := strings.Index(strings.ToLower(rest), "</title>")
	if open < 0 || end < 0 || end <= open {
		return ""
	}
	return strings.TrimSpace(rest[open+1 : end])
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
