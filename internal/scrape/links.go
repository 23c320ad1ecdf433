package scrape

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// minTitleLength filters out links whose text is too short to be a job
// title, like "here" or pagination arrows.
const minTitleLength = 4

// Link is one candidate job link extracted from a careers page.
type Link struct {
	URL     string `json:"url"`
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
}

// nonPostingKeywords mark link text that is part of site chrome rather
// than a job posting.
var nonPostingKeywords = []string{
	"privacy", "cookie", "terms", "login", "log in", "sign in", "sign up",
	"register", "about us", "contact", "faq", "help", "support",
	"linkedin", "twitter", "facebook", "instagram", "youtube",
	"home", "blog", "press", "news", "investor",
	"benefits", "culture", "our values", "our teams", "life at",
	"all departments", "all locations", "all jobs", "view all",
	"next", "previous", "back to",
}

// ExtractLinks pulls candidate job links out of a careers listing page.
// Relative URLs are resolved against baseURL, obvious non-posting links
// are dropped and duplicates collapse to the first occurrence.
func ExtractLinks(html, baseURL string) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &Error{URL: baseURL, Message: "failed to parse HTML", Cause: err}
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, &Error{URL: baseURL, Message: "invalid base URL", Cause: err}
	}

	doc.Find("nav, footer, script, style, noscript").Remove()

	seen := make(map[string]bool)
	var links []Link

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		text := cleanWhitespace(sel.Text())
		text = strings.Join(strings.Fields(text), " ")

		resolved := resolveURL(base, href)
		if resolved == "" || seen[resolved] {
			return
		}
		if !looksLikePosting(text, resolved) {
			return
		}

		seen[resolved] = true
		links = append(links, Link{
			URL:     resolved,
			Text:    text,
			Context: surroundingText(sel),
		})
	})

	return links, nil
}

// resolveURL resolves href against base, rejecting fragments, mail links
// and javascript pseudo-URLs.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "javascript:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

// looksLikePosting filters link text that cannot plausibly be a job title.
func looksLikePosting(text, resolved string) bool {
	if len(text) < minTitleLength {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range nonPostingKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	lowerURL := strings.ToLower(resolved)
	for _, kw := range []string{"privacy", "terms", "login", "signin", "cookie"} {
		if strings.Contains(lowerURL, kw) {
			return false
		}
	}
	return true
}

// surroundingText grabs a short snippet of the link's parent block, which
// often carries location or department labels.
func surroundingText(sel *goquery.Selection) string {
	parent := sel.Parent()
	if parent.Length() == 0 {
		return ""
	}
	text := strings.Join(strings.Fields(parent.Text()), " ")
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
