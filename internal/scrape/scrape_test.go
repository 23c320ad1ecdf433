package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingHTML = `<!DOCTYPE html>
<html><head><title>Careers at Acme</title></head><body>
<nav><a href="/login">Login</a><a href="/about">About us</a></nav>
<main>
  <div class="opening"><a href="/jobs/backend-engineer">Senior Backend Engineer</a> <span>London</span></div>
  <div class="opening"><a href="/jobs/sre">Site Reliability Engineer</a> <span>Remote</span></div>
  <div class="opening"><a href="/jobs/backend-engineer">Senior Backend Engineer</a></div>
  <a href="#top">Top</a>
  <a href="mailto:jobs@acme.dev">Email us</a>
  <a href="/privacy">Privacy Policy</a>
  <a href="/jobs/x">Go</a>
</main>
<footer><a href="https://twitter.com/acme">Twitter</a></footer>
</body></html>`

func TestExtractLinks(t *testing.T) {
	links, err := ExtractLinks(listingHTML, "https://acme.dev/careers")
	require.NoError(t, err)
	require.Len(t, links, 2)

	assert.Equal(t, "https://acme.dev/jobs/backend-engineer", links[0].URL)
	assert.Equal(t, "Senior Backend Engineer", links[0].Text)
	assert.Contains(t, links[0].Context, "London")

	assert.Equal(t, "https://acme.dev/jobs/sre", links[1].URL)
}

func TestExtractLinksFilters(t *testing.T) {
	links, err := ExtractLinks(listingHTML, "https://acme.dev/careers")
	require.NoError(t, err)

	for _, l := range links {
		assert.NotContains(t, l.URL, "privacy")
		assert.NotContains(t, l.URL, "login")
		assert.NotEqual(t, "Go", l.Text, "titles shorter than the minimum are dropped")
	}
}

func TestFetchHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "ScoutlyBot")
		_, _ = w.Write([]byte(listingHTML))
	}))
	defer srv.Close()

	s := New(DefaultOptions())
	html, err := s.FetchHTML(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, html, "Senior Backend Engineer")
}

func TestFetchHTMLErrors(t *testing.T) {
	t.Run("invalid url", func(t *testing.T) {
		s := New(nil)
		_, err := s.FetchHTML(context.Background(), "not a url")
		var scrapeErr *Error
		assert.ErrorAs(t, err, &scrapeErr)
	})

	t.Run("non 200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		s := New(nil)
		_, err := s.FetchHTML(context.Background(), srv.URL)
		var scrapeErr *Error
		require.ErrorAs(t, err, &scrapeErr)
		assert.Equal(t, "HTTP status 404", scrapeErr.Message)
	})
}

func TestExtractMainText(t *testing.T) {
	html := `<html><body>
	<nav>Site navigation</nav>
	<main><h1>Senior Backend Engineer</h1>
	<p>Build distributed systems in Go.</p></main>
	<footer>Footer junk</footer>
	</body></html>`

	text, err := ExtractMainText(html)
	require.NoError(t, err)
	assert.Contains(t, text, "Senior Backend Engineer")
	assert.Contains(t, text, "distributed systems")
	assert.NotContains(t, text, "Site navigation")
	assert.NotContains(t, text, "Footer junk")
}
