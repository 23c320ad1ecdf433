package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postingHTML = `<html><head><title>Senior Backend Engineer - Acme</title></head>
<body><main class="job-description">
<h1>Senior Backend Engineer</h1>
<p>You will design and operate Go services handling millions of requests.</p>
</main></body></html>`

func fastScraper() *Scraper {
	opts := DefaultOptions()
	opts.RequestsPerSec = 1000
	return New(opts)
}

func TestFetchJobDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(postingHTML))
	}))
	defer srv.Close()

	detail, err := fastScraper().FetchJobDetail(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, detail.URL)
	assert.Equal(t, "Senior Backend Engineer - Acme", detail.Title)
	assert.Contains(t, detail.Content, "millions of requests")
}

func TestFetchJobDetailRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(postingHTML))
	}))
	defer srv.Close()

	start := time.Now()
	detail, err := fastScraper().FetchJobDetail(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, detail.Content, "Go services")
	// attempts 2 and 3 back off 1s then 2s
	assert.GreaterOrEqual(t, time.Since(start), 3*time.Second)
}

func TestFetchJobDetailDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := fastScraper().FetchJobDetail(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchJobDetailHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := fastScraper().FetchJobDetail(ctx, srv.URL)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, time.Second, retryDelay(2))
	assert.Equal(t, 2*time.Second, retryDelay(3))
	assert.Equal(t, 4*time.Second, retryDelay(4))
	assert.Equal(t, 8*time.Second, retryDelay(5))
	assert.Equal(t, 30*time.Second, retryDelay(8))
}
