package stages

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/scoutly/scoutly/internal/pipeline"
)

// detailConcurrency bounds how many posting pages are fetched at once.
const detailConcurrency = 4

// DetailFetch retrieves the full text of every shortlisted posting. URLs
// whose fetch keeps failing are simply absent from the detail map so the
// analysis stage skips them.
type DetailFetch struct {
	scraper PageScraper
}

// NewDetailFetch creates the stage.
func NewDetailFetch(scraper PageScraper) *DetailFetch {
	return &DetailFetch{scraper: scraper}
}

func (s *DetailFetch) Name() string { return "detail_fetch" }

// CanSkip reports there being nothing shortlisted to fetch.
func (s *DetailFetch) CanSkip(state *pipeline.State) bool {
	return state.TotalShortlisted() == 0
}

func (s *DetailFetch) Execute(ctx context.Context, state *pipeline.State) error {
	urls := make(map[string]bool)
	for _, matches := range state.Shortlist {
		for _, m := range matches {
			urls[m.URL] = true
		}
	}
	if len(urls) == 0 {
		return nil
	}

	var mu sync.Mutex
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailConcurrency)

	for url := range urls {
		g.Go(func() error {
			detail, err := s.scraper.FetchJobDetail(gctx, url)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				state.Log.Warn("posting fetch failed", "url", url, "error", err)
				failed++
				return nil
			}
			state.JobDetails[url] = detail
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &pipeline.TransientFetchError{Stage: s.Name(), Cause: err}
	}

	state.Log.Info("posting details fetched", "fetched", len(state.JobDetails), "failed", failed)
	return nil
}
