package stages

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/scoutly/scoutly/internal/pipeline"
	"github.com/scoutly/scoutly/internal/scrape"
	"github.com/scoutly/scoutly/internal/store"
)

// scrapeConcurrency bounds how many careers pages are fetched at once.
const scrapeConcurrency = 4

// OrganizationScraping fetches each organization's careers page, extracts
// job links and diffs them against the scrape history. A failed
// organization degrades to zero links rather than failing the stage; only
// a run where every organization failed is reported as a failure.
type OrganizationScraping struct {
	scraper PageScraper
	history HistoryCache
}

// NewOrganizationScraping creates the stage.
func NewOrganizationScraping(scraper PageScraper, history HistoryCache) *OrganizationScraping {
	return &OrganizationScraping{scraper: scraper, history: history}
}

func (s *OrganizationScraping) Name() string { return "organization_scraping" }

// Validate checks that there are organizations to scrape.
func (s *OrganizationScraping) Validate(state *pipeline.State) error {
	if len(state.Organizations) == 0 {
		return &pipeline.ValidationError{Stage: s.Name(), Message: "no organizations to scrape"}
	}
	return nil
}

func (s *OrganizationScraping) Execute(ctx context.Context, state *pipeline.State) error {
	var mu sync.Mutex
	failures := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(scrapeConcurrency)

	for i := range state.Organizations {
		org := state.Organizations[i]
		g.Go(func() error {
			full, fresh, err := s.scrapeOne(gctx, state, &org)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				state.Log.Warn("organization scrape failed", "org", org.Name, "error", err)
				failures++
				state.NewLinks[org.ID] = nil
				return nil
			}
			state.FullLinks[org.ID] = full
			state.NewLinks[org.ID] = fresh
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if failures == len(state.Organizations) {
		return &pipeline.TransientFetchError{
			Stage: s.Name(),
			Cause: errors.New("every organization scrape failed"),
		}
	}

	state.Log.Info("organizations scraped",
		"orgs", len(state.Organizations), "failed", failures, "new_links", state.TotalNewLinks())
	return nil
}

// OnFailure logs which organizations produced no links.
func (s *OrganizationScraping) OnFailure(_ context.Context, state *pipeline.State, err error) {
	for _, org := range state.Organizations {
		if len(state.NewLinks[org.ID]) == 0 {
			state.Log.Warn("no links scraped", "org", org.Name, "url", org.CareersURL)
		}
	}
	state.Log.Error("organization scraping failed", "orgs", len(state.Organizations), "error", err)
}

// scrapeOne fetches one careers page and returns the full link set plus
// the links unseen in the previous scrape. The full set is always
// recorded, even when nothing is new, so removed postings fall out of
// the history.
func (s *OrganizationScraping) scrapeOne(ctx context.Context, state *pipeline.State, org *store.Organization) (full, fresh []store.HistoryLink, err error) {
	html, err := s.scraper.FetchHTML(ctx, org.CareersURL)
	if err != nil {
		return nil, nil, err
	}

	extracted, err := scrape.ExtractLinks(html, org.CareersURL)
	if err != nil {
		return nil, nil, err
	}

	full = make([]store.HistoryLink, len(extracted))
	for i, l := range extracted {
		full[i] = store.HistoryLink{URL: l.URL, Title: l.Text, Context: l.Context}
	}

	fresh, err = s.history.FindNew(ctx, org.ID, state.UserID, full)
	if err != nil {
		return nil, nil, err
	}
	if err := s.history.Record(ctx, org.ID, state.UserID, full); err != nil {
		return nil, nil, err
	}

	state.Log.Debug("careers page scraped",
		"org", org.Name, "links", len(full), "new", len(fresh))
	return full, fresh, nil
}
