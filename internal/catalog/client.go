// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/pdiddy/cordis-harvester/pkg/types"
)

// Catalog defaults applied by NewClient when the config leaves a field zero.
const (
	DefaultBaseURL    = "https://cordis.europa.eu"
	DefaultMaxResults = 10
)

// ErrSessionUnavailable indicates the browser session could not be
// established. Session-level: fatal to the whole batch.
var ErrSessionUnavailable = errors.New("catalog session unavailable")

// SearchTimeoutError indicates the catalog did not expose results for a
// query within the bounded wait.
type SearchTimeoutError struct {
	Query string
	Wait  time.Duration
}

func (e *SearchTimeoutError) Error() string {
	return fmt.Sprintf("search for %q produced no results within %v", e.Query, e.Wait)
}

// pollInterval is how often the client re-reads the rendered page while
// waiting for results. A var so tests can shorten the wait loop.
var pollInterval = 500 * time.Millisecond

// Client issues queries against the catalog's search interface through an
// injected Session and extracts candidates via the strategy chain.
type Client struct {
	session    Session
	strategies []Strategy
	limiter    *rate.Limiter
	cfg        types.CatalogConfig
	w          io.Writer
}

// NewClient builds a client around session. The inter-request delay is
// enforced with a rate limiter so successive searches respect the remote
// service regardless of how fast queries arrive.
func NewClient(session Session, cfg types.CatalogConfig, w io.Writer) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestDelay <= 0 {
		cfg.RequestDelay = time.Second
	}
	if cfg.SearchWait <= 0 {
		cfg.SearchWait = 15 * time.Second
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	return &Client{
		session:    session,
		strategies: DefaultStrategies(),
		limiter:    rate.NewLimiter(rate.Every(cfg.RequestDelay), 1),
		cfg:        cfg,
		w:          w,
	}
}

// SearchURL returns the catalog search URL for query.
func (c *Client) SearchURL(query string) string {
	return fmt.Sprintf("%s/projects/en?q=%s&p=1&num=%d&srt=Relevance:decreasing",
		strings.TrimSuffix(c.cfg.BaseURL, "/"), url.QueryEscape(query), c.cfg.MaxResults)
}

// Search issues query and returns the extracted candidates. The rendered
// page is polled until one strategy yields a non-empty candidate set; if
// none does within the configured wait, a *SearchTimeoutError is returned.
func (c *Client) Search(ctx context.Context, query string) ([]types.Candidate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	searchURL := c.SearchURL(query)
	fmt.Fprintf(c.w, "searching: %s\n", searchURL)

	if err := c.session.Navigate(ctx, searchURL); err != nil {
		return nil, fmt.Errorf("loading search page: %w", err)
	}

	deadline := time.Now().Add(c.cfg.SearchWait)
	for {
		html, err := c.session.HTML(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading search page: %w", err)
		}

		candidates, name, err := c.extract(html)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			fmt.Fprintf(c.w, "found %d candidate(s) with strategy %s\n", len(candidates), name)
			if len(candidates) > c.cfg.MaxResults {
				candidates = candidates[:c.cfg.MaxResults]
			}
			return candidates, nil
		}

		if time.Now().After(deadline) {
			return nil, &SearchTimeoutError{Query: query, Wait: c.cfg.SearchWait}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// extract runs the strategy chain over html and returns the first
// non-empty candidate set along with the winning strategy's name.
func (c *Client) extract(html string) ([]types.Candidate, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, "", fmt.Errorf("parsing search page: %w", err)
	}
	for _, s := range c.strategies {
		if candidates := s.Extract(doc); len(candidates) > 0 {
			return candidates, s.Name(), nil
		}
	}
	return nil, "", nil
}
