// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect orchestrates catalog search, matching, and document
// fetch across a batch of queries, producing an order-preserving report.
//
// See docs/ARCHITECTURE § Collection.
package collect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/cordis-harvester/internal/catalog"
	"github.com/pdiddy/cordis-harvester/internal/fetch"
	"github.com/pdiddy/cordis-harvester/internal/match"
	"github.com/pdiddy/cordis-harvester/pkg/types"
)

// Searcher resolves a query to candidate projects. Implemented by
// catalog.Client; tests substitute a fake.
type Searcher interface {
	Search(ctx context.Context, query string) ([]types.Candidate, error)
}

// Fetcher retrieves and validates a project document by identifier.
// Implemented by fetch.Fetcher; tests substitute a fake.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (*types.Document, error)
}

// Collector sequences search, match, and fetch per query. Search and
// match run sequentially because the browser session is not safe for
// concurrent use; fetches use stateless HTTP and may run in parallel up
// to the configured concurrency limit.
type Collector struct {
	searcher Searcher
	fetcher  Fetcher
	matchCfg types.MatchConfig
	cfg      types.CollectConfig

	// wmu serializes progress output: the main loop and the fetch
	// goroutines share w.
	wmu sync.Mutex
	w   io.Writer
}

// logf writes one progress line to the collector's writer.
func (c *Collector) logf(format string, args ...any) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

// NewCollector wires the collector's collaborators.
func NewCollector(searcher Searcher, fetcher Fetcher, matchCfg types.MatchConfig, cfg types.CollectConfig, w io.Writer) *Collector {
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 1
	}
	return &Collector{
		searcher: searcher,
		fetcher:  fetcher,
		matchCfg: matchCfg,
		cfg:      cfg,
		w:        w,
	}
}

// CollectBatch processes queries in input order and returns the finalized
// report: exactly one outcome per query, positions matching the input.
// Per-query failures are recorded and never abort the batch; a session
// failure (or a search timeout under SearchFatal) aborts, marks the
// remaining queries cancelled, and surfaces the error alongside the
// report. The report is never mutated after return.
func (c *Collector) CollectBatch(ctx context.Context, queries []string) (*types.BatchReport, error) {
	if c.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.BatchTimeout)
		defer cancel()
	}

	report := &types.BatchReport{
		BatchID:   uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Outcomes:  make([]types.Outcome, len(queries)),
	}
	for i, q := range queries {
		report.Outcomes[i] = types.Outcome{Query: q}
	}

	sem := make(chan struct{}, c.cfg.FetchConcurrency)
	var wg sync.WaitGroup
	var fatal error

	for i, query := range queries {
		if ctx.Err() != nil {
			c.markCancelled(report, i, ctx.Err())
			break
		}

		c.logf("[%d/%d] %s\n", i+1, len(queries), query)

		candidates, err := c.searcher.Search(ctx, query)
		if err != nil {
			if c.searchFatal(err) {
				report.Outcomes[i] = searchOutcome(query, err)
				c.markCancelled(report, i+1, err)
				fatal = err
				break
			}
			report.Outcomes[i] = searchOutcome(query, err)
			c.logf("  search failed: %v\n", err)
			continue
		}

		result, err := match.Match(query, candidates, c.matchCfg)
		if err != nil {
			report.Outcomes[i] = matchOutcome(query, err)
			c.logf("  %s\n", report.Outcomes[i].Detail)
			continue
		}

		c.logf("  matched project %s (%s, score %d)\n",
			result.Candidate.ID, result.Field, result.Score)

		// Every accepted match gets exactly one fetch attempt.
		i, query, result := i, query, result
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			report.Outcomes[i] = c.fetchOutcome(ctx, query, result)
		}()
	}

	wg.Wait()

	// A batch timeout can fire between queries; nothing stays pending.
	for i := range report.Outcomes {
		if report.Outcomes[i].Status == "" {
			report.Outcomes[i].Status = types.StatusFetchFailed
			report.Outcomes[i].Detail = "cancelled: batch aborted before processing"
		}
	}

	report.FinishedAt = time.Now().UTC()
	report.Summary = summarize(report.Outcomes)

	c.printSummary(report)

	if fatal != nil {
		return report, fmt.Errorf("batch aborted: %w", fatal)
	}
	return report, nil
}

// searchFatal reports whether a search error aborts the whole batch. A
// missing session always does; a timeout only under SearchFatal.
func (c *Collector) searchFatal(err error) bool {
	if errors.Is(err, catalog.ErrSessionUnavailable) {
		return true
	}
	var timeout *catalog.SearchTimeoutError
	return c.cfg.SearchFatal && errors.As(err, &timeout)
}

func (c *Collector) fetchOutcome(ctx context.Context, query string, result types.MatchResult) types.Outcome {
	outcome := types.Outcome{
		Query:     query,
		Score:     result.Score,
		ProjectID: result.Candidate.ID,
	}

	doc, err := c.fetcher.Fetch(ctx, result.Candidate.ID)
	if err != nil {
		var vErr *fetch.ValidationError
		if errors.As(err, &vErr) {
			outcome.Status = types.StatusValidationFailed
		} else {
			outcome.Status = types.StatusFetchFailed
		}
		outcome.Detail = err.Error()
		c.logf("  %v\n", err)
		return outcome
	}

	outcome.Status = types.StatusSuccess
	outcome.Document = doc
	c.logf("  stored %s (%d bytes)\n", doc.Path, doc.Size)
	return outcome
}

// markCancelled records a cancelled terminal status for every query from
// index from onward that has not reached one.
func (c *Collector) markCancelled(report *types.BatchReport, from int, cause error) {
	for i := from; i < len(report.Outcomes); i++ {
		if report.Outcomes[i].Status != "" {
			continue
		}
		report.Outcomes[i].Status = types.StatusFetchFailed
		report.Outcomes[i].Detail = fmt.Sprintf("cancelled: %v", cause)
	}
}

func searchOutcome(query string, err error) types.Outcome {
	return types.Outcome{Query: query, Status: types.StatusSearchFailed, Detail: err.Error()}
}

func matchOutcome(query string, err error) types.Outcome {
	outcome := types.Outcome{Query: query, Detail: err.Error()}

	var low *match.LowConfidenceError
	switch {
	case errors.Is(err, match.ErrNoCandidates):
		outcome.Status = types.StatusNoMatch
	case errors.As(err, &low):
		outcome.Status = types.StatusLowConfidence
		outcome.Score = low.Best.Score
		outcome.ProjectID = low.Best.Candidate.ID
	default:
		outcome.Status = types.StatusNoMatch
	}
	return outcome
}

func summarize(outcomes []types.Outcome) types.Summary {
	var s types.Summary
	for _, o := range outcomes {
		switch o.Status {
		case types.StatusSuccess:
			s.Success++
		case types.StatusNoMatch:
			s.NoMatch++
		case types.StatusLowConfidence:
			s.LowConfidence++
		case types.StatusSearchFailed:
			s.SearchFailed++
		case types.StatusFetchFailed:
			s.FetchFailed++
		case types.StatusValidationFailed:
			s.ValidationFailed++
		}
	}
	return s
}

func (c *Collector) printSummary(report *types.BatchReport) {
	s := report.Summary
	c.logf("\nBatch %s: %d succeeded, %d no match, %d low confidence, "+
		"%d search failed, %d fetch failed, %d validation failed (total: %d)\n",
		report.BatchID, s.Success, s.NoMatch, s.LowConfidence,
		s.SearchFailed, s.FetchFailed, s.ValidationFailed, s.Total())
}
