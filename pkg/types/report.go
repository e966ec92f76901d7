// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// OutcomeStatus is the terminal state of a single query's collection.
type OutcomeStatus string

const (
	// StatusSuccess means the document was fetched and validated.
	StatusSuccess OutcomeStatus = "success"

	// StatusNoMatch means the catalog returned no candidates for the query.
	StatusNoMatch OutcomeStatus = "no_match"

	// StatusLowConfidence means the best candidate scored below the
	// acceptance threshold; no forced best-effort pick is made.
	StatusLowConfidence OutcomeStatus = "low_confidence"

	// StatusSearchFailed means the catalog search failed for this query
	// (non-fatal search timeout or extraction error).
	StatusSearchFailed OutcomeStatus = "search_failed"

	// StatusFetchFailed means the document retrieval failed after retries,
	// or the query was cancelled before reaching a terminal state.
	StatusFetchFailed OutcomeStatus = "fetch_failed"

	// StatusValidationFailed means the retrieved bytes were malformed or
	// declared the wrong namespace. Never retried.
	StatusValidationFailed OutcomeStatus = "validation_failed"
)

// Outcome records the result of collecting one query.
type Outcome struct {
	// Query is the input project name as supplied by the caller.
	Query string `json:"query" yaml:"query"`

	Status OutcomeStatus `json:"status" yaml:"status"`

	// Score is the accepted match's confidence score (0 when no match
	// was accepted).
	Score int `json:"score,omitempty" yaml:"score,omitempty"`

	// ProjectID is the matched CORDIS project identifier, when resolved.
	ProjectID string `json:"project_id,omitempty" yaml:"project_id,omitempty"`

	// Document references the stored document for successful outcomes.
	Document *Document `json:"document,omitempty" yaml:"document,omitempty"`

	// Detail carries the error description for failed outcomes.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Summary holds per-status counts for a batch.
type Summary struct {
	Success          int `json:"success" yaml:"success"`
	NoMatch          int `json:"no_match" yaml:"no_match"`
	LowConfidence    int `json:"low_confidence" yaml:"low_confidence"`
	SearchFailed     int `json:"search_failed" yaml:"search_failed"`
	FetchFailed      int `json:"fetch_failed" yaml:"fetch_failed"`
	ValidationFailed int `json:"validation_failed" yaml:"validation_failed"`
}

// Total returns the number of queries the summary accounts for.
func (s Summary) Total() int {
	return s.Success + s.NoMatch + s.LowConfidence +
		s.SearchFailed + s.FetchFailed + s.ValidationFailed
}

// BatchReport is the finalized, order-preserving record of outcomes for a
// set of queries. It is built incrementally by the collector and never
// mutated after hand-off.
type BatchReport struct {
	// BatchID uniquely identifies the collection run.
	BatchID string `json:"batch_id" yaml:"batch_id"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	// Outcomes holds exactly one entry per input query, in input order.
	Outcomes []Outcome `json:"outcomes" yaml:"outcomes"`

	Summary Summary `json:"summary" yaml:"summary"`
}

// Succeeded returns the successful outcomes in input order.
func (r *BatchReport) Succeeded() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusSuccess {
			out = append(out, o)
		}
	}
	return out
}

// DocumentPaths returns the stored XML paths of successful outcomes, in
// input order. This is the hand-off set for the graph-building stage.
func (r *BatchReport) DocumentPaths() []string {
	var paths []string
	for _, o := range r.Outcomes {
		if o.Status == StatusSuccess && o.Document != nil {
			paths = append(paths, o.Document.Path)
		}
	}
	return paths
}

// HasFailures reports whether any query ended in a non-success status.
func (r *BatchReport) HasFailures() bool {
	return r.Summary.Total() != r.Summary.Success
}
