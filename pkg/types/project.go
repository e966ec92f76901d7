// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the cordis-harvester
// pipeline: search candidates, match results, fetched documents, and the
// batch collection report.
//
// See docs/ARCHITECTURE § Data Structures.
package types

import "time"

// Candidate represents a tentative project returned by a catalog search.
// Candidates exist only for the duration of one query's matching pass.
type Candidate struct {
	// ID is the numeric CORDIS project identifier extracted from the
	// result's /project/id/ link.
	ID string `json:"id" yaml:"id"`

	// Title is the project title as rendered on the search page.
	Title string `json:"title" yaml:"title"`

	// Acronym is the project acronym when the result exposes one.
	Acronym string `json:"acronym,omitempty" yaml:"acronym,omitempty"`

	// Snippet is the result's teaser or description text, if any.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`

	// URL is the normalized project page URL.
	URL string `json:"url" yaml:"url"`
}

// MatchedField identifies which candidate field produced the match score.
type MatchedField string

const (
	FieldTitle   MatchedField = "title"
	FieldAcronym MatchedField = "acronym"
)

// MatchResult is an accepted pairing of a query with a candidate.
type MatchResult struct {
	// Candidate is the selected catalog candidate.
	Candidate Candidate `json:"candidate" yaml:"candidate"`

	// Score is the confidence score on a 0-100 scale.
	Score int `json:"score" yaml:"score"`

	// Field is the candidate field that produced the score.
	Field MatchedField `json:"field" yaml:"field"`
}

// Document holds a validated project metadata document and the normalized
// field set extracted from it.
type Document struct {
	// ID is the CORDIS project identifier the document was fetched for.
	ID string `json:"id" yaml:"id"`

	// Slug is the content-derived storage name (deterministic per ID).
	Slug string `json:"slug" yaml:"slug"`

	// Path is the local filesystem path of the stored XML file.
	Path string `json:"path" yaml:"path"`

	// Size is the size of the stored document in bytes.
	Size int64 `json:"size" yaml:"size"`

	// Namespace is the XML namespace the document declared.
	Namespace string `json:"namespace" yaml:"namespace"`

	// RetrievedAt records when the document was fetched.
	RetrievedAt time.Time `json:"retrieved_at" yaml:"retrieved_at"`

	Fields ProjectFields `json:"fields" yaml:"fields"`
}

// ProjectFields is the normalized field set consumed downstream.
type ProjectFields struct {
	Acronym        string   `json:"acronym,omitempty" yaml:"acronym,omitempty"`
	Title          string   `json:"title,omitempty" yaml:"title,omitempty"`
	Objective      string   `json:"objective,omitempty" yaml:"objective,omitempty"`
	StartDate      string   `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate        string   `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	TotalCost      string   `json:"total_cost,omitempty" yaml:"total_cost,omitempty"`
	ECContribution string   `json:"ec_contribution,omitempty" yaml:"ec_contribution,omitempty"`
	Participants   []string `json:"participants,omitempty" yaml:"participants,omitempty"`
	Keywords       []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}
