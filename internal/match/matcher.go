// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package match scores catalog candidates against a query string and
// selects the best match above a confidence threshold.
//
// See docs/ARCHITECTURE § Matching.
package match

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/pdiddy/cordis-harvester/pkg/types"
)

// DefaultThreshold is the minimum confidence score (0-100) a candidate
// must reach to be accepted.
const DefaultThreshold = 75

// ErrNoCandidates indicates the search returned nothing to match against.
var ErrNoCandidates = errors.New("no candidates to match")

// LowConfidenceError indicates the best candidate scored below the
// acceptance threshold. No forced best-effort pick is made: silently
// matching the wrong project is worse than matching nothing.
type LowConfidenceError struct {
	Best      types.MatchResult
	Threshold int
}

func (e *LowConfidenceError) Error() string {
	return fmt.Sprintf("best candidate %s scored %d, below threshold %d",
		e.Best.Candidate.ID, e.Best.Score, e.Threshold)
}

// Match selects the candidate with the highest similarity score to query.
// Pure function: no side effects, deterministic given identical candidate
// ordering. Ties on score are broken by preferring an exact acronym match,
// then an exact title match, then first-seen order.
func Match(query string, candidates []types.Candidate, cfg types.MatchConfig) (types.MatchResult, error) {
	if len(candidates) == 0 {
		return types.MatchResult{}, ErrNoCandidates
	}

	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	best := score(query, candidates[0])
	bestRank := tieRank(query, candidates[0])

	for _, c := range candidates[1:] {
		r := score(query, c)
		rank := tieRank(query, c)
		if r.Score > best.Score || (r.Score == best.Score && rank > bestRank) {
			best = r
			bestRank = rank
		}
	}

	if best.Score < threshold {
		return types.MatchResult{}, &LowConfidenceError{Best: best, Threshold: threshold}
	}
	return best, nil
}

// score computes the candidate's confidence: the edit-distance ratio of
// the query against title and acronym independently, keeping the maximum.
func score(query string, c types.Candidate) types.MatchResult {
	q := Normalize(query)

	result := types.MatchResult{Candidate: c, Field: types.FieldTitle}
	if t := Normalize(c.Title); t != "" {
		result.Score = fuzzy.Ratio(q, t)
	}
	if a := Normalize(c.Acronym); a != "" {
		if s := fuzzy.Ratio(q, a); s > result.Score {
			result.Score = s
			result.Field = types.FieldAcronym
		}
	}
	return result
}

// tieRank orders equal-scoring candidates: exact acronym match beats exact
// title match beats neither. First-seen order wins among equals because
// Match only replaces the incumbent on a strictly higher rank.
func tieRank(query string, c types.Candidate) int {
	q := Normalize(query)
	switch {
	case q != "" && q == Normalize(c.Acronym):
		return 2
	case q != "" && q == Normalize(c.Title):
		return 1
	default:
		return 0
	}
}

// Normalize lowercases s, replaces punctuation with spaces, and collapses
// whitespace, so scoring compares content rather than formatting.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
