// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/cordis-harvester/pkg/types"
)

// Strategy extracts candidate projects from a rendered search page. The
// catalog's result markup varies by UI version, so the client tries an
// ordered list of strategies and stops at the first one that yields a
// non-empty candidate set. Add or remove strategies here without touching
// the client's control flow.
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document) []types.Candidate
}

// DefaultStrategies returns the strategy chain in fallback order, most
// specific first. The bare project-link scan comes last: it recovers
// candidates from any markup but yields the least metadata.
func DefaultStrategies() []Strategy {
	return []Strategy{
		&selectorStrategy{name: "result_card", selector: ".result"},
		&selectorStrategy{name: "testid_item", selector: "[data-testid='result-item']"},
		&selectorStrategy{name: "search_result", selector: ".search-result"},
		&selectorStrategy{name: "article", selector: "article"},
		&projectLinkStrategy{},
	}
}

// projectIDPattern matches the numeric identifier in project page URLs.
var projectIDPattern = regexp.MustCompile(`/project/id/(\d+)`)

// langSuffixPattern matches a two-letter language code appended to a
// project URL, e.g. /project/id/101136957/en.
var langSuffixPattern = regexp.MustCompile(`(/project/id/\d+)/[a-z]{2}$`)

// selectorStrategy extracts one candidate per result container matched by
// a CSS selector.
type selectorStrategy struct {
	name     string
	selector string
}

func (s *selectorStrategy) Name() string { return s.name }

func (s *selectorStrategy) Extract(doc *goquery.Document) []types.Candidate {
	var candidates []types.Candidate
	doc.Find(s.selector).Each(func(_ int, sel *goquery.Selection) {
		if c, ok := parseResult(sel); ok {
			candidates = append(candidates, c)
		}
	})
	return candidates
}

// parseResult pulls a candidate out of one result container. Results
// without a project link, and links to reporting or factsheet sub-pages,
// are skipped.
func parseResult(sel *goquery.Selection) (types.Candidate, bool) {
	link := sel.Find("a[href*='/project/id/']").First()
	if link.Length() == 0 {
		return types.Candidate{}, false
	}

	href, _ := link.Attr("href")
	id, url, ok := parseProjectLink(href)
	if !ok {
		return types.Candidate{}, false
	}

	title := strings.TrimSpace(link.Text())
	if title == "" {
		title = strings.TrimSpace(sel.Find("h2, h3, .title, .result-title").First().Text())
	}

	acronym := strings.TrimSpace(sel.Find(".acronym, .c-info__acronym, strong").First().Text())
	if acronym == "" && looksLikeAcronym(title) {
		acronym = title
	}

	snippet := strings.TrimSpace(sel.Find(".description, .summary, .teaser, p").First().Text())

	return types.Candidate{
		ID:      id,
		Title:   title,
		Acronym: acronym,
		Snippet: snippet,
		URL:     url,
	}, true
}

// projectLinkStrategy scans the whole page for project links. Fallback of
// last resort: titles come from the link text and no snippet is available.
type projectLinkStrategy struct{}

func (s *projectLinkStrategy) Name() string { return "project_link" }

func (s *projectLinkStrategy) Extract(doc *goquery.Document) []types.Candidate {
	var candidates []types.Candidate
	seen := make(map[string]bool)

	doc.Find("a[href*='/project/id/']").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		id, url, ok := parseProjectLink(href)
		if !ok || seen[id] {
			return
		}
		seen[id] = true

		title := strings.TrimSpace(link.Text())
		var acronym string
		if looksLikeAcronym(title) {
			acronym = title
		}
		candidates = append(candidates, types.Candidate{
			ID:      id,
			Title:   title,
			Acronym: acronym,
			URL:     url,
		})
	})
	return candidates
}

// parseProjectLink extracts the project ID from href and normalizes the
// URL to the main project page. Reporting and factsheet sub-pages are not
// project records.
func parseProjectLink(href string) (id, url string, ok bool) {
	m := projectIDPattern.FindStringSubmatch(href)
	if m == nil {
		return "", "", false
	}
	if strings.Contains(href, "/reporting") || strings.Contains(href, "/factsheet") {
		return "", "", false
	}
	return m[1], langSuffixPattern.ReplaceAllString(href, "$1"), true
}

// looksLikeAcronym reports whether s is a short all-caps token of the kind
// CORDIS uses as project acronyms.
func looksLikeAcronym(s string) bool {
	if len(s) < 2 || len(s) > 12 || strings.ContainsAny(s, " \t") {
		return false
	}
	hasLetter := false
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return hasLetter
}
