// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return doc
}

const resultCardPage = `
<html><body>
  <div class="result">
    <a href="/project/id/101136957/en">COMMUTE</a>
    <h3>Cooperative multimodal urban transport</h3>
    <p>Reducing commuter congestion in mid-size cities.</p>
  </div>
  <div class="result">
    <a href="/project/id/202000111">Solar grid storage pilots</a>
  </div>
  <div class="result">
    <a href="/project/id/303000222/reporting">Ignored reporting link</a>
  </div>
  <div class="result">
    <span>No project link at all</span>
  </div>
</body></html>`

func TestSelectorStrategyExtract(t *testing.T) {
	s := &selectorStrategy{name: "result_card", selector: ".result"}
	candidates := s.Extract(parseHTML(t, resultCardPage))

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if first.ID != "101136957" {
		t.Errorf("expected ID 101136957, got %s", first.ID)
	}
	if first.Title != "COMMUTE" {
		t.Errorf("expected title COMMUTE, got %q", first.Title)
	}
	if first.Acronym != "COMMUTE" {
		t.Errorf("expected acronym COMMUTE, got %q", first.Acronym)
	}
	if first.URL != "/project/id/101136957" {
		t.Errorf("expected language suffix stripped, got %s", first.URL)
	}
	if first.Snippet == "" {
		t.Error("expected a snippet from the description paragraph")
	}

	second := candidates[1]
	if second.ID != "202000111" {
		t.Errorf("expected ID 202000111, got %s", second.ID)
	}
	if second.Acronym != "" {
		t.Errorf("multi-word title must not become an acronym, got %q", second.Acronym)
	}
}

func TestProjectLinkStrategyDeduplicates(t *testing.T) {
	page := `
<html><body>
  <a href="/project/id/111/en">ALPHA</a>
  <a href="/project/id/111">ALPHA again</a>
  <a href="/project/id/222">Beta project page</a>
  <a href="/project/id/333/factsheet">factsheet</a>
  <a href="/about">unrelated</a>
</body></html>`

	s := &projectLinkStrategy{}
	candidates := s.Extract(parseHTML(t, page))

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].ID != "111" || candidates[1].ID != "222" {
		t.Errorf("unexpected candidate IDs: %s, %s", candidates[0].ID, candidates[1].ID)
	}
	if candidates[0].Acronym != "ALPHA" {
		t.Errorf("expected link text ALPHA recognized as acronym, got %q", candidates[0].Acronym)
	}
}

func TestParseProjectLink(t *testing.T) {
	tests := []struct {
		name   string
		href   string
		id     string
		url    string
		wantOK bool
	}{
		{"plain", "/project/id/101136957", "101136957", "/project/id/101136957", true},
		{"language suffix stripped", "/project/id/101136957/en", "101136957", "/project/id/101136957", true},
		{"absolute URL", "https://cordis.europa.eu/project/id/42/de", "42", "https://cordis.europa.eu/project/id/42", true},
		{"reporting skipped", "/project/id/42/reporting", "", "", false},
		{"factsheet skipped", "/project/id/42/factsheet", "", "", false},
		{"not a project link", "/programme/id/H2020", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, url, ok := parseProjectLink(tt.href)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if id != tt.id || url != tt.url {
				t.Errorf("got (%q, %q), want (%q, %q)", id, url, tt.id, tt.url)
			}
		})
	}
}

func TestLooksLikeAcronym(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"COMMUTE", true},
		{"AI4EU", true},
		{"RE-SAMPLE", true},
		{"commute", false},
		{"Two words", false},
		{"X", false},
		{"VERYLONGACRONYMXX", false},
		{"1234", false},
	}

	for _, tt := range tests {
		if got := looksLikeAcronym(tt.in); got != tt.want {
			t.Errorf("looksLikeAcronym(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultStrategiesOrder(t *testing.T) {
	strategies := DefaultStrategies()
	want := []string{"result_card", "testid_item", "search_result", "article", "project_link"}
	if len(strategies) != len(want) {
		t.Fatalf("expected %d strategies, got %d", len(want), len(strategies))
	}
	for i, s := range strategies {
		if s.Name() != want[i] {
			t.Errorf("strategy %d = %s, want %s", i, s.Name(), want[i])
		}
	}
}
