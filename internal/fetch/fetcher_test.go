// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cordis-harvester/internal/httputil"
	"github.com/pdiddy/cordis-harvester/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

const validProject = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="https://cordis.europa.eu/xml/project">
  <id>101136957</id>
  <acronym>COMMUTE</acronym>
  <title>Cooperative multimodal urban transport</title>
  <objective>Reduce commuter congestion.</objective>
  <startDate>2024-01-01</startDate>
  <endDate>2027-12-31</endDate>
  <totalCost>4999875</totalCost>
  <ecMaxContribution>4999875</ecMaxContribution>
  <keywords>mobility</keywords>
  <keywords>urban transport</keywords>
  <relations>
    <associations>
      <organization><legalName>TECHNISCHE UNIVERSITEIT DELFT</legalName></organization>
      <organization><legalName>CITY OF GHENT</legalName></organization>
    </associations>
  </relations>
</project>`

func newTestFetcher(t *testing.T, handler http.Handler) (*Fetcher, string) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	cfg := types.FetchConfig{
		BaseURL:    ts.URL,
		MaxRetries: 2,
		OutputDir:  dir,
	}
	return NewFetcher(ts.Client(), cfg), dir
}

func TestFetchValidDocument(t *testing.T) {
	f, dir := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/project/id/101136957" || r.URL.Query().Get("format") != "xml" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, validProject)
	}))

	doc, err := f.Fetch(context.Background(), "101136957")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if doc.ID != "101136957" {
		t.Errorf("expected ID 101136957, got %s", doc.ID)
	}
	if doc.Namespace != DefaultNamespace {
		t.Errorf("expected namespace %s, got %s", DefaultNamespace, doc.Namespace)
	}
	if doc.Fields.Acronym != "COMMUTE" {
		t.Errorf("expected acronym COMMUTE, got %q", doc.Fields.Acronym)
	}
	if len(doc.Fields.Keywords) != 2 {
		t.Errorf("expected 2 keywords, got %v", doc.Fields.Keywords)
	}
	if len(doc.Fields.Participants) != 2 {
		t.Errorf("expected 2 participants, got %v", doc.Fields.Participants)
	}

	// The XML lands under xml/ with the slug name.
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		t.Fatalf("reading stored document: %v", err)
	}
	if string(data) != validProject {
		t.Error("stored document differs from response body")
	}
	if filepath.Dir(doc.Path) != filepath.Join(dir, "xml") {
		t.Errorf("document stored in %s", doc.Path)
	}

	// The metadata sidecar round-trips.
	metaPath := filepath.Join(dir, "metadata", doc.Slug+".yaml")
	meta, err := os.ReadFile(metaPath)
	if err != nil {
		t.Fatalf("reading metadata sidecar: %v", err)
	}
	var stored types.Document
	if err := yaml.Unmarshal(meta, &stored); err != nil {
		t.Fatalf("parsing metadata sidecar: %v", err)
	}
	if stored.ID != doc.ID || stored.Slug != doc.Slug {
		t.Errorf("sidecar mismatch: %+v", stored)
	}
}

func TestDocumentSlugDeterministic(t *testing.T) {
	a := DocumentSlug("101136957")
	b := DocumentSlug("101136957")
	if a != b {
		t.Errorf("slug not deterministic: %s vs %s", a, b)
	}
	if a == DocumentSlug("202000111") {
		t.Error("distinct identifiers produced the same slug")
	}
}

func TestFetchOverwritesOnRefetch(t *testing.T) {
	f, dir := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, validProject)
	}))

	first, err := f.Fetch(context.Background(), "101136957")
	if err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	second, err := f.Fetch(context.Background(), "101136957")
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if first.Path != second.Path {
		t.Errorf("refetch stored under a new name: %s vs %s", first.Path, second.Path)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "xml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 stored document, got %d", len(entries))
	}
}

func TestFetchMalformedXML(t *testing.T) {
	var calls int32
	f, dir := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, "<project><unclosed>")
	}))

	_, err := f.Fetch(context.Background(), "42")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	// Bad content is not retried.
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected 1 request, got %d", n)
	}
	// Nothing is stored.
	if _, err := os.Stat(filepath.Join(dir, "xml")); !os.IsNotExist(err) {
		t.Error("invalid document was stored")
	}
}

func TestFetchWrongNamespace(t *testing.T) {
	f, _ := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<project xmlns="https://example.com/other"><id>42</id></project>`)
	}))

	_, err := f.Fetch(context.Background(), "42")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestFetchIdentifierMismatch(t *testing.T) {
	f, _ := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<project xmlns="https://cordis.europa.eu/xml/project"><id>999</id></project>`)
	}))

	_, err := f.Fetch(context.Background(), "42")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestFetchNotFound(t *testing.T) {
	f, _ := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := f.Fetch(context.Background(), "42")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fe.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", fe.Status)
	}
}

func TestFetchRetriesTransientFailure(t *testing.T) {
	var calls int32
	f, _ := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, validProject)
	}))

	doc, err := f.Fetch(context.Background(), "101136957")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if doc.Fields.Title == "" {
		t.Error("expected parsed fields after retry")
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("expected 2 requests, got %d", n)
	}
}

func TestFetchSendsHeaders(t *testing.T) {
	var ua, accept string
	f, _ := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		accept = r.Header.Get("Accept")
		fmt.Fprint(w, validProject)
	}))

	if _, err := f.Fetch(context.Background(), "101136957"); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if ua != "cordis-harvester/0.1" {
		t.Errorf("unexpected User-Agent %q", ua)
	}
	if accept != "application/xml, text/xml" {
		t.Errorf("unexpected Accept %q", accept)
	}
}
