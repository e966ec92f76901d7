// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves project metadata documents, validates them, and
// stores them under content-derived names.
//
// See docs/ARCHITECTURE § Document Fetch.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/cordis-harvester/internal/httputil"
	"github.com/pdiddy/cordis-harvester/pkg/types"
)

const (
	xmlDir      = "xml"
	metadataDir = "metadata"

	// DefaultNamespace is the namespace a valid CORDIS project document
	// declares on its root element.
	DefaultNamespace = "https://cordis.europa.eu/xml/project"
)

// FetchError indicates a transport or HTTP failure that survived the
// retry policy.
type FetchError struct {
	ID     string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching document for project %s: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("fetching document for project %s: HTTP %d", e.ID, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ValidationError indicates the retrieved bytes are not a well-formed
// project document. Never retried: the content will not improve.
type ValidationError struct {
	ID     string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document for project %s failed validation: %s", e.ID, e.Reason)
}

// Fetcher retrieves and validates project documents over stateless HTTP.
// Unlike the search session, a Fetcher is safe for concurrent use.
type Fetcher struct {
	client *http.Client
	cfg    types.FetchConfig
}

// NewFetcher builds a fetcher with config defaults applied.
func NewFetcher(client *http.Client, cfg types.FetchConfig) *Fetcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://cordis.europa.eu"
	}
	if cfg.ExpectedNamespace == "" {
		cfg.ExpectedNamespace = DefaultNamespace
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "cordis-harvester/0.1"
	}
	return &Fetcher{client: client, cfg: cfg}
}

// DocumentURL returns the canonical metadata document URL for a project.
func (f *Fetcher) DocumentURL(id string) string {
	return fmt.Sprintf("%s/project/id/%s?format=xml", strings.TrimSuffix(f.cfg.BaseURL, "/"), id)
}

// DocumentSlug returns the content-derived storage name for a project
// identifier. Deterministic: the same identifier always yields the same
// name, so repeat fetches overwrite rather than duplicate.
func DocumentSlug(id string) string {
	h := sha256.Sum256([]byte(id))
	return fmt.Sprintf("project-%x", h[:8])
}

// Fetch retrieves the document for id, validates it, stores the XML and a
// metadata sidecar under the output directory, and returns the document
// record. Transport failures are retried with exponential backoff before
// being reported as *FetchError; malformed or mis-namespaced content is
// reported as *ValidationError without retrying.
func (f *Fetcher) Fetch(ctx context.Context, id string) (*types.Document, error) {
	docURL := f.DocumentURL(id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return nil, &FetchError{ID: id, Err: err}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := httputil.DoWithRetry(ctx, f.client, req, f.cfg.MaxRetries)
	if err != nil {
		return nil, &FetchError{ID: id, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{ID: id, Status: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{ID: id, Err: err}
	}

	parsed, namespace, err := parseDocument(id, raw, f.cfg.ExpectedNamespace)
	if err != nil {
		return nil, err
	}

	slug := DocumentSlug(id)
	docPath := filepath.Join(f.cfg.OutputDir, xmlDir, slug+".xml")
	metaPath := filepath.Join(f.cfg.OutputDir, metadataDir, slug+".yaml")

	if err := writeFile(docPath, raw); err != nil {
		return nil, fmt.Errorf("storing document for project %s: %w", id, err)
	}

	doc := &types.Document{
		ID:          id,
		Slug:        slug,
		Path:        docPath,
		Size:        int64(len(raw)),
		Namespace:   namespace,
		RetrievedAt: time.Now().UTC(),
		Fields:      parsed.fields(),
	}

	if err := writeMetadata(doc, metaPath); err != nil {
		return nil, fmt.Errorf("writing metadata for project %s: %w", id, err)
	}
	return doc, nil
}

// projectXML mirrors the subset of the CORDIS project document the
// harvester extracts. XMLName captures the root element's namespace.
type projectXML struct {
	XMLName        xml.Name `xml:"project"`
	ID             string   `xml:"id"`
	Acronym        string   `xml:"acronym"`
	Title          string   `xml:"title"`
	Objective      string   `xml:"objective"`
	StartDate      string   `xml:"startDate"`
	EndDate        string   `xml:"endDate"`
	TotalCost      string   `xml:"totalCost"`
	ECContribution string   `xml:"ecMaxContribution"`
	Keywords       []string `xml:"keywords"`
	Relations      struct {
		Associations struct {
			Organizations []struct {
				LegalName string `xml:"legalName"`
			} `xml:"organization"`
		} `xml:"associations"`
	} `xml:"relations"`
}

func (p *projectXML) fields() types.ProjectFields {
	f := types.ProjectFields{
		Acronym:        strings.TrimSpace(p.Acronym),
		Title:          strings.TrimSpace(p.Title),
		Objective:      strings.TrimSpace(p.Objective),
		StartDate:      strings.TrimSpace(p.StartDate),
		EndDate:        strings.TrimSpace(p.EndDate),
		TotalCost:      strings.TrimSpace(p.TotalCost),
		ECContribution: strings.TrimSpace(p.ECContribution),
	}
	for _, k := range p.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			f.Keywords = append(f.Keywords, k)
		}
	}
	for _, org := range p.Relations.Associations.Organizations {
		if name := strings.TrimSpace(org.LegalName); name != "" {
			f.Participants = append(f.Participants, name)
		}
	}
	return f
}

// parseDocument decodes raw and enforces the validation rules: well-formed
// XML, a project root element in the expected namespace, and an embedded
// identifier matching the requested one.
func parseDocument(id string, raw []byte, expectedNS string) (*projectXML, string, error) {
	var p projectXML
	if err := xml.Unmarshal(raw, &p); err != nil {
		return nil, "", &ValidationError{ID: id, Reason: fmt.Sprintf("malformed XML: %v", err)}
	}

	if p.XMLName.Local != "project" {
		return nil, "", &ValidationError{ID: id,
			Reason: fmt.Sprintf("root element is %q, expected \"project\"", p.XMLName.Local)}
	}
	if p.XMLName.Space != expectedNS {
		return nil, "", &ValidationError{ID: id,
			Reason: fmt.Sprintf("namespace is %q, expected %q", p.XMLName.Space, expectedNS)}
	}
	if got := strings.TrimSpace(p.ID); got != "" && got != id {
		return nil, "", &ValidationError{ID: id,
			Reason: fmt.Sprintf("document identifier %q does not match requested %q", got, id)}
	}
	return &p, p.XMLName.Space, nil
}

// writeFile stores data at path via a temporary file and rename, creating
// the parent directory as needed. A partial download never lands under the
// final name.
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing document: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// writeMetadata writes the document record to a YAML sidecar.
func writeMetadata(doc *types.Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
