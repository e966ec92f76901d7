// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/cordis-harvester/pkg/types"
)

func writeGraphVersion(t *testing.T, nodes, relationships string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "nodes.json"), []byte(nodes), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "relationships.json"), []byte(relationships), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadGraphData(t *testing.T) {
	dir := writeGraphVersion(t,
		`[{"id": "p-101", "labels": ["Project"], "properties": {"acronym": "COMMUTE"}},
		  {"id": "o-1", "labels": ["Organization"], "properties": {"name": "TU Delft"}}]`,
		`[{"start": "o-1", "end": "p-101", "type": "PARTICIPATES_IN", "properties": {}}]`)

	data, err := LoadGraphData(dir)
	if err != nil {
		t.Fatalf("LoadGraphData: %v", err)
	}
	if len(data.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(data.Nodes))
	}
	if data.Nodes[0].ID != "p-101" || data.Nodes[0].Properties["acronym"] != "COMMUTE" {
		t.Errorf("unexpected first node: %+v", data.Nodes[0])
	}
	if len(data.Relationships) != 1 || data.Relationships[0].Type != "PARTICIPATES_IN" {
		t.Errorf("unexpected relationships: %+v", data.Relationships)
	}
}

func TestLoadGraphDataMissingFiles(t *testing.T) {
	if _, err := LoadGraphData(t.TempDir()); err == nil {
		t.Fatal("expected error for missing staging files")
	}
}

func TestLoadGraphDataMalformed(t *testing.T) {
	dir := writeGraphVersion(t, `not json`, `[]`)
	if _, err := LoadGraphData(dir); err == nil || !strings.Contains(err.Error(), "nodes.json") {
		t.Fatalf("expected parse error naming nodes.json, got %v", err)
	}
}

func TestDryRun(t *testing.T) {
	dir := writeGraphVersion(t,
		`[{"id": "a"}, {"id": "b"}, {"id": "c"}]`,
		`[{"start": "a", "end": "b", "type": "RELATES"}]`)

	var buf bytes.Buffer
	im := NewImporter(types.Neo4jConfig{})
	if err := im.DryRun(dir, &buf); err != nil {
		t.Fatalf("DryRun: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "3 node(s)") || !strings.Contains(out, "1 relationship(s)") {
		t.Errorf("unexpected dry run output: %s", out)
	}
	if !strings.Contains(out, "bolt://localhost:7687") {
		t.Errorf("expected default URI in output: %s", out)
	}
}

func TestImporterDefaults(t *testing.T) {
	im := NewImporter(types.Neo4jConfig{})
	if im.cfg.URI != "bolt://localhost:7687" || im.cfg.User != "neo4j" || im.cfg.BatchSize != 500 {
		t.Errorf("unexpected defaults: %+v", im.cfg)
	}

	im = NewImporter(types.Neo4jConfig{URI: "bolt://db:7687", BatchSize: 50})
	if im.cfg.URI != "bolt://db:7687" || im.cfg.BatchSize != 50 {
		t.Errorf("explicit config overridden: %+v", im.cfg)
	}
}
