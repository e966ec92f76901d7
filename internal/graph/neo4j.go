// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/pdiddy/cordis-harvester/pkg/types"
)

const (
	nodesFile         = "nodes.json"
	relationshipsFile = "relationships.json"
)

// Node is one graph node staged by the RAXKG build.
type Node struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// Relationship is one staged edge between two node IDs.
type Relationship struct {
	Start      string         `json:"start"`
	End        string         `json:"end"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// GraphData is the staged content of one graph version directory.
type GraphData struct {
	Nodes         []Node
	Relationships []Relationship
}

// LoadGraphData reads the staged nodes and relationships from a graph
// version directory produced by the RAXKG build.
func LoadGraphData(versionPath string) (*GraphData, error) {
	var data GraphData
	if err := readJSON(filepath.Join(versionPath, nodesFile), &data.Nodes); err != nil {
		return nil, fmt.Errorf("loading nodes: %w", err)
	}
	if err := readJSON(filepath.Join(versionPath, relationshipsFile), &data.Relationships); err != nil {
		return nil, fmt.Errorf("loading relationships: %w", err)
	}
	return &data, nil
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Importer loads a staged graph version into Neo4j.
type Importer struct {
	cfg types.Neo4jConfig
}

// NewImporter applies config defaults.
func NewImporter(cfg types.Neo4jConfig) *Importer {
	if cfg.URI == "" {
		cfg.URI = "bolt://localhost:7687"
	}
	if cfg.User == "" {
		cfg.User = "neo4j"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &Importer{cfg: cfg}
}

// DryRun validates the staged graph and reports what an import would do,
// without connecting to the database.
func (im *Importer) DryRun(versionPath string, w io.Writer) error {
	data, err := LoadGraphData(versionPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "dry run: would import %d node(s) and %d relationship(s) to %s\n",
		len(data.Nodes), len(data.Relationships), im.cfg.URI)
	return nil
}

// Import loads the staged graph into Neo4j: verifies connectivity,
// ensures the node-id uniqueness constraint, then merges nodes and
// relationships in batches.
func (im *Importer) Import(ctx context.Context, versionPath string, w io.Writer) error {
	data, err := LoadGraphData(versionPath)
	if err != nil {
		return err
	}

	driver, err := neo4j.NewDriverWithContext(im.cfg.URI,
		neo4j.BasicAuth(im.cfg.User, im.cfg.Password, ""))
	if err != nil {
		return fmt.Errorf("creating Neo4j driver: %w", err)
	}
	defer driver.Close(ctx)

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("connecting to Neo4j at %s: %w", im.cfg.URI, err)
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			`CREATE CONSTRAINT entity_id IF NOT EXISTS
			 FOR (n:Entity) REQUIRE n.id IS UNIQUE`, nil)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("creating constraint: %w", err)
	}

	for start := 0; start < len(data.Nodes); start += im.cfg.BatchSize {
		batch := data.Nodes[start:min(start+im.cfg.BatchSize, len(data.Nodes))]
		if err := im.writeNodes(ctx, session, batch); err != nil {
			return fmt.Errorf("importing nodes %d..%d: %w", start, start+len(batch), err)
		}
	}
	fmt.Fprintf(w, "imported %d node(s)\n", len(data.Nodes))

	for start := 0; start < len(data.Relationships); start += im.cfg.BatchSize {
		batch := data.Relationships[start:min(start+im.cfg.BatchSize, len(data.Relationships))]
		if err := im.writeRelationships(ctx, session, batch); err != nil {
			return fmt.Errorf("importing relationships %d..%d: %w", start, start+len(batch), err)
		}
	}
	fmt.Fprintf(w, "imported %d relationship(s)\n", len(data.Relationships))

	return nil
}

func (im *Importer) writeNodes(ctx context.Context, session neo4j.SessionWithContext, nodes []Node) error {
	rows := make([]map[string]any, len(nodes))
	for i, n := range nodes {
		labels := n.Labels
		if len(labels) == 0 {
			labels = []string{"Entity"}
		}
		rows[i] = map[string]any{
			"id":     n.ID,
			"labels": labels,
			"props":  n.Properties,
		}
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			`UNWIND $rows AS row
			 MERGE (n:Entity {id: row.id})
			 SET n += row.props, n.labels = row.labels`,
			map[string]any{"rows": rows})
		return nil, err
	})
	return err
}

func (im *Importer) writeRelationships(ctx context.Context, session neo4j.SessionWithContext, rels []Relationship) error {
	rows := make([]map[string]any, len(rels))
	for i, r := range rels {
		rows[i] = map[string]any{
			"start": r.Start,
			"end":   r.End,
			"type":  r.Type,
			"props": r.Properties,
		}
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			`UNWIND $rows AS row
			 MATCH (a:Entity {id: row.start}), (b:Entity {id: row.end})
			 MERGE (a)-[r:RELATES {type: row.type}]->(b)
			 SET r += row.props`,
			map[string]any{"rows": rows})
		return nil, err
	})
	return err
}
