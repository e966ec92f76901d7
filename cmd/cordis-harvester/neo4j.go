// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cordis-harvester/internal/graph"
	"github.com/pdiddy/cordis-harvester/internal/secrets"
	"github.com/pdiddy/cordis-harvester/pkg/types"
)

var neo4jImportCmd = &cobra.Command{
	Use:   "neo4j-import [graph version directory]",
	Short: "Load a built graph database version into Neo4j",
	Long: `Neo4j-import reads the nodes and relationships of a built graph
version and loads them into a Neo4j instance with batched MERGE writes.
The password is read from .secrets/neo4j-password unless --password is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runNeo4jImport,
}

func init() {
	addNeo4jFlags(neo4jImportCmd)
	neo4jImportCmd.Flags().Bool("dry-run", false, "report counts without writing to Neo4j")

	rootCmd.AddCommand(neo4jImportCmd)
}

// addNeo4jFlags registers the Neo4j connection flag set, shared with
// full-pipeline.
func addNeo4jFlags(cmd *cobra.Command) {
	cmd.Flags().String("uri", "", "Neo4j bolt URI (default bolt://localhost:7687)")
	cmd.Flags().String("user", "", "Neo4j username (default neo4j)")
	cmd.Flags().String("password", "", "Neo4j password (default: .secrets/neo4j-password)")
	cmd.Flags().Int("batch-size", 0, "nodes or relationships per write transaction (default 500)")
}

// neo4jConfig assembles the Neo4j config from flags, the config file, and
// loaded secrets.
func neo4jConfig(cmd *cobra.Command) types.Neo4jConfig {
	password, _ := cmd.Flags().GetString("password")
	return types.Neo4jConfig{
		URI:       stringOpt(cmd, "uri", "neo4j.uri", ""),
		User:      stringOpt(cmd, "user", "neo4j.user", ""),
		Password:  secrets.Get(loadedSecrets, "neo4j-password", password),
		BatchSize: intOpt(cmd, "batch-size", "neo4j.batch_size", 0),
	}
}

// importGraph loads the graph version at versionPath into Neo4j, honoring
// --dry-run.
func importGraph(cmd *cobra.Command, versionPath string) error {
	importer := graph.NewImporter(neo4jConfig(cmd))

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		return importer.DryRun(versionPath, os.Stdout)
	}
	return importer.Import(cmd.Context(), versionPath, os.Stdout)
}

func runNeo4jImport(cmd *cobra.Command, args []string) error {
	versionPath := args[0]
	if _, err := os.Stat(versionPath); err != nil {
		return fmt.Errorf("graph version directory: %w", err)
	}
	return importGraph(cmd, versionPath)
}
