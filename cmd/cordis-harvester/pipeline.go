// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cordis-harvester/internal/collect"
	"github.com/pdiddy/cordis-harvester/internal/graph"
)

var pipelineCmd = &cobra.Command{
	Use:   "full-pipeline [project names...]",
	Short: "Collect projects and build the graph database in one run",
	Long: `Full-pipeline runs collection and the RAXKG graph build end to end:
search, match, and download each named project, then build a versioned graph
database from the successfully collected documents. The batch report is
archived alongside the graph version.

With --neo4j-import the built graph is also loaded into Neo4j.`,
	RunE: runPipeline,
}

func init() {
	addCollectFlags(pipelineCmd)
	addGraphFlags(pipelineCmd)
	pipelineCmd.Flags().Bool("neo4j-import", false, "import the built graph into Neo4j")
	pipelineCmd.Flags().Bool("dry-run", false, "with --neo4j-import, report counts without writing to Neo4j")
	addNeo4jFlags(pipelineCmd)

	rootCmd.AddCommand(pipelineCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more project names to collect")
	}

	graphCfg, err := graphConfig(cmd)
	if err != nil {
		return err
	}

	report, err := collectBatch(cmd, args)
	if report != nil {
		collect.FormatTable(report, os.Stdout)
	}
	if err != nil {
		return err
	}

	docs := report.DocumentPaths()
	if len(docs) == 0 {
		return fmt.Errorf("no documents collected; skipping graph build")
	}

	builder := graph.NewBuilder(graphCfg)
	versionPath, err := builder.Build(cmd.Context(), docs, graphVersion(cmd), os.Stdout)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Graph database written to %s\n", versionPath)

	outputDir := stringOpt(cmd, "output", "collect.output_dir", defaultOutputDir)
	reportPath := filepath.Join(outputDir, fmt.Sprintf("batch-%s.json", report.BatchID))
	if err := graph.ArchiveReport(reportPath, versionPath); err != nil {
		return err
	}

	if doImport, _ := cmd.Flags().GetBool("neo4j-import"); doImport {
		if err := importGraph(cmd, versionPath); err != nil {
			return err
		}
	}

	if report.HasFailures() {
		return fmt.Errorf("%d of %d project(s) failed collection",
			len(report.Outcomes)-report.Summary.Success, len(report.Outcomes))
	}
	return nil
}
