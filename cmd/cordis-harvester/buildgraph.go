// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cordis-harvester/internal/graph"
	"github.com/pdiddy/cordis-harvester/pkg/types"
)

var buildGraphCmd = &cobra.Command{
	Use:   "build-graph",
	Short: "Build a RAXKG graph database from collected XML documents",
	Long: `Build-graph hands collected XML documents to the RAXKG build process,
which produces a versioned graph database under the RAXKG data directory.
Documents are taken from the collection output directory unless --xml lists
explicit files.`,
	RunE: runBuildGraph,
}

func init() {
	addGraphFlags(buildGraphCmd)
	buildGraphCmd.Flags().StringSlice("xml", nil, "explicit XML files to build from (default: all files under <output>/xml)")
	buildGraphCmd.Flags().String("output", "", "collection output directory to read XML from (default collected)")

	rootCmd.AddCommand(buildGraphCmd)
}

// addGraphFlags registers the graph build flag set, shared with full-pipeline.
func addGraphFlags(cmd *cobra.Command) {
	cmd.Flags().String("raxkg-root", "", "RAXKG repository root (required)")
	cmd.Flags().String("schema", "", "RAXKG schema file (default <root>/data/schema/latest_schema.json)")
	cmd.Flags().String("graph-root", "", "graph database output root (default <root>/data/graph_db)")
	cmd.Flags().String("graph-version", "", "graph version label (default v<timestamp>-cordis-auto)")
	cmd.Flags().Duration("build-timeout", 0, "graph build subprocess timeout (default 5m)")
}

// graphConfig assembles the RAXKG build config from flags and the config file.
func graphConfig(cmd *cobra.Command) (types.GraphConfig, error) {
	root := stringOpt(cmd, "raxkg-root", "graph.raxkg_root", "")
	if root == "" {
		return types.GraphConfig{}, fmt.Errorf("RAXKG root not set: pass --raxkg-root or set graph.raxkg_root in the config file")
	}
	return types.GraphConfig{
		RaxkgRoot:    root,
		SchemaPath:   stringOpt(cmd, "schema", "graph.schema_path", ""),
		GraphDBRoot:  stringOpt(cmd, "graph-root", "graph.graph_db_root", ""),
		BuildTimeout: durationOpt(cmd, "build-timeout", "graph.build_timeout", 0),
	}, nil
}

// graphVersion resolves the version label, generating a timestamped one when
// not set explicitly.
func graphVersion(cmd *cobra.Command) string {
	if v := stringOpt(cmd, "graph-version", "graph.version", ""); v != "" {
		return v
	}
	return graph.DefaultVersion(time.Now())
}

// collectedXMLFiles lists all XML documents under dir/xml, sorted by name.
func collectedXMLFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "xml", "*.xml"))
	if err != nil {
		return nil, fmt.Errorf("listing XML documents: %w", err)
	}
	return matches, nil
}

func runBuildGraph(cmd *cobra.Command, args []string) error {
	cfg, err := graphConfig(cmd)
	if err != nil {
		return err
	}

	xmlFiles, _ := cmd.Flags().GetStringSlice("xml")
	if len(xmlFiles) == 0 {
		outputDir := stringOpt(cmd, "output", "collect.output_dir", defaultOutputDir)
		xmlFiles, err = collectedXMLFiles(outputDir)
		if err != nil {
			return err
		}
	}
	if len(xmlFiles) == 0 {
		return fmt.Errorf("no XML documents to build from; run collect first or pass --xml")
	}

	builder := graph.NewBuilder(cfg)
	versionPath, err := builder.Build(cmd.Context(), xmlFiles, graphVersion(cmd), os.Stdout)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Graph database written to %s\n", versionPath)
	return nil
}
