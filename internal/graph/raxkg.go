// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph hands collected documents to the downstream RAXKG
// pipeline: graph building via subprocess and Neo4j import via the bolt
// driver.
//
// See docs/ARCHITECTURE § Graph Handoff.
package graph

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/pdiddy/cordis-harvester/pkg/types"
)

const buildModule = "raxkg.populate_graph.build_graph_db"

// executor abstracts subprocess execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, dir string, env []string, stdout, stderr io.Writer, name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, dir string, env []string, stdout, stderr io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

var defaultExec executor = &osExecutor{}

// Builder runs the RAXKG graph build over a set of collected XML files.
// The RAXKG pipeline is an external collaborator: the builder owns only
// the handoff, not the build's behavior.
type Builder struct {
	cfg  types.GraphConfig
	exec executor
}

// NewBuilder applies config defaults relative to the RAXKG root.
func NewBuilder(cfg types.GraphConfig) *Builder {
	if cfg.SchemaPath == "" {
		cfg.SchemaPath = filepath.Join(cfg.RaxkgRoot, "data", "schema", "latest_schema.json")
	}
	if cfg.GraphDBRoot == "" {
		cfg.GraphDBRoot = filepath.Join(cfg.RaxkgRoot, "data", "graph_db")
	}
	if cfg.BuildTimeout <= 0 {
		cfg.BuildTimeout = 5 * time.Minute
	}
	return &Builder{cfg: cfg, exec: defaultExec}
}

// DefaultVersion returns an auto-generated graph version name.
func DefaultVersion(now time.Time) string {
	return fmt.Sprintf("v%s-cordis-auto", now.Format("2006-01-02-150405"))
}

// Build runs the RAXKG build module over xmlFiles and returns the path of
// the created graph version directory. The subprocess runs in the RAXKG
// root with its src/ on PYTHONPATH and is bounded by the build timeout.
func (b *Builder) Build(ctx context.Context, xmlFiles []string, version string, w io.Writer) (string, error) {
	if len(xmlFiles) == 0 {
		return "", fmt.Errorf("no XML files to build a graph from")
	}
	if version == "" {
		version = DefaultVersion(time.Now())
	}

	python, err := b.exec.LookPath("python3")
	if err != nil {
		return "", fmt.Errorf("python3 not found on PATH: %w", err)
	}

	args := []string{
		"-m", buildModule,
		"--schema", b.cfg.SchemaPath,
		"--root", b.cfg.GraphDBRoot,
		"--version", version,
		"--source", "cordis",
	}
	for _, f := range xmlFiles {
		args = append(args, "--xml", f)
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.BuildTimeout)
	defer cancel()

	fmt.Fprintf(w, "building graph version %s from %d document(s)\n", version, len(xmlFiles))

	env := append(os.Environ(), "PYTHONPATH="+filepath.Join(b.cfg.RaxkgRoot, "src"))
	if err := b.exec.Run(ctx, b.cfg.RaxkgRoot, env, w, w, python, args...); err != nil {
		return "", fmt.Errorf("RAXKG build failed: %w", err)
	}

	versionPath := filepath.Join(b.cfg.GraphDBRoot, version)
	fmt.Fprintf(w, "graph version built: %s\n", versionPath)
	return versionPath, nil
}

// ArchiveReport copies the batch report file into the graph version
// directory so the graph carries its collection provenance.
func ArchiveReport(reportPath, versionPath string) error {
	data, err := os.ReadFile(reportPath)
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}
	dest := filepath.Join(versionPath, "collection-report.json")
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("archiving report: %w", err)
	}
	return nil
}
