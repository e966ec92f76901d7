//go:build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// Collect runs a collection batch through the built CLI. Project names come
// from the COLLECT_NAMES environment variable, one name per line.
func Collect() error {
	mg.Deps(Build)

	names := splitLines([]byte(os.Getenv("COLLECT_NAMES")))
	var args []string
	for _, n := range names {
		if n != "" {
			args = append(args, n)
		}
	}
	if len(args) == 0 {
		return fmt.Errorf("set COLLECT_NAMES to one project name per line")
	}

	cmd := exec.Command(filepath.Join(binDir, binName), append([]string{"collect"}, args...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// BuildGraph builds a RAXKG graph database from the collected documents.
// The RAXKG root comes from the RAXKG_ROOT environment variable.
func BuildGraph() error {
	mg.Deps(Build)

	root := os.Getenv("RAXKG_ROOT")
	if root == "" {
		return fmt.Errorf("set RAXKG_ROOT to the RAXKG repository root")
	}

	cmd := exec.Command(filepath.Join(binDir, binName), "build-graph", "--raxkg-root", root)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
