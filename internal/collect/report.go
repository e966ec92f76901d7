// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/cordis-harvester/pkg/types"
)

// WriteReport persists the batch report as indented JSON under dir,
// named after the batch ID. Returns the written path.
func WriteReport(report *types.BatchReport, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("batch-%s.json", report.BatchID))
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// FormatTable writes the report as a human-readable table to w.
func FormatTable(report *types.BatchReport, w io.Writer) {
	fmt.Fprintf(w, "%-30s  %-18s  %-10s  %-6s  %s\n",
		"Query", "Status", "Project", "Score", "Detail")
	fmt.Fprintln(w, strings.Repeat("-", 90))

	for _, o := range report.Outcomes {
		query := truncate(o.Query, 30)
		detail := truncate(o.Detail, 40)
		score := ""
		if o.Score > 0 {
			score = fmt.Sprintf("%d", o.Score)
		}
		fmt.Fprintf(w, "%-30s  %-18s  %-10s  %-6s  %s\n",
			query, o.Status, o.ProjectID, score, detail)
	}

	s := report.Summary
	fmt.Fprintf(w, "\n%d of %d succeeded\n", s.Success, s.Total())
}

// truncate shortens s to at most max runes, never splitting a multibyte
// character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
