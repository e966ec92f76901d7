// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cordis-harvester/internal/catalog"
	"github.com/pdiddy/cordis-harvester/internal/collect"
	"github.com/pdiddy/cordis-harvester/internal/fetch"
	"github.com/pdiddy/cordis-harvester/internal/match"
	"github.com/pdiddy/cordis-harvester/internal/secrets"
	"github.com/pdiddy/cordis-harvester/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultDelay     = 1 * time.Second
	defaultWait      = 15 * time.Second
	defaultUserAgent = "cordis-harvester/0.1"
	defaultOutputDir = "collected"
)

var collectCmd = &cobra.Command{
	Use:   "collect [project names...]",
	Short: "Search, match, and download CORDIS project records",
	Long: `Collect searches the CORDIS catalog for each project name, fuzzy-matches
the results against the requested name, and downloads the matching project
record as XML. Every name produces exactly one outcome in the batch report;
failures for one name never stop the rest of the batch.`,
	RunE: runCollect,
}

func init() {
	addCollectFlags(collectCmd)
	rootCmd.AddCommand(collectCmd)
}

// addCollectFlags registers the collection flag set, shared with full-pipeline.
func addCollectFlags(cmd *cobra.Command) {
	cmd.Flags().String("output", "", "output directory for XML, metadata, reports, and the ledger (default collected)")
	cmd.Flags().String("base-url", "", "catalog base URL (default https://cordis.europa.eu)")
	cmd.Flags().Duration("delay", 0, "minimum delay between catalog searches (default 1s)")
	cmd.Flags().Duration("search-wait", 0, "how long to wait for search results to render (default 15s)")
	cmd.Flags().Duration("timeout", 0, "overall batch timeout, 0 disables (default 0)")
	cmd.Flags().Int("threshold", 0, "minimum match confidence 0-100 (default 75)")
	cmd.Flags().Int("max-results", 0, "maximum candidates per search (default 10)")
	cmd.Flags().Int("retries", 0, "retry attempts for transient fetch failures (default 3)")
	cmd.Flags().Int("concurrency", 0, "parallel document fetches (default 1)")
	cmd.Flags().Bool("search-fatal", false, "abort the batch when a search times out")
	cmd.Flags().Bool("headed", false, "run the browser with a visible window")
}

// collectConfig assembles the per-stage configs from flags, the config file,
// and built-in defaults.
func collectConfig(cmd *cobra.Command) types.PipelineConfig {
	userAgent := defaultUserAgent
	if email := secrets.Get(loadedSecrets, "contact-email", ""); email != "" {
		userAgent = fmt.Sprintf("%s (mailto:%s)", defaultUserAgent, email)
	}

	baseURL := stringOpt(cmd, "base-url", "catalog.base_url", catalog.DefaultBaseURL)
	outputDir := stringOpt(cmd, "output", "collect.output_dir", defaultOutputDir)

	return types.PipelineConfig{
		Catalog: types.CatalogConfig{
			BaseURL:      baseURL,
			UserAgent:    userAgent,
			RequestDelay: durationOpt(cmd, "delay", "catalog.request_delay", defaultDelay),
			SearchWait:   durationOpt(cmd, "search-wait", "catalog.search_wait", defaultWait),
			MaxResults:   intOpt(cmd, "max-results", "catalog.max_results", catalog.DefaultMaxResults),
			Headless:     !boolOpt(cmd, "headed", "catalog.headed", false),
		},
		Match: types.MatchConfig{
			Threshold: intOpt(cmd, "threshold", "match.threshold", match.DefaultThreshold),
		},
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   defaultTimeout,
				UserAgent: userAgent,
			},
			BaseURL:           baseURL,
			ExpectedNamespace: fetch.DefaultNamespace,
			MaxRetries:        intOpt(cmd, "retries", "fetch.max_retries", 3),
			OutputDir:         outputDir,
		},
		Collect: types.CollectConfig{
			FetchConcurrency: intOpt(cmd, "concurrency", "collect.fetch_concurrency", 1),
			BatchTimeout:     durationOpt(cmd, "timeout", "collect.batch_timeout", 0),
			SearchFatal:      boolOpt(cmd, "search-fatal", "collect.search_fatal", false),
			OutputDir:        outputDir,
		},
	}
}

// collectBatch runs a collection batch and persists the report and ledger
// entry. The report is returned even when the batch ends in an error so
// callers can inspect partial results.
func collectBatch(cmd *cobra.Command, queries []string) (*types.BatchReport, error) {
	cfg := collectConfig(cmd)

	session, err := catalog.NewBrowserSession(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	client := catalog.NewClient(session, cfg.Catalog, os.Stdout)
	fetcher := fetch.NewFetcher(&http.Client{Timeout: cfg.Fetch.Timeout}, cfg.Fetch)
	collector := collect.NewCollector(client, fetcher, cfg.Match, cfg.Collect, os.Stdout)

	report, runErr := collector.CollectBatch(cmd.Context(), queries)

	path, err := collect.WriteReport(report, cfg.Collect.OutputDir)
	if err != nil {
		return report, err
	}
	fmt.Fprintf(os.Stdout, "Report written to %s\n", path)

	ledger, err := collect.OpenLedger(cfg.Collect.OutputDir)
	if err != nil {
		return report, err
	}
	defer ledger.Close()
	if err := ledger.RecordBatch(cmd.Context(), report); err != nil {
		return report, err
	}

	return report, runErr
}

func runCollect(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more project names to collect")
	}

	report, err := collectBatch(cmd, args)
	if report != nil {
		collect.FormatTable(report, os.Stdout)
	}
	if err != nil {
		return err
	}
	if report.HasFailures() {
		return fmt.Errorf("%d of %d project(s) failed collection",
			len(report.Outcomes)-report.Summary.Success, len(report.Outcomes))
	}
	return nil
}
