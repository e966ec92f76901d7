// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "cordis-harvester/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CatalogConfig holds settings for the catalog search stage.
type CatalogConfig struct {
	// BaseURL is the catalog root (default "https://cordis.europa.eu").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// UserAgent is sent as the browser session's user agent.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// RequestDelay is the minimum delay between successive catalog
	// searches (default 1s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// SearchWait bounds how long a search waits for the rendered page to
	// expose results before timing out (default 15s).
	SearchWait time.Duration `json:"search_wait" yaml:"search_wait"`

	// MaxResults caps the number of candidates returned per search
	// (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// Headless controls whether the browser session runs headless.
	Headless bool `json:"headless" yaml:"headless"`
}

// MatchConfig holds settings for the fuzzy matcher.
type MatchConfig struct {
	// Threshold is the minimum confidence score (0-100) for a candidate
	// to be accepted (default 75).
	Threshold int `json:"threshold" yaml:"threshold"`
}

// FetchConfig holds settings for the document fetcher.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the catalog root used for the document URL template.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// ExpectedNamespace is the XML namespace a valid document must
	// declare (default "https://cordis.europa.eu/xml/project").
	ExpectedNamespace string `json:"expected_namespace" yaml:"expected_namespace"`

	// MaxRetries bounds retry attempts on transient transport failures
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// OutputDir is the base directory for stored documents (contains
	// xml/ and metadata/).
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// CollectConfig holds settings for the batch orchestrator.
type CollectConfig struct {
	// FetchConcurrency bounds how many document fetches run in parallel
	// across accepted matches (default 1, sequential).
	FetchConcurrency int `json:"fetch_concurrency" yaml:"fetch_concurrency"`

	// BatchTimeout aborts the whole batch when exceeded; zero disables it.
	BatchTimeout time.Duration `json:"batch_timeout" yaml:"batch_timeout"`

	// SearchFatal makes a per-query search timeout abort the batch
	// instead of recording a search_failed outcome.
	SearchFatal bool `json:"search_fatal" yaml:"search_fatal"`

	// OutputDir is where the batch report JSON and ledger database live.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// GraphConfig holds settings for the RAXKG graph-building handoff.
type GraphConfig struct {
	// RaxkgRoot is the RAXKG repository root.
	RaxkgRoot string `json:"raxkg_root" yaml:"raxkg_root"`

	// SchemaPath is the RAXKG schema file (default
	// <root>/data/schema/latest_schema.json).
	SchemaPath string `json:"schema_path" yaml:"schema_path"`

	// GraphDBRoot is the graph database output root (default
	// <root>/data/graph_db).
	GraphDBRoot string `json:"graph_db_root" yaml:"graph_db_root"`

	// BuildTimeout bounds the graph build subprocess (default 5m).
	BuildTimeout time.Duration `json:"build_timeout" yaml:"build_timeout"`
}

// Neo4jConfig holds settings for the Neo4j import stage.
type Neo4jConfig struct {
	// URI is the bolt connection URI (default "bolt://localhost:7687").
	URI string `json:"uri" yaml:"uri"`

	// User is the Neo4j username (default "neo4j").
	User string `json:"user" yaml:"user"`

	// Password authenticates the import; loaded from .secrets/neo4j-password
	// when not set explicitly.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// BatchSize is the number of nodes or relationships per write
	// transaction (default 500).
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`
	Match   MatchConfig   `json:"match" yaml:"match"`
	Fetch   FetchConfig   `json:"fetch" yaml:"fetch"`
	Collect CollectConfig `json:"collect" yaml:"collect"`
	Graph   GraphConfig   `json:"graph" yaml:"graph"`
	Neo4j   Neo4jConfig   `json:"neo4j" yaml:"neo4j"`
}
