// Package config loads collector configuration from defaults, scsc.yaml,
// SCSC_-prefixed environment variables, and CLI flags, in that precedence
// order (flags highest).
package config

// Default configuration values.
const (
	DefaultDBPath           = "out/scsc.duckdb"
	DefaultExportDir        = "out/parquet"
	DefaultAuditLog         = "out/fetch-audit.ndjson"
	DefaultReleaseLimit     = 10
	DefaultAssetLimit       = 50
	DefaultFetchConcurrency = 4
	DefaultOutput           = "table"
)

// Config is the resolved collector configuration.
type Config struct {
	// DBPath is the DuckDB database file for the run.
	DBPath string `koanf:"db_path"`
	// ExportDir receives one Parquet file per table; empty disables export.
	ExportDir string `koanf:"export_dir"`
	// TargetsFile is the YAML list of repositories or projects to collect.
	TargetsFile string `koanf:"targets_file"`
	// AuditLog is the NDJSON fetch audit file; empty disables it.
	AuditLog string `koanf:"audit_log"`

	// GithubToken authenticates GraphQL fetches. Comes from the environment
	// (SCSC_GITHUB_TOKEN or GITHUB_TOKEN), never from the config file.
	GithubToken string `koanf:"github_token"`

	// ReleaseLimit caps releases fetched per repository.
	ReleaseLimit int `koanf:"release_limit"`
	// AssetLimit caps assets fetched per release.
	AssetLimit int `koanf:"asset_limit"`
	// FetchConcurrency bounds parallel GraphQL fetches.
	FetchConcurrency int `koanf:"fetch_concurrency"`

	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`
	// Output selects query/summary rendering: table, json, csv, md.
	Output string `koanf:"output"`
}
