// Package extract normalizes nested GitHub API responses into flat,
// foreign-keyed entity rows. One hand-written extractor exists per query
// shape; there is deliberately no generic walker, because foreign-key
// discovery in arbitrary nested JSON needs a schema and polymorphic nodes
// cannot be auto-flattened safely.
package extract

// Column is one column of a fallback schema, typed in DuckDB terms.
type Column struct {
	Name string
	Type string
}

// Schema is the statically declared column list used to create a table when
// an extractor emits zero rows for it. Real data drives schema inference in
// the non-empty case; the fallback keeps downstream SQL models from failing
// with "table not found".
type Schema []Column

var repositoriesSchema = Schema{
	{"id", "VARCHAR"},
	{"name", "VARCHAR"},
	{"name_with_owner", "VARCHAR"},
	{"description", "VARCHAR"},
	{"url", "VARCHAR"},
	{"stargazer_count", "INTEGER"},
	{"license_spdx_id", "VARCHAR"},
	{"default_branch", "VARCHAR"},
}

var releasesSchema = Schema{
	{"id", "VARCHAR"},
	{"repository_id", "VARCHAR"},
	{"tag_name", "VARCHAR"},
	{"name", "VARCHAR"},
	{"created_at", "TIMESTAMP"},
	{"url", "VARCHAR"},
}

var releaseAssetsSchema = Schema{
	{"id", "VARCHAR"},
	{"release_id", "VARCHAR"},
	{"name", "VARCHAR"},
	{"download_url", "VARCHAR"},
	{"size", "BIGINT"},
	{"content_type", "VARCHAR"},
}

var workflowsSchema = Schema{
	{"repository_id", "VARCHAR"},
	{"path", "VARCHAR"},
	{"content", "VARCHAR"},
}

var branchProtectionRulesSchema = Schema{
	{"id", "VARCHAR"},
	{"repository_id", "VARCHAR"},
	{"pattern", "VARCHAR"},
	{"requires_approving_reviews", "BOOLEAN"},
	{"required_approving_review_count", "INTEGER"},
	{"dismisses_stale_reviews", "BOOLEAN"},
	{"requires_code_owner_reviews", "BOOLEAN"},
	{"requires_status_checks", "BOOLEAN"},
	{"requires_commit_signatures", "BOOLEAN"},
	{"requires_linear_history", "BOOLEAN"},
	{"is_admin_enforced", "BOOLEAN"},
	{"allows_force_pushes", "BOOLEAN"},
	{"allows_deletions", "BOOLEAN"},
}

var securityInsightsSchema = Schema{
	{"repository_id", "VARCHAR"},
	{"source_url", "VARCHAR"},
	{"document", "JSON"},
	{"raw_text", "VARCHAR"},
}
