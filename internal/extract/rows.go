package extract

import "time"

// Logical table names for the normalized entity tier. Raw ingestion tables
// carry a raw_ prefix and derived aggregates an agg_ prefix, so a JOIN
// across tiers is unambiguous and provenance is readable from the name.
const (
	TableRepositories          = "repositories"
	TableReleases              = "releases"
	TableReleaseAssets         = "release_assets"
	TableWorkflows             = "workflows"
	TableBranchProtectionRules = "branch_protection_rules"
	TableSecurityInsights      = "security_insights"
)

// Tables maps a logical table name to its extracted rows. Every table an
// extractor declares is always present, possibly empty, so callers never
// special-case absent keys.
type Tables map[string][]any

// RepositoryRow is one normalized repository.
type RepositoryRow struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	NameWithOwner  string  `json:"name_with_owner"`
	Description    *string `json:"description"`
	URL            string  `json:"url"`
	StargazerCount int     `json:"stargazer_count"`
	LicenseSpdxID  *string `json:"license_spdx_id"`
	DefaultBranch  *string `json:"default_branch"`
}

// ReleaseRow is one release, keyed to its repository.
type ReleaseRow struct {
	ID           string    `json:"id"`
	RepositoryID string    `json:"repository_id"`
	TagName      string    `json:"tag_name"`
	Name         *string   `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	URL          string    `json:"url"`
}

// ReleaseAssetRow is one release asset. The foreign key is the immediate
// parent release, not the repository.
type ReleaseAssetRow struct {
	ID          string `json:"id"`
	ReleaseID   string `json:"release_id"`
	Name        string `json:"name"`
	DownloadURL string `json:"download_url"`
	Size        int    `json:"size"`
	ContentType string `json:"content_type"`
}

// WorkflowRow is one CI workflow file with its raw content.
type WorkflowRow struct {
	RepositoryID string `json:"repository_id"`
	Path         string `json:"path"`
	Content      string `json:"content"`
}

// BranchProtectionRuleRow is one branch protection rule.
type BranchProtectionRuleRow struct {
	ID                           string `json:"id"`
	RepositoryID                 string `json:"repository_id"`
	Pattern                      string `json:"pattern"`
	RequiresApprovingReviews     bool   `json:"requires_approving_reviews"`
	RequiredApprovingReviewCount int    `json:"required_approving_review_count"`
	DismissesStaleReviews        bool   `json:"dismisses_stale_reviews"`
	RequiresCodeOwnerReviews     bool   `json:"requires_code_owner_reviews"`
	RequiresStatusChecks         bool   `json:"requires_status_checks"`
	RequiresCommitSignatures     bool   `json:"requires_commit_signatures"`
	RequiresLinearHistory        bool   `json:"requires_linear_history"`
	IsAdminEnforced              bool   `json:"is_admin_enforced"`
	AllowsForcePushes            bool   `json:"allows_force_pushes"`
	AllowsDeletions              bool   `json:"allows_deletions"`
}

// SecurityInsightsRow is one parsed SECURITY-INSIGHTS.yml, keyed by
// (repository_id, source_url). Document is the YAML re-encoded as JSON; nil
// when the file did not parse.
type SecurityInsightsRow struct {
	RepositoryID string  `json:"repository_id"`
	SourceURL    string  `json:"source_url"`
	Document     *string `json:"document"`
	RawText      string  `json:"raw_text"`
}
