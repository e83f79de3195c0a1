// Package github fetches repository artifact graphs from the GitHub GraphQL
// API. It is the collector's upstream boundary: one call per (owner, name)
// target, returning a typed response or nil when the repository cannot be
// resolved.
package github

import "time"

// Connection mirrors the GraphQL connection shape {nodes: (T|null)[] | null}.
// Both the slice and its elements may be nil; extractors are expected to
// treat nil as empty and filter nil nodes.
type Connection[T any] struct {
	Nodes []*T `json:"nodes"`
}

// RepoArtifactsResponse is the top-level response for the repo_artifacts
// query shape. Repository is nil when the target does not exist or is not
// accessible with the provided token.
type RepoArtifactsResponse struct {
	Repository *Repository `json:"repository"`
}

// Repository is the fetched repository graph. Optional string fields are
// pointers and stay null through normalization; SQL models coalesce where a
// default is needed.
type Repository struct {
	ID                    string                           `json:"id"`
	Name                  string                           `json:"name"`
	NameWithOwner         string                           `json:"name_with_owner"`
	Description           *string                          `json:"description"`
	URL                   string                           `json:"url"`
	StargazerCount        int                              `json:"stargazer_count"`
	LicenseSpdxID         *string                          `json:"license_spdx_id"`
	DefaultBranch         *string                          `json:"default_branch"`
	Releases              Connection[Release]              `json:"releases"`
	Workflows             Connection[WorkflowFile]         `json:"workflows"`
	BranchProtectionRules Connection[BranchProtectionRule] `json:"branch_protection_rules"`
	SecurityInsights      *SecurityInsightsFile            `json:"security_insights"`
}

// Release is one published release with its downloadable assets.
type Release struct {
	ID        string                   `json:"id"`
	TagName   string                   `json:"tag_name"`
	Name      *string                  `json:"name"`
	CreatedAt time.Time                `json:"created_at"`
	URL       string                   `json:"url"`
	Assets    Connection[ReleaseAsset] `json:"release_assets"`
}

// ReleaseAsset is one downloadable file attached to a release. Asset
// filenames are the primary input to SBOM/signature/attestation detection.
type ReleaseAsset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DownloadURL string `json:"download_url"`
	Size        int    `json:"size"`
	ContentType string `json:"content_type"`
}

// WorkflowFile is one CI configuration file under .github/workflows,
// content included for keyword-based tool detection.
type WorkflowFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// BranchProtectionRule carries the boolean protection flags of one rule.
type BranchProtectionRule struct {
	ID                           string `json:"id"`
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

// SecurityInsightsFile is the raw text of SECURITY-INSIGHTS.yml at HEAD,
// when the repository declares one.
type SecurityInsightsFile struct {
	SourceURL string `json:"source_url"`
	Text      string `json:"text"`
}
