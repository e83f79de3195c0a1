package extract

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/halcyondude/supply-chain-security-collector/internal/github"
)

// RepoArtifacts normalizes a batch of repo_artifacts responses into flat
// entity rows. Pure and deterministic: no I/O, same input yields the same
// rows. Responses with a nil repository contribute nothing; nil connection
// slices are treated as empty and nil nodes are filtered before mapping.
func RepoArtifacts(batch []*github.RepoArtifactsResponse) Tables {
	t := Tables{
		TableRepositories:          []any{},
		TableReleases:              []any{},
		TableReleaseAssets:         []any{},
		TableWorkflows:             []any{},
		TableBranchProtectionRules: []any{},
		TableSecurityInsights:      []any{},
	}

	for _, resp := range batch {
		if resp == nil || resp.Repository == nil {
			continue
		}
		repo := resp.Repository

		t[TableRepositories] = append(t[TableRepositories], RepositoryRow{
			ID:             repo.ID,
			Name:           repo.Name,
			NameWithOwner:  repo.NameWithOwner,
			Description:    repo.Description,
			URL:            repo.URL,
			StargazerCount: repo.StargazerCount,
			LicenseSpdxID:  repo.LicenseSpdxID,
			DefaultBranch:  repo.DefaultBranch,
		})

		for _, rel := range nodes(repo.Releases) {
			t[TableReleases] = append(t[TableReleases], ReleaseRow{
				ID:           rel.ID,
				RepositoryID: repo.ID,
				TagName:      rel.TagName,
				Name:         rel.Name,
				CreatedAt:    rel.CreatedAt,
				URL:          rel.URL,
			})
			for _, asset := range nodes(rel.Assets) {
				t[TableReleaseAssets] = append(t[TableReleaseAssets], ReleaseAssetRow{
					ID:          asset.ID,
					ReleaseID:   rel.ID,
					Name:        asset.Name,
					DownloadURL: asset.DownloadURL,
					Size:        asset.Size,
					ContentType: asset.ContentType,
				})
			}
		}

		for _, wf := range nodes(repo.Workflows) {
			t[TableWorkflows] = append(t[TableWorkflows], WorkflowRow{
				RepositoryID: repo.ID,
				Path:         wf.Path,
				Content:      wf.Content,
			})
		}

		for _, rule := range nodes(repo.BranchProtectionRules) {
			t[TableBranchProtectionRules] = append(t[TableBranchProtectionRules], BranchProtectionRuleRow{
				ID:                           rule.ID,
				RepositoryID:                 repo.ID,
				Pattern:                      rule.Pattern,
				RequiresApprovingReviews:     rule.RequiresApprovingReviews,
				RequiredApprovingReviewCount: rule.RequiredApprovingReviewCount,
				DismissesStaleReviews:        rule.DismissesStaleReviews,
				RequiresCodeOwnerReviews:     rule.RequiresCodeOwnerReviews,
				RequiresStatusChecks:         rule.RequiresStatusChecks,
				RequiresCommitSignatures:     rule.RequiresCommitSignatures,
				RequiresLinearHistory:        rule.RequiresLinearHistory,
				IsAdminEnforced:              rule.IsAdminEnforced,
				AllowsForcePushes:            rule.AllowsForcePushes,
				AllowsDeletions:              rule.AllowsDeletions,
			})
		}

		if si := repo.SecurityInsights; si != nil {
			t[TableSecurityInsights] = append(t[TableSecurityInsights], SecurityInsightsRow{
				RepositoryID: repo.ID,
				SourceURL:    si.SourceURL,
				Document:     yamlToJSON(si.Text),
				RawText:      si.Text,
			})
		}
	}

	return t
}

// nodes returns the non-nil elements of a connection, treating a nil Nodes
// slice as empty.
func nodes[T any](c github.Connection[T]) []*T {
	out := make([]*T, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// yamlToJSON re-encodes a YAML document as JSON for semi-structured storage.
// Returns nil when the document does not parse; the raw text column still
// preserves the original.
func yamlToJSON(text string) *string {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil || doc == nil {
		return nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}
