package github

import (
	"strings"
	"time"

	"github.com/shurcooL/githubv4"
)

// ShapeRepoArtifacts names the primary query shape. Extractors are
// registered against shape names, so the constant is the contract between
// fetch and normalization.
const ShapeRepoArtifacts = "repo_artifacts"

const securityInsightsPath = "SECURITY-INSIGHTS.yml"

// Wire types mirror the GraphQL selection set one-to-one. They exist only
// to receive query results; toResponse maps them onto the package's stable
// response types.
type wireAsset struct {
	ID          string
	Name        string
	DownloadURL string `graphql:"downloadUrl"`
	Size        int
	ContentType string
}

type wireRelease struct {
	ID            string
	TagName       string
	Name          *string
	CreatedAt     time.Time
	URL           string `graphql:"url"`
	ReleaseAssets struct {
		Nodes []*wireAsset
	} `graphql:"releaseAssets(first: $assetLimit)"`
}

type wireBlob struct {
	Blob struct {
		Text *string
	} `graphql:"... on Blob"`
}

type wireTreeEntry struct {
	Name   string
	Path   string
	Object *wireBlob
}

type wireTree struct {
	Tree struct {
		Entries []wireTreeEntry
	} `graphql:"... on Tree"`
}

type wireBranchProtectionRule struct {
	ID                           string
	Pattern                      string
	RequiresApprovingReviews     bool
	RequiredApprovingReviewCount int
	DismissesStaleReviews        bool
	RequiresCodeOwnerReviews     bool
	RequiresStatusChecks         bool
	RequiresCommitSignatures     bool
	RequiresLinearHistory        bool
	IsAdminEnforced              bool
	AllowsForcePushes            bool
	AllowsDeletions              bool
}

type wireRepository struct {
	ID             string
	Name           string
	NameWithOwner  string
	Description    *string
	URL            string `graphql:"url"`
	StargazerCount int
	LicenseInfo    *struct {
		SpdxID *string `graphql:"spdxId"`
	}
	DefaultBranchRef *struct {
		Name string
	}
	Releases struct {
		Nodes []*wireRelease
	} `graphql:"releases(first: $releaseLimit, orderBy: {field: CREATED_AT, direction: DESC})"`
	WorkflowTree     *wireTree `graphql:"workflowTree: object(expression: \"HEAD:.github/workflows\")"`
	SecurityInsights *wireBlob `graphql:"securityInsights: object(expression: \"HEAD:SECURITY-INSIGHTS.yml\")"`
	BranchProtectionRules struct {
		Nodes []*wireBranchProtectionRule
	} `graphql:"branchProtectionRules(first: $ruleLimit)"`
}

// repoArtifactsQuery is the typed GraphQL query for one repository's
// artifact graph: releases with assets, workflow files with content, branch
// protection rules, and the optional SECURITY-INSIGHTS.yml blob.
type repoArtifactsQuery struct {
	Repository *wireRepository `graphql:"repository(owner: $owner, name: $name)"`
}

func repoArtifactsVariables(owner, name string, releaseLimit, assetLimit int) map[string]any {
	return map[string]any{
		"owner":        githubv4.String(owner),
		"name":         githubv4.String(name),
		"releaseLimit": githubv4.Int(releaseLimit), //nolint:gosec // bounded by config validation
		"assetLimit":   githubv4.Int(assetLimit),   //nolint:gosec
		"ruleLimit":    githubv4.Int(20),
	}
}

// toResponse maps the wire query result onto the package's response types.
// Connection nil-ness is preserved so extractors see the same optionality
// the API exposes.
func toResponse(q *repoArtifactsQuery) *RepoArtifactsResponse {
	if q.Repository == nil {
		return &RepoArtifactsResponse{}
	}
	src := q.Repository

	repo := &Repository{
		ID:             src.ID,
		Name:           src.Name,
		NameWithOwner:  src.NameWithOwner,
		Description:    src.Description,
		URL:            src.URL,
		StargazerCount: src.StargazerCount,
	}
	if src.LicenseInfo != nil {
		repo.LicenseSpdxID = src.LicenseInfo.SpdxID
	}
	if src.DefaultBranchRef != nil {
		branch := src.DefaultBranchRef.Name
		repo.DefaultBranch = &branch
	}

	for _, rel := range src.Releases.Nodes {
		if rel == nil {
			repo.Releases.Nodes = append(repo.Releases.Nodes, nil)
			continue
		}
		out := &Release{
			ID:        rel.ID,
			TagName:   rel.TagName,
			Name:      rel.Name,
			CreatedAt: rel.CreatedAt,
			URL:       rel.URL,
		}
		for _, asset := range rel.ReleaseAssets.Nodes {
			if asset == nil {
				out.Assets.Nodes = append(out.Assets.Nodes, nil)
				continue
			}
			out.Assets.Nodes = append(out.Assets.Nodes, &ReleaseAsset{
				ID:          asset.ID,
				Name:        asset.Name,
				DownloadURL: asset.DownloadURL,
				Size:        asset.Size,
				ContentType: asset.ContentType,
			})
		}
		repo.Releases.Nodes = append(repo.Releases.Nodes, out)
	}

	if src.WorkflowTree != nil {
		for _, entry := range src.WorkflowTree.Tree.Entries {
			if !isWorkflowFile(entry.Name) || entry.Object == nil || entry.Object.Blob.Text == nil {
				continue
			}
			repo.Workflows.Nodes = append(repo.Workflows.Nodes, &WorkflowFile{
				Path:    entry.Path,
				Content: *entry.Object.Blob.Text,
			})
		}
	}

	if src.SecurityInsights != nil && src.SecurityInsights.Blob.Text != nil {
		repo.SecurityInsights = &SecurityInsightsFile{
			SourceURL: src.URL + "/blob/HEAD/" + securityInsightsPath,
			Text:      *src.SecurityInsights.Blob.Text,
		}
	}

	for _, rule := range src.BranchProtectionRules.Nodes {
		if rule == nil {
			repo.BranchProtectionRules.Nodes = append(repo.BranchProtectionRules.Nodes, nil)
			continue
		}
		repo.BranchProtectionRules.Nodes = append(repo.BranchProtectionRules.Nodes, &BranchProtectionRule{
			ID:                           rule.ID,
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

	return &RepoArtifactsResponse{Repository: repo}
}

func isWorkflowFile(name string) bool {
	return strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")
}
