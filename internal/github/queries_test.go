package github

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToResponseNilRepository(t *testing.T) {
	resp := toResponse(&repoArtifactsQuery{})
	require.NotNil(t, resp)
	assert.Nil(t, resp.Repository)
}

func TestToResponse(t *testing.T) {
	desc := "demo repo"
	spdx := "MIT"
	relName := "First"
	wfText := "on: push\n"
	siText := "header:\n  schema-version: 1.0.0\n"

	src := &wireRepository{
		ID:             "R_1",
		Name:           "demo",
		NameWithOwner:  "acme/demo",
		Description:    &desc,
		URL:            "https://github.com/acme/demo",
		StargazerCount: 7,
	}
	src.LicenseInfo = &struct {
		SpdxID *string `graphql:"spdxId"`
	}{SpdxID: &spdx}
	src.DefaultBranchRef = &struct{ Name string }{Name: "main"}

	rel := &wireRelease{
		ID:        "REL_1",
		TagName:   "v1.0.0",
		Name:      &relName,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		URL:       "https://github.com/acme/demo/releases/v1.0.0",
	}
	rel.ReleaseAssets.Nodes = []*wireAsset{
		{ID: "A_1", Name: "cosign.sig", Size: 96, ContentType: "application/octet-stream"},
		nil,
	}
	src.Releases.Nodes = []*wireRelease{rel, nil}

	wfBlob := &wireBlob{}
	wfBlob.Blob.Text = &wfText
	src.WorkflowTree = &wireTree{}
	src.WorkflowTree.Tree.Entries = []wireTreeEntry{
		{Name: "release.yml", Path: ".github/workflows/release.yml", Object: wfBlob},
		// Non-workflow files in the tree are filtered out.
		{Name: "README.md", Path: ".github/workflows/README.md"},
		// A workflow entry without blob content is dropped too.
		{Name: "broken.yml", Path: ".github/workflows/broken.yml"},
	}

	src.SecurityInsights = &wireBlob{}
	src.SecurityInsights.Blob.Text = &siText

	src.BranchProtectionRules.Nodes = []*wireBranchProtectionRule{
		{ID: "BP_1", Pattern: "main", RequiresCommitSignatures: true},
	}

	resp := toResponse(&repoArtifactsQuery{Repository: src})
	require.NotNil(t, resp.Repository)
	repo := resp.Repository

	assert.Equal(t, "acme/demo", repo.NameWithOwner)
	require.NotNil(t, repo.LicenseSpdxID)
	assert.Equal(t, "MIT", *repo.LicenseSpdxID)
	require.NotNil(t, repo.DefaultBranch)
	assert.Equal(t, "main", *repo.DefaultBranch)

	// Nil nodes survive the mapping; filtering is the extractor's job.
	require.Len(t, repo.Releases.Nodes, 2)
	assert.Nil(t, repo.Releases.Nodes[1])
	assert.Equal(t, "v1.0.0", repo.Releases.Nodes[0].TagName)
	require.Len(t, repo.Releases.Nodes[0].Assets.Nodes, 2)
	assert.Equal(t, "cosign.sig", repo.Releases.Nodes[0].Assets.Nodes[0].Name)
	assert.Nil(t, repo.Releases.Nodes[0].Assets.Nodes[1])

	require.Len(t, repo.Workflows.Nodes, 1)
	assert.Equal(t, ".github/workflows/release.yml", repo.Workflows.Nodes[0].Path)
	assert.Equal(t, "on: push\n", repo.Workflows.Nodes[0].Content)

	require.NotNil(t, repo.SecurityInsights)
	assert.Equal(t, "https://github.com/acme/demo/blob/HEAD/SECURITY-INSIGHTS.yml", repo.SecurityInsights.SourceURL)
	assert.Equal(t, siText, repo.SecurityInsights.Text)

	require.Len(t, repo.BranchProtectionRules.Nodes, 1)
	assert.True(t, repo.BranchProtectionRules.Nodes[0].RequiresCommitSignatures)
}

func TestToResponseBareRepository(t *testing.T) {
	resp := toResponse(&repoArtifactsQuery{Repository: &wireRepository{
		ID:            "R_2",
		Name:          "bare",
		NameWithOwner: "acme/bare",
	}})
	repo := resp.Repository
	require.NotNil(t, repo)

	assert.Nil(t, repo.Description)
	assert.Nil(t, repo.LicenseSpdxID)
	assert.Nil(t, repo.DefaultBranch)
	assert.Nil(t, repo.SecurityInsights)
	assert.Empty(t, repo.Releases.Nodes)
	assert.Empty(t, repo.Workflows.Nodes)
}

func TestIsWorkflowFile(t *testing.T) {
	assert.True(t, isWorkflowFile("ci.yml"))
	assert.True(t, isWorkflowFile("ci.yaml"))
	assert.False(t, isWorkflowFile("README.md"))
	assert.False(t, isWorkflowFile("ci.json"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(errors.New(`Could not resolve to a Repository with the name 'acme/ghost'.`)))
	assert.False(t, isNotFound(errors.New("401 Unauthorized")))
	assert.False(t, isNotFound(nil))
}

func TestRepoArtifactsVariables(t *testing.T) {
	vars := repoArtifactsVariables("acme", "demo", 5, 25)
	assert.Len(t, vars, 5)
	assert.Contains(t, vars, "owner")
	assert.Contains(t, vars, "releaseLimit")
}
