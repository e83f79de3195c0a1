package materialize

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyondude/supply-chain-security-collector/internal/extract"
	"github.com/halcyondude/supply-chain-security-collector/internal/github"
	"github.com/halcyondude/supply-chain-security-collector/internal/store"
	"github.com/halcyondude/supply-chain-security-collector/internal/targets"
	"github.com/halcyondude/supply-chain-security-collector/internal/testutil"
)

func testResponse(id, nameWithOwner string) *github.RepoArtifactsResponse {
	return &github.RepoArtifactsResponse{
		Repository: &github.Repository{
			ID:            id,
			Name:          filepath.Base(nameWithOwner),
			NameWithOwner: nameWithOwner,
			URL:           "https://github.com/" + nameWithOwner,
			Releases: github.Connection[github.Release]{
				Nodes: []*github.Release{
					{
						ID:        id + "_rel",
						TagName:   "v1.0.0",
						CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
						Assets: github.Connection[github.ReleaseAsset]{
							Nodes: []*github.ReleaseAsset{
								{ID: id + "_a1", Name: "cosign.sig"},
							},
						},
					},
				},
			},
		},
	}
}

func newTestWriter(t *testing.T, exportDir string) (*Writer, *store.Store) {
	t.Helper()
	st := openTestStore(t)
	registry, err := extract.NewRegistry()
	require.NoError(t, err)
	return NewWriter(st, registry, exportDir, testutil.NewTestLogger(t)), st
}

func tableCount(t *testing.T, st *store.Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, st.DB().QueryRow("SELECT count(*) FROM "+table).Scan(&n))
	return n
}

func TestWriteBatch(t *testing.T) {
	ctx := context.Background()
	w, st := newTestWriter(t, "")

	batch := Batch{
		Shape: github.ShapeRepoArtifacts,
		Responses: []*github.RepoArtifactsResponse{
			testResponse("R_1", "acme/alpha"),
			nil, // failed fetch: raw tier keeps a null-repository record
			testResponse("R_2", "acme/beta"),
		},
	}
	require.NoError(t, w.Write(ctx, batch))

	assert.Equal(t, 3, tableCount(t, st, "raw_repo_artifacts"))
	assert.Equal(t, 2, tableCount(t, st, "repositories"))
	assert.Equal(t, 2, tableCount(t, st, "releases"))
	assert.Equal(t, 2, tableCount(t, st, "release_assets"))

	// Entity tables without data still exist via fallback schemas.
	assert.Equal(t, 0, tableCount(t, st, "workflows"))
	assert.Equal(t, 0, tableCount(t, st, "branch_protection_rules"))
	assert.Equal(t, 0, tableCount(t, st, "security_insights"))
}

func TestWriteEmptyBatch(t *testing.T) {
	ctx := context.Background()
	w, st := newTestWriter(t, "")

	require.NoError(t, w.Write(ctx, Batch{Shape: github.ShapeRepoArtifacts}))

	assert.Equal(t, 0, tableCount(t, st, "raw_repo_artifacts"))
	assert.Equal(t, 0, tableCount(t, st, "repositories"))
}

func TestWriteUnknownShape(t *testing.T) {
	ctx := context.Background()
	w, st := newTestWriter(t, "")

	// Unknown shape: raw tier is written, normalization is skipped, no error.
	batch := Batch{
		Shape:     "mystery_shape",
		Responses: []*github.RepoArtifactsResponse{testResponse("R_1", "acme/alpha")},
	}
	require.NoError(t, w.Write(ctx, batch))

	assert.Equal(t, 1, tableCount(t, st, "raw_mystery_shape"))

	tables, err := st.ListTables(ctx, "repositories")
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestWriteProjects(t *testing.T) {
	ctx := context.Background()
	w, st := newTestWriter(t, "")

	metas := []targets.ProjectMeta{
		{
			ProjectName: "alpha",
			Maturity:    "graduated",
			Category:    "runtime",
			AuditCount:  2,
			Repos: []targets.ProjectRepo{
				{Owner: "acme", Name: "alpha", Primary: true},
				{Owner: "acme", Name: "alpha-helm"},
			},
		},
		{ProjectName: "alpha", Maturity: "graduated", Repos: []targets.ProjectRepo{{Owner: "x", Name: "dup"}}},
		{ProjectName: "beta", Maturity: "sandbox", Repos: []targets.ProjectRepo{{Owner: "acme", Name: "beta", Primary: true}}},
	}

	batch := Batch{
		Shape:     github.ShapeRepoArtifacts,
		Responses: []*github.RepoArtifactsResponse{testResponse("R_1", "acme/alpha")},
		Projects:  metas,
	}
	require.NoError(t, w.Write(ctx, batch))

	// Duplicate project names collapse to one row; the duplicate's repos
	// are dropped with it.
	assert.Equal(t, 2, tableCount(t, st, TableProjects))
	assert.Equal(t, 3, tableCount(t, st, TableProjectRepositories))

	var isPrimary bool
	require.NoError(t, st.DB().QueryRow(
		"SELECT is_primary FROM project_repositories WHERE name_with_owner = 'acme/alpha'").Scan(&isPrimary))
	assert.True(t, isPrimary)
}

func TestWriteExportsParquet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	w, _ := newTestWriter(t, dir)

	batch := Batch{
		Shape:     github.ShapeRepoArtifacts,
		Responses: []*github.RepoArtifactsResponse{testResponse("R_1", "acme/alpha")},
	}
	require.NoError(t, w.Write(ctx, batch))

	for _, name := range []string{"repositories.parquet", "releases.parquet", "raw_repo_artifacts.parquet"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}
