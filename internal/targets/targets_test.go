package targets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlatList(t *testing.T) {
	data := []byte(`
- owner: acme
  name: alpha
- owner: acme
  name: beta
- owner: acme
  name: alpha
`)
	tgts, projects, err := Parse(data)
	require.NoError(t, err)

	// Duplicates collapse.
	assert.Equal(t, []Target{{"acme", "alpha"}, {"acme", "beta"}}, tgts)
	assert.Empty(t, projects)
}

func TestParseProjectList(t *testing.T) {
	data := []byte(`
- project_name: alpha
  maturity: graduated
  category: runtime
  accepted_at: "2019-03-01"
  audit_count: 2
  repos:
    - owner: acme
      name: alpha
      primary: true
    - owner: acme
      name: alpha-helm
- project_name: beta
  maturity: sandbox
  repos:
    - owner: acme
      name: beta
      primary: true
`)
	tgts, projects, err := Parse(data)
	require.NoError(t, err)

	assert.Len(t, tgts, 3)
	require.Len(t, projects, 2)

	alpha := projects[0]
	assert.Equal(t, "alpha", alpha.ProjectName)
	assert.Equal(t, "graduated", alpha.Maturity)
	assert.Equal(t, 2, alpha.AuditCount)
	require.NotNil(t, alpha.AcceptedAt)
	assert.Equal(t, "2019-03-01", *alpha.AcceptedAt)
	assert.Nil(t, alpha.GraduatedAt)
	require.Len(t, alpha.Repos, 2)
	assert.True(t, alpha.Repos[0].Primary)
	assert.False(t, alpha.Repos[1].Primary)
}

func TestParseMixed(t *testing.T) {
	data := []byte(`
- owner: solo
  name: standalone
- project_name: alpha
  repos:
    - owner: acme
      name: alpha
`)
	tgts, projects, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []Target{{"solo", "standalone"}, {"acme", "alpha"}}, tgts)
	assert.Len(t, projects, 1)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"empty list", "[]", "no targets"},
		{"project without repos", "- project_name: ghost", "lists no repos"},
		{"missing owner", "- name: nameless", "missing owner or name"},
		{"not yaml", ":: bogus ::", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- owner: acme\n  name: alpha\n"), 0o600))

	tgts, _, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "acme/alpha", tgts[0].String())

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
