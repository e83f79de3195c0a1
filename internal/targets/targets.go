// Package targets parses collection target files. Two layouts are accepted:
// a flat list of {owner, name} records, or a project-grouped list (e.g. a
// CNCF landscape extract) where each project carries metadata and one or
// more member repositories flagged primary/non-primary. Both normalize to a
// flat target list plus an optional metadata side-list.
package targets

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Target identifies one repository to fetch.
type Target struct {
	Owner string `yaml:"owner" json:"owner"`
	Name  string `yaml:"name" json:"name"`
}

// String returns the owner/name form.
func (t Target) String() string {
	return t.Owner + "/" + t.Name
}

// ProjectRepo is one member repository of a project grouping.
type ProjectRepo struct {
	Owner   string `yaml:"owner" json:"owner"`
	Name    string `yaml:"name" json:"name"`
	Primary bool   `yaml:"primary" json:"primary"`
}

// ProjectMeta is the optional higher-level grouping that may span multiple
// repositories (a foundation-hosted project).
type ProjectMeta struct {
	ProjectName  string        `yaml:"project_name" json:"project_name"`
	Maturity     string        `yaml:"maturity" json:"maturity"`
	Category     string        `yaml:"category" json:"category"`
	AcceptedAt   *string       `yaml:"accepted_at" json:"accepted_at"`
	GraduatedAt  *string       `yaml:"graduated_at" json:"graduated_at"`
	ArchivedAt   *string       `yaml:"archived_at" json:"archived_at"`
	DevStatsURL  *string       `yaml:"dev_stats_url" json:"dev_stats_url"`
	LandscapeURL *string       `yaml:"landscape_url" json:"landscape_url"`
	AuditCount   int           `yaml:"audit_count" json:"audit_count"`
	Repos        []ProjectRepo `yaml:"repos" json:"-"`
}

// fileEntry is the superset of both accepted layouts; which fields are set
// decides how an entry is interpreted.
type fileEntry struct {
	Owner       string        `yaml:"owner"`
	Name        string        `yaml:"name"`
	ProjectName string        `yaml:"project_name"`
	Maturity    string        `yaml:"maturity"`
	Category    string        `yaml:"category"`
	AcceptedAt  *string       `yaml:"accepted_at"`
	GraduatedAt *string       `yaml:"graduated_at"`
	ArchivedAt  *string       `yaml:"archived_at"`
	DevStats    *string       `yaml:"dev_stats_url"`
	Landscape   *string       `yaml:"landscape_url"`
	AuditCount  int           `yaml:"audit_count"`
	Repos       []ProjectRepo `yaml:"repos"`
}

// Load reads a target file and normalizes it to a flat target list plus
// optional project metadata. Flat entries and project entries may be mixed;
// a flat entry contributes no metadata.
func Load(path string) ([]Target, []ProjectMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read targets file: %w", err)
	}
	return Parse(data)
}

// Parse normalizes raw YAML target data. See Load.
func Parse(data []byte) ([]Target, []ProjectMeta, error) {
	var entries []fileEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, nil, fmt.Errorf("failed to parse targets file: %w", err)
	}

	var flat []Target
	var projects []ProjectMeta
	seen := make(map[string]bool)

	addTarget := func(owner, name string) error {
		if owner == "" || name == "" {
			return fmt.Errorf("target entry missing owner or name")
		}
		key := owner + "/" + name
		if seen[key] {
			return nil
		}
		seen[key] = true
		flat = append(flat, Target{Owner: owner, Name: name})
		return nil
	}

	for i, entry := range entries {
		switch {
		case entry.ProjectName != "":
			if len(entry.Repos) == 0 {
				return nil, nil, fmt.Errorf("project %q (entry %d) lists no repos", entry.ProjectName, i)
			}
			for _, repo := range entry.Repos {
				if err := addTarget(repo.Owner, repo.Name); err != nil {
					return nil, nil, fmt.Errorf("project %q: %w", entry.ProjectName, err)
				}
			}
			projects = append(projects, ProjectMeta{
				ProjectName:  entry.ProjectName,
				Maturity:     entry.Maturity,
				Category:     entry.Category,
				AcceptedAt:   entry.AcceptedAt,
				GraduatedAt:  entry.GraduatedAt,
				ArchivedAt:   entry.ArchivedAt,
				DevStatsURL:  entry.DevStats,
				LandscapeURL: entry.Landscape,
				AuditCount:   entry.AuditCount,
				Repos:        entry.Repos,
			})
		default:
			if err := addTarget(entry.Owner, entry.Name); err != nil {
				return nil, nil, fmt.Errorf("entry %d: %w", i, err)
			}
		}
	}

	if len(flat) == 0 {
		return nil, nil, fmt.Errorf("targets file contains no targets")
	}
	return flat, projects, nil
}
