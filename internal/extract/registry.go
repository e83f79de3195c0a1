package extract

import (
	"fmt"
	"sort"

	"github.com/halcyondude/supply-chain-security-collector/internal/github"
)

// Extractor binds a query shape to its normalization function and the
// fallback schemas for every table that function can emit. Fallbacks live
// next to the extractor so adding an entity type without one is caught the
// moment the registry is built.
type Extractor struct {
	Shape     string
	Fn        func(batch []*github.RepoArtifactsResponse) Tables
	Fallbacks map[string]Schema
}

// Registry dispatches query shape names to extractors.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry builds the registry of known query shapes. It validates that
// every table an extractor emits on an empty batch has a declared fallback
// schema; a gap here is a programming error, not a runtime condition.
func NewRegistry() (*Registry, error) {
	r := &Registry{extractors: make(map[string]Extractor)}

	err := r.register(Extractor{
		Shape: github.ShapeRepoArtifacts,
		Fn:    RepoArtifacts,
		Fallbacks: map[string]Schema{
			TableRepositories:          repositoriesSchema,
			TableReleases:              releasesSchema,
			TableReleaseAssets:         releaseAssetsSchema,
			TableWorkflows:             workflowsSchema,
			TableBranchProtectionRules: branchProtectionRulesSchema,
			TableSecurityInsights:      securityInsightsSchema,
		},
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Registry) register(e Extractor) error {
	if e.Shape == "" || e.Fn == nil {
		return fmt.Errorf("extractor registration requires a shape name and function")
	}

	// Probe with an empty batch: the output keys are the extractor's full
	// table set, and each needs a fallback schema.
	for _, table := range tableNames(e.Fn(nil)) {
		if _, ok := e.Fallbacks[table]; !ok {
			return fmt.Errorf("extractor %q emits table %q without a fallback schema", e.Shape, table)
		}
	}

	r.extractors[e.Shape] = e
	return nil
}

// Get returns the extractor for a shape name, or false if none is
// registered. A missing extractor is a soft condition: the raw tier is still
// written, only normalization is skipped.
func (r *Registry) Get(shape string) (Extractor, bool) {
	e, ok := r.extractors[shape]
	return e, ok
}

// Shapes lists registered shape names, sorted.
func (r *Registry) Shapes() []string {
	out := make([]string, 0, len(r.extractors))
	for shape := range r.extractors {
		out = append(out, shape)
	}
	sort.Strings(out)
	return out
}

func tableNames(t Tables) []string {
	out := make([]string, 0, len(t))
	for name := range t {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
