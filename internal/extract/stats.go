package extract

import (
	"fmt"
	"strings"
)

// Summary renders a short human-readable line for logging, e.g.
// "normalized 3 repositories, 12 releases, 48 release_assets". It is a
// logging side channel, not part of the data contract.
func Summary(t Tables) string {
	order := []string{
		TableRepositories,
		TableReleases,
		TableReleaseAssets,
		TableWorkflows,
		TableBranchProtectionRules,
		TableSecurityInsights,
	}

	parts := make([]string, 0, len(order))
	for _, name := range order {
		rows, ok := t[name]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d %s", len(rows), name))
	}
	if len(parts) == 0 {
		return "normalized nothing"
	}
	return "normalized " + strings.Join(parts, ", ")
}
