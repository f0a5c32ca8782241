package schema

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// SortTablesByFKCount orders tables so that referenced tables come before the
// tables that reference them. deps maps a table name to the names it
// references; references to tables outside the list are ignored. Cycles are
// broken with a score that prefers tables with few unsatisfied references
// that take part in a cycle.
func SortTablesByFKCount(tables []Table, deps map[string][]string) []Table {
	known := make(map[string]bool, len(tables))
	for _, t := range tables {
		known[strings.ToLower(t.Name)] = true
	}
	refs := make(map[string][]string, len(deps))
	for name, list := range deps {
		key := strings.ToLower(name)
		for _, r := range list {
			r = strings.ToLower(r)
			if known[r] && r != key {
				refs[key] = append(refs[key], r)
			}
		}
	}

	sorted := make([]Table, 0, len(tables))
	processed := make(map[string]bool, len(tables))

	for len(sorted) < len(tables) {
		added := false

		for _, t := range tables {
			key := strings.ToLower(t.Name)
			if processed[key] {
				continue
			}
			ready := true
			for _, dep := range refs[key] {
				if !processed[dep] {
					ready = false
					break
				}
			}
			if ready {
				sorted = append(sorted, t)
				processed[key] = true
				added = true
			}
		}
		if added {
			continue
		}

		best := -1
		bestScore := 0
		for i, t := range tables {
			key := strings.ToLower(t.Name)
			if processed[key] {
				continue
			}

			score := 0
			circular := false
			for _, dep := range refs[key] {
				if processed[dep] {
					continue
				}
				score -= 100
				for _, back := range refs[dep] {
					if back == key {
						circular = true
					}
				}
			}
			if circular {
				score += 500
			}

			if best < 0 || score > bestScore || (score == bestScore && t.Name < tables[best].Name) {
				best, bestScore = i, score
			}
		}

		t := tables[best]
		sorted = append(sorted, t)
		processed[strings.ToLower(t.Name)] = true
		logrus.WithField("component", "schema").Warnf("Breaking circular dependency at %s (score %d)", t.Name, bestScore)
	}

	return sorted
}

// SortTablesByName orders tables by name, case-insensitively.
func SortTablesByName(tables []Table) []Table {
	out := append([]Table(nil), tables...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
