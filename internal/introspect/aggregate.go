// SPDX-License-Identifier: MPL-2.0

package introspect

import "sort"

// Index is the aggregated feature-availability view for one query kind.
type Index struct {
	// Features is the deduplicated, sorted list of feature names seen in any
	// version.
	Features []string
	// Availability maps each feature to the versions containing it, in the
	// version order of the run.
	Availability map[string][]string
	// Aliases maps an alternative feature name to its canonical name, taken
	// from rows carrying a non-empty alias_to column.
	Aliases map[string]string
}

// Aggregate folds per-version records into an availability index. Versions
// are visited in the given order so availability lists preserve it; versions
// without an entry in byVersion contribute nothing.
func Aggregate(byVersion map[string][]Record, versionOrder []string) *Index {
	idx := &Index{
		Availability: make(map[string][]string),
		Aliases:      make(map[string]string),
	}

	seen := make(map[string]bool)
	for _, version := range versionOrder {
		for _, rec := range byVersion[version] {
			name, ok := rec["name"]
			if !ok {
				continue
			}
			if !seen[name] {
				seen[name] = true
				idx.Features = append(idx.Features, name)
			}
			idx.Availability[name] = append(idx.Availability[name], version)
			if alias := rec["alias_to"]; alias != "" {
				idx.Aliases[name] = alias
			}
		}
	}

	// A feature present twice in one version's records must not list the
	// version twice.
	for name, versions := range idx.Availability {
		idx.Availability[name] = dedupeOrdered(versions)
	}

	sort.Strings(idx.Features)
	return idx
}

func dedupeOrdered(values []string) []string {
	out := values[:0]
	var last string
	for i, v := range values {
		if i == 0 || v != last {
			out = append(out, v)
		}
		last = v
	}
	return out
}
