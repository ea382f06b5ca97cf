// SPDX-License-Identifier: MPL-2.0

package fiddle

import "strings"

// FilterOptions controls which published tags are kept for processing.
type FilterOptions struct {
	// MutableAliases are tags kept even when they are not major.minor forms
	// (e.g. "latest", "head").
	MutableAliases []string
	// ExcludePatch drops patch-level tags ("24.1.2"), keeping one tag per
	// major.minor release plus the mutable aliases.
	ExcludePatch bool
	// ExcludeAlpine drops alpine image variants, which the pipeline does not
	// support.
	ExcludeAlpine bool
	// FloorVersion, when set, stops the listing at the first tag equal to it
	// (inclusive). Tags are published newest-first, so everything after the
	// floor is older than the caller cares about.
	FloorVersion string
	// Limit caps the number of returned tags (0 = unlimited).
	Limit int
}

// DefaultFilterOptions matches the published pipeline behavior: major.minor
// tags plus "latest" and "head", no alpine variants.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		MutableAliases: []string{"latest", "head"},
		ExcludePatch:   true,
		ExcludeAlpine:  true,
	}
}

// FilterTags applies opts to a tag listing, preserving the input order.
func FilterTags(tags []string, opts FilterOptions) []string {
	isAlias := func(tag string) bool {
		for _, alias := range opts.MutableAliases {
			if tag == alias {
				return true
			}
		}
		return false
	}

	var kept []string
	for _, tag := range tags {
		if opts.ExcludeAlpine && strings.Contains(tag, "alpine") {
			continue
		}
		if opts.ExcludePatch && strings.Count(tag, ".") != 1 && !isAlias(tag) {
			continue
		}

		kept = append(kept, tag)

		if opts.FloorVersion != "" && tag == opts.FloorVersion {
			break
		}
		if opts.Limit > 0 && len(kept) >= opts.Limit {
			break
		}
	}
	return kept
}
