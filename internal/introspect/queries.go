// SPDX-License-Identifier: MPL-2.0

package introspect

import "github.com/JosephRedfern/clickhouse-function-reference/internal/query"

// Kind identifies one of the fixed introspection queries.
type Kind string

const (
	// KindFunctions introspects the callable function catalog.
	KindFunctions Kind = "functions"
	// KindKeywords introspects the reserved keyword list.
	KindKeywords Kind = "keywords"
	// KindSettings introspects the server settings catalog.
	KindSettings Kind = "settings"
)

// Kinds lists every query kind in pipeline order.
func Kinds() []Kind {
	return []Kind{KindFunctions, KindKeywords, KindSettings}
}

// SQL returns the fixed query text for the kind. The queries never vary per
// version; version differences surface only in the result or as a benign
// unknown-table failure on versions predating the system table.
func (k Kind) SQL() string {
	switch k {
	case KindFunctions:
		return "SELECT * FROM system.functions FORMAT TabSeparatedWithNames"
	case KindKeywords:
		return "SELECT keyword AS name FROM system.keywords FORMAT TabSeparatedWithNames"
	case KindSettings:
		return "SELECT name, value, description FROM system.settings FORMAT TabSeparatedWithNames"
	default:
		return ""
	}
}

// CacheOp returns the cache bucket name for the kind.
func (k Kind) CacheOp() string {
	switch k {
	case KindFunctions:
		return "get_functions"
	case KindKeywords:
		return "get_keywords"
	case KindSettings:
		return "get_settings"
	default:
		return "get_" + string(k)
	}
}

// Command returns the client invocation run inside a local instance.
func (k Kind) Command() []string {
	return []string{"clickhouse-client", "--query", k.SQL()}
}

// FailurePolicy maps each query kind to its acceptable-failure predicate.
// The unknown-table signature applies uniformly by default; individual kinds
// can be tightened without touching the executor.
type FailurePolicy map[Kind]query.AcceptableFailureFunc

// DefaultFailurePolicy accepts the unknown-table bootstrap signature for
// every query kind.
func DefaultFailurePolicy() FailurePolicy {
	return FailurePolicy{
		KindFunctions: query.BenignUnknownTable,
		KindKeywords:  query.BenignUnknownTable,
		KindSettings:  query.BenignUnknownTable,
	}
}

// For returns the predicate for a kind, nil when none is configured.
func (p FailurePolicy) For(k Kind) query.AcceptableFailureFunc {
	if p == nil {
		return nil
	}
	return p[k]
}
