// SPDX-License-Identifier: MPL-2.0

package introspect

import (
	"context"
	"log/slog"

	"github.com/JosephRedfern/clickhouse-function-reference/internal/cache"
)

type (
	// Failure records a query that yielded no data for a version.
	Failure struct {
		Version string
		Kind    Kind
		Err     error
	}

	// Snapshot is the outcome of one pipeline run. Results holds parsed
	// records per kind and version; a version absent from a kind's map had a
	// corresponding entry in Failures.
	Snapshot struct {
		Versions []string
		Results  map[Kind]map[string][]Record
		Failures []Failure
	}

	// OrchestratorOption configures an Orchestrator.
	OrchestratorOption func(*Orchestrator)

	// Orchestrator walks versions sequentially and runs the fixed queries
	// against each through a Runner, wrapping every query in the durable
	// result cache.
	Orchestrator struct {
		store  *cache.Store
		runner Runner
		kinds  []Kind
	}
)

// WithKinds restricts the orchestrator to a subset of query kinds.
func WithKinds(kinds ...Kind) OrchestratorOption {
	return func(o *Orchestrator) {
		o.kinds = kinds
	}
}

// NewOrchestrator creates an Orchestrator over a cache store and a runner.
func NewOrchestrator(store *cache.Store, runner Runner, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		store:  store,
		runner: runner,
		kinds:  Kinds(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes the versions strictly in the given order, one at a time. A
// failed query is recorded and skipped; it never stops the remaining queries,
// the remaining versions, or the run as a whole.
func (o *Orchestrator) Run(ctx context.Context, versions []string) *Snapshot {
	o.runner.Prepare(ctx)

	snap := &Snapshot{
		Versions: versions,
		Results:  make(map[Kind]map[string][]Record, len(o.kinds)),
	}
	for _, kind := range o.kinds {
		snap.Results[kind] = make(map[string][]Record, len(versions))
	}

	for _, version := range versions {
		slog.Info("processing version", "version", version)
		session := o.runner.Open(version)

		for _, kind := range o.kinds {
			records, err := cache.CachedJSON(o.store, kind.CacheOp(), []string{version}, func() ([]Record, error) {
				return session.Query(ctx, kind)
			})
			if err != nil {
				slog.Warn("query yielded no data for version",
					"version", version, "kind", string(kind), "error", err)
				snap.Failures = append(snap.Failures, Failure{Version: version, Kind: kind, Err: err})
				continue
			}
			snap.Results[kind][version] = records
		}

		session.Close(ctx)
	}

	return snap
}
