// SPDX-License-Identifier: MPL-2.0

package introspect

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"testing"

	"github.com/JosephRedfern/clickhouse-function-reference/internal/cache"
)

// fakeRunner scripts per-version query outcomes and records call counts.
type fakeRunner struct {
	results     map[string]map[Kind][]Record
	failAll     map[string]error
	prepares    int
	queryCalls  int
	closedOrder []string
}

func (r *fakeRunner) Prepare(context.Context) { r.prepares++ }

func (r *fakeRunner) Open(version string) Session {
	return &fakeSession{runner: r, version: version}
}

type fakeSession struct {
	runner  *fakeRunner
	version string
}

func (s *fakeSession) Query(_ context.Context, kind Kind) ([]Record, error) {
	s.runner.queryCalls++
	if err := s.runner.failAll[s.version]; err != nil {
		return nil, err
	}
	records, ok := s.runner.results[s.version][kind]
	if !ok {
		return nil, fmt.Errorf("no data for %s/%s", s.version, kind)
	}
	return records, nil
}

func (s *fakeSession) Close(context.Context) {
	s.runner.closedOrder = append(s.runner.closedOrder, s.version)
}

func openOrchestratorStore(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOrchestrator_AggregatesAcrossVersions(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		results: map[string]map[Kind][]Record{
			"24.1": {KindFunctions: {{"name": "foo"}}},
			"24.2": {KindFunctions: {{"name": "foo"}, {"name": "bar"}}},
		},
	}

	orch := NewOrchestrator(openOrchestratorStore(t), runner, WithKinds(KindFunctions))
	snap := orch.Run(context.Background(), []string{"24.1", "24.2"})

	if len(snap.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", snap.Failures)
	}

	idx := Aggregate(snap.Results[KindFunctions], snap.Versions)
	if !slices.Equal(idx.Availability["bar"], []string{"24.2"}) {
		t.Errorf("expected bar in exactly [24.2], got %v", idx.Availability["bar"])
	}
	if !slices.Equal(idx.Availability["foo"], []string{"24.1", "24.2"}) {
		t.Errorf("expected foo in [24.1 24.2], got %v", idx.Availability["foo"])
	}

	if runner.prepares != 1 {
		t.Errorf("expected one prepare call, got %d", runner.prepares)
	}
	if !slices.Equal(runner.closedOrder, []string{"24.1", "24.2"}) {
		t.Errorf("expected sessions closed in version order, got %v", runner.closedOrder)
	}
}

func TestOrchestrator_FailedVersionNeverStopsOthers(t *testing.T) {
	t.Parallel()

	boom := errors.New("provisioning failed")
	runner := &fakeRunner{
		results: map[string]map[Kind][]Record{
			"24.2": {
				KindFunctions: {{"name": "foo"}},
				KindKeywords:  {{"name": "SELECT"}},
				KindSettings:  {{"name": "max_threads"}},
			},
		},
		failAll: map[string]error{"24.1": boom},
	}

	orch := NewOrchestrator(openOrchestratorStore(t), runner)
	snap := orch.Run(context.Background(), []string{"24.1", "24.2"})

	if len(snap.Failures) != 3 {
		t.Fatalf("expected a failure per query kind, got %v", snap.Failures)
	}
	for _, f := range snap.Failures {
		if f.Version != "24.1" {
			t.Errorf("unexpected failed version: %v", f)
		}
		if !errors.Is(f.Err, boom) {
			t.Errorf("expected underlying error preserved, got %v", f.Err)
		}
	}

	for _, kind := range Kinds() {
		if _, ok := snap.Results[kind]["24.1"]; ok {
			t.Errorf("failed version must contribute no %s data", kind)
		}
		if _, ok := snap.Results[kind]["24.2"]; !ok {
			t.Errorf("healthy version missing %s data", kind)
		}
	}

	if !slices.Equal(runner.closedOrder, []string{"24.1", "24.2"}) {
		t.Errorf("failed version must still be reclaimed, got %v", runner.closedOrder)
	}
}

func TestOrchestrator_CacheHitSkipsExecution(t *testing.T) {
	t.Parallel()

	store := openOrchestratorStore(t)
	runner := &fakeRunner{
		results: map[string]map[Kind][]Record{
			"24.1": {KindFunctions: {{"name": "foo"}}},
		},
	}

	orch := NewOrchestrator(store, runner, WithKinds(KindFunctions))
	orch.Run(context.Background(), []string{"24.1"})
	if runner.queryCalls != 1 {
		t.Fatalf("expected one query on cold cache, got %d", runner.queryCalls)
	}

	// Second run over the same store: the stored entry answers the query.
	snap := orch.Run(context.Background(), []string{"24.1"})
	if runner.queryCalls != 1 {
		t.Errorf("expected cache hit to skip execution, got %d query calls", runner.queryCalls)
	}
	if len(snap.Results[KindFunctions]["24.1"]) != 1 {
		t.Errorf("expected cached records, got %v", snap.Results[KindFunctions]["24.1"])
	}
}

func TestOrchestrator_MutableAliasNeverTrustsCache(t *testing.T) {
	t.Parallel()

	s, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"),
		cache.WithValidator(cache.DenyMutableAliases("latest", "head")))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	runner := &fakeRunner{
		results: map[string]map[Kind][]Record{
			"latest": {KindFunctions: {{"name": "foo"}}},
		},
	}

	orch := NewOrchestrator(s, runner, WithKinds(KindFunctions))
	orch.Run(context.Background(), []string{"latest"})
	orch.Run(context.Background(), []string{"latest"})

	if runner.queryCalls != 2 {
		t.Errorf("expected mutable alias to re-execute every run, got %d query calls", runner.queryCalls)
	}
}

func TestOrchestrator_FailureIsNotCached(t *testing.T) {
	t.Parallel()

	store := openOrchestratorStore(t)
	runner := &fakeRunner{
		failAll: map[string]error{"24.1": errors.New("server never came up")},
	}

	orch := NewOrchestrator(store, runner, WithKinds(KindFunctions))
	orch.Run(context.Background(), []string{"24.1"})

	// The version recovers: the next run must reach the runner again and
	// succeed, not replay a cached failure.
	runner.failAll = nil
	runner.results = map[string]map[Kind][]Record{
		"24.1": {KindFunctions: {{"name": "foo"}}},
	}
	snap := orch.Run(context.Background(), []string{"24.1"})

	if len(snap.Failures) != 0 {
		t.Fatalf("expected recovery on second run, got %v", snap.Failures)
	}
	if len(snap.Results[KindFunctions]["24.1"]) != 1 {
		t.Errorf("expected fresh records, got %v", snap.Results[KindFunctions]["24.1"])
	}
}
