// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T, path string, opts ...StoreOption) *Store {
	t.Helper()
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Cached_ComputesOnceThenReuses(t *testing.T) {
	t.Parallel()
	s := openTestStore(t, filepath.Join(t.TempDir(), "cache.db"))

	calls := 0
	compute := func() ([]byte, error) {
		calls++
		return []byte("result"), nil
	}

	for range 3 {
		got, err := s.Cached("get_functions", []string{"23.8"}, compute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != "result" {
			t.Fatalf("unexpected value: %q", got)
		}
	}

	if calls != 1 {
		t.Fatalf("expected 1 compute call, got %d", calls)
	}
}

func TestStore_Cached_SurvivesReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cache.db")

	calls := 0
	compute := func() ([]byte, error) {
		calls++
		return []byte("durable"), nil
	}

	// First "process run" computes and persists.
	first := openTestStore(t, path)
	if _, err := first.Cached("get_functions", []string{"23.8"}, compute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	// Second "process run" reuses the stored entry.
	second := openTestStore(t, path)
	got, err := second.Cached("get_functions", []string{"23.8"}, compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "durable" {
		t.Fatalf("unexpected value: %q", got)
	}
	if calls != 1 {
		t.Fatalf("expected compute only in first run, got %d calls", calls)
	}
}

func TestStore_Cached_MutableAliasAlwaysRecomputes(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "cache.db")
	validator := DenyMutableAliases("latest", "head")

	calls := 0
	compute := func() ([]byte, error) {
		calls++
		return []byte{byte('0' + calls)}, nil
	}

	// Two separate "process runs" against a mutable alias: compute runs both
	// times and the second result overwrites the first.
	first := openTestStore(t, path, WithValidator(validator))
	if _, err := first.Cached("get_functions", []string{"latest"}, compute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	second := openTestStore(t, path, WithValidator(validator))
	got, err := second.Cached("get_functions", []string{"latest"}, compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 compute calls for mutable alias, got %d", calls)
	}
	if string(got) != "2" {
		t.Fatalf("expected overwritten entry, got %q", got)
	}

	// A fixed version on the same store is still reused.
	fixedCalls := 0
	fixedCompute := func() ([]byte, error) {
		fixedCalls++
		return []byte("fixed"), nil
	}
	for range 2 {
		if _, err := second.Cached("get_functions", []string{"23.8"}, fixedCompute); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if fixedCalls != 1 {
		t.Fatalf("expected 1 compute call for fixed version, got %d", fixedCalls)
	}
}

func TestStore_Cached_ComputeErrorPropagates(t *testing.T) {
	t.Parallel()
	s := openTestStore(t, filepath.Join(t.TempDir(), "cache.db"))

	boom := errors.New("compute failed")
	_, err := s.Cached("get_functions", []string{"24.1"}, func() ([]byte, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected compute error to propagate, got: %v", err)
	}

	// Nothing was stored: the next call computes again.
	calls := 0
	if _, err := s.Cached("get_functions", []string{"24.1"}, func() ([]byte, error) {
		calls++
		return []byte("ok"), nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected recompute after error, got %d calls", calls)
	}
}

func TestStore_Cached_DistinctOperationsDoNotCollide(t *testing.T) {
	t.Parallel()
	s := openTestStore(t, filepath.Join(t.TempDir(), "cache.db"))

	if _, err := s.Cached("get_functions", []string{"24.1"}, func() ([]byte, error) {
		return []byte("functions"), nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := s.Cached("get_keywords", []string{"24.1"}, func() ([]byte, error) {
		return []byte("keywords"), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "keywords" {
		t.Fatalf("expected keywords entry, got %q", got)
	}
}

func TestCachedJSON_RoundTripsTypedValues(t *testing.T) {
	t.Parallel()
	s := openTestStore(t, filepath.Join(t.TempDir(), "cache.db"))

	type record map[string]string

	calls := 0
	compute := func() ([]record, error) {
		calls++
		return []record{{"name": "foo"}, {"name": "bar"}}, nil
	}

	for range 2 {
		got, err := CachedJSON(s, "get_functions", []string{"24.2"}, compute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 || got[1]["name"] != "bar" {
			t.Fatalf("unexpected value: %v", got)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 compute call, got %d", calls)
	}
}

func TestDenyMutableAliases(t *testing.T) {
	t.Parallel()
	validate := DenyMutableAliases("latest", "head")

	if validate([]string{"latest"}) {
		t.Error("expected latest to be denied")
	}
	if validate([]string{"head"}) {
		t.Error("expected head to be denied")
	}
	if !validate([]string{"23.8"}) {
		t.Error("expected fixed version to be trusted")
	}
	if !validate(nil) {
		t.Error("expected empty args to be trusted")
	}
}
