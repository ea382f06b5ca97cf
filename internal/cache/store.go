// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	bolt "go.etcd.io/bbolt"
)

// ValidateFunc reports whether a stored entry for the given argument tuple
// may be trusted. Returning false forces recomputation and overwrites the
// stored entry.
type ValidateFunc func(args []string) bool

// TrustAlways is the default validation predicate: every stored entry is reused.
func TrustAlways([]string) bool { return true }

// DenyMutableAliases returns a predicate that distrusts entries whose
// argument tuple contains any of the given mutable aliases. For the pipeline's
// operations the version identifier is part of every argument tuple, so an
// entry computed against "latest" is recomputed on every run.
func DenyMutableAliases(aliases ...string) ValidateFunc {
	deny := slices.Clone(aliases)
	return func(args []string) bool {
		for _, arg := range args {
			if slices.Contains(deny, arg) {
				return false
			}
		}
		return true
	}
}

type (
	// StoreOption configures a Store.
	StoreOption func(*Store)

	// Store is a disk-backed cache of computation results. It owns its
	// entries exclusively across process lifetimes; concurrent access is
	// serialized by bbolt's single-writer file lock.
	Store struct {
		db       *bolt.DB
		validate ValidateFunc
	}
)

// WithValidator sets the validation predicate consulted before a stored
// entry is reused.
func WithValidator(fn ValidateFunc) StoreOption {
	return func(s *Store) {
		s.validate = fn
	}
}

// Open opens (creating if necessary) the cache file at path.
func Open(path string, opts ...StoreOption) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache at %s: %w", path, err)
	}

	s := &Store{
		db:       db,
		validate: TrustAlways,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// entryKey serializes an argument tuple into a stable bucket key.
// The unit separator cannot appear in version identifiers or page names, so
// distinct tuples never collide.
func entryKey(args []string) []byte {
	return []byte(strings.Join(args, "\x1f"))
}

// Cached returns the stored result for (op, args) when present and trusted by
// the validation predicate; otherwise it invokes compute, persists the result,
// and returns it. Compute errors propagate unchanged and leave any previously
// stored entry in place.
func (s *Store) Cached(op string, args []string, compute func() ([]byte, error)) ([]byte, error) {
	key := entryKey(args)

	if s.validate(args) {
		var stored []byte
		err := s.db.View(func(tx *bolt.Tx) error {
			b := tx.Bucket([]byte(op))
			if b == nil {
				return nil
			}
			if v := b.Get(key); v != nil {
				stored = slices.Clone(v)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("cache read for %s failed: %w", op, err)
		}
		if stored != nil {
			return stored, nil
		}
	}

	result, err := compute()
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(op))
		if err != nil {
			return err
		}
		return b.Put(key, result)
	})
	if err != nil {
		return nil, fmt.Errorf("cache write for %s failed: %w", op, err)
	}

	return result, nil
}

// CachedJSON wraps Store.Cached for typed results, marshaling through JSON.
func CachedJSON[T any](s *Store, op string, args []string, compute func() (T, error)) (T, error) {
	var zero T

	raw, err := s.Cached(op, args, func() ([]byte, error) {
		value, err := compute()
		if err != nil {
			return nil, err
		}
		return json.Marshal(value)
	})
	if err != nil {
		return zero, err
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, fmt.Errorf("corrupt cache entry for %s: %w", op, err)
	}
	return value, nil
}
