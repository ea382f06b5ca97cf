// SPDX-License-Identifier: MPL-2.0

// Package cache persists the outcomes of expensive keyed computations across
// process invocations.
//
// Entries are keyed by (operation identity, argument tuple) and stored in a
// single bbolt file, one bucket per operation. Entries are never proactively
// expired; instead a per-call validation predicate decides whether a stored
// entry may be trusted. The pipeline configures the predicate to distrust any
// entry whose arguments contain a mutable alias ("latest", "head"), since the
// artifact such an alias resolves to can change between runs.
package cache
