// SPDX-License-Identifier: MPL-2.0

// Package fiddle is the client for the hosted query-execution service
// (fiddle.clickhouse.com).
//
// It serves two roles: listing the published version tags that seed the
// pipeline, and the remote execution mode, where a query for a given version
// is a single network round-trip against the service instead of a locally
// provisioned container. Remote execution has no retry and no instance
// lifecycle — the service owns both.
package fiddle
