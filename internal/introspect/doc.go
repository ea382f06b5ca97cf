// SPDX-License-Identifier: MPL-2.0

// Package introspect coordinates the per-version extraction pipeline.
//
// The orchestrator walks version identifiers strictly in caller order, runs
// the fixed introspection queries against each version through a Runner
// (local container instance or hosted remote service), and aggregates the
// parsed records into a feature availability index. Every query is wrapped by
// the durable result cache, so a cache hit skips provisioning and execution
// entirely for that query. A version that fails to provision or answer
// contributes no data for the affected queries and never stops processing of
// other versions.
package introspect
