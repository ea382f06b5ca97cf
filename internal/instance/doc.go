// SPDX-License-Identifier: MPL-2.0

// Package instance manages the lifecycle of per-version database server
// containers: provisioning (Ensure), teardown (Reclaim), and recovery of
// strays left behind by interrupted runs (Sweep).
//
// Container names are a deterministic function of the version identifier, so
// re-running the pipeline for the same version always addresses the same
// instance and at most one instance exists per version. The manager assumes
// exclusive ownership of names carrying its prefix and never touches others.
package instance
