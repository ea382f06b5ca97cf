// SPDX-License-Identifier: MPL-2.0

// Package query executes introspection queries against a provisioned database
// instance with bounded retry and failure classification.
//
// A freshly started server needs time to boot before it accepts queries, so
// every execution failure is first checked against an "acceptable failure"
// predicate (a benign bootstrap condition such as a system table that does not
// exist in this version) and otherwise retried with a fixed delay up to a
// fixed attempt bound. Both the bound and the delay are shared by all query
// kinds; the predicate is configurable per query.
package query
