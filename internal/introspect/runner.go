// SPDX-License-Identifier: MPL-2.0

package introspect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JosephRedfern/clickhouse-function-reference/internal/fiddle"
	"github.com/JosephRedfern/clickhouse-function-reference/internal/instance"
	"github.com/JosephRedfern/clickhouse-function-reference/internal/query"
)

type (
	// Runner produces per-version sessions for executing the fixed queries.
	Runner interface {
		// Prepare runs once before the version walk, recovering from any
		// leftover state of an interrupted prior run.
		Prepare(ctx context.Context)
		// Open returns a session for the version. Opening is cheap; resource
		// acquisition is deferred until the first Query.
		Open(version string) Session
	}

	// Session executes queries against a single version and releases whatever
	// it acquired on Close.
	Session interface {
		Query(ctx context.Context, kind Kind) ([]Record, error)
		Close(ctx context.Context)
	}
)

// LocalRunner executes queries inside locally provisioned container
// instances, one per version.
type LocalRunner struct {
	manager  *instance.Manager
	executor *query.Executor
	policy   FailurePolicy
}

// NewLocalRunner wires an instance manager and a query executor into a Runner.
// A nil policy falls back to the uniform default.
func NewLocalRunner(manager *instance.Manager, executor *query.Executor, policy FailurePolicy) *LocalRunner {
	if policy == nil {
		policy = DefaultFailurePolicy()
	}
	return &LocalRunner{manager: manager, executor: executor, policy: policy}
}

// Prepare sweeps stray instances left behind by interrupted prior runs.
func (r *LocalRunner) Prepare(ctx context.Context) {
	r.manager.Sweep(ctx)
}

// Open returns a session that provisions the version's instance lazily.
func (r *LocalRunner) Open(version string) Session {
	return &localSession{runner: r, version: version}
}

// localSession provisions on first query. A provisioning failure is sticky:
// every remaining query for the version fails without re-attempting the start.
type localSession struct {
	runner       *LocalRunner
	version      string
	handle       instance.Handle
	provisioned  bool
	provisionErr error
}

func (s *localSession) Query(ctx context.Context, kind Kind) ([]Record, error) {
	if s.provisionErr != nil {
		return nil, s.provisionErr
	}
	if !s.provisioned {
		handle, err := s.runner.manager.Ensure(ctx, s.version)
		if err != nil {
			s.provisionErr = err
			return nil, err
		}
		s.handle = handle
		s.provisioned = true
	}

	out, err := s.runner.executor.Execute(ctx, s.handle.Name, kind.Command(), s.runner.policy.For(kind))
	if err != nil {
		return nil, err
	}

	records, err := ParseTSV(out)
	if err != nil {
		return nil, fmt.Errorf("parsing %s result for %s: %w", kind, s.version, err)
	}
	return records, nil
}

// Close reclaims the instance if a start succeeded or was attempted, then
// sweeps the name template before the next version is processed. Reclaim
// swallows stop failures, so without the sweep an instance that refused to
// stop would stay running alongside the next version's instance.
func (s *localSession) Close(ctx context.Context) {
	if s.provisioned || s.provisionErr != nil {
		s.runner.manager.Reclaim(ctx, s.version)
	}
	s.runner.manager.Sweep(ctx)
}

// RemoteRunner executes queries through the hosted service. There is no
// instance lifecycle and no retry: one round-trip per query, and a response
// without output means the version has no data for that query.
type RemoteRunner struct {
	client *fiddle.Client
}

// NewRemoteRunner wires a service client into a Runner.
func NewRemoteRunner(client *fiddle.Client) *RemoteRunner {
	return &RemoteRunner{client: client}
}

// Prepare is a no-op: the service owns all instance state.
func (r *RemoteRunner) Prepare(context.Context) {}

// Open returns a stateless session for the version.
func (r *RemoteRunner) Open(version string) Session {
	return &remoteSession{client: r.client, version: version}
}

type remoteSession struct {
	client  *fiddle.Client
	version string
}

func (s *remoteSession) Query(ctx context.Context, kind Kind) ([]Record, error) {
	out, err := s.client.RunQuery(ctx, kind.SQL(), s.version)
	if err != nil {
		return nil, err
	}

	records, err := ParseTSV(out)
	if err != nil {
		return nil, fmt.Errorf("parsing %s result for %s: %w", kind, s.version, err)
	}
	return records, nil
}

func (s *remoteSession) Close(context.Context) {
	slog.Debug("remote session closed", "version", s.version)
}
