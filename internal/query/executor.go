// SPDX-License-Identifier: MPL-2.0

package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JosephRedfern/clickhouse-function-reference/internal/container"
)

const (
	// DefaultMaxAttempts is the fixed retry bound shared by all query kinds.
	// A cold server image can take several seconds to boot; 60 attempts at
	// the default delay gives it six seconds before the version is written
	// off for this query.
	DefaultMaxAttempts = 60

	// DefaultDelay is the fixed inter-attempt delay shared by all query kinds.
	DefaultDelay = 100 * time.Millisecond
)

// ErrExhaustedRetries is the sentinel error wrapped by ExhaustedRetriesError.
var ErrExhaustedRetries = errors.New("query retries exhausted")

// AcceptableFailureFunc classifies a failed execution. Returning true means
// the failure is a benign bootstrap condition (the server is up but the
// queried schema object does not exist in this version) and the query result
// is an accepted empty answer, not an error to retry.
type AcceptableFailureFunc func(exitCode int, stderr string) bool

// BenignUnknownTable is the default acceptable-failure predicate. It matches
// the server's "unknown table" diagnostics, which appear when a system table
// being introspected does not exist yet in the queried version.
func BenignUnknownTable(exitCode int, stderr string) bool {
	if exitCode == 0 {
		return false
	}
	return strings.Contains(stderr, "UNKNOWN_TABLE") ||
		strings.Contains(stderr, "doesn't exist")
}

// ExhaustedRetriesError is returned when the attempt bound is reached without
// a success or an acceptable failure.
type ExhaustedRetriesError struct {
	Instance   string
	Attempts   int
	LastStderr string
	LastExit   int
}

// Error implements the error interface.
func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("query against %s failed after %d attempts (exit %d): %s",
		e.Instance, e.Attempts, e.LastExit, strings.TrimSpace(e.LastStderr))
}

// Unwrap returns ErrExhaustedRetries so callers can use errors.Is for programmatic detection.
func (e *ExhaustedRetriesError) Unwrap() error { return ErrExhaustedRetries }

type (
	// ExecutorOption configures an Executor.
	ExecutorOption func(*Executor)

	// Executor runs query client commands inside a named container instance,
	// retrying transient failures until the server is ready.
	Executor struct {
		engine      container.Engine
		maxAttempts int
		delay       time.Duration
		sleep       SleepFunc
	}
)

// WithMaxAttempts overrides the retry bound.
func WithMaxAttempts(n int) ExecutorOption {
	return func(e *Executor) {
		e.maxAttempts = n
	}
}

// WithDelay overrides the inter-attempt delay.
func WithDelay(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.delay = d
	}
}

// WithSleep sets a custom sleep function for testing.
func WithSleep(fn SleepFunc) ExecutorOption {
	return func(e *Executor) {
		e.sleep = fn
	}
}

// NewExecutor creates an Executor bound to a container engine.
func NewExecutor(engine container.Engine, opts ...ExecutorOption) *Executor {
	e := &Executor{
		engine:      engine,
		maxAttempts: DefaultMaxAttempts,
		delay:       DefaultDelay,
		sleep:       time.Sleep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs command inside the named instance and returns its stdout.
//
// Success on exit 0. A failure matched by acceptable is returned as an empty
// result on the spot, without further retries. Any other failure sleeps for
// the fixed delay and retries, up to the attempt bound; exhaustion returns an
// ExhaustedRetriesError. Infrastructure errors from the engine (binary
// missing, context cancelled) also count as retryable attempts — a container
// that has not finished creating can make the engine's exec fail outright.
func (e *Executor) Execute(ctx context.Context, instance string, command []string, acceptable AcceptableFailureFunc) (string, error) {
	var output string

	err := RetryFixed(ctx, e.maxAttempts, e.delay, e.sleep, func(attempt int) (bool, error) {
		attempts := attempt + 1

		res, execErr := e.engine.ExecQuery(ctx, instance, command)
		if execErr != nil {
			return true, &ExhaustedRetriesError{Instance: instance, Attempts: attempts, LastStderr: execErr.Error(), LastExit: -1}
		}

		if res.Ok() {
			output = res.Stdout
			return false, nil
		}

		if acceptable != nil && acceptable(res.ExitCode, res.Stderr) {
			slog.Debug("acceptable query failure treated as empty result",
				"instance", instance, "exit_code", res.ExitCode)
			output = ""
			return false, nil
		}

		slog.Debug("query attempt failed, retrying",
			"instance", instance, "attempt", attempts, "exit_code", res.ExitCode)
		return true, &ExhaustedRetriesError{Instance: instance, Attempts: attempts, LastStderr: res.Stderr, LastExit: res.ExitCode}
	})
	if err != nil {
		return "", err
	}

	return output, nil
}
