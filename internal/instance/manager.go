// SPDX-License-Identifier: MPL-2.0

package instance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JosephRedfern/clickhouse-function-reference/internal/container"
)

const (
	// NamePrefix is the container name template prefix. Every container the
	// manager creates carries it, and the sweep only ever inspects names
	// matching it.
	NamePrefix = "chref-"

	// DefaultImageRepository is the image repository versions are pulled from.
	DefaultImageRepository = "clickhouse/clickhouse-server"
)

// ErrProvisioningFailed is the sentinel error wrapped by ProvisioningError.
var ErrProvisioningFailed = errors.New("instance provisioning failed")

// ProvisioningError is returned when an instance could not be started for a version.
type ProvisioningError struct {
	Version string
	Err     error
}

// Error implements the error interface.
func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("failed to provision instance for version %q: %v", e.Version, e.Err)
}

// Unwrap returns ErrProvisioningFailed so callers can use errors.Is for programmatic detection.
func (e *ProvisioningError) Unwrap() error { return ErrProvisioningFailed }

// Handle addresses a provisioned instance.
type Handle struct {
	// Name is the deterministic container name
	Name string
	// Version is the version identifier the instance was provisioned for
	Version string
	// Image is the full image reference that was started
	Image string
}

// NameFor returns the deterministic container name for a version identifier.
// Characters outside the container-name alphabet are replaced so tags like
// "24.1" and "latest" both produce addressable names.
func NameFor(version string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '_' || r == '-':
			return r
		default:
			return '-'
		}
	}, version)
	return NamePrefix + sanitized
}

type (
	// ManagerOption configures a Manager.
	ManagerOption func(*Manager)

	// Manager provisions and reclaims per-version server containers.
	Manager struct {
		engine    container.Engine
		imageRepo string
	}
)

// WithImageRepository overrides the image repository versions are pulled from.
func WithImageRepository(repo string) ManagerOption {
	return func(m *Manager) {
		m.imageRepo = repo
	}
}

// NewManager creates a Manager bound to a container engine.
func NewManager(engine container.Engine, opts ...ManagerOption) *Manager {
	m := &Manager{
		engine:    engine,
		imageRepo: DefaultImageRepository,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ImageFor returns the full image reference for a version identifier.
func (m *Manager) ImageFor(version string) string {
	return m.imageRepo + ":" + version
}

// Ensure guarantees a running instance for the given version and returns its
// handle. If an instance under the deterministic name is already running it
// is reused without a second provisioning call. A leftover stopped or
// half-initialized container under that name is force-removed first.
//
// Ensure returns as soon as the detached start has been requested; it does
// not wait for the server to become query-ready. Readiness is the query
// executor's responsibility via its retry loop.
func (m *Manager) Ensure(ctx context.Context, version string) (Handle, error) {
	handle := Handle{
		Name:    NameFor(version),
		Version: version,
		Image:   m.ImageFor(version),
	}

	if m.engine.IsRunning(ctx, handle.Name) {
		slog.Debug("reusing running instance", "name", handle.Name, "version", version)
		return handle, nil
	}

	// A container may exist under this name in a stopped or crashed state
	// from a prior attempt. Removal failure (including "no such container")
	// is not an error worth surfacing.
	if err := m.engine.RemoveForced(ctx, handle.Name); err != nil {
		slog.Debug("pre-start removal skipped", "name", handle.Name, "error", err)
	}

	// Pull failure is non-fatal here: the image may already be present
	// locally, in which case the detached run still succeeds.
	if err := m.engine.Pull(ctx, handle.Image); err != nil {
		slog.Warn("image pull failed, attempting start anyway", "image", handle.Image, "error", err)
	}

	if err := m.engine.RunDetached(ctx, handle.Name, handle.Image); err != nil {
		return Handle{}, &ProvisioningError{Version: version, Err: err}
	}

	slog.Info("instance started", "name", handle.Name, "image", handle.Image)
	return handle, nil
}

// Reclaim stops and removes the instance for the given version. Every step is
// best-effort: an already-stopped or already-removed container is not an error.
func (m *Manager) Reclaim(ctx context.Context, version string) {
	name := NameFor(version)

	if err := m.engine.Stop(ctx, name); err != nil {
		slog.Debug("instance stop skipped", "name", name, "error", err)
	}
	if err := m.engine.Remove(ctx, name, false); err != nil {
		slog.Debug("instance removal skipped", "name", name, "error", err)
	}
}

// Sweep force-removes any instance still running under the manager's name
// template. It recovers from interrupted prior runs that left a stray
// container behind. All failures are swallowed; the sweep never blocks the
// pipeline.
func (m *Manager) Sweep(ctx context.Context) {
	names, err := m.engine.ListRunning(ctx, NamePrefix)
	if err != nil {
		slog.Warn("stray instance sweep failed", "error", err)
		return
	}

	for _, name := range names {
		if !strings.HasPrefix(name, NamePrefix) {
			continue
		}
		slog.Info("removing stray instance", "name", name)
		if err := m.engine.Stop(ctx, name); err != nil {
			slog.Debug("stray stop skipped", "name", name, "error", err)
		}
		if err := m.engine.RemoveForced(ctx, name); err != nil {
			slog.Debug("stray removal skipped", "name", name, "error", err)
		}
	}
}
