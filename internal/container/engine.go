// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
)

// Engine defines the interface for container operations against named,
// externally managed server instances.
type Engine interface {
	// Name returns the engine name (docker or podman)
	Name() string
	// Available checks if the engine is available on the system
	Available() bool
	// Version returns the engine version
	Version(ctx context.Context) (string, error)

	// IsRunning reports whether a container with the given name is currently running
	IsRunning(ctx context.Context, name string) bool
	// Pull fetches an image
	Pull(ctx context.Context, image string) error
	// RunDetached starts a container in the background under the given name
	RunDetached(ctx context.Context, name string, image string) error
	// ExecQuery runs a query client command inside a running container
	ExecQuery(ctx context.Context, name string, command []string) (*ExecResult, error)
	// Stop stops a running container
	Stop(ctx context.Context, name string) error
	// Remove removes a container
	Remove(ctx context.Context, name string, force bool) error
	// RemoveForced force-removes a container regardless of state
	RemoveForced(ctx context.Context, name string) error
	// ListRunning returns the names of running containers matching a name prefix
	ListRunning(ctx context.Context, namePrefix string) ([]string, error)
}

// ExecResult contains the outcome of executing a command inside a container.
// A non-zero exit code is captured here, not returned as an error: the query
// layer decides whether a failure is transient, benign, or permanent based on
// the exit code and stderr text.
type ExecResult struct {
	// Stdout is the captured standard output
	Stdout string
	// Stderr is the captured standard error
	Stderr string
	// ExitCode is the command exit code
	ExitCode int
}

// Ok reports whether the command exited successfully.
func (r *ExecResult) Ok() bool { return r.ExitCode == 0 }

// EngineType identifies the container engine type
type EngineType string

const (
	EngineTypeDocker EngineType = "docker"
	EngineTypePodman EngineType = "podman"
)

// ErrEngineNotAvailable is returned when a container engine is not available
type ErrEngineNotAvailable struct {
	Engine string
	Reason string
}

func (e *ErrEngineNotAvailable) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// NewEngine creates a new container engine based on preference
func NewEngine(preferredType EngineType) (Engine, error) {
	switch preferredType {
	case EngineTypeDocker:
		engine := NewDockerEngine()
		if engine.Available() {
			return engine, nil
		}
		// Fall back to Podman
		podmanEngine := NewPodmanEngine()
		if podmanEngine.Available() {
			return podmanEngine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "docker",
			Reason: "docker is not installed or not accessible, and podman fallback is also not available",
		}

	case EngineTypePodman:
		engine := NewPodmanEngine()
		if engine.Available() {
			return engine, nil
		}
		// Fall back to Docker
		dockerEngine := NewDockerEngine()
		if dockerEngine.Available() {
			return dockerEngine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "podman",
			Reason: "podman is not installed or not accessible, and docker fallback is also not available",
		}

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}
}

// AutoDetectEngine tries to find an available container engine.
// Docker is tried first: the reference server images live on Docker Hub and
// Docker is the engine the hosted pipeline runs with.
func AutoDetectEngine() (Engine, error) {
	docker := NewDockerEngine()
	if docker.Available() {
		return docker, nil
	}

	podman := NewPodmanEngine()
	if podman.Available() {
		return podman, nil
	}

	return nil, &ErrEngineNotAvailable{
		Engine: "any",
		Reason: "no container engine (docker or podman) is available on this system",
	}
}
