// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine provides common implementation for CLI-based container engines.
	// Docker and Podman engines embed this struct. Methods that are identical across
	// all CLI engines (Pull, RunDetached, ExecQuery, Stop, Remove, RemoveForced,
	// IsRunning, ListRunning) are implemented here; engine-specific methods
	// (Available, Version) remain on the concrete types.
	BaseCLIEngine struct {
		name        string // Engine name for error messages (e.g., "docker", "podman")
		binaryPath  string // Resolved at construction via exec.LookPath
		execCommand ExecCommandFunc
	}
)

// --- Option Functions ---

// WithName sets the engine name used in error messages.
func WithName(name string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.name = name
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// --- Constructor ---

// NewBaseCLIEngine creates a new base engine with the given binary path.
func NewBaseCLIEngine(binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		binaryPath:  binaryPath,
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// --- Accessor Methods ---

// Name returns the engine name used in error messages.
func (e *BaseCLIEngine) Name() string {
	return e.name
}

// BinaryPath returns the path to the container engine binary.
func (e *BaseCLIEngine) BinaryPath() string {
	return e.binaryPath
}

// --- Argument Builders ---

// PullArgs constructs arguments for an image pull command.
//
// Generated command: <binary> pull <image>
func (e *BaseCLIEngine) PullArgs(image string) []string {
	return []string{"pull", image}
}

// RunDetachedArgs constructs arguments for a detached container run command.
//
// Generated command: <binary> run -d --name <name> <image>
func (e *BaseCLIEngine) RunDetachedArgs(name, image string) []string {
	return []string{"run", "-d", "--name", name, image}
}

// ExecArgs constructs arguments for a container exec command.
//
// Generated command: <binary> exec <container> <command...>
func (e *BaseCLIEngine) ExecArgs(name string, command []string) []string {
	args := []string{"exec", name}
	return append(args, command...)
}

// StopArgs constructs arguments for a container stop command.
func (e *BaseCLIEngine) StopArgs(name string) []string {
	return []string{"stop", name}
}

// RemoveArgs constructs arguments for a container remove command.
func (e *BaseCLIEngine) RemoveArgs(name string, force bool) []string {
	args := []string{"rm"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, name)
	return args
}

// PsArgs constructs arguments for listing running containers by name filter.
// The filter is anchored so "chref-24.1" does not match "chref-24.10".
//
// Generated command: <binary> ps --filter name=^<name>$ --format {{.Names}}
func (e *BaseCLIEngine) PsArgs(nameFilter string, exact bool) []string {
	filter := nameFilter
	if exact {
		filter = "^" + nameFilter + "$"
	}
	return []string{"ps", "--filter", "name=" + filter, "--format", "{{.Names}}"}
}

// --- Command Execution ---

// RunCommandStatus executes a command and returns only the error status.
func (e *BaseCLIEngine) RunCommandStatus(ctx context.Context, args ...string) error {
	cmd := e.CreateCommand(ctx, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}
	return nil
}

// RunCommandWithOutput executes a command with stdout captured to a buffer.
func (e *BaseCLIEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	cmd := e.CreateCommand(ctx, args...)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}

	return out.String(), nil
}

// CreateCommand creates an exec.Cmd for the given arguments.
// This is useful when the caller needs to customize stdin/stdout/stderr.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	return e.execCommand(ctx, e.binaryPath, args...)
}

// --- Promoted Engine Methods (shared by Docker and Podman) ---

// IsRunning reports whether a container with the given name is currently running.
// Errors listing containers are treated as "not running": the caller will then
// attempt a fresh provision, which surfaces the real problem with more context.
func (e *BaseCLIEngine) IsRunning(ctx context.Context, name string) bool {
	out, err := e.RunCommandWithOutput(ctx, e.PsArgs(name, true)...)
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) != ""
}

// Pull fetches an image.
func (e *BaseCLIEngine) Pull(ctx context.Context, image string) error {
	return e.RunCommandStatus(ctx, e.PullArgs(image)...)
}

// RunDetached starts a container in the background under the given name.
// It does not wait for the contained server to become query-ready.
func (e *BaseCLIEngine) RunDetached(ctx context.Context, name, image string) error {
	return e.RunCommandStatus(ctx, e.RunDetachedArgs(name, image)...)
}

// ExecQuery runs a command inside a running container, capturing stdout,
// stderr, and the exit code. A non-zero exit code is reported in the result,
// not as an error; only infrastructure failures (binary not found, context
// cancelled) produce a non-nil error.
func (e *BaseCLIEngine) ExecQuery(ctx context.Context, name string, command []string) (*ExecResult, error) {
	cmd := e.CreateCommand(ctx, e.ExecArgs(name, command)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("command %s exec failed: %w", e.binaryPath, err)
		}
	}

	return result, nil
}

// Stop stops a running container.
func (e *BaseCLIEngine) Stop(ctx context.Context, name string) error {
	return e.RunCommandStatus(ctx, e.StopArgs(name)...)
}

// Remove removes a container.
func (e *BaseCLIEngine) Remove(ctx context.Context, name string, force bool) error {
	return e.RunCommandStatus(ctx, e.RemoveArgs(name, force)...)
}

// RemoveForced force-removes a container regardless of state.
func (e *BaseCLIEngine) RemoveForced(ctx context.Context, name string) error {
	return e.Remove(ctx, name, true)
}

// ListRunning returns the names of running containers whose name starts with
// the given prefix. Used by the reclaimer sweep to find strays from
// interrupted prior runs.
func (e *BaseCLIEngine) ListRunning(ctx context.Context, namePrefix string) ([]string, error) {
	out, err := e.RunCommandWithOutput(ctx, e.PsArgs(namePrefix, false)...)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, line := range strings.Split(out, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
