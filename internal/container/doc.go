// SPDX-License-Identifier: MPL-2.0

// Package container provides a unified abstraction layer for container engines (Docker/Podman).
//
// The Engine interface defines the operations the introspection pipeline needs to
// manage per-version database server instances: IsRunning, Pull, RunDetached,
// ExecQuery, Stop, Remove, RemoveForced, and ListRunning. Two implementations are
// provided: DockerEngine and PodmanEngine, both embedding BaseCLIEngine for shared
// CLI argument construction and command execution.
//
// Engine selection uses NewEngine(EngineType) with automatic fallback if the preferred
// engine is unavailable, or AutoDetectEngine() for preference-less detection (Docker is
// tried first since the reference server images are published to Docker Hub).
//
// All command execution flows through an injectable ExecCommandFunc so unit tests can
// record invocations and simulate exit codes without spawning real processes.
package container
