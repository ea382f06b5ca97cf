// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, resolved, err := Load(LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != "" {
		t.Errorf("expected no config file, got %q", resolved)
	}

	if cfg.ImageRepository != "clickhouse/clickhouse-server" {
		t.Errorf("unexpected image repository: %q", cfg.ImageRepository)
	}
	if cfg.MaxAttempts != 60 {
		t.Errorf("unexpected retry bound: %d", cfg.MaxAttempts)
	}
	if cfg.RetryDelay != 100*time.Millisecond {
		t.Errorf("unexpected retry delay: %s", cfg.RetryDelay)
	}
	if len(cfg.MutableAliases) != 2 {
		t.Errorf("unexpected mutable aliases: %v", cfg.MutableAliases)
	}
	if cfg.Remote {
		t.Error("expected local execution by default")
	}
	if cfg.CachePath == "" {
		t.Error("expected a resolved cache path")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	content := strings.Join([]string{
		`image_repository = "mirror.internal/clickhouse"`,
		`remote = true`,
		`max_attempts = 10`,
		`retry_delay = "250ms"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, resolved, err := Load(LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved != path {
		t.Errorf("expected %q resolved, got %q", path, resolved)
	}
	if cfg.ImageRepository != "mirror.internal/clickhouse" {
		t.Errorf("unexpected image repository: %q", cfg.ImageRepository)
	}
	if !cfg.Remote {
		t.Error("expected remote mode")
	}
	if cfg.MaxAttempts != 10 {
		t.Errorf("unexpected retry bound: %d", cfg.MaxAttempts)
	}
	if cfg.RetryDelay != 250*time.Millisecond {
		t.Errorf("unexpected retry delay: %s", cfg.RetryDelay)
	}
	// Keys absent from the file keep their defaults.
	if cfg.VersionLimit != 36 {
		t.Errorf("unexpected version limit: %d", cfg.VersionLimit)
	}
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	t.Parallel()

	_, _, err := Load(LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "nope.toml")})
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("CHREF_FLOOR_VERSION", "22.3")
	t.Setenv("CHREF_OUTPUT_DIR", "/tmp/site")

	cfg, _, err := Load(LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.FloorVersion != "22.3" {
		t.Errorf("unexpected floor version: %q", cfg.FloorVersion)
	}
	if cfg.OutputDir != "/tmp/site" {
		t.Errorf("unexpected output dir: %q", cfg.OutputDir)
	}
}

func TestLoad_RejectsInvalidRetryBounds(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte("max_attempts = 0\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, _, err := Load(LoadOptions{ConfigDirPath: dir}); err == nil {
		t.Fatal("expected error for zero retry bound")
	}
}

func TestGenerateTOML_RoundTrips(t *testing.T) {
	t.Parallel()

	out, err := GenerateTOML(DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"image_repository", "mutable_aliases", "max_attempts"} {
		if !strings.Contains(out, want) {
			t.Errorf("generated TOML missing %q:\n%s", want, out)
		}
	}
}
