// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for chref.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JosephRedfern/clickhouse-function-reference/internal/config"

	"github.com/charmbracelet/fang"
	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug logging
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// cfg is the effective configuration, loaded before any command runs.
	cfg *config.Config

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "chref",
		Short: "ClickHouse feature availability reference generator",
		Long: TitleStyle.Render("chref") + SubtitleStyle.Render(" - ClickHouse feature availability reference generator") + `

chref provisions one ClickHouse container per version tag, introspects
its functions, keywords, and settings, and renders comparison tables
showing in which versions each feature is available. Results are cached
on disk so repeated runs do not re-pay the cost of spinning up dozens
of server instances.

` + SubtitleStyle.Render("Examples:") + `
  chref generate                Process the published version tags
  chref generate 24.1 24.2      Process specific versions
  chref generate --remote       Query fiddle.clickhouse.com instead of
                                local containers
  chref tags                    List the version tags that would be used
  chref config show             Show the effective configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/chref/config.toml)")

	// Add subcommands
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// initRootConfig loads configuration and installs the log handler.
func initRootConfig() {
	level := charmlog.InfoLevel
	if verbose {
		level = charmlog.DebugLevel
	}
	handler := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	slog.SetDefault(slog.New(handler))

	loaded, resolved, err := config.Load(config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
	cfg = loaded

	if resolved != "" {
		slog.Debug("configuration loaded", "path", resolved)
	}
}
