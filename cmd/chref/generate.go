// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/JosephRedfern/clickhouse-function-reference/internal/cache"
	"github.com/JosephRedfern/clickhouse-function-reference/internal/container"
	"github.com/JosephRedfern/clickhouse-function-reference/internal/docs"
	"github.com/JosephRedfern/clickhouse-function-reference/internal/fiddle"
	"github.com/JosephRedfern/clickhouse-function-reference/internal/instance"
	"github.com/JosephRedfern/clickhouse-function-reference/internal/introspect"
	"github.com/JosephRedfern/clickhouse-function-reference/internal/query"
	"github.com/JosephRedfern/clickhouse-function-reference/internal/render"

	"github.com/spf13/cobra"
)

var (
	// generate command flags
	remoteFlag bool
	outputDir  string
	floorFlag  string
	limitFlag  int

	generateCmd = &cobra.Command{
		Use:   "generate [version...]",
		Short: "Introspect versions and render the comparison tables",
		Long: `Introspect the given ClickHouse versions and render the comparison
table pages. Without arguments the published version tags are fetched
and filtered. Each version runs in its own container instance unless
--remote routes queries through fiddle.clickhouse.com.`,
		RunE: runGenerate,
	}
)

func init() {
	generateCmd.Flags().BoolVar(&remoteFlag, "remote", false, "query the hosted service instead of local containers")
	generateCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory for rendered pages (default from config)")
	generateCmd.Flags().StringVar(&floorFlag, "floor", "", "oldest version tag to include")
	generateCmd.Flags().IntVar(&limitFlag, "limit", 0, "maximum number of versions to process")
}

// pageMeta describes the rendered page for one query kind.
var pageMeta = map[introspect.Kind]struct {
	Filename    string
	Title       string
	Header      string
	FeatureType string
}{
	introspect.KindFunctions: {
		Filename:    "index.html",
		Title:       "ClickHouse Function Reference",
		Header:      "ClickHouse Function Availability Reference",
		FeatureType: "function",
	},
	introspect.KindKeywords: {
		Filename:    "keywords.html",
		Title:       "ClickHouse Keyword Reference",
		Header:      "ClickHouse Keyword Reference",
		FeatureType: "keyword",
	},
	introspect.KindSettings: {
		Filename:    "settings.html",
		Title:       "ClickHouse Setting Reference",
		Header:      "ClickHouse Setting Reference",
		FeatureType: "setting",
	},
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	remote := remoteFlag || cfg.Remote
	outDir := outputDir
	if outDir == "" {
		outDir = cfg.OutputDir
	}

	versions := args
	if len(versions) == 0 {
		resolved, err := resolveVersions(ctx)
		if err != nil {
			return err
		}
		versions = resolved
	}
	if len(versions) == 0 {
		return fmt.Errorf("no versions to process")
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runner, err := buildRunner(remote)
	if err != nil {
		return err
	}

	snap := introspect.NewOrchestrator(store, runner).Run(ctx, versions)
	for _, failure := range snap.Failures {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+
			fmt.Sprintf("no %s data for %s: %v", failure.Kind, failure.Version, failure.Err))
	}

	if err := renderPages(ctx, snap, store, outDir); err != nil {
		return err
	}

	fmt.Println(SuccessStyle.Render("✓") + fmt.Sprintf(" processed %d versions into %s", len(versions), outDir))
	return nil
}

// resolveVersions fetches the published tags and applies the configured filter.
func resolveVersions(ctx context.Context) ([]string, error) {
	client := fiddle.NewClient(fiddle.WithBaseURL(cfg.FiddleURL))
	tags, err := client.Tags(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving versions: %w", err)
	}

	opts := fiddle.DefaultFilterOptions()
	opts.MutableAliases = cfg.MutableAliases
	opts.FloorVersion = cfg.FloorVersion
	opts.Limit = cfg.VersionLimit
	if floorFlag != "" {
		opts.FloorVersion = floorFlag
	}
	if limitFlag > 0 {
		opts.Limit = limitFlag
	}

	return fiddle.FilterTags(tags, opts), nil
}

// openStore opens the result cache, distrusting entries for mutable aliases.
func openStore() (*cache.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.CachePath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	store, err := cache.Open(cfg.CachePath,
		cache.WithValidator(cache.DenyMutableAliases(cfg.MutableAliases...)))
	if err != nil {
		return nil, err
	}
	return store, nil
}

// buildRunner selects the execution mode. Mode is fixed for the whole run.
func buildRunner(remote bool) (introspect.Runner, error) {
	if remote {
		slog.Debug("using remote execution", "service", cfg.FiddleURL)
		return introspect.NewRemoteRunner(fiddle.NewClient(fiddle.WithBaseURL(cfg.FiddleURL))), nil
	}

	engine, err := selectEngine()
	if err != nil {
		return nil, err
	}
	slog.Debug("using local execution", "engine", engine.Name())

	manager := instance.NewManager(engine, instance.WithImageRepository(cfg.ImageRepository))
	executor := query.NewExecutor(engine,
		query.WithMaxAttempts(cfg.MaxAttempts),
		query.WithDelay(cfg.RetryDelay))
	return introspect.NewLocalRunner(manager, executor, nil), nil
}

func selectEngine() (container.Engine, error) {
	if cfg.ContainerEngine == "" {
		return container.AutoDetectEngine()
	}
	return container.NewEngine(container.EngineType(cfg.ContainerEngine))
}

// renderPages writes one comparison table page per query kind.
func renderPages(ctx context.Context, snap *introspect.Snapshot, store *cache.Store, outDir string) error {
	renderer, err := render.New()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	resolver := docs.NewResolver(docs.WithStore(store))
	now := time.Now()

	// Pages render in pipeline query order, keeping output and logs stable
	// across runs.
	for _, kind := range introspect.Kinds() {
		meta := pageMeta[kind]
		idx := introspect.Aggregate(snap.Results[kind], snap.Versions)

		// Only functions have documentation pages to deep-link into.
		var links map[string]string
		if kind == introspect.KindFunctions {
			links, err = resolver.ResolveAll(ctx, idx.Features)
			if err != nil {
				slog.Warn("documentation resolution failed, rendering without links", "error", err)
				links = nil
			}
		}

		path := filepath.Join(outDir, meta.Filename)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}

		page := render.Page{
			Title:        meta.Title,
			Header:       meta.Header,
			FeatureType:  meta.FeatureType,
			Versions:     snap.Versions,
			Availability: idx.Availability,
			Docs:         links,
			Aliases:      idx.Aliases,
			GeneratedAt:  now,
		}
		if err := renderer.Render(f, page); err != nil {
			_ = f.Close()
			return fmt.Errorf("rendering %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		slog.Info("page rendered", "path", path, "features", len(idx.Features))
	}

	return nil
}
