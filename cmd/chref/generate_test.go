// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JosephRedfern/clickhouse-function-reference/internal/cache"
	"github.com/JosephRedfern/clickhouse-function-reference/internal/introspect"
)

func TestRenderPages_WritesPagesInPipelineOrder(t *testing.T) {
	outDir := t.TempDir()

	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	var logBuf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logBuf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	snap := &introspect.Snapshot{
		Versions: []string{"24.1"},
		Results: map[introspect.Kind]map[string][]introspect.Record{
			introspect.KindFunctions: {},
			introspect.KindKeywords:  {},
			introspect.KindSettings:  {},
		},
	}

	if err := renderPages(context.Background(), snap, store, outDir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"index.html", "keywords.html", "settings.html"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected %s to be written: %v", name, err)
		}
	}

	// Pages come out in the pipeline's query order on every run.
	logs := logBuf.String()
	idxPos := strings.Index(logs, "index.html")
	kwPos := strings.Index(logs, "keywords.html")
	setPos := strings.Index(logs, "settings.html")
	if idxPos < 0 || kwPos < 0 || setPos < 0 {
		t.Fatalf("expected a render log line per page, got:\n%s", logs)
	}
	if !(idxPos < kwPos && kwPos < setPos) {
		t.Errorf("expected pages rendered in functions, keywords, settings order, got:\n%s", logs)
	}
}
