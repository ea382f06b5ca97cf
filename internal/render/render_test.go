// SPDX-License-Identifier: MPL-2.0

package render

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func renderFixture(t *testing.T) string {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}

	var buf bytes.Buffer
	err = r.Render(&buf, Page{
		Title:       "ClickHouse Function Reference",
		Header:      "ClickHouse Function Availability Reference",
		FeatureType: "function",
		Versions:    []string{"24.1", "24.2"},
		Availability: map[string][]string{
			"foo": {"24.1", "24.2"},
			"bar": {"24.2"},
		},
		Docs:        map[string]string{"foo": "https://example.com/docs#foo"},
		Aliases:     map[string]string{"bar": "foo"},
		GeneratedAt: time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("failed to render: %v", err)
	}
	return buf.String()
}

func TestRenderer_Render(t *testing.T) {
	t.Parallel()
	doc := renderFixture(t)

	for _, want := range []string{
		"<title>ClickHouse Function Reference</title>",
		"<h1>ClickHouse Function Availability Reference</h1>",
		`"foo": [`,
		`"24.1"`,
		`"bar": "foo"`,
		"https://example.com/docs#foo",
		`placeholder="Search for functions..."`,
		"last updated 2026-08-01 12:30",
		"settings.html",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}
}

func TestRenderer_EmbedsVersionOrder(t *testing.T) {
	t.Parallel()
	doc := renderFixture(t)

	// The version column order is the run order, not derived from the
	// availability object.
	i := strings.Index(doc, "var versions")
	if i < 0 {
		t.Fatal("rendered page missing versions array")
	}
	tail := doc[i:]
	if strings.Index(tail, `"24.1"`) > strings.Index(tail, `"24.2"`) {
		t.Error("expected versions in run order")
	}
}

func TestRenderer_EscapesFeatureText(t *testing.T) {
	t.Parallel()

	r, err := New()
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}

	var buf bytes.Buffer
	err = r.Render(&buf, Page{
		Title:        "<script>alert(1)</script>",
		FeatureType:  "function",
		Availability: map[string][]string{},
	})
	if err != nil {
		t.Fatalf("failed to render: %v", err)
	}
	if strings.Contains(buf.String(), "<script>alert(1)</script>") {
		t.Error("title must be HTML-escaped")
	}
}
