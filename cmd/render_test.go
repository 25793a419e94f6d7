package cmd

import (
	"strings"
	"testing"

	"github.com/secondbrainhq/secondbrain/internal/knowledge"
)

func TestFormatSourcesEmpty(t *testing.T) {
	if got := formatSources(nil); got != "" {
		t.Errorf("formatSources(nil) = %q, want empty", got)
	}
}

func TestFormatSourcesDeduplicates(t *testing.T) {
	results := []knowledge.SearchResult{
		{Chunk: knowledge.Chunk{Source: "data/notes/project_alpha.txt", SourceType: knowledge.SourceTypeNote}},
		{Chunk: knowledge.Chunk{Source: "data/notes/project_alpha.txt", SourceType: knowledge.SourceTypeNote}},
		{Chunk: knowledge.Chunk{
			Source:     "https://example.com/page",
			SourceType: knowledge.SourceTypeBookmark,
			URL:        "https://example.com/page",
		}},
	}

	footer := formatSources(results)
	if !strings.HasPrefix(footer, "Sources:\n") {
		t.Errorf("footer = %q", footer)
	}
	if strings.Count(footer, "project_alpha.txt") != 1 {
		t.Error("duplicate sources must collapse to one line")
	}
	if !strings.Contains(footer, "  - https://example.com/page") {
		t.Errorf("footer missing bookmark URL: %q", footer)
	}
}

func TestFormatSourcesPrefersURL(t *testing.T) {
	results := []knowledge.SearchResult{
		{Chunk: knowledge.Chunk{
			Source:     "https://example.com/article",
			SourceType: knowledge.SourceTypeBookmark,
			URL:        "https://example.com/article",
		}},
	}

	footer := formatSources(results)
	if !strings.Contains(footer, "https://example.com/article") {
		t.Errorf("footer = %q", footer)
	}
}
