package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/secondbrainhq/secondbrain/internal/knowledge"
)

// renderMarkdown converts markdown to styled terminal output, falling back
// to the raw text when rendering fails.
func renderMarkdown(markdown string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return markdown
	}
	rendered, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimSuffix(rendered, "\n")
}

// formatSources renders a deduplicated citation footer:
//
//	Sources:
//	  - data/notes/project_alpha.txt
//	  - https://example.com/page
//
// Returns the empty string when there are no sources.
func formatSources(results []knowledge.SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	seen := make(map[string]bool, len(results))
	var lines []string
	for _, res := range results {
		ref := res.Chunk.Source
		if res.Chunk.URL != "" {
			ref = res.Chunk.URL
		}
		if seen[ref] {
			continue
		}
		seen[ref] = true
		lines = append(lines, fmt.Sprintf("  - %s", ref))
	}

	return "Sources:\n" + strings.Join(lines, "\n")
}
