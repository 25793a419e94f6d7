package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/secondbrainhq/secondbrain/internal/knowledge"
)

func writeNote(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
}

func TestLoadNotes(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "beta.md", "markdown note")
	writeNote(t, dir, "alpha.txt", "plain note")
	writeNote(t, dir, "ignored.pdf", "binary")

	docs, err := LoadNotes(dir)
	if err != nil {
		t.Fatalf("LoadNotes() error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("LoadNotes() returned %d documents, want 2", len(docs))
	}

	// Lexical order: alpha.txt before beta.md.
	if docs[0].Title != "alpha" || docs[1].Title != "beta" {
		t.Errorf("titles = %q, %q", docs[0].Title, docs[1].Title)
	}
	if docs[0].Content != "plain note" {
		t.Errorf("content = %q", docs[0].Content)
	}
	if docs[0].SourceType != knowledge.SourceTypeNote {
		t.Errorf("source type = %q", docs[0].SourceType)
	}
	if docs[0].Source != filepath.Join(dir, "alpha.txt") {
		t.Errorf("source = %q", docs[0].Source)
	}
	if docs[0].URL != "" {
		t.Errorf("notes must not carry a URL, got %q", docs[0].URL)
	}
}

func TestLoadNotesRecursesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "projects")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeNote(t, sub, "alpha.txt", "nested note")

	docs, err := LoadNotes(dir)
	if err != nil {
		t.Fatalf("LoadNotes() error: %v", err)
	}
	if len(docs) != 1 || docs[0].Content != "nested note" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestLoadNotesMissingDirectory(t *testing.T) {
	if _, err := LoadNotes(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("LoadNotes() should fail for a missing directory")
	}
}
