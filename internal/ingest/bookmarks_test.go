package ingest

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

// newPlacesDB creates a minimal Firefox places.sqlite fixture.
func newPlacesDB(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "places.sqlite")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("opening fixture database: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE moz_places (id INTEGER PRIMARY KEY, url TEXT)`,
		`CREATE TABLE moz_bookmarks (id INTEGER PRIMARY KEY, type INTEGER, fk INTEGER, title TEXT, dateAdded INTEGER)`,
		`INSERT INTO moz_places (id, url) VALUES
			(1, 'https://go.dev/blog/slices'),
			(2, 'https://example.com/article'),
			(3, 'place:type=6&sort=14'),
			(4, 'about:config')`,
		`INSERT INTO moz_bookmarks (type, fk, title, dateAdded) VALUES
			(1, 1, 'Go Slices', 100),
			(1, 2, NULL, 200),
			(1, 3, 'Internal Query', 300),
			(1, 4, 'About Config', 400),
			(2, 1, 'A Folder', 500)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("executing fixture statement: %v", err)
		}
	}
	return path
}

func TestReadBookmarks(t *testing.T) {
	dir := t.TempDir()
	newPlacesDB(t, dir)

	records, err := ReadBookmarks(context.Background(), dir, 0)
	if err != nil {
		t.Fatalf("ReadBookmarks() error: %v", err)
	}

	// Folders and place:/about: URLs are filtered out.
	if len(records) != 2 {
		t.Fatalf("ReadBookmarks() returned %d records, want 2: %+v", len(records), records)
	}
	if records[0].URL != "https://go.dev/blog/slices" || records[0].Title != "Go Slices" {
		t.Errorf("first record = %+v", records[0])
	}
	// NULL titles fall back to the URL.
	if records[1].Title != "https://example.com/article" {
		t.Errorf("untitled bookmark title = %q, want the URL", records[1].Title)
	}
	// Ordered by dateAdded ascending.
	if records[0].DateAdded >= records[1].DateAdded {
		t.Errorf("records not ordered by dateAdded: %+v", records)
	}
}

func TestReadBookmarksSince(t *testing.T) {
	dir := t.TempDir()
	newPlacesDB(t, dir)

	records, err := ReadBookmarks(context.Background(), dir, 100)
	if err != nil {
		t.Fatalf("ReadBookmarks() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("ReadBookmarks(since=100) returned %d records, want 1", len(records))
	}
	if records[0].DateAdded != 200 {
		t.Errorf("record = %+v", records[0])
	}
}

func TestReadBookmarksAcceptsDirectDBPath(t *testing.T) {
	dir := t.TempDir()
	path := newPlacesDB(t, dir)

	records, err := ReadBookmarks(context.Background(), path, 0)
	if err != nil {
		t.Fatalf("ReadBookmarks() error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("ReadBookmarks() returned %d records, want 2", len(records))
	}
}

func TestReadBookmarksMissingDB(t *testing.T) {
	if _, err := ReadBookmarks(context.Background(), t.TempDir(), 0); err == nil {
		t.Error("ReadBookmarks() should fail without places.sqlite")
	}
}

func TestReadBookmarksLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	newPlacesDB(t, dir)

	tmpDir := t.TempDir()
	t.Setenv("TMPDIR", tmpDir)

	if _, err := ReadBookmarks(context.Background(), dir, 0); err != nil {
		t.Fatalf("ReadBookmarks() error: %v", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp copies left behind: %v", entries)
	}
}
