package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/secondbrainhq/secondbrain/internal/knowledge"
	"github.com/secondbrainhq/secondbrain/internal/log"
)

// BookmarkRecord is a raw bookmark row from Firefox's places database.
type BookmarkRecord struct {
	URL       string
	Title     string
	DateAdded int64 // microseconds since epoch
}

// Firefox stores bookmarks as rows of type 1 in moz_bookmarks; place: and
// about: URLs are internal queries, not user bookmarks.
const bookmarksSQL = `
	SELECT p.url, IFNULL(b.title, ''), b.dateAdded
	FROM moz_bookmarks b
	JOIN moz_places p ON b.fk = p.id
	WHERE b.type = 1
	  AND p.url NOT LIKE 'place:%'
	  AND p.url NOT LIKE 'about:%'
	  AND b.dateAdded > ?
	ORDER BY b.dateAdded`

// FindFirefoxProfile auto-detects the default Firefox profile directory
// for the current OS. It prefers profiles named *.default or
// *.default-release, falling back to any profile containing a
// places.sqlite. Returns an empty string when no profile is found.
func FindFirefoxProfile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	var profilesDir string
	switch runtime.GOOS {
	case "darwin":
		profilesDir = filepath.Join(home, "Library", "Application Support", "Firefox", "Profiles")
	case "linux":
		profilesDir = filepath.Join(home, ".mozilla", "firefox")
	case "windows":
		profilesDir = filepath.Join(home, "AppData", "Roaming", "Mozilla", "Firefox", "Profiles")
	default:
		return ""
	}

	entries, err := os.ReadDir(profilesDir)
	if err != nil {
		return ""
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var fallback string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(profilesDir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, "places.sqlite")); err != nil {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".default") || strings.HasSuffix(entry.Name(), ".default-release") {
			return dir
		}
		if fallback == "" {
			fallback = dir
		}
	}
	return fallback
}

// ReadBookmarks reads bookmarks added after since (microseconds since
// epoch; 0 returns all) from the Firefox profile at profileDir.
//
// Firefox holds a lock on places.sqlite while running, so the database is
// copied to a temp file before querying.
func ReadBookmarks(ctx context.Context, profileDir string, since int64) ([]BookmarkRecord, error) {
	placesDB := profileDir
	if filepath.Base(profileDir) != "places.sqlite" {
		placesDB = filepath.Join(profileDir, "places.sqlite")
	}
	if _, err := os.Stat(placesDB); err != nil {
		return nil, fmt.Errorf("locating places.sqlite: %w", err)
	}

	tmpPath, err := copyToTemp(placesDB)
	if err != nil {
		return nil, fmt.Errorf("copying places.sqlite: %w", err)
	}
	defer os.Remove(tmpPath)

	return queryBookmarks(ctx, tmpPath, since)
}

func copyToTemp(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "places-*.sqlite")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func queryBookmarks(ctx context.Context, dbPath string, since int64) ([]BookmarkRecord, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening bookmarks database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, bookmarksSQL, since)
	if err != nil {
		return nil, fmt.Errorf("querying bookmarks: %w", err)
	}
	defer rows.Close()

	var records []BookmarkRecord
	for rows.Next() {
		var rec BookmarkRecord
		if err := rows.Scan(&rec.URL, &rec.Title, &rec.DateAdded); err != nil {
			return nil, fmt.Errorf("scanning bookmark row: %w", err)
		}
		if rec.Title == "" {
			rec.Title = rec.URL
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bookmark rows: %w", err)
	}

	return records, nil
}

// BookmarkSyncer loads new Firefox bookmarks incrementally. It tracks the
// highest dateAdded seen in a sync-state file so each run only processes
// bookmarks added since the previous one.
type BookmarkSyncer struct {
	profileDir string // empty = auto-detect
	state      *SyncState
	fetcher    *Fetcher
	logger     log.Logger
}

// NewBookmarkSyncer creates a bookmark syncer.
func NewBookmarkSyncer(profileDir string, state *SyncState, fetcher *Fetcher, logger log.Logger) (*BookmarkSyncer, error) {
	if state == nil {
		return nil, fmt.Errorf("sync state is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &BookmarkSyncer{profileDir: profileDir, state: state, fetcher: fetcher, logger: logger}, nil
}

// Sync reads bookmarks added since the last sync, fetches their page
// content, and advances the sync state. Bookmarks whose pages cannot be
// fetched are skipped but still advance the state; they are not retried.
func (s *BookmarkSyncer) Sync(ctx context.Context) ([]knowledge.Document, error) {
	profileDir := s.profileDir
	if profileDir == "" {
		profileDir = FindFirefoxProfile()
		if profileDir == "" {
			s.logger.Info("no Firefox profile found, skipping bookmark sync")
			return nil, nil
		}
	}

	lastSync, err := s.state.Load()
	if err != nil {
		return nil, fmt.Errorf("loading sync state: %w", err)
	}

	records, err := ReadBookmarks(ctx, profileDir, lastSync)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		s.logger.Info("no new bookmarks since last sync")
		return nil, nil
	}
	s.logger.Info("syncing bookmarks", "count", len(records))

	docs := s.fetcher.FetchAll(ctx, records)

	maxTimestamp := lastSync
	for _, rec := range records {
		if rec.DateAdded > maxTimestamp {
			maxTimestamp = rec.DateAdded
		}
	}
	if maxTimestamp > lastSync {
		if err := s.state.Save(maxTimestamp); err != nil {
			return nil, fmt.Errorf("saving sync state: %w", err)
		}
	}

	s.logger.Info("bookmark sync complete", "documents", len(docs), "skipped", len(records)-len(docs))
	return docs, nil
}
