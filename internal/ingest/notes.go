// Package ingest loads documents from local sources (note files, Firefox
// bookmarks) and indexes them into the knowledge store.
package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/secondbrainhq/secondbrain/internal/knowledge"
)

// LoadNotes loads all .txt and .md files under dir as documents.
// Files are returned in lexical path order so repeated runs produce the
// same chunk IDs. The document title is the file name without extension.
func LoadNotes(dir string) ([]knowledge.Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading notes directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("notes path %q is not a directory", dir)
	}

	var docs []knowledge.Document
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".md" {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading note %s: %w", path, err)
		}

		name := d.Name()
		docs = append(docs, knowledge.Document{
			Content:    string(content),
			Source:     path,
			Title:      strings.TrimSuffix(name, filepath.Ext(name)),
			SourceType: knowledge.SourceTypeNote,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking notes directory: %w", err)
	}

	return docs, nil
}
