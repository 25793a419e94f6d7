package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/secondbrainhq/secondbrain/internal/knowledge"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Understanding Go Slices</title></head>
<body>
<article>
<h1>Understanding Go Slices</h1>
<p>Slices are a key data type in Go, giving a more powerful interface to
sequences than arrays. A slice is a descriptor of an array segment with a
pointer, a length, and a capacity.</p>
<p>The length is the number of elements referred to by the slice. The
capacity is the number of elements in the underlying array, counting from
the element referred to by the slice pointer.</p>
</article>
</body>
</html>`

func newTestFetcher() *Fetcher {
	return NewFetcher(FetchConfig{
		Parallelism: 2,
		Delay:       time.Millisecond,
		Timeout:     5 * time.Second,
	}, nil)
}

func TestExtractReadableText(t *testing.T) {
	f := newTestFetcher()
	u, _ := url.Parse("https://example.com/go-slices")

	text, title := f.extract([]byte(articleHTML), u)
	if !strings.Contains(text, "descriptor of an array segment") {
		t.Errorf("extracted text missing article body: %q", text)
	}
	if strings.Contains(text, "<p>") {
		t.Error("extracted text contains HTML tags")
	}
	if title == "" {
		t.Error("expected a title from the page")
	}
}

func TestExtractTruncates(t *testing.T) {
	f := NewFetcher(FetchConfig{MaxPageLength: 50}, nil)
	u, _ := url.Parse("https://example.com/long")

	text, _ := f.extract([]byte(articleHTML), u)
	if len(text) > 50 {
		t.Errorf("text length = %d, want <= 50", len(text))
	}
}

func TestFetchAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/article":
			w.Write([]byte(articleHTML))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	records := []BookmarkRecord{
		{URL: srv.URL + "/article", Title: "Go Slices", DateAdded: 100},
		{URL: srv.URL + "/missing", Title: "Gone", DateAdded: 200},
	}

	docs := newTestFetcher().FetchAll(context.Background(), records)
	if len(docs) != 1 {
		t.Fatalf("FetchAll() returned %d documents, want 1", len(docs))
	}

	doc := docs[0]
	if doc.SourceType != knowledge.SourceTypeBookmark {
		t.Errorf("source type = %q", doc.SourceType)
	}
	if doc.URL != records[0].URL || doc.Source != records[0].URL {
		t.Errorf("document source/URL = %q/%q", doc.Source, doc.URL)
	}
	if doc.Title != "Go Slices" {
		t.Errorf("title = %q, want the bookmark title", doc.Title)
	}
	if !strings.Contains(doc.Content, "descriptor of an array segment") {
		t.Errorf("content missing article text: %q", doc.Content)
	}
}

func TestFetchAllUsesPageTitleFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	// Untitled bookmarks carry their URL as title; the page title wins.
	records := []BookmarkRecord{{URL: srv.URL + "/article", Title: srv.URL + "/article"}}

	docs := newTestFetcher().FetchAll(context.Background(), records)
	if len(docs) != 1 {
		t.Fatalf("FetchAll() returned %d documents, want 1", len(docs))
	}
	if !strings.Contains(docs[0].Title, "Go Slices") {
		t.Errorf("title = %q, want the page title", docs[0].Title)
	}
}

func TestFetchAllEmptyInput(t *testing.T) {
	if docs := newTestFetcher().FetchAll(context.Background(), nil); docs != nil {
		t.Errorf("FetchAll(nil) = %v, want nil", docs)
	}
}
