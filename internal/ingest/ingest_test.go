package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ragnova/ragnova/internal/crawler"
	"github.com/ragnova/ragnova/internal/fingerprint"
	"github.com/ragnova/ragnova/internal/kb"
	"github.com/ragnova/ragnova/internal/loader"
	"github.com/ragnova/ragnova/internal/log"
)

type insertCall struct {
	chunks []kb.Chunk
	src    kb.Source
}

type fakeStore struct {
	fps       map[string]bool
	inserts   []insertCall
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{fps: make(map[string]bool)}
}

func (s *fakeStore) Exists(fp string) bool { return s.fps[fp] }

func (s *fakeStore) Insert(_ context.Context, chunks []kb.Chunk, src kb.Source) (string, error) {
	if s.insertErr != nil {
		return "", s.insertErr
	}
	s.fps[src.Fingerprint()] = true
	s.inserts = append(s.inserts, insertCall{chunks: chunks, src: src})
	return "doc-" + src.DisplayName, nil
}

type fakeCrawler struct {
	pages []crawler.Page
	err   error
}

func (c *fakeCrawler) Crawl(_ context.Context, _ string, _, _ int) ([]crawler.Page, error) {
	return c.pages, c.err
}

func newTestIngestor(cr Crawler) *Ingestor {
	ld := loader.New("", nil, log.NewNop())
	return New(ld, cr, 256, 32, log.NewNop())
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating parent dirs: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestAddFile(t *testing.T) {
	ing := newTestIngestor(nil)
	store := newFakeStore()
	path := writeFile(t, t.TempDir(), "notes.txt", "alpha beta gamma delta")

	docID, err := ing.AddFile(context.Background(), store, path)
	if err != nil {
		t.Fatalf("AddFile() error: %v", err)
	}
	if docID == "" {
		t.Fatal("AddFile() returned empty doc id")
	}

	if len(store.inserts) != 1 {
		t.Fatalf("got %d inserts, want 1", len(store.inserts))
	}
	call := store.inserts[0]
	if call.src.DisplayName != "notes.txt" {
		t.Errorf("display name = %q, want notes.txt", call.src.DisplayName)
	}
	if call.src.ContentHash == "" || call.src.SourceURL != "" {
		t.Errorf("file source must carry a content hash only, got %+v", call.src)
	}
	if call.src.SizeBytes != int64(len("alpha beta gamma delta")) {
		t.Errorf("size = %d, want file length", call.src.SizeBytes)
	}
	if len(call.chunks) == 0 {
		t.Error("no chunks inserted")
	}
}

func TestAddFile_Unsupported(t *testing.T) {
	ing := newTestIngestor(nil)
	path := writeFile(t, t.TempDir(), "image.png", "not really a png")

	_, err := ing.AddFile(context.Background(), newFakeStore(), path)
	if !errors.Is(err, loader.ErrUnsupportedFormat) {
		t.Errorf("AddFile() = %v, want ErrUnsupportedFormat", err)
	}
}

func TestAddFile_Duplicate(t *testing.T) {
	ing := newTestIngestor(nil)
	store := newFakeStore()
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "identical content")

	if _, err := ing.AddFile(context.Background(), store, path); err != nil {
		t.Fatalf("first AddFile() error: %v", err)
	}

	// Same bytes under a different name: the duplicate check is on content.
	renamed := writeFile(t, dir, "b.txt", "identical content")
	if _, err := ing.AddFile(context.Background(), store, renamed); !errors.Is(err, kb.ErrDuplicateDocument) {
		t.Errorf("second AddFile() = %v, want ErrDuplicateDocument", err)
	}
	if len(store.inserts) != 1 {
		t.Errorf("got %d inserts, want 1", len(store.inserts))
	}
}

func TestAddFile_Missing(t *testing.T) {
	ing := newTestIngestor(nil)
	if _, err := ing.AddFile(context.Background(), newFakeStore(), filepath.Join(t.TempDir(), "gone.txt")); err == nil {
		t.Error("AddFile() on a missing file must fail")
	}
}

func TestAddFile_EmptyFile(t *testing.T) {
	ing := newTestIngestor(nil)
	path := writeFile(t, t.TempDir(), "empty.txt", "")

	if _, err := ing.AddFile(context.Background(), newFakeStore(), path); err == nil {
		t.Error("AddFile() on a file with no text must fail")
	}
}

func TestAddFolder(t *testing.T) {
	ing := newTestIngestor(nil)
	store := newFakeStore()
	dir := t.TempDir()

	writeFile(t, dir, "one.txt", "first document body")
	writeFile(t, dir, "sub/two.md", "second document body")
	writeFile(t, dir, "image.png", "binary-ish")
	writeFile(t, dir, "ignored/secret.txt", "must not be ingested")
	writeFile(t, dir, ".gitignore", "ignored/\n")

	report, err := ing.AddFolder(context.Background(), store, dir)
	if err != nil {
		t.Fatalf("AddFolder() error: %v", err)
	}

	if report.Added != 2 {
		t.Errorf("added = %d, want 2; warnings: %v", report.Added, report.Warnings)
	}
	if report.Failed != 0 {
		t.Errorf("failed = %d, want 0; warnings: %v", report.Failed, report.Warnings)
	}

	var unsupportedWarned bool
	for _, w := range report.Warnings {
		if strings.Contains(w, "image.png") && strings.Contains(w, "unsupported") {
			unsupportedWarned = true
		}
		if strings.Contains(w, "secret.txt") {
			t.Errorf("ignored file leaked into the report: %q", w)
		}
	}
	if !unsupportedWarned {
		t.Errorf("no warning for the unsupported file, warnings: %v", report.Warnings)
	}
	for _, call := range store.inserts {
		if call.src.DisplayName == "secret.txt" {
			t.Error("gitignored file was ingested")
		}
	}
}

func TestAddFolder_IsolatesFailures(t *testing.T) {
	ing := newTestIngestor(nil)
	store := newFakeStore()
	dir := t.TempDir()

	writeFile(t, dir, "dup.txt", "already there")
	writeFile(t, dir, "fresh.txt", "new content here")
	store.fps[hashOf(t, "already there")] = true

	report, err := ing.AddFolder(context.Background(), store, dir)
	if err != nil {
		t.Fatalf("AddFolder() error: %v", err)
	}
	if report.Added != 1 {
		t.Errorf("added = %d, want 1", report.Added)
	}
	if report.Skipped != 1 {
		t.Errorf("skipped = %d, want 1; warnings: %v", report.Skipped, report.Warnings)
	}
}

func TestAddFolder_NotADirectory(t *testing.T) {
	ing := newTestIngestor(nil)
	path := writeFile(t, t.TempDir(), "plain.txt", "x")

	if _, err := ing.AddFolder(context.Background(), newFakeStore(), path); err == nil {
		t.Error("AddFolder() on a file must fail")
	}
}

func TestAddURL(t *testing.T) {
	cr := &fakeCrawler{pages: []crawler.Page{
		{URL: "https://example.com/a", Title: "Page A", Text: "alpha page body"},
		{URL: "https://example.com/b", Title: "Page B", Text: "beta page body"},
		{URL: "https://example.com/empty", Title: "Empty", Text: ""},
	}}
	ing := newTestIngestor(cr)
	store := newFakeStore()
	store.fps["https://example.com/b"] = true

	report, err := ing.AddURL(context.Background(), store, "https://example.com/a", 2, 10)
	if err != nil {
		t.Fatalf("AddURL() error: %v", err)
	}

	if report.Added != 1 {
		t.Errorf("added = %d, want 1; warnings: %v", report.Added, report.Warnings)
	}
	if report.Skipped != 2 {
		t.Errorf("skipped = %d, want 2 (dup + empty); warnings: %v", report.Skipped, report.Warnings)
	}

	if len(store.inserts) != 1 {
		t.Fatalf("got %d inserts, want 1", len(store.inserts))
	}
	src := store.inserts[0].src
	if src.SourceURL != "https://example.com/a" {
		t.Errorf("source URL = %q, want the normalized page URL", src.SourceURL)
	}
	if src.DisplayName != "Page A" {
		t.Errorf("display name = %q, want the page title", src.DisplayName)
	}
	if src.ContentHash != "" {
		t.Error("web source must not carry a content hash")
	}
	if src.CreatedAt.IsZero() {
		t.Error("web source must carry a creation time")
	}
}

func TestAddURL_WhitespaceOnlyPage(t *testing.T) {
	// Whitespace survives the crawler's empty-text check but chunks to
	// nothing; that is a skip, not a failure.
	cr := &fakeCrawler{pages: []crawler.Page{
		{URL: "https://example.com/blank", Title: "Blank", Text: "   \n\t  "},
	}}
	ing := newTestIngestor(cr)
	store := newFakeStore()

	report, err := ing.AddURL(context.Background(), store, "https://example.com/blank", 1, 10)
	if err != nil {
		t.Fatalf("AddURL() error: %v", err)
	}

	if report.Failed != 0 {
		t.Errorf("failed = %d, want 0; warnings: %v", report.Failed, report.Warnings)
	}
	if report.Skipped != 1 {
		t.Errorf("skipped = %d, want 1; warnings: %v", report.Skipped, report.Warnings)
	}
	if len(store.inserts) != 0 {
		t.Errorf("got %d inserts, want 0", len(store.inserts))
	}

	var warned bool
	for _, w := range report.Warnings {
		if strings.Contains(w, "no indexable text") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("no indexable-text warning, warnings: %v", report.Warnings)
	}
}

func TestAddURL_CrawlError(t *testing.T) {
	ing := newTestIngestor(&fakeCrawler{err: errors.New("invalid url")})
	if _, err := ing.AddURL(context.Background(), newFakeStore(), "nope", 1, 10); err == nil {
		t.Error("AddURL() must surface crawl setup errors")
	}
}

func TestAddURL_NoCrawler(t *testing.T) {
	ing := newTestIngestor(nil)
	if _, err := ing.AddURL(context.Background(), newFakeStore(), "https://example.com", 1, 10); err == nil {
		t.Error("AddURL() without a crawler must fail")
	}
}

func hashOf(t *testing.T, content string) string {
	t.Helper()
	return fingerprint.HashBytes([]byte(content))
}
