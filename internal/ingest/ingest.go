// Package ingest feeds documents into knowledge bases. It ties together
// extraction, chunking and crawling, computes fingerprints, and refuses
// duplicates before any expensive work happens.
//
// Batch operations (folders, crawls) isolate failures per item: one bad file
// never aborts the rest, it becomes a warning in the report.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/ragnova/ragnova/internal/chunker"
	"github.com/ragnova/ragnova/internal/crawler"
	"github.com/ragnova/ragnova/internal/fingerprint"
	"github.com/ragnova/ragnova/internal/kb"
	"github.com/ragnova/ragnova/internal/loader"
	"github.com/ragnova/ragnova/internal/log"
)

const ignoreFile = ".gitignore"

// DocumentLoader extracts text sections from local files.
type DocumentLoader interface {
	Load(ctx context.Context, path string) ([]loader.Section, error)
	Supported(path string) bool
}

// Crawler fetches pages starting from a URL.
type Crawler interface {
	Crawl(ctx context.Context, startURL string, maxDepth, maxPages int) ([]crawler.Page, error)
}

// Store is the slice of the knowledge base ingestion writes to.
type Store interface {
	Exists(fp string) bool
	Insert(ctx context.Context, chunks []kb.Chunk, src kb.Source) (string, error)
}

// Report summarizes a batch ingestion.
type Report struct {
	Added    int
	Skipped  int
	Failed   int
	Warnings []string
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Ingestor runs ingestions with fixed chunking parameters.
type Ingestor struct {
	loader       DocumentLoader
	crawler      Crawler
	chunkSize    int
	chunkOverlap int
	logger       log.Logger
}

// New creates an Ingestor. crawler may be nil if web ingestion is unused.
func New(dl DocumentLoader, cr Crawler, chunkSize, chunkOverlap int, logger log.Logger) *Ingestor {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Ingestor{
		loader:       dl,
		crawler:      cr,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}
}

// AddFile ingests a single local file and returns the assigned doc_id.
// Unsupported formats fail with loader.ErrUnsupportedFormat, already-present
// content with kb.ErrDuplicateDocument.
func (ing *Ingestor) AddFile(ctx context.Context, store Store, path string) (string, error) {
	if !ing.loader.Supported(path) {
		return "", fmt.Errorf("%w: %q", loader.ErrUnsupportedFormat, filepath.Ext(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %q: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %q: %w", path, err)
	}
	hash, err := fingerprint.HashReader(f)
	closeErr := f.Close()
	if err != nil {
		return "", fmt.Errorf("hashing %q: %w", path, err)
	}
	if closeErr != nil {
		return "", fmt.Errorf("closing %q: %w", path, closeErr)
	}

	if store.Exists(hash) {
		return "", fmt.Errorf("%w: %q", kb.ErrDuplicateDocument, filepath.Base(path))
	}

	sections, err := ing.loader.Load(ctx, path)
	if err != nil {
		return "", err
	}

	chunks, err := ing.chunkSections(sections)
	if err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("no text extracted from %q", path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	docID, err := store.Insert(ctx, chunks, kb.Source{
		DisplayName: filepath.Base(path),
		ContentHash: hash,
		SizeBytes:   info.Size(),
		CreatedAt:   info.ModTime(),
		OriginPath:  absPath,
	})
	if err != nil {
		return "", err
	}

	ing.logger.Info("file ingested", "path", path, "doc_id", docID, "chunks", len(chunks))
	return docID, nil
}

// AddFolder walks dir and ingests every supported file. A .gitignore at the
// folder root is honored. Unsupported files, duplicates and per-file failures
// are reported as warnings, never as an error.
func (ing *Ingestor) AddFolder(ctx context.Context, store Store, dir string) (*Report, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", dir)
	}

	var ignore *gitignore.GitIgnore
	if compiled, err := gitignore.CompileIgnoreFile(filepath.Join(dir, ignoreFile)); err == nil {
		ignore = compiled
	}

	report := &Report{}
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			report.Failed++
			report.warnf("walking %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}
		if ignore != nil && rel != "." && ignore.MatchesPath(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			report.Skipped++
			return nil
		}
		if d.IsDir() || filepath.Base(path) == ignoreFile {
			return nil
		}

		if !ing.loader.Supported(path) {
			report.Skipped++
			report.warnf("skipping %s: unsupported format", rel)
			return nil
		}

		switch _, err := ing.AddFile(ctx, store, path); {
		case err == nil:
			report.Added++
		case isSkip(err):
			report.Skipped++
			report.warnf("skipping %s: %v", rel, err)
		default:
			report.Failed++
			report.warnf("ingesting %s: %v", rel, err)
		}
		return nil
	})
	if walkErr != nil {
		return report, walkErr
	}

	ing.logger.Info("folder ingested", "dir", dir,
		"added", report.Added, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

// AddURL crawls from startURL and ingests one document per fetched page,
// keyed by the page's normalized URL. Pages already present are skipped with
// a warning.
func (ing *Ingestor) AddURL(ctx context.Context, store Store, startURL string, maxDepth, maxPages int) (*Report, error) {
	if ing.crawler == nil {
		return nil, fmt.Errorf("web ingestion is not configured")
	}

	pages, err := ing.crawler.Crawl(ctx, startURL, maxDepth, maxPages)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		urlKey := fingerprint.URLKey(page.URL)
		if store.Exists(urlKey) {
			report.Skipped++
			report.warnf("skipping %s: already present", page.URL)
			continue
		}
		if page.Text == "" {
			report.Skipped++
			report.warnf("skipping %s: no extractable text", page.URL)
			continue
		}

		chunks, err := ing.chunkSections([]loader.Section{{
			Text: page.Text,
			Meta: map[string]string{"format": "web", "title": page.Title},
		}})
		if err != nil {
			report.Failed++
			report.warnf("chunking %s: %v", page.URL, err)
			continue
		}
		if len(chunks) == 0 {
			report.Skipped++
			report.warnf("skipping %s: no indexable text", page.URL)
			continue
		}

		name := page.Title
		if name == "" {
			name = page.URL
		}
		if _, err := store.Insert(ctx, chunks, kb.Source{
			DisplayName: name,
			SourceURL:   urlKey,
			SizeBytes:   int64(len(page.Text)),
			CreatedAt:   time.Now(),
		}); err != nil {
			if isSkip(err) {
				report.Skipped++
			} else {
				report.Failed++
			}
			report.warnf("ingesting %s: %v", page.URL, err)
			continue
		}
		report.Added++
	}

	ing.logger.Info("crawl ingested", "start", startURL,
		"added", report.Added, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

// chunkSections splits every section and carries its metadata onto the
// resulting chunks. Empty sections contribute nothing.
func (ing *Ingestor) chunkSections(sections []loader.Section) ([]kb.Chunk, error) {
	var chunks []kb.Chunk
	for _, sec := range sections {
		parts, err := chunker.Split(sec.Text, ing.chunkSize, ing.chunkOverlap)
		if err != nil {
			return nil, fmt.Errorf("chunking: %w", err)
		}
		for _, p := range parts {
			meta := make(map[string]string, len(sec.Meta))
			for k, v := range sec.Meta {
				meta[k] = v
			}
			chunks = append(chunks, kb.Chunk{Text: p, Meta: meta})
		}
	}
	return chunks, nil
}

func isSkip(err error) bool {
	return errors.Is(err, kb.ErrDuplicateDocument) || errors.Is(err, loader.ErrUnsupportedFormat)
}
