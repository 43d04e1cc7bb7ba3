// Package kb implements the per-(owner, name) knowledge base store: a
// persistent vector index plus a sidecar manifest holding document summaries
// and the fingerprint set for duplicate detection.
//
// Each knowledge base owns one directory under the data root, created lazily
// on first open and guarded against concurrent writers with a file lock.
// Mutations (insert, delete) on one store are serialized; similarity searches
// proceed without a lock.
package kb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/ragnova/ragnova/internal/log"
)

const chunksCollection = "chunks"

// Manager opens knowledge base stores under a single data root. Handles are
// cached per ID, so within one process there is never more than one writer
// for the same knowledge base.
type Manager struct {
	root   string
	embed  chromem.EmbeddingFunc
	logger log.Logger

	mu   sync.Mutex
	open map[ID]*Store
}

// NewManager creates a Manager rooted at dataDir.
func NewManager(dataDir string, embed chromem.EmbeddingFunc, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Manager{
		root:   dataDir,
		embed:  embed,
		logger: logger,
		open:   make(map[ID]*Store),
	}
}

// Open returns the store for id, creating its directory and index on first
// use. Open is idempotent: the same handle is returned for repeated calls
// with the same id.
func (m *Manager) Open(ctx context.Context, id ID) (*Store, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.open[id]; ok {
		return s, nil
	}

	dir := filepath.Join(m.root, id.dirName())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating knowledge base directory: %w", err)
	}

	// The directory is owned exclusively by this handle while open; a second
	// process opening the same (owner, name) for writing is refused.
	fl := flock.New(filepath.Join(dir, ".lock"))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking knowledge base directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrStoreBusy, id)
	}

	db, err := chromem.NewPersistentDB(filepath.Join(dir, "index"), false)
	if err != nil {
		_ = fl.Unlock()
		return nil, fmt.Errorf("opening vector index: %w", err)
	}

	collection, err := db.GetOrCreateCollection(chunksCollection, map[string]string{
		"owner": id.Owner,
		"name":  id.Name,
	}, m.embed)
	if err != nil {
		_ = fl.Unlock()
		return nil, fmt.Errorf("opening chunk collection: %w", err)
	}

	man, err := loadManifest(dir, id)
	if err != nil {
		_ = fl.Unlock()
		return nil, err
	}

	s := &Store{
		id:           id,
		dir:          dir,
		collection:   collection,
		lock:         fl,
		logger:       m.logger.With("kb", id.String()),
		manifest:     man,
		fingerprints: man.fingerprints(),
		inflight:     make(map[string]bool),
	}
	m.open[id] = s

	m.logger.Debug("opened knowledge base", "kb", id.String(), "documents", len(man.Documents))
	return s, nil
}

// List returns the IDs of every knowledge base under the data root, read from
// their manifests.
func (m *Manager) List() ([]ID, error) {
	entries, err := os.ReadDir(m.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading data root: %w", err)
	}

	var ids []ID
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		man, err := loadManifest(filepath.Join(m.root, e.Name()), ID{})
		if err != nil || man.Owner == "" || man.Name == "" {
			continue
		}
		ids = append(ids, ID{Owner: man.Owner, Name: man.Name})
	}

	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Owner != ids[j].Owner {
			return ids[i].Owner < ids[j].Owner
		}
		return ids[i].Name < ids[j].Name
	})
	return ids, nil
}

// Close releases the directory locks of every open store.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for id, s := range m.open {
		if err := s.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("unlocking %s: %w", id, err)
		}
		delete(m.open, id)
	}
	return firstErr
}

// Store is one open knowledge base. Safe for concurrent use: mutations are
// serialized by mu, searches read the index without a lock.
type Store struct {
	id         ID
	dir        string
	collection *chromem.Collection
	lock       *flock.Flock
	logger     log.Logger

	// mu guards manifest, fingerprints and inflight. It is deliberately not
	// held across embedding calls; inflight reserves a fingerprint while its
	// chunks are embedded outside the lock.
	mu           sync.Mutex
	manifest     *manifest
	fingerprints map[string]string
	inflight     map[string]bool
}

// ID returns the identity of this knowledge base.
func (s *Store) ID() ID { return s.id }

// Exists reports whether any document in this knowledge base carries the
// given fingerprint (content hash or source URL).
func (s *Store) Exists(fp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.fingerprints[fp]
	return ok
}

// Insert stores all chunks of one document in a single logical unit: a fresh
// doc_id is assigned, shared source metadata is stamped on every chunk, the
// chunks are embedded and written, and the manifest is persisted durably
// before Insert returns.
//
// Content whose fingerprint already exists is refused with
// ErrDuplicateDocument.
func (s *Store) Insert(ctx context.Context, chunks []Chunk, src Source) (string, error) {
	if err := src.validate(); err != nil {
		return "", err
	}
	if len(chunks) == 0 {
		return "", fmt.Errorf("no chunks to insert for %q", src.DisplayName)
	}

	fp := src.Fingerprint()

	s.mu.Lock()
	if _, dup := s.fingerprints[fp]; dup || s.inflight[fp] {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %q", ErrDuplicateDocument, src.DisplayName)
	}
	s.inflight[fp] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, fp)
		s.mu.Unlock()
	}()

	docID := uuid.NewString()
	uploadedAt := time.Now().UTC()

	docs := make([]chromem.Document, 0, len(chunks))
	chunkIDs := make([]string, 0, len(chunks))
	for i, c := range chunks {
		meta := make(map[string]string, len(c.Meta)+8)
		for k, v := range c.Meta {
			meta[k] = v
		}
		meta[MetaDocID] = docID
		meta[MetaFileName] = src.DisplayName
		meta[MetaSize] = strconv.FormatInt(src.SizeBytes, 10)
		meta[MetaCreationDate] = src.CreatedAt.UTC().Format(time.RFC3339)
		meta[MetaUploadDate] = uploadedAt.Format(time.RFC3339)
		meta[MetaChunkIndex] = strconv.Itoa(i)
		if src.ContentHash != "" {
			meta[MetaContentHash] = src.ContentHash
		} else {
			meta[MetaSourceURL] = src.SourceURL
		}
		if src.OriginPath != "" {
			meta[MetaOriginPath] = src.OriginPath
		}

		chunkID := fmt.Sprintf("%s-%04d", docID, i)
		chunkIDs = append(chunkIDs, chunkID)
		docs = append(docs, chromem.Document{
			ID:       chunkID,
			Content:  c.Text,
			Metadata: meta,
		})
	}

	// Embedding happens here, outside the store lock.
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		// Best effort: remove whatever partial chunks made it in.
		_ = s.collection.Delete(ctx, map[string]string{MetaDocID: docID}, nil)
		return "", fmt.Errorf("inserting chunks: %w", err)
	}

	entry := &documentEntry{
		DocID:       docID,
		DisplayName: src.DisplayName,
		Provenance:  src.provenance(),
		Fingerprint: fp,
		SizeBytes:   src.SizeBytes,
		CreatedAt:   src.CreatedAt.UTC(),
		UploadedAt:  uploadedAt,
		ChunkIDs:    chunkIDs,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifest.Documents[docID] = entry
	if err := s.manifest.save(s.dir); err != nil {
		delete(s.manifest.Documents, docID)
		_ = s.collection.Delete(ctx, map[string]string{MetaDocID: docID}, nil)
		return "", fmt.Errorf("persisting manifest: %w", err)
	}
	s.fingerprints[fp] = docID

	s.logger.Debug("inserted document",
		"doc_id", docID, "name", src.DisplayName, "chunks", len(chunkIDs))
	return docID, nil
}

// Delete removes every chunk carrying docID and verifies afterwards that none
// survive. On an incomplete deletion the manifest is left untouched and
// ErrDeletionIncomplete is returned; the document is never silently marked
// deleted.
func (s *Store) Delete(ctx context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.manifest.Documents[docID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDocument, docID)
	}

	if err := s.collection.Delete(ctx, nil, nil, entry.ChunkIDs...); err != nil {
		return fmt.Errorf("deleting chunks of %q: %w", docID, err)
	}

	// Read-after-delete check: every chunk ID must be gone.
	var survivors int
	for _, chunkID := range entry.ChunkIDs {
		if _, err := s.collection.GetByID(ctx, chunkID); err == nil {
			survivors++
		}
	}
	if survivors > 0 {
		return fmt.Errorf("%w: %d of %d chunks of %q survived",
			ErrDeletionIncomplete, survivors, len(entry.ChunkIDs), docID)
	}

	delete(s.manifest.Documents, docID)
	if err := s.manifest.save(s.dir); err != nil {
		s.manifest.Documents[docID] = entry
		return fmt.Errorf("persisting manifest: %w", err)
	}
	delete(s.fingerprints, entry.Fingerprint)

	s.logger.Debug("deleted document", "doc_id", docID, "name", entry.DisplayName)
	return nil
}

// ListDocuments returns one summary per distinct doc_id, ordered by upload
// time, then doc_id for stability.
func (s *Store) ListDocuments() []DocumentSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := make([]DocumentSummary, 0, len(s.manifest.Documents))
	for _, e := range s.manifest.Documents {
		summaries = append(summaries, DocumentSummary{
			DocID:       e.DocID,
			DisplayName: e.DisplayName,
			Provenance:  e.Provenance,
			SizeBytes:   e.SizeBytes,
			UploadedAt:  e.UploadedAt,
			Chunks:      len(e.ChunkIDs),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].UploadedAt.Equal(summaries[j].UploadedAt) {
			return summaries[i].UploadedAt.Before(summaries[j].UploadedAt)
		}
		return summaries[i].DocID < summaries[j].DocID
	})
	return summaries
}

// AllChunkTexts returns the text of every stored chunk. Used to build the
// retrieval-time entity graph; order is deterministic (chunk ID order within
// upload order).
func (s *Store) AllChunkTexts(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	entries := make([]*documentEntry, 0, len(s.manifest.Documents))
	for _, e := range s.manifest.Documents {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].UploadedAt.Equal(entries[j].UploadedAt) {
			return entries[i].UploadedAt.Before(entries[j].UploadedAt)
		}
		return entries[i].DocID < entries[j].DocID
	})

	var texts []string
	for _, e := range entries {
		for _, chunkID := range e.ChunkIDs {
			doc, err := s.collection.GetByID(ctx, chunkID)
			if err != nil {
				continue
			}
			texts = append(texts, doc.Content)
		}
	}
	return texts, nil
}

// Search runs a similarity query against the vector index. An empty store
// yields an empty result, not an error.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	n := cfg.topK
	if n > count {
		n = count
	}

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	hits, err := s.collection.Query(queryCtx, query, n, nil, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search timeout: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		meta := make(map[string]string, len(h.Metadata))
		for k, v := range h.Metadata {
			meta[k] = v
		}
		results = append(results, Result{
			Chunk:      Chunk{Text: h.Content, Meta: meta},
			Similarity: h.Similarity,
		})
	}
	return results, nil
}
