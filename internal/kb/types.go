package kb

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrDuplicateDocument indicates content whose fingerprint is already
	// present in this knowledge base. Callers skip with a warning; the store
	// never silently overwrites.
	ErrDuplicateDocument = errors.New("document already present in knowledge base")

	// ErrDeletionIncomplete indicates the read-after-delete check found
	// surviving chunks. Store state is left as-is, never marked deleted.
	ErrDeletionIncomplete = errors.New("deletion left chunks behind")

	// ErrUnknownDocument indicates a doc_id with no chunks in this store.
	ErrUnknownDocument = errors.New("unknown document")

	// ErrStoreBusy indicates the knowledge base directory is locked by
	// another writer.
	ErrStoreBusy = errors.New("knowledge base is open for writing elsewhere")

	// ErrInvalidID indicates an empty owner or name.
	ErrInvalidID = errors.New("invalid knowledge base id")
)

// Metadata keys stamped on every stored chunk. All chunks of one ingested
// source share the same doc_id; exactly one of content_hash/source_url is set
// and identifies the provenance class.
const (
	MetaDocID        = "doc_id"
	MetaFileName     = "file_name"
	MetaSize         = "size"
	MetaCreationDate = "creation_date"
	MetaUploadDate   = "upload_date"
	MetaContentHash  = "content_hash"
	MetaSourceURL    = "source_url"
	MetaOriginPath   = "origin_path"
	MetaChunkIndex   = "chunk"
)

// Provenance classes for document summaries.
const (
	ProvenanceFile = "file"
	ProvenanceWeb  = "web"
)

// ID identifies a knowledge base by owner and name. It is the only type the
// store maps to a storage path; call sites never build paths themselves.
type ID struct {
	Owner string
	Name  string
}

// Validate rejects IDs that cannot name a storage directory.
func (id ID) Validate() error {
	if strings.TrimSpace(id.Owner) == "" || strings.TrimSpace(id.Name) == "" {
		return fmt.Errorf("%w: owner=%q name=%q", ErrInvalidID, id.Owner, id.Name)
	}
	return nil
}

func (id ID) String() string {
	return id.Owner + "/" + id.Name
}

// dirName returns the storage directory name for this knowledge base.
// Owner and name are sanitized so they can never traverse outside the data
// root.
func (id ID) dirName() string {
	return "kb_" + sanitize(id.Owner) + "_" + sanitize(id.Name)
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

// Chunk is the unit of storage and retrieval: a bounded span of text plus
// provenance metadata.
type Chunk struct {
	Text string
	Meta map[string]string
}

// Source describes the ingested origin shared by all chunks of one document.
// Exactly one of ContentHash (local files) or SourceURL (web content) must be
// set.
type Source struct {
	DisplayName string
	ContentHash string
	SourceURL   string
	SizeBytes   int64
	CreatedAt   time.Time
	OriginPath  string
}

// Fingerprint returns the duplicate-detection identity of the source.
func (s Source) Fingerprint() string {
	if s.ContentHash != "" {
		return s.ContentHash
	}
	return s.SourceURL
}

func (s Source) validate() error {
	if (s.ContentHash == "") == (s.SourceURL == "") {
		return fmt.Errorf("exactly one of content hash or source URL must identify a source, got hash=%q url=%q",
			s.ContentHash, s.SourceURL)
	}
	return nil
}

func (s Source) provenance() string {
	if s.ContentHash != "" {
		return ProvenanceFile
	}
	return ProvenanceWeb
}

// DocumentSummary is one row of a knowledge-base listing: a single entry per
// distinct doc_id regardless of how many chunks the document has.
type DocumentSummary struct {
	DocID       string    `json:"doc_id"`
	DisplayName string    `json:"display_name"`
	Provenance  string    `json:"provenance"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
	Chunks      int       `json:"chunks"`
}

// Result is a single similarity hit.
type Result struct {
	Chunk      Chunk
	Similarity float32
}

// SearchOption configures Search using the functional options pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK    int
	timeout time.Duration
}

// WithTopK caps the number of results. Default is 5.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithTimeout bounds the vector search. Default is 10 seconds.
func WithTimeout(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:    5,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
