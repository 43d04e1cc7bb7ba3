package kb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const manifestFile = "manifest.json"

// manifest is the sidecar index persisted next to the vector data. It carries
// one entry per document plus the fingerprint set used for O(1) duplicate
// checks, so inserts never scan the whole collection.
type manifest struct {
	Owner     string                    `json:"owner"`
	Name      string                    `json:"name"`
	Documents map[string]*documentEntry `json:"documents"`
}

type documentEntry struct {
	DocID       string    `json:"doc_id"`
	DisplayName string    `json:"display_name"`
	Provenance  string    `json:"provenance"`
	Fingerprint string    `json:"fingerprint"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
	UploadedAt  time.Time `json:"uploaded_at"`
	ChunkIDs    []string  `json:"chunk_ids"`
}

// loadManifest reads the manifest from dir, or initializes an empty one if
// the file does not exist yet.
func loadManifest(dir string, id ID) (*manifest, error) {
	path := filepath.Join(dir, manifestFile)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &manifest{
			Owner:     id.Owner,
			Name:      id.Name,
			Documents: make(map[string]*documentEntry),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if m.Documents == nil {
		m.Documents = make(map[string]*documentEntry)
	}
	return &m, nil
}

// save writes the manifest atomically: marshal to a temp file in the same
// directory, then rename over the old one.
func (m *manifest) save(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}

	tmp, err := os.CreateTemp(dir, manifestFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp manifest: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing temp manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp manifest: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(dir, manifestFile)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replacing manifest: %w", err)
	}
	return nil
}

// fingerprints builds the fingerprint -> doc_id lookup from the entries.
func (m *manifest) fingerprints() map[string]string {
	fps := make(map[string]string, len(m.Documents))
	for _, e := range m.Documents {
		fps[e.Fingerprint] = e.DocID
	}
	return fps
}
