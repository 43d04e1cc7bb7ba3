// Package fingerprint computes stable identities for ingested content.
//
// Local files are identified by a content-only SHA-256 digest, so a renamed
// but byte-identical file maps to the same fingerprint. Web content is
// identified by a minimally normalized URL. Both forms feed the per-knowledge-
// base duplicate check.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/url"
	"strings"
)

// HashBytes returns the hex-encoded SHA-256 digest of data.
// The digest depends only on content, never on file name or path.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashReader returns the hex-encoded SHA-256 digest of everything read from r.
func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// URLKey returns the identity key for a web source. The URL is used nearly
// verbatim: the fragment is dropped (it never changes server content) and a
// bare trailing slash on the root path is trimmed, so "https://a.com" and
// "https://a.com/" collapse to one key. Anything unparseable is returned as-is
// so the caller still gets a deterministic key.
func URLKey(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)

	u, err := url.Parse(trimmed)
	if err != nil {
		return trimmed
	}
	u.Fragment = ""

	key := u.String()
	if u.Path == "/" && u.RawQuery == "" {
		key = strings.TrimSuffix(key, "/")
	}
	return key
}
