package fingerprint

import (
	"strings"
	"testing"
)

func TestHashBytes_ContentOnly(t *testing.T) {
	a := HashBytes([]byte("quarterly report body"))
	b := HashBytes([]byte("quarterly report body"))
	c := HashBytes([]byte("different body"))

	if a != b {
		t.Errorf("identical bytes produced different digests: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different bytes produced the same digest")
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
}

func TestHashReader_MatchesHashBytes(t *testing.T) {
	data := "some document content\nwith multiple lines"

	fromReader, err := HashReader(strings.NewReader(data))
	if err != nil {
		t.Fatalf("HashReader() error: %v", err)
	}

	if fromBytes := HashBytes([]byte(data)); fromReader != fromBytes {
		t.Errorf("HashReader = %s, HashBytes = %s", fromReader, fromBytes)
	}
}

func TestHashReader_Empty(t *testing.T) {
	digest, err := HashReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("HashReader() error: %v", err)
	}
	if digest == "" {
		t.Error("empty input must still produce a digest")
	}
}

func TestURLKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"verbatim", "https://example.com/docs/page", "https://example.com/docs/page"},
		{"trailing root slash trimmed", "https://example.com/", "https://example.com"},
		{"bare host unchanged", "https://example.com", "https://example.com"},
		{"fragment dropped", "https://example.com/page#section-2", "https://example.com/page"},
		{"query preserved", "https://example.com/?q=1", "https://example.com/?q=1"},
		{"surrounding space trimmed", "  https://example.com/a  ", "https://example.com/a"},
		{"deep path slash kept", "https://example.com/a/", "https://example.com/a/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := URLKey(tt.in); got != tt.want {
				t.Errorf("URLKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestURLKey_Deterministic(t *testing.T) {
	if URLKey("https://example.com/x") != URLKey("https://example.com/x") {
		t.Error("URLKey must be deterministic for identical input")
	}
}
