package chunker

import (
	"errors"
	"strings"
	"testing"
)

func TestSplit_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\t"} {
		chunks, err := Split(text, 500, 50)
		if err != nil {
			t.Fatalf("Split(%q) error: %v", text, err)
		}
		if len(chunks) != 0 {
			t.Errorf("Split(%q) = %d chunks, want 0", text, len(chunks))
		}
	}
}

func TestSplit_ShortText(t *testing.T) {
	text := "a short note that fits in one chunk"

	chunks, err := Split(text, 500, 50)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want exactly 1", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("single chunk = %q, want the full text", chunks[0])
	}
}

func TestSplit_InvalidParameters(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
	}{
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
		{"negative overlap", 100, -1},
		{"zero size", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Split("some text", tt.size, tt.overlap); !errors.Is(err, ErrInvalidSplit) {
				t.Errorf("Split() = %v, want ErrInvalidSplit", err)
			}
		})
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("The market closed higher today. Analysts expect further gains. ", 40)

	first, err := Split(text, 500, 50)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	second, err := Split(text, 500, 50)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplit_OverlapInvariant(t *testing.T) {
	const (
		size    = 200
		overlap = 40
	)
	text := strings.Repeat("Revenue grew in the third quarter. Costs remained flat across divisions. ", 30)

	chunks, err := Split(text, size, overlap)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])

		tail := string(prev[len(prev)-overlap:])
		if len(cur) < overlap {
			continue
		}
		head := string(cur[:overlap])
		if tail != head {
			t.Errorf("chunk %d: tail %q is not the head of the next chunk %q", i-1, tail, head)
		}
	}
}

func TestSplit_ChunkSizeBound(t *testing.T) {
	text := strings.Repeat("word ", 1000)

	chunks, err := Split(text, 300, 30)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}

	for i, c := range chunks {
		if n := len([]rune(c)); n > 300 {
			t.Errorf("chunk %d has %d runes, exceeds size 300", i, n)
		}
	}
}

func TestSplit_PrefersParagraphBoundary(t *testing.T) {
	para := strings.Repeat("alpha beta gamma delta. ", 6) // ~144 runes
	text := para + "\n\n" + para + "\n\n" + para

	chunks, err := Split(text, 200, 20)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// The first cut falls inside the second paragraph's window; with a
	// paragraph break available, the chunk should end right after it.
	if !strings.HasSuffix(chunks[0], "\n\n") {
		t.Errorf("first chunk should end at the paragraph break, got tail %q",
			chunks[0][len(chunks[0])-10:])
	}
}

func TestSplit_CoversAllContent(t *testing.T) {
	text := strings.Repeat("no natural boundaries here ", 50)

	chunks, err := Split(text, 120, 10)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}

	// Rebuilding from chunks minus their overlap must reproduce the input.
	var rebuilt strings.Builder
	for i, c := range chunks {
		runes := []rune(c)
		if i == 0 {
			rebuilt.WriteString(c)
			continue
		}
		rebuilt.WriteString(string(runes[10:]))
	}
	if rebuilt.String() != text {
		t.Error("concatenating chunks minus overlap did not reproduce the input text")
	}
}
