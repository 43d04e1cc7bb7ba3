// Package chunker splits extracted text into overlapping segments sized for
// embedding and retrieval.
//
// Splitting is a greedy sliding window over runes. Inside each window the
// splitter prefers a paragraph break, then a sentence end, then a word
// boundary, before falling back to a hard cut. Each chunk after the first
// starts exactly `overlap` runes before the previous chunk's end, so the
// produced sequence is fully deterministic for a given input and parameters.
// Determinism matters: fingerprint-based dedup is only meaningful if
// re-ingesting the same bytes reproduces the same chunks.
package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSplit indicates chunk parameters that can never make progress.
var ErrInvalidSplit = errors.New("chunk overlap must be smaller than chunk size")

// Split divides text into chunks of at most size runes, each overlapping the
// previous chunk's tail by overlap runes.
//
// Empty or all-whitespace text yields zero chunks and no error; callers treat
// that as "nothing to index". Text shorter than size yields exactly one chunk.
func Split(text string, size, overlap int) ([]string, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidSplit, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size %d, overlap %d", ErrInvalidSplit, size, overlap)
	}

	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}, nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = boundary(runes, start, end, overlap)
		}

		chunk := string(runes[start:end])
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}
		start = end - overlap
	}

	return chunks, nil
}

// boundary picks the cut position for the window runes[start:limit].
// It scans backwards for the best natural break, but never returns a position
// at or before start+overlap, which would stall the sliding window.
func boundary(runes []rune, start, limit, overlap int) int {
	floor := start + overlap + 1
	if floor >= limit {
		return limit
	}

	if cut := lastParagraphBreak(runes, floor, limit); cut > 0 {
		return cut
	}
	if cut := lastSentenceEnd(runes, floor, limit); cut > 0 {
		return cut
	}
	if cut := lastSpace(runes, floor, limit); cut > 0 {
		return cut
	}
	return limit
}

// lastParagraphBreak returns the position just after the last "\n\n" in
// runes[floor:limit], or 0 if none.
func lastParagraphBreak(runes []rune, floor, limit int) int {
	for i := limit - 1; i > floor; i-- {
		if runes[i-1] == '\n' && runes[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

// lastSentenceEnd returns the position just after the last sentence-ending
// punctuation followed by whitespace in runes[floor:limit], or 0 if none.
func lastSentenceEnd(runes []rune, floor, limit int) int {
	for i := limit - 1; i > floor; i-- {
		if !isSpace(runes[i]) {
			continue
		}
		switch runes[i-1] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}
	return 0
}

// lastSpace returns the position just after the last whitespace rune in
// runes[floor:limit], or 0 if none.
func lastSpace(runes []rune, floor, limit int) int {
	for i := limit - 1; i > floor; i-- {
		if isSpace(runes[i]) {
			return i + 1
		}
	}
	return 0
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
