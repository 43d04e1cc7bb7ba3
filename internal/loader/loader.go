// Package loader converts local documents into plain text with source
// metadata.
//
// Dispatch is by file extension: PDF, Word family (.docx, plus legacy .doc via
// an external converter), plain text, and delimited text. Unsupported
// extensions fail with ErrUnsupportedFormat so batch callers can skip the one
// input and continue.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ragnova/ragnova/internal/log"
)

var (
	// ErrUnsupportedFormat indicates a file type the loader cannot extract.
	// Callers skip the input and continue their batch.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrConversionFailed indicates the legacy-format converter failed.
	// Distinct from ErrUnsupportedFormat: the format is supported, the
	// conversion step broke.
	ErrConversionFailed = errors.New("document conversion failed")
)

// Section is one extracted span of text with its source metadata.
// A plain-text file yields a single section; a PDF yields one per page.
type Section struct {
	Text string
	Meta map[string]string
}

// CommandRunner executes an external command and returns its combined output.
// It exists so the legacy .doc conversion can be tested without a converter
// installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Loader extracts text from supported local files.
type Loader struct {
	converterCmd string
	runner       CommandRunner
	logger       log.Logger
}

// New creates a Loader. converterCmd is the external tool used to convert
// legacy .doc files (typically "soffice"); runner may be nil to use the real
// command execution.
func New(converterCmd string, runner CommandRunner, logger log.Logger) *Loader {
	if runner == nil {
		runner = execRunner{}
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Loader{
		converterCmd: converterCmd,
		runner:       runner,
		logger:       logger,
	}
}

// Supported reports whether the loader can extract the given path,
// judged by extension alone.
func (l *Loader) Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".docx", ".doc", ".txt", ".md", ".csv", ".tsv":
		return true
	}
	return false
}

// Load extracts the text sections of the file at path.
// The returned sections are ordered as they appear in the source.
func (l *Loader) Load(ctx context.Context, path string) ([]Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return l.loadPDF(path)
	case ".docx":
		return l.loadDocx(path)
	case ".doc":
		return l.loadLegacyDoc(ctx, path)
	case ".txt", ".md":
		return l.loadPlainText(path)
	case ".csv", ".tsv":
		return l.loadDelimited(path, ext)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// loadPlainText reads the whole file as one section.
func (l *Loader) loadPlainText(path string) ([]Section, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return []Section{{
		Text: string(content),
		Meta: map[string]string{"format": "text"},
	}}, nil
}
