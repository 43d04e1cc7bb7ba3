package loader

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// loadDocx extracts the paragraph text of word/document.xml as one section.
func (l *Loader) loadDocx(path string) ([]Section, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a valid docx container", ErrUnsupportedFormat, path)
	}
	defer func() {
		_ = reader.Close()
	}()

	text, err := extractDocumentText(&reader.Reader)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", path, err)
	}
	if text == "" {
		return nil, nil
	}

	return []Section{{
		Text: text,
		Meta: map[string]string{"format": "docx"},
	}}, nil
}

// loadLegacyDoc converts a binary .doc file to .docx with the external
// converter, then extracts it like any other docx. The conversion output
// lives in a temp directory that is removed whether or not extraction
// succeeds.
func (l *Loader) loadLegacyDoc(ctx context.Context, path string) ([]Section, error) {
	tmpDir, err := os.MkdirTemp("", "ragnova-doc-*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating temp dir: %v", ErrConversionFailed, err)
	}
	defer func() {
		_ = os.RemoveAll(tmpDir)
	}()

	out, err := l.runner.Run(ctx, l.converterCmd,
		"--headless", "--convert-to", "docx", "--outdir", tmpDir, path)
	if err != nil {
		l.logger.Warn("legacy doc conversion failed",
			"path", path, "converter", l.converterCmd, "output", string(out), "error", err)
		return nil, fmt.Errorf("%w: %s: %v", ErrConversionFailed, path, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	converted := filepath.Join(tmpDir, base+".docx")
	if _, err := os.Stat(converted); err != nil {
		return nil, fmt.Errorf("%w: converter produced no output for %s", ErrConversionFailed, path)
	}

	sections, err := l.loadDocx(converted)
	if err != nil {
		return nil, fmt.Errorf("%w: extracting converted %s: %v", ErrConversionFailed, path, err)
	}
	for _, s := range sections {
		s.Meta["format"] = "doc"
	}
	return sections, nil
}

// documentXML mirrors the parts of word/document.xml we read.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// extractDocumentText pulls the paragraph text out of word/document.xml.
func extractDocumentText(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", err
		}

		var doc documentXML
		if err := xml.Unmarshal(content, &doc); err != nil {
			return "", err
		}

		var b strings.Builder
		for i, para := range doc.Body.Paragraphs {
			if i > 0 {
				b.WriteString("\n")
			}
			for _, r := range para.Runs {
				for _, t := range r.Text {
					b.WriteString(t.Content)
				}
			}
		}
		return strings.TrimSpace(b.String()), nil
	}
	return "", fmt.Errorf("word/document.xml not found")
}
