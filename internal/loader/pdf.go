package loader

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// loadPDF extracts one section per page. Pages whose text layer is empty are
// skipped; a scanned PDF with no text layer at all yields zero sections,
// which downstream treats as nothing to index.
func (l *Loader) loadPDF(path string) ([]Section, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	var sections []Section
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			l.logger.Warn("skipping unreadable pdf page", "path", path, "page", i, "error", err)
			continue
		}
		if text == "" {
			continue
		}

		sections = append(sections, Section{
			Text: text,
			Meta: map[string]string{
				"format": "pdf",
				"page":   fmt.Sprintf("%d", i),
			},
		})
	}

	return sections, nil
}
