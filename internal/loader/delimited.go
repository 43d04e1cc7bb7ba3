package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// loadDelimited reads a CSV or TSV file and flattens it to one section,
// one line per record with fields joined by ", ". Ragged rows are tolerated.
func (l *Loader) loadDelimited(path, ext string) ([]Section, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	if ext == ".tsv" {
		r.Comma = '\t'
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, strings.Join(rec, ", "))
	}

	return []Section{{
		Text: strings.Join(lines, "\n"),
		Meta: map[string]string{
			"format": "delimited",
			"rows":   fmt.Sprintf("%d", len(records)),
		},
	}}, nil
}
