// Package seeds gathers seed document identifiers for a graph build, from
// Scopus CSV exports or from DOIs embedded in PDF files.
package seeds

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Column headers of a Scopus search export.
const (
	DOIColumn = "DOI"
	EIDColumn = "EID"
)

// ReadCSV reads document identifiers from a Scopus CSV export. The scheme
// flag selects the DOI or EID column; empty cells are skipped. A positive
// limit caps the number of identifiers read; limit <= 0 reads all rows.
//
// Scopus exports are written with a UTF-8 byte order mark, which is
// tolerated and stripped.
func ReadCSV(path string, useDOI bool, limit int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed CSV: %w", err)
	}
	defer f.Close()

	column := EIDColumn
	if useDOI {
		column = DOIColumn
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	col := -1
	for i, name := range header {
		if strings.TrimSpace(name) == column {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, fmt.Errorf("column %q not found in %s", column, path)
	}

	var ids []string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		if col >= len(record) {
			continue
		}
		id := strings.TrimSpace(record[col])
		if id == "" {
			continue
		}
		ids = append(ids, id)
		if limit > 0 && len(ids) >= limit {
			break
		}
	}

	return ids, nil
}
