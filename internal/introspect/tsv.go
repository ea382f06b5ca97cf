// SPDX-License-Identifier: MPL-2.0

package introspect

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Record is one parsed result row, keyed by the header column names.
type Record map[string]string

// ParseTSV parses tab-separated output with a header line into records.
// Empty or whitespace-only input yields no records; a version whose query
// failed benignly produces exactly that. Rows shorter than the header keep
// only the columns they carry.
func ParseTSV(text string) ([]Record, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = '\t'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading result header: %w", err)
	}

	var records []Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading result row: %w", err)
		}

		rec := make(Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
