package glossimport

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVImporter reads raw,translation[,comment] rows. A leading header row
// is skipped.
type CSVImporter struct{}

func (p *CSVImporter) Import(r io.Reader, filename string) (string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}
	if len(records) > 0 && isHeaderRow(records[0]) {
		records = records[1:]
	}

	var b builder
	for _, row := range records {
		b.row(row)
	}
	return b.String(), nil
}
