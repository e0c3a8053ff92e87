package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"parkdur/internal/config"
	"parkdur/internal/normalize"
)

// ReadCSV extracts raw rows from a CSV export using the same header
// mapping as the workbook reader.
func ReadCSV(path string, cols config.ColumnsConfig) ([]normalize.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	idx, missing := headerIndexes(header, cols)
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	var out []normalize.Row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, normalize.Row{
			Plate:     cell(record, idx.plate),
			Event:     cell(record, idx.event),
			Timestamp: cell(record, idx.timestamp),
			Source:    path,
		})
	}
	return out, nil
}
