package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"parkdur/internal/config"
	"parkdur/internal/normalize"
)

// ErrMissingColumns means a file lacks one of the configured headers. The
// loader skips such files instead of failing the run.
var ErrMissingColumns = errors.New("missing required columns")

// ReadWorkbook extracts raw rows from the first sheet of an Excel
// workbook. Headers are matched case-insensitively against the configured
// column names.
func ReadWorkbook(path string, cols config.ColumnsConfig) ([]normalize.Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	idx, missing := headerIndexes(rows[0], cols)
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	out := make([]normalize.Row, 0, len(rows)-1)
	for _, record := range rows[1:] {
		out = append(out, normalize.Row{
			Plate:     cell(record, idx.plate),
			Event:     cell(record, idx.event),
			Timestamp: cell(record, idx.timestamp),
			Source:    path,
		})
	}
	return out, nil
}

type columnIndexes struct {
	plate     int
	event     int
	timestamp int
}

func headerIndexes(header []string, cols config.ColumnsConfig) (columnIndexes, []string) {
	idx := columnIndexes{plate: -1, event: -1, timestamp: -1}
	for i, name := range header {
		switch {
		case headerMatches(name, cols.Plate):
			idx.plate = i
		case headerMatches(name, cols.Event):
			idx.event = i
		case headerMatches(name, cols.Timestamp):
			idx.timestamp = i
		}
	}
	var missing []string
	if idx.plate < 0 {
		missing = append(missing, cols.Plate)
	}
	if idx.event < 0 {
		missing = append(missing, cols.Event)
	}
	if idx.timestamp < 0 {
		missing = append(missing, cols.Timestamp)
	}
	return idx, missing
}

func headerMatches(header, want string) bool {
	return strings.EqualFold(strings.TrimSpace(header), strings.TrimSpace(want))
}

// Trailing empty cells are dropped by spreadsheet readers, so short
// records are padded with empty strings.
func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
