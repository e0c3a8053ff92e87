package ingest

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"parkdur/internal/config"
	"parkdur/internal/model"
	"parkdur/internal/normalize"
)

// LoadStats reports what happened to the raw rows during a load.
type LoadStats struct {
	FilesRead    int
	FilesSkipped int
	RowsLoaded   int
	RowsDropped  int
}

// LoadEvents reads every discovered file and normalizes its rows into
// canonical events. Unreadable files and files missing the configured
// columns are skipped with a warning; individual rows that fail
// normalization are dropped and counted. Neither condition fails the run.
func LoadEvents(files []string, cfg *config.Config, logger *slog.Logger) ([]model.Event, LoadStats) {
	var events []model.Event
	var stats LoadStats
	for _, path := range files {
		rows, err := readFile(path, cfg.Columns)
		if err != nil {
			stats.FilesSkipped++
			logger.Warn("skipping file", "path", path, "err", err)
			continue
		}
		stats.FilesRead++
		loaded := 0
		for _, row := range rows {
			ev, err := normalize.Normalize(row, cfg)
			if err != nil {
				if errors.Is(err, normalize.ErrEmptyPlate) {
					// Blank plate cells are routine padding in exports,
					// not worth a log line each.
					stats.RowsDropped++
					continue
				}
				stats.RowsDropped++
				logger.Debug("dropping row", "path", path, "err", err)
				continue
			}
			events = append(events, ev)
			loaded++
		}
		stats.RowsLoaded += loaded
		logger.Info("loaded file", "path", path, "rows", loaded)
	}
	return events, stats
}

func readFile(path string, cols config.ColumnsConfig) ([]normalize.Row, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ReadCSV(path, cols)
	}
	return ReadWorkbook(path, cols)
}
