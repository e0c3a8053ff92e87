package normalize

import (
	"errors"
	"fmt"
	"strings"

	"parkdur/internal/config"
	"parkdur/internal/model"
)

// Row is one raw record extracted from a source file, all fields still in
// their spreadsheet string form.
type Row struct {
	Plate     string
	Event     string
	Timestamp string
	Source    string
}

var (
	ErrEmptyPlate   = errors.New("empty plate")
	ErrUnknownEvent = errors.New("unrecognized event label")
	ErrBadTimestamp = errors.New("unparseable timestamp")
)

// Normalize turns a raw row into a canonical event. Rows that fail here
// never reach the reconciler; the loader counts and logs them.
func Normalize(row Row, cfg *config.Config) (model.Event, error) {
	plate := strings.ToUpper(strings.TrimSpace(row.Plate))
	if plate == "" {
		return model.Event{}, ErrEmptyPlate
	}

	var kind model.EventKind
	switch strings.ToUpper(strings.TrimSpace(row.Event)) {
	case cfg.EntryMarker:
		kind = model.KindEntry
	case cfg.ExitMarker:
		kind = model.KindExit
	default:
		return model.Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, row.Event)
	}

	ts, err := ParseTimestamp(row.Timestamp, cfg.TimestampFormat)
	if err != nil {
		return model.Event{}, fmt.Errorf("%w: %q", ErrBadTimestamp, row.Timestamp)
	}

	return model.Event{
		Plate:     plate,
		Kind:      kind,
		Timestamp: ts,
		Source:    row.Source,
	}, nil
}
