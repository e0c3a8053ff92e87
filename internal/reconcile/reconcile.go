package reconcile

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"parkdur/internal/model"
)

// ErrBadEvent means a record violated the normalizer contract. The whole
// batch is suspect at that point, so reconciliation aborts instead of
// skipping the record.
var ErrBadEvent = errors.New("event missing plate, kind, or timestamp")

type slotState int

const (
	slotClosed slotState = iota
	slotOpen
)

// slot is the per-plate pairing register: at most one unclosed ENTRY per
// plate at any time.
type slot struct {
	state slotState
	entry model.Event
}

type plateResult struct {
	intervals []model.Interval
	anomalies []model.Anomaly
}

// Reconcile pairs ENTRY events with the correct subsequent EXIT per plate
// and classifies everything that cannot be cleanly paired. Plates are
// independent, so groups run on a bounded worker pool; output is assembled
// in ascending plate order, which keeps the result deterministic for a
// given input ordering.
func Reconcile(events []model.Event) ([]model.Interval, []model.Anomaly, error) {
	for _, ev := range events {
		if ev.Plate == "" || ev.Timestamp.IsZero() ||
			(ev.Kind != model.KindEntry && ev.Kind != model.KindExit) {
			return nil, nil, fmt.Errorf("%w: %+v", ErrBadEvent, ev)
		}
	}

	groups := make(map[string][]model.Event)
	for _, ev := range events {
		groups[ev.Plate] = append(groups[ev.Plate], ev)
	}
	plates := make([]string, 0, len(groups))
	for plate := range groups {
		plates = append(plates, plate)
	}
	sort.Strings(plates)

	results := make(map[string]*plateResult, len(plates))
	for _, plate := range plates {
		results[plate] = &plateResult{}
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for _, plate := range plates {
		plate := plate
		res := results[plate]
		group := groups[plate]
		g.Go(func() error {
			*res = reconcilePlate(plate, group)
			return nil
		})
	}
	_ = g.Wait()

	intervals := make([]model.Interval, 0, len(events)/2)
	anomalies := make([]model.Anomaly, 0)
	for _, plate := range plates {
		intervals = append(intervals, results[plate].intervals...)
		anomalies = append(anomalies, results[plate].anomalies...)
	}
	return intervals, anomalies, nil
}

// reconcilePlate walks one plate's events in timestamp order. The sort is
// stable: ties keep their original input order, a determinism guarantee
// rather than a guess at physical order.
func reconcilePlate(plate string, group []model.Event) plateResult {
	sorted := make([]model.Event, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var res plateResult

	// All-digit plates are almost certainly misread exports (a timestamp
	// or spreadsheet artifact mistaken for a plate); surface every event
	// for manual review and pair nothing.
	if isAllDigits(plate) {
		for _, ev := range sorted {
			res.anomalies = append(res.anomalies, model.Anomaly{
				Plate:     plate,
				Kind:      model.AnomalyHazardPlate,
				Timestamp: ev.Timestamp,
			})
		}
		return res
	}

	open := slot{state: slotClosed}
	for _, ev := range sorted {
		switch ev.Kind {
		case model.KindEntry:
			if open.state == slotOpen {
				// The earlier, now-orphaned ENTRY is the one flagged;
				// the latest ENTRY becomes authoritative.
				res.anomalies = append(res.anomalies, model.Anomaly{
					Plate:     plate,
					Kind:      model.AnomalyConsecutiveEntry,
					Timestamp: open.entry.Timestamp,
				})
			}
			open = slot{state: slotOpen, entry: ev}
		case model.KindExit:
			if open.state == slotClosed {
				res.anomalies = append(res.anomalies, model.Anomaly{
					Plate:     plate,
					Kind:      model.AnomalyExitWithoutEntry,
					Timestamp: ev.Timestamp,
				})
				continue
			}
			duration := ev.Timestamp.Sub(open.entry.Timestamp).Minutes()
			if duration < 0 {
				res.anomalies = append(res.anomalies, model.Anomaly{
					Plate:     plate,
					Kind:      model.AnomalyExitBeforeEntry,
					Timestamp: ev.Timestamp,
				})
				open = slot{state: slotClosed}
				continue
			}
			res.intervals = append(res.intervals, model.Interval{
				Plate:           plate,
				EntryTime:       open.entry.Timestamp,
				ExitTime:        ev.Timestamp,
				DurationMinutes: round2(duration),
			})
			open = slot{state: slotClosed}
		}
	}
	if open.state == slotOpen {
		res.anomalies = append(res.anomalies, model.Anomaly{
			Plate:     plate,
			Kind:      model.AnomalyEntryWithoutExit,
			Timestamp: open.entry.Timestamp,
		})
	}
	return res
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
