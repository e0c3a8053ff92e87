package reconcile

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"parkdur/internal/model"
)

var base = time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)

func at(min int) time.Time {
	return base.Add(time.Duration(min) * time.Minute)
}

func entry(plate string, min int) model.Event {
	return model.Event{Plate: plate, Kind: model.KindEntry, Timestamp: at(min)}
}

func exit(plate string, min int) model.Event {
	return model.Event{Plate: plate, Kind: model.KindExit, Timestamp: at(min)}
}

func mustReconcile(t *testing.T, events []model.Event) ([]model.Interval, []model.Anomaly) {
	t.Helper()
	intervals, anomalies, err := Reconcile(events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return intervals, anomalies
}

func TestAlternatingPairsProduceIntervalsOnly(t *testing.T) {
	events := []model.Event{
		entry("AB123CD", 0), exit("AB123CD", 30),
		entry("AB123CD", 60), exit("AB123CD", 75),
		entry("AB123CD", 120), exit("AB123CD", 180),
	}
	intervals, anomalies := mustReconcile(t, events)
	if len(anomalies) != 0 {
		t.Fatalf("expected no anomalies, got %v", anomalies)
	}
	if len(intervals) != 3 {
		t.Fatalf("expected 3 intervals, got %d", len(intervals))
	}
	wantDurations := []float64{30, 15, 60}
	for i, iv := range intervals {
		if iv.DurationMinutes != wantDurations[i] {
			t.Fatalf("interval %d: duration %v, want %v", i, iv.DurationMinutes, wantDurations[i])
		}
	}
}

func TestUnorderedInputIsSortedPerPlate(t *testing.T) {
	events := []model.Event{
		exit("AB123CD", 30),
		entry("AB123CD", 0),
	}
	intervals, anomalies := mustReconcile(t, events)
	if len(anomalies) != 0 {
		t.Fatalf("expected no anomalies, got %v", anomalies)
	}
	if len(intervals) != 1 || intervals[0].DurationMinutes != 30 {
		t.Fatalf("unexpected intervals: %v", intervals)
	}
}

func TestConsecutiveEntryFlagsEarlierEntry(t *testing.T) {
	events := []model.Event{
		entry("AB123CD", 0),
		entry("AB123CD", 10),
		exit("AB123CD", 40),
	}
	intervals, anomalies := mustReconcile(t, events)
	if len(anomalies) != 1 {
		t.Fatalf("expected 1 anomaly, got %v", anomalies)
	}
	a := anomalies[0]
	if a.Kind != model.AnomalyConsecutiveEntry {
		t.Fatalf("anomaly kind %s, want %s", a.Kind, model.AnomalyConsecutiveEntry)
	}
	if !a.Timestamp.Equal(at(0)) {
		t.Fatalf("anomaly timestamp %v, want the earlier entry's %v", a.Timestamp, at(0))
	}
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %v", intervals)
	}
	if !intervals[0].EntryTime.Equal(at(10)) || !intervals[0].ExitTime.Equal(at(40)) {
		t.Fatalf("interval must pair the latest ENTRY: %v", intervals[0])
	}
}

func TestExitWithoutEntry(t *testing.T) {
	intervals, anomalies := mustReconcile(t, []model.Event{exit("AB123CD", 5)})
	if len(intervals) != 0 {
		t.Fatalf("expected no intervals, got %v", intervals)
	}
	if len(anomalies) != 1 || anomalies[0].Kind != model.AnomalyExitWithoutEntry {
		t.Fatalf("expected one EXIT_WITHOUT_ENTRY, got %v", anomalies)
	}
	if !anomalies[0].Timestamp.Equal(at(5)) {
		t.Fatalf("anomaly timestamp %v, want %v", anomalies[0].Timestamp, at(5))
	}
}

func TestEntryWithoutExit(t *testing.T) {
	intervals, anomalies := mustReconcile(t, []model.Event{entry("AB123CD", 5)})
	if len(intervals) != 0 {
		t.Fatalf("expected no intervals, got %v", intervals)
	}
	if len(anomalies) != 1 || anomalies[0].Kind != model.AnomalyEntryWithoutExit {
		t.Fatalf("expected one ENTRY_WITHOUT_EXIT, got %v", anomalies)
	}
	if !anomalies[0].Timestamp.Equal(at(5)) {
		t.Fatalf("anomaly timestamp %v, want %v", anomalies[0].Timestamp, at(5))
	}
}

func TestHazardPlateFlagsEveryEvent(t *testing.T) {
	events := []model.Event{
		entry("123456", 0),
		exit("123456", 30),
		entry("123456", 60),
	}
	intervals, anomalies := mustReconcile(t, events)
	if len(intervals) != 0 {
		t.Fatalf("hazard plate must produce no intervals, got %v", intervals)
	}
	if len(anomalies) != 3 {
		t.Fatalf("expected 3 hazard anomalies, got %v", anomalies)
	}
	for i, a := range anomalies {
		if a.Kind != model.AnomalyHazardPlate {
			t.Fatalf("anomaly %d: kind %s, want %s", i, a.Kind, model.AnomalyHazardPlate)
		}
	}
	// Each anomaly carries its own event's timestamp.
	want := []time.Time{at(0), at(30), at(60)}
	for i, a := range anomalies {
		if !a.Timestamp.Equal(want[i]) {
			t.Fatalf("anomaly %d: timestamp %v, want %v", i, a.Timestamp, want[i])
		}
	}
}

func TestMixedAlphanumericPlateIsNotHazard(t *testing.T) {
	intervals, anomalies := mustReconcile(t, []model.Event{
		entry("123 ABC", 0), exit("123 ABC", 10),
	})
	if len(anomalies) != 0 || len(intervals) != 1 {
		t.Fatalf("plate with letters must pair normally: intervals=%v anomalies=%v", intervals, anomalies)
	}
}

func TestZeroDurationStayIsValid(t *testing.T) {
	intervals, anomalies := mustReconcile(t, []model.Event{
		entry("AB123CD", 0), exit("AB123CD", 0),
	})
	if len(anomalies) != 0 {
		t.Fatalf("expected no anomalies, got %v", anomalies)
	}
	if len(intervals) != 1 || intervals[0].DurationMinutes != 0 {
		t.Fatalf("expected one zero-duration interval, got %v", intervals)
	}
}

func TestTieTimestampsKeepInputOrder(t *testing.T) {
	// EXIT first in input at the same instant stays first after the
	// stable sort, so it cannot close the later ENTRY.
	events := []model.Event{
		exit("AB123CD", 0),
		entry("AB123CD", 0),
	}
	intervals, anomalies := mustReconcile(t, events)
	if len(intervals) != 0 {
		t.Fatalf("expected no intervals, got %v", intervals)
	}
	if len(anomalies) != 2 {
		t.Fatalf("expected 2 anomalies, got %v", anomalies)
	}
	if anomalies[0].Kind != model.AnomalyExitWithoutEntry || anomalies[1].Kind != model.AnomalyEntryWithoutExit {
		t.Fatalf("unexpected anomaly kinds: %v", anomalies)
	}
}

func TestPlatesAreIsolated(t *testing.T) {
	events := []model.Event{
		entry("AA111AA", 0),
		exit("BB222BB", 10),
		exit("AA111AA", 20),
	}
	intervals, anomalies := mustReconcile(t, events)
	if len(intervals) != 1 || intervals[0].Plate != "AA111AA" {
		t.Fatalf("expected one interval for AA111AA, got %v", intervals)
	}
	if len(anomalies) != 1 || anomalies[0].Plate != "BB222BB" {
		t.Fatalf("expected one anomaly for BB222BB, got %v", anomalies)
	}
}

func TestOutputOrderedByPlate(t *testing.T) {
	events := []model.Event{
		entry("ZZ999ZZ", 0), exit("ZZ999ZZ", 10),
		entry("AA111AA", 0), exit("AA111AA", 10),
	}
	intervals, _ := mustReconcile(t, events)
	if len(intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %v", intervals)
	}
	if intervals[0].Plate != "AA111AA" || intervals[1].Plate != "ZZ999ZZ" {
		t.Fatalf("intervals not in plate order: %v", intervals)
	}
}

func TestEveryEventAccountedForExactlyOnce(t *testing.T) {
	events := []model.Event{
		entry("AB123CD", 0), exit("AB123CD", 30), // pair
		entry("AB123CD", 40), entry("AB123CD", 50), exit("AB123CD", 60), // orphaned + pair
		exit("AB123CD", 70),  // exit without entry
		entry("AB123CD", 80), // entry without exit
		entry("999888", 0),   // hazard
	}
	intervals, anomalies := mustReconcile(t, events)
	paired := 2 * len(intervals)
	if paired+len(anomalies) != len(events) {
		t.Fatalf("events not fully accounted for: %d paired + %d anomalies != %d events",
			paired, len(anomalies), len(events))
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	events := []model.Event{
		entry("AA111AA", 0), exit("AA111AA", 5),
		entry("BB222BB", 1), entry("BB222BB", 2), exit("BB222BB", 3),
		exit("CC333CC", 4),
		entry("12345", 6),
	}
	i1, a1 := mustReconcile(t, events)
	i2, a2 := mustReconcile(t, events)
	if !reflect.DeepEqual(i1, i2) || !reflect.DeepEqual(a1, a2) {
		t.Fatalf("reconcile is not deterministic")
	}
}

func TestDurationRounding(t *testing.T) {
	events := []model.Event{
		{Plate: "AB123CD", Kind: model.KindEntry, Timestamp: base},
		{Plate: "AB123CD", Kind: model.KindExit, Timestamp: base.Add(90*time.Second + 400*time.Millisecond)},
	}
	intervals, _ := mustReconcile(t, events)
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %v", intervals)
	}
	if intervals[0].DurationMinutes != 1.51 {
		t.Fatalf("duration %v, want 1.51", intervals[0].DurationMinutes)
	}
}

func TestMalformedEventAbortsRun(t *testing.T) {
	cases := []model.Event{
		{Plate: "", Kind: model.KindEntry, Timestamp: at(0)},
		{Plate: "AB123CD", Kind: "", Timestamp: at(0)},
		{Plate: "AB123CD", Kind: "DRIVE", Timestamp: at(0)},
		{Plate: "AB123CD", Kind: model.KindEntry},
	}
	for i, bad := range cases {
		_, _, err := Reconcile([]model.Event{entry("OK123OK", 0), bad})
		if !errors.Is(err, ErrBadEvent) {
			t.Fatalf("case %d: expected ErrBadEvent, got %v", i, err)
		}
	}
}

func TestEmptyInput(t *testing.T) {
	intervals, anomalies := mustReconcile(t, nil)
	if len(intervals) != 0 || len(anomalies) != 0 {
		t.Fatalf("empty input must yield empty results")
	}
}
