package model

import "time"

type EventKind string

const (
	KindEntry EventKind = "ENTRY"
	KindExit  EventKind = "EXIT"
)

// Event is one canonical ENTRY/EXIT observation for a plate. Events are
// produced by the normalizer and consumed once by the reconciler.
type Event struct {
	Plate     string    `json:"plate"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source,omitempty"`
}

// Interval is a reconciled stay: one ENTRY matched with a later-or-equal
// EXIT for the same plate.
type Interval struct {
	Plate           string    `json:"plate"`
	EntryTime       time.Time `json:"entry_time"`
	ExitTime        time.Time `json:"exit_time"`
	DurationMinutes float64   `json:"duration_minutes"`
}

type AnomalyKind string

// The anomaly set is closed; adding a kind is a breaking change for
// report consumers and must be versioned.
const (
	AnomalyHazardPlate      AnomalyKind = "HAZARD_PLATE"
	AnomalyConsecutiveEntry AnomalyKind = "CONSECUTIVE_ENTRY"
	AnomalyExitWithoutEntry AnomalyKind = "EXIT_WITHOUT_ENTRY"
	AnomalyExitBeforeEntry  AnomalyKind = "EXIT_BEFORE_ENTRY"
	AnomalyEntryWithoutExit AnomalyKind = "ENTRY_WITHOUT_EXIT"
)

// Issue returns the phrase used on the report's issues sheet.
func (k AnomalyKind) Issue() string {
	switch k {
	case AnomalyHazardPlate:
		return "Hazard plate number"
	case AnomalyConsecutiveEntry:
		return "Consecutive ENTRY without EXIT"
	case AnomalyExitWithoutEntry:
		return "EXIT without matching ENTRY"
	case AnomalyExitBeforeEntry:
		return "EXIT earlier than ENTRY"
	case AnomalyEntryWithoutExit:
		return "ENTRY without matching EXIT"
	}
	return string(k)
}

// Anomaly is an event that could not be cleanly paired. Anomalies are
// result data, not errors; they never abort a run.
type Anomaly struct {
	Plate     string      `json:"plate"`
	Kind      AnomalyKind `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
}

// MonthlySummary is one (plate, month) row derived from the interval set.
// Month is the calendar month the stay began in, formatted "2006-01".
type MonthlySummary struct {
	Plate        string  `json:"plate"`
	Month        string  `json:"month"`
	Visits       int     `json:"visits"`
	TotalMinutes float64 `json:"total_minutes"`
	TotalHours   float64 `json:"total_hours"`
}
