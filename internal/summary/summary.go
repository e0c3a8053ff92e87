package summary

import (
	"math"
	"sort"

	"parkdur/internal/model"
)

type accumulator struct {
	visits  int
	minutes float64
}

// Summarize groups intervals by (plate, entry month) and totals their
// durations. A stay spanning a month boundary is attributed to the month
// it began. Both rounded fields derive from the same unrounded sum so
// rounding error never compounds.
func Summarize(intervals []model.Interval) []model.MonthlySummary {
	type key struct {
		plate string
		month string
	}
	totals := make(map[key]*accumulator)
	for _, iv := range intervals {
		k := key{plate: iv.Plate, month: iv.EntryTime.Format("2006-01")}
		acc, ok := totals[k]
		if !ok {
			acc = &accumulator{}
			totals[k] = acc
		}
		acc.visits++
		acc.minutes += iv.DurationMinutes
	}

	keys := make([]key, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].plate != keys[j].plate {
			return keys[i].plate < keys[j].plate
		}
		return keys[i].month < keys[j].month
	})

	out := make([]model.MonthlySummary, 0, len(keys))
	for _, k := range keys {
		acc := totals[k]
		out = append(out, model.MonthlySummary{
			Plate:        k.plate,
			Month:        k.month,
			Visits:       acc.visits,
			TotalMinutes: round2(acc.minutes),
			TotalHours:   round2(acc.minutes / 60),
		})
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
