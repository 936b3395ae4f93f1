package tracker

import "math"

type HistoryItem struct {
	ID       int64       `json:"id"`
	Type     WorkoutType `json:"type"`
	Date     Date        `json:"date"`
	Summary  string      `json:"summary"`
	Recovery *int        `json:"recovery,omitempty"`
	Notes    string      `json:"notes,omitempty"`
}

type HistoryList []HistoryItem

func ComputeHistory(workouts []Workout) HistoryList {
	history := make(HistoryList, 0, len(workouts))
	for _, w := range workouts {
		history = append(history, HistoryItem{
			ID:       w.ID,
			Type:     w.Type,
			Date:     w.Date,
			Summary:  w.Summary(),
			Recovery: w.Recovery,
			Notes:    w.Notes,
		})
	}
	return history
}

type WeightTrend struct {
	Recent []WeightEntry `json:"recent"`
	// Change is latest minus oldest of Recent. Unavailable with fewer
	// than two entries.
	Change Measure `json:"change"`
}

func ComputeWeightTrend(weights []WeightEntry, limit int) WeightTrend {
	if limit <= 0 {
		limit = DefaultWeightTrendLimit
	}
	recent := weights
	if len(recent) > limit {
		recent = recent[:limit]
	}

	trend := WeightTrend{
		Recent: append([]WeightEntry{}, recent...),
	}
	if len(recent) >= 2 {
		trend.Change = SomeMeasure(roundTo(recent[0].Weight-recent[len(recent)-1].Weight, 2))
	}
	return trend
}

func roundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
