package tracker

import (
	"encoding/json"
	"math"
	"strconv"
)

const (
	DefaultWeeklyGoal          = 3
	DefaultPersonalRecordLimit = 6
	DefaultWeightTrendLimit    = 10

	// recentWindowDays is the look-back of the "last 7 days" window,
	// today included, so it spans eight calendar dates.
	recentWindowDays = 7

	notAvailable = "N/A"
)

// Measure is a number that may be unavailable. It renders as "N/A"
// when not Valid.
type Measure struct {
	Value float64
	Valid bool
}

func SomeMeasure(v float64) Measure {
	return Measure{Value: v, Valid: true}
}

func (m Measure) String() string {
	if !m.Valid {
		return notAvailable
	}
	return strconv.FormatFloat(m.Value, 'f', -1, 64)
}

func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return json.Marshal(notAvailable)
	}
	return json.Marshal(m.Value)
}

func (m *Measure) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = Measure{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = SomeMeasure(v)
	return nil
}

type SummaryStats struct {
	TotalWorkouts  int     `json:"totalWorkouts"`
	StrengthCount  int     `json:"strengthCount"`
	CardioCount    int     `json:"cardioCount"`
	Last7DaysCount int     `json:"last7DaysCount"`
	AvgRecovery    Measure `json:"avgRecovery"`
	CurrentWeight  Measure `json:"currentWeight"`
}

type WeeklyBreakdown struct {
	Strength int  `json:"strength"`
	Cardio   int  `json:"cardio"`
	Goal     int  `json:"goal"`
	GoalMet  bool `json:"goalMet"`
}

// InRecentWindow reports whether d falls in [today-7d, today].
func InRecentWindow(d, today Date) bool {
	return !d.Before(today.AddDays(-recentWindowDays)) && !d.After(today)
}

// ComputeSummaryStats expects both collections most recent first.
func ComputeSummaryStats(workouts []Workout, weights []WeightEntry, today Date) SummaryStats {
	stats := SummaryStats{
		TotalWorkouts: len(workouts),
	}

	recoverySum, recoveryCount := 0, 0
	for _, w := range workouts {
		switch w.Type {
		case WorkoutTypeStrength:
			stats.StrengthCount++
		case WorkoutTypeCardio:
			stats.CardioCount++
		}
		if InRecentWindow(w.Date, today) {
			stats.Last7DaysCount++
		}
		if w.Recovery != nil && *w.Recovery > 0 {
			recoverySum += *w.Recovery
			recoveryCount++
		}
	}

	if recoveryCount > 0 {
		avg := float64(recoverySum) / float64(recoveryCount)
		stats.AvgRecovery = SomeMeasure(math.Round(avg*10) / 10)
	}
	if len(weights) > 0 {
		stats.CurrentWeight = SomeMeasure(weights[0].Weight)
	}

	return stats
}

// ComputeWeeklyBreakdown counts sessions in the recent window. A goal
// below one falls back to DefaultWeeklyGoal.
func ComputeWeeklyBreakdown(workouts []Workout, today Date, goal int) WeeklyBreakdown {
	if goal <= 0 {
		goal = DefaultWeeklyGoal
	}
	breakdown := WeeklyBreakdown{Goal: goal}
	for _, w := range workouts {
		if !InRecentWindow(w.Date, today) {
			continue
		}
		switch w.Type {
		case WorkoutTypeStrength:
			breakdown.Strength++
		case WorkoutTypeCardio:
			breakdown.Cardio++
		}
	}
	breakdown.GoalMet = breakdown.Strength >= goal
	return breakdown
}
