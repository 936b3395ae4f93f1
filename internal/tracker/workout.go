package tracker

import (
	"fmt"
	"time"
)

type WorkoutType string

const (
	WorkoutTypeStrength WorkoutType = "strength"
	WorkoutTypeCardio   WorkoutType = "cardio"
)

func (t WorkoutType) Valid() bool {
	return t == WorkoutTypeStrength || t == WorkoutTypeCardio
}

type Set struct {
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight"`
}

type Exercise struct {
	Name string `json:"name"`
	Sets []Set  `json:"sets"`
}

type CardioDetails struct {
	Activity string `json:"activity"`
	// Duration in minutes.
	Duration int    `json:"duration"`
	Distance string `json:"distance,omitempty"`
	AvgHR    *int   `json:"avgHR,omitempty"`
}

// Workout is a logged training session. Type decides which of
// Exercises and Cardio is set.
type Workout struct {
	ID        int64          `json:"id"`
	Type      WorkoutType    `json:"type"`
	Date      Date           `json:"date"`
	Notes     string         `json:"notes,omitempty"`
	Recovery  *int           `json:"recovery,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Exercises []Exercise     `json:"exercises,omitempty"`
	Cardio    *CardioDetails `json:"cardio,omitempty"`
}

func (w Workout) TotalSets() int {
	total := 0
	for _, ex := range w.Exercises {
		total += len(ex.Sets)
	}
	return total
}

// Summary is the one line description shown in history lists.
func (w Workout) Summary() string {
	if w.Type == WorkoutTypeCardio {
		if w.Cardio == nil {
			return ""
		}
		summary := fmt.Sprintf("%s • %d min", w.Cardio.Activity, w.Cardio.Duration)
		if w.Cardio.Distance != "" {
			summary += " • " + w.Cardio.Distance
		}
		return summary
	}
	return fmt.Sprintf("%d exercises • %d total sets", len(w.Exercises), w.TotalSets())
}

type WeightEntry struct {
	Weight    float64   `json:"weight"`
	Date      Date      `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// PrependWorkout returns a new slice with w in front.
func PrependWorkout(workouts []Workout, w Workout) []Workout {
	out := make([]Workout, 0, len(workouts)+1)
	out = append(out, w)
	return append(out, workouts...)
}

func PrependWeight(weights []WeightEntry, e WeightEntry) []WeightEntry {
	out := make([]WeightEntry, 0, len(weights)+1)
	out = append(out, e)
	return append(out, weights...)
}

// RemoveWorkout returns a new slice without the workout carrying id,
// keeping the order of the rest. The bool reports whether one was removed.
func RemoveWorkout(workouts []Workout, id int64) ([]Workout, bool) {
	for i, w := range workouts {
		if w.ID != id {
			continue
		}
		out := make([]Workout, 0, len(workouts)-1)
		out = append(out, workouts[:i]...)
		return append(out, workouts[i+1:]...), true
	}
	return workouts, false
}

func FindWorkout(workouts []Workout, id int64) (Workout, bool) {
	for _, w := range workouts {
		if w.ID == id {
			return w, true
		}
	}
	return Workout{}, false
}
