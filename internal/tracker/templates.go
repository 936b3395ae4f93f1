package tracker

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownTemplate = errors.New("unknown workout template")

type templateExercise struct {
	name string
	reps []int
}

var templates = map[string][]templateExercise{
	"workoutA": {
		{name: "Barbell Back Squat", reps: []int{5, 5, 5}},
		{name: "Barbell Bench Press", reps: []int{5, 5, 5}},
		{name: "Barbell Row", reps: []int{5, 5, 5}},
	},
	"workoutB": {
		{name: "Barbell Deadlift", reps: []int{5, 5, 5}},
		{name: "Overhead Press", reps: []int{5, 5, 5}},
		{name: "Pull-ups/Lat Pulldown", reps: []int{8, 8, 8}},
	},
}

func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Template returns a strength draft pre-filled with exercise names and
// reps. Weights are left empty for the user to fill in.
func Template(name string) (WorkoutDraft, error) {
	exercises, ok := templates[name]
	if !ok {
		return WorkoutDraft{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	draft := WorkoutDraft{Type: WorkoutTypeStrength}
	for _, ex := range exercises {
		exDraft := ExerciseDraft{Name: ex.name}
		for _, reps := range ex.reps {
			r := reps
			exDraft.Sets = append(exDraft.Sets, SetDraft{Reps: &r})
		}
		draft.Exercises = append(draft.Exercises, exDraft)
	}
	return draft, nil
}
