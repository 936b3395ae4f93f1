package tracker

import (
	"errors"
	"math"
	"strings"
)

// ValidationError is returned for drafts that cannot become entries.
// Nothing is mutated when one is returned.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrMissingDate = &ValidationError{
		Code:    "missing_date",
		Message: "workout date is required",
	}
	ErrNoValidExercises = &ValidationError{
		Code:    "no_valid_exercises",
		Message: "add at least one exercise with reps and weight",
	}
	ErrMissingDuration = &ValidationError{
		Code:    "missing_duration",
		Message: "cardio duration is required",
	}
	ErrMissingWeight = &ValidationError{
		Code:    "missing_weight",
		Message: "weight is required",
	}
	ErrInvalidWorkoutType = &ValidationError{
		Code:    "invalid_workout_type",
		Message: "workout type must be strength or cardio",
	}
)

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// SetDraft leaves Reps or Weight nil when the field was not filled in.
type SetDraft struct {
	Reps   *int     `json:"reps"`
	Weight *float64 `json:"weight"`
}

type ExerciseDraft struct {
	Name string     `json:"name"`
	Sets []SetDraft `json:"sets"`
}

type CardioDraft struct {
	Activity string `json:"activity"`
	Duration *int   `json:"duration"`
	Distance string `json:"distance"`
	AvgHR    *int   `json:"avgHR"`
}

type WorkoutDraft struct {
	Type      WorkoutType     `json:"type"`
	Date      Date            `json:"date"`
	Notes     string          `json:"notes"`
	Recovery  *int            `json:"recovery"`
	Exercises []ExerciseDraft `json:"exercises"`
	Cardio    *CardioDraft    `json:"cardio"`
}

// ValidateWorkoutDraft turns a draft into a Workout without ID and
// Timestamp, which the caller stamps on save.
// Incomplete sets and exercises left with no sets are dropped silently.
func ValidateWorkoutDraft(draft WorkoutDraft) (Workout, error) {
	workoutType := draft.Type
	if workoutType == "" {
		workoutType = WorkoutTypeStrength
	}
	if !workoutType.Valid() {
		return Workout{}, ErrInvalidWorkoutType
	}
	if draft.Date.IsZero() {
		return Workout{}, ErrMissingDate
	}

	w := Workout{
		Type:     workoutType,
		Date:     draft.Date,
		Notes:    strings.TrimSpace(draft.Notes),
		Recovery: positiveOrNil(draft.Recovery),
	}

	if workoutType == WorkoutTypeCardio {
		cardio, err := validateCardio(draft.Cardio)
		if err != nil {
			return Workout{}, err
		}
		w.Cardio = cardio
		return w, nil
	}

	for _, exDraft := range draft.Exercises {
		name := strings.TrimSpace(exDraft.Name)
		if name == "" {
			continue
		}
		var sets []Set
		for _, s := range exDraft.Sets {
			if s.Reps == nil || s.Weight == nil {
				continue
			}
			if *s.Reps <= 0 || *s.Weight < 0 || math.IsNaN(*s.Weight) || math.IsInf(*s.Weight, 0) {
				continue
			}
			sets = append(sets, Set{Reps: *s.Reps, Weight: *s.Weight})
		}
		if len(sets) == 0 {
			continue
		}
		w.Exercises = append(w.Exercises, Exercise{Name: name, Sets: sets})
	}
	if len(w.Exercises) == 0 {
		return Workout{}, ErrNoValidExercises
	}

	return w, nil
}

func validateCardio(draft *CardioDraft) (*CardioDetails, error) {
	if draft == nil || draft.Duration == nil || *draft.Duration <= 0 {
		return nil, ErrMissingDuration
	}
	return &CardioDetails{
		Activity: strings.TrimSpace(draft.Activity),
		Duration: *draft.Duration,
		Distance: strings.TrimSpace(draft.Distance),
		AvgHR:    positiveOrNil(draft.AvgHR),
	}, nil
}

// ValidateWeight accepts only a positive body weight.
func ValidateWeight(weight float64) error {
	if weight <= 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return ErrMissingWeight
	}
	return nil
}

func positiveOrNil(v *int) *int {
	if v == nil || *v <= 0 {
		return nil
	}
	val := *v
	return &val
}
