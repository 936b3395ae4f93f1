package tracker

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWorkoutDraft_Strength(t *testing.T) {
	draft := WorkoutDraft{
		Type:     WorkoutTypeStrength,
		Date:     testToday,
		Notes:    "  felt strong ",
		Recovery: intPtr(8),
		Exercises: []ExerciseDraft{
			{
				Name: "Bench Press",
				Sets: []SetDraft{
					{Reps: intPtr(5), Weight: floatPtr(100)},
					{Reps: intPtr(5)},
				},
			},
		},
	}

	w, err := ValidateWorkoutDraft(draft)
	require.NoError(t, err)
	assert.Equal(t, WorkoutTypeStrength, w.Type)
	assert.Equal(t, testToday, w.Date)
	assert.Equal(t, "felt strong", w.Notes)
	require.NotNil(t, w.Recovery)
	assert.Equal(t, 8, *w.Recovery)
	require.Len(t, w.Exercises, 1)
	assert.Equal(t, []Set{{Reps: 5, Weight: 100}}, w.Exercises[0].Sets)
	assert.Nil(t, w.Cardio)
	assert.Zero(t, w.ID)
}

func TestValidateWorkoutDraft_NoCompleteSets(t *testing.T) {
	draft := WorkoutDraft{
		Type: WorkoutTypeStrength,
		Date: testToday,
		Exercises: []ExerciseDraft{
			{Name: "Squat", Sets: []SetDraft{{Reps: intPtr(5)}, {Weight: floatPtr(80)}}},
			{Name: "", Sets: []SetDraft{{Reps: intPtr(5), Weight: floatPtr(80)}}},
			{Name: "Row", Sets: []SetDraft{{Reps: intPtr(0), Weight: floatPtr(50)}}},
		},
	}

	_, err := ValidateWorkoutDraft(draft)
	assert.ErrorIs(t, err, ErrNoValidExercises)
	assert.True(t, IsValidationError(err))
}

func TestValidateWorkoutDraft_DropsNonFiniteWeights(t *testing.T) {
	draft := WorkoutDraft{
		Type: WorkoutTypeStrength,
		Date: testToday,
		Exercises: []ExerciseDraft{
			{
				Name: "Squat",
				Sets: []SetDraft{
					{Reps: intPtr(5), Weight: floatPtr(math.Inf(1))},
					{Reps: intPtr(5), Weight: floatPtr(120)},
					{Reps: intPtr(5), Weight: floatPtr(math.NaN())},
				},
			},
			{Name: "Deadlift", Sets: []SetDraft{{Reps: intPtr(3), Weight: floatPtr(math.Inf(-1))}}},
		},
	}

	w, err := ValidateWorkoutDraft(draft)
	require.NoError(t, err)
	require.Len(t, w.Exercises, 1)
	assert.Equal(t, []Set{{Reps: 5, Weight: 120}}, w.Exercises[0].Sets)

	draft.Exercises = draft.Exercises[1:]
	_, err = ValidateWorkoutDraft(draft)
	assert.ErrorIs(t, err, ErrNoValidExercises)
}

func TestValidateWorkoutDraft_DropsEmptyExercisesKeepsOrder(t *testing.T) {
	draft := WorkoutDraft{
		Date: testToday,
		Exercises: []ExerciseDraft{
			{Name: "Squat", Sets: []SetDraft{{Reps: intPtr(5), Weight: floatPtr(120)}}},
			{Name: "Curl", Sets: []SetDraft{{Reps: intPtr(10)}}},
			{Name: "Pull-ups", Sets: []SetDraft{{Reps: intPtr(8), Weight: floatPtr(0)}}},
		},
	}

	w, err := ValidateWorkoutDraft(draft)
	require.NoError(t, err)
	// empty type defaults to strength
	assert.Equal(t, WorkoutTypeStrength, w.Type)
	require.Len(t, w.Exercises, 2)
	assert.Equal(t, "Squat", w.Exercises[0].Name)
	assert.Equal(t, "Pull-ups", w.Exercises[1].Name)
	assert.Equal(t, 0.0, w.Exercises[1].Sets[0].Weight)
}

func TestValidateWorkoutDraft_MissingDate(t *testing.T) {
	_, err := ValidateWorkoutDraft(WorkoutDraft{
		Type: WorkoutTypeCardio,
		Cardio: &CardioDraft{
			Activity: "Running",
			Duration: intPtr(30),
		},
	})
	assert.ErrorIs(t, err, ErrMissingDate)
}

func TestValidateWorkoutDraft_InvalidType(t *testing.T) {
	_, err := ValidateWorkoutDraft(WorkoutDraft{Type: "yoga", Date: testToday})
	assert.ErrorIs(t, err, ErrInvalidWorkoutType)
}

func TestValidateWorkoutDraft_Cardio(t *testing.T) {
	w, err := ValidateWorkoutDraft(WorkoutDraft{
		Type:     WorkoutTypeCardio,
		Date:     NewDate(2024, time.March, 10),
		Recovery: intPtr(0),
		Cardio: &CardioDraft{
			Activity: "Running",
			Duration: intPtr(30),
			Distance: "5 km",
			AvgHR:    intPtr(0),
		},
		// ignored for cardio
		Exercises: []ExerciseDraft{{Name: "Squat"}},
	})
	require.NoError(t, err)
	assert.Nil(t, w.Exercises)
	require.NotNil(t, w.Cardio)
	assert.Equal(t, "Running", w.Cardio.Activity)
	assert.Equal(t, 30, w.Cardio.Duration)
	assert.Equal(t, "5 km", w.Cardio.Distance)
	assert.Nil(t, w.Cardio.AvgHR)
	// recovery 0 counts as not given
	assert.Nil(t, w.Recovery)
}

func TestValidateWorkoutDraft_CardioMissingDuration(t *testing.T) {
	for _, cardio := range []*CardioDraft{
		nil,
		{Activity: "Cycling"},
		{Activity: "Cycling", Duration: intPtr(0)},
	} {
		_, err := ValidateWorkoutDraft(WorkoutDraft{
			Type:   WorkoutTypeCardio,
			Date:   testToday,
			Cardio: cardio,
		})
		assert.ErrorIs(t, err, ErrMissingDuration)
	}
}

func TestValidateWorkoutDraft_DoesNotAliasDraft(t *testing.T) {
	recovery := 7
	draft := WorkoutDraft{
		Type:     WorkoutTypeStrength,
		Date:     testToday,
		Recovery: &recovery,
		Exercises: []ExerciseDraft{
			{Name: "Squat", Sets: []SetDraft{{Reps: intPtr(5), Weight: floatPtr(100)}}},
		},
	}
	w, err := ValidateWorkoutDraft(draft)
	require.NoError(t, err)

	recovery = 2
	assert.Equal(t, 7, *w.Recovery)
}

func TestValidateWeight(t *testing.T) {
	assert.NoError(t, ValidateWeight(180.5))
	assert.ErrorIs(t, ValidateWeight(0), ErrMissingWeight)
	assert.ErrorIs(t, ValidateWeight(-3), ErrMissingWeight)
}
