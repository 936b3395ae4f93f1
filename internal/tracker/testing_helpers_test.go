package tracker

import "time"

func intPtr(v int) *int {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

var testToday = NewDate(2024, time.March, 15)

func strengthWorkout(id int64, date Date, exercises ...Exercise) Workout {
	return Workout{
		ID:        id,
		Type:      WorkoutTypeStrength,
		Date:      date,
		Timestamp: time.UnixMilli(id),
		Exercises: exercises,
	}
}

func cardioWorkout(id int64, date Date, activity string, duration int) Workout {
	return Workout{
		ID:        id,
		Type:      WorkoutTypeCardio,
		Date:      date,
		Timestamp: time.UnixMilli(id),
		Cardio: &CardioDetails{
			Activity: activity,
			Duration: duration,
		},
	}
}
