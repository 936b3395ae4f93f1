package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/davidjes1/fitnesstracker/internal/session"
	"github.com/davidjes1/fitnesstracker/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.March, 15, 18, 30, 0, 0, time.UTC)

// run executes one trackerctl invocation against the database at dbPath.
func run(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	a := &app{now: func() time.Time { return testNow }}
	root := newRootCmd(a)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--db", dbPath, "--env-file", ""}, args...))

	err := root.Execute()
	a.close()
	return out.String(), err
}

func TestWorkoutLifecycle(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tracker.db")

	out, err := run(t, dbPath, "workout", "add", "--date", "2024-03-14", "-r", "8",
		"-e", "Barbell Back Squat:3*5x100", "-e", "Barbell Row:5x60,5x62.5")
	require.NoError(t, err)
	assert.Contains(t, out, "2 exercises • 5 total sets")

	out, err = run(t, dbPath, "workout", "add", "--type", "cardio", "--activity", "Running",
		"--duration", "30", "--distance", "5km")
	require.NoError(t, err)
	assert.Contains(t, out, "Running • 30 min • 5km")

	out, err = run(t, dbPath, "--json", "workout", "list")
	require.NoError(t, err)
	var history tracker.HistoryList
	require.NoError(t, json.Unmarshal([]byte(out), &history))
	require.Len(t, history, 2)
	assert.Equal(t, tracker.WorkoutTypeCardio, history[0].Type)
	assert.Equal(t, "2024-03-15", history[0].Date.String(), "defaults to today")

	strengthID := history[1].ID
	out, err = run(t, dbPath, "workout", "show", jsonInt(strengthID))
	require.NoError(t, err)
	assert.Contains(t, out, "Barbell Row")
	assert.Contains(t, out, "recovery: 8/10")

	_, err = run(t, dbPath, "workout", "rm", jsonInt(strengthID))
	require.NoError(t, err)
	_, err = run(t, dbPath, "workout", "show", jsonInt(strengthID))
	assert.ErrorIs(t, err, session.ErrWorkoutNotFound)

	out, err = run(t, dbPath, "workout", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "total: 1")
}

func jsonInt(v int64) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}

func TestWorkoutAdd_Invalid(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tracker.db")

	_, err := run(t, dbPath, "workout", "add", "-e", "Squat:0x100")
	require.Error(t, err)
	assert.Equal(t, tracker.ErrNoValidExercises.Message, err.Error())

	_, err = run(t, dbPath, "workout", "add", "--type", "cardio", "--activity", "Rowing")
	require.Error(t, err)
	assert.Equal(t, tracker.ErrMissingDuration.Message, err.Error())

	_, err = run(t, dbPath, "workout", "add", "--date", "14/03/2024", "-e", "Squat:5x100")
	assert.ErrorContains(t, err, "invalid date")

	out, err := run(t, dbPath, "workout", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no workouts logged yet")
}

func TestWorkoutAdd_Template(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tracker.db")

	_, err := run(t, dbPath, "workout", "add", "--template", "workoutA", "--weights", "100")
	assert.ErrorContains(t, err, "got 1 weights")

	out, err := run(t, dbPath, "workout", "add", "--template", "workoutA", "--weights", "100,70,60")
	require.NoError(t, err)
	assert.Contains(t, out, "3 exercises • 9 total sets")

	out, err = run(t, dbPath, "--json", "progress")
	require.NoError(t, err)
	var progress session.ProgressView
	require.NoError(t, json.Unmarshal([]byte(out), &progress))
	require.Len(t, progress.Records, 3)
	assert.Equal(t, "Barbell Back Squat", progress.Records[0].Exercise)
	assert.Equal(t, 100.0, progress.Records[0].Weight)
}

func TestWeightAndStats(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tracker.db")

	out, err := run(t, dbPath, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "avg recovery:    N/A")
	assert.Contains(t, out, "current weight:  N/A")

	_, err = run(t, dbPath, "weight", "add", "182")
	require.NoError(t, err)
	out, err = run(t, dbPath, "weight", "add", "180.5")
	require.NoError(t, err)
	assert.Contains(t, out, "logged 180.5 for 2024-03-15")
	assert.Contains(t, out, "-1.50")

	_, err = run(t, dbPath, "weight", "add", "-3")
	assert.Error(t, err)

	out, err = run(t, dbPath, "--json", "stats")
	require.NoError(t, err)
	var stats session.StatsView
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, tracker.SomeMeasure(180.5), stats.Summary.CurrentWeight)
}

func TestReset(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tracker.db")

	_, err := run(t, dbPath, "workout", "add", "-e", "Squat:5x100")
	require.NoError(t, err)

	_, err = run(t, dbPath, "reset")
	assert.ErrorContains(t, err, "--yes")

	_, err = run(t, dbPath, "reset", "--yes")
	require.NoError(t, err)

	out, err := run(t, dbPath, "workout", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no workouts logged yet")
}

func TestTemplates(t *testing.T) {
	out, err := run(t, filepath.Join(t.TempDir(), "tracker.db"), "templates")
	require.NoError(t, err)
	assert.Contains(t, out, "workoutA")
	assert.Contains(t, out, "Pull-ups/Lat Pulldown: 8, 8, 8")
}

func TestParseExercise(t *testing.T) {
	testCases := []struct {
		name      string
		spec      string
		wantName  string
		wantSets  int
		wantError bool
	}{
		{name: "single set", spec: "Squat:5x100", wantName: "Squat", wantSets: 1},
		{name: "list", spec: "Bench Press:5x60, 5x62.5,3x65", wantName: "Bench Press", wantSets: 3},
		{name: "count prefix", spec: "Row:3*8x50", wantName: "Row", wantSets: 3},
		{name: "uppercase x", spec: "Row:8X50", wantName: "Row", wantSets: 1},
		{name: "no name", spec: ":5x100", wantError: true},
		{name: "no sets", spec: "Squat", wantError: true},
		{name: "bad set", spec: "Squat:five", wantError: true},
		{name: "bad count", spec: "Squat:x*5x100", wantError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			exercise, err := parseExercise(tc.spec)
			if tc.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantName, exercise.Name)
			assert.Len(t, exercise.Sets, tc.wantSets)
		})
	}
}
