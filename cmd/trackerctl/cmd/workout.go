package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/davidjes1/fitnesstracker/internal/tracker"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type workoutFlags struct {
	workoutType string
	date        string
	notes       string
	recovery    int
	exercises   []string
	template    string
	weights     []float64
	activity    string
	duration    int
	distance    string
	avgHR       int
}

func newWorkoutCmd(a *app) *cobra.Command {
	workoutCmd := &cobra.Command{
		Use:   "workout",
		Short: "Log, list and remove workouts",
	}
	workoutCmd.AddCommand(
		newWorkoutAddCmd(a),
		newWorkoutListCmd(a),
		newWorkoutShowCmd(a),
		newWorkoutRemoveCmd(a),
	)
	return workoutCmd
}

func newWorkoutAddCmd(a *app) *cobra.Command {
	var f workoutFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log a workout",
		Long: `Log a strength or cardio workout.

Strength exercises are given as NAME:SETS, where SETS is a comma
separated list of REPSxWEIGHT, optionally prefixed with a count:

  trackerctl workout add -e "Barbell Back Squat:3*5x100" -e "Barbell Row:5x60,5x62.5"

A template fills in the exercises, with one weight per exercise:

  trackerctl workout add --template workoutA --weights 100,70,60

Cardio:

  trackerctl workout add --type cardio --activity Running --duration 30 --distance 5km`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			draft, err := f.draft(a.today())
			if err != nil {
				return err
			}
			view, err := a.session.SubmitWorkout(cmd.Context(), draft)
			if err != nil {
				return explain(err)
			}
			if a.jsonOutput {
				return a.printJSON(cmd.OutOrStdout(), view.History[0])
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "saved workout %d: %s\n",
				view.History[0].ID, view.History[0].Summary)
			printWeekly(cmd.OutOrStdout(), view.Weekly)
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.workoutType, "type", "t", string(tracker.WorkoutTypeStrength), "workout type [strength | cardio]")
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "workout date YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&f.notes, "notes", "n", "", "notes")
	cmd.Flags().IntVarP(&f.recovery, "recovery", "r", 0, "how recovered you felt, 1-10")
	cmd.Flags().StringArrayVarP(&f.exercises, "exercise", "e", nil, "exercise as NAME:REPSxWEIGHT,... (repeatable)")
	cmd.Flags().StringVar(&f.template, "template", "", "start from a template, see 'trackerctl templates'")
	cmd.Flags().Float64SliceVar(&f.weights, "weights", nil, "template weights, one per exercise")
	cmd.Flags().StringVar(&f.activity, "activity", "", "cardio activity")
	cmd.Flags().IntVar(&f.duration, "duration", 0, "cardio duration in minutes")
	cmd.Flags().StringVar(&f.distance, "distance", "", "cardio distance, e.g. 5km")
	cmd.Flags().IntVar(&f.avgHR, "avg-hr", 0, "average heart rate")
	return cmd
}

func (f *workoutFlags) draft(today tracker.Date) (tracker.WorkoutDraft, error) {
	date := today
	if f.date != "" {
		parsed, err := tracker.ParseDate(f.date)
		if err != nil {
			return tracker.WorkoutDraft{}, fmt.Errorf("invalid date [%s], use YYYY-MM-DD", f.date)
		}
		date = parsed
	}

	draft := tracker.WorkoutDraft{
		Type:     tracker.WorkoutType(f.workoutType),
		Date:     date,
		Notes:    f.notes,
		Recovery: optionalInt(f.recovery),
	}
	if f.template != "" {
		templateDraft, err := tracker.Template(f.template)
		if err != nil {
			return tracker.WorkoutDraft{}, err
		}
		draft.Type = templateDraft.Type
		draft.Exercises = templateDraft.Exercises
		if err := applyTemplateWeights(draft.Exercises, f.weights); err != nil {
			return tracker.WorkoutDraft{}, err
		}
	}

	for _, spec := range f.exercises {
		exercise, err := parseExercise(spec)
		if err != nil {
			return tracker.WorkoutDraft{}, err
		}
		draft.Exercises = append(draft.Exercises, exercise)
	}

	if draft.Type == tracker.WorkoutTypeCardio {
		draft.Cardio = &tracker.CardioDraft{
			Activity: f.activity,
			Duration: optionalInt(f.duration),
			Distance: f.distance,
			AvgHR:    optionalInt(f.avgHR),
		}
	}
	return draft, nil
}

func applyTemplateWeights(exercises []tracker.ExerciseDraft, weights []float64) error {
	if len(weights) != len(exercises) {
		return fmt.Errorf("template has %d exercises, got %d weights", len(exercises), len(weights))
	}
	for i := range exercises {
		for j := range exercises[i].Sets {
			w := weights[i]
			exercises[i].Sets[j].Weight = &w
		}
	}
	return nil
}

// parseExercise reads NAME:SET[,SET...], SET being REPSxWEIGHT or
// COUNT*REPSxWEIGHT.
func parseExercise(spec string) (tracker.ExerciseDraft, error) {
	sep := strings.LastIndex(spec, ":")
	if sep <= 0 {
		return tracker.ExerciseDraft{}, fmt.Errorf("invalid exercise [%s], use NAME:REPSxWEIGHT,...", spec)
	}

	exercise := tracker.ExerciseDraft{Name: strings.TrimSpace(spec[:sep])}
	for _, set := range strings.Split(spec[sep+1:], ",") {
		set = strings.TrimSpace(set)
		count := 1
		if before, after, found := strings.Cut(set, "*"); found {
			n, err := strconv.Atoi(before)
			if err != nil || n <= 0 {
				return tracker.ExerciseDraft{}, fmt.Errorf("invalid set count in [%s]", set)
			}
			count = n
			set = after
		}

		repsStr, weightStr, found := strings.Cut(strings.ToLower(set), "x")
		if !found {
			return tracker.ExerciseDraft{}, fmt.Errorf("invalid set [%s], use REPSxWEIGHT", set)
		}
		reps, err := strconv.Atoi(repsStr)
		if err != nil {
			return tracker.ExerciseDraft{}, fmt.Errorf("invalid reps in [%s]", set)
		}
		weight, err := strconv.ParseFloat(weightStr, 64)
		if err != nil {
			return tracker.ExerciseDraft{}, fmt.Errorf("invalid weight in [%s]", set)
		}

		for i := 0; i < count; i++ {
			r, w := reps, weight
			exercise.Sets = append(exercise.Sets, tracker.SetDraft{Reps: &r, Weight: &w})
		}
	}
	return exercise, nil
}

func optionalInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func newWorkoutListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "history"},
		Short:   "List workouts, most recent first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			history, err := a.session.History()
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(cmd.OutOrStdout(), history)
			}
			printHistory(cmd.OutOrStdout(), history)
			return nil
		},
	}
}

func printHistory(out io.Writer, history tracker.HistoryList) {
	if len(history) == 0 {
		fmt.Fprintln(out, "no workouts logged yet")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tDATE\tTYPE\tSUMMARY\tRECOVERY\t\n")
	for _, item := range history {
		recovery := "-"
		if item.Recovery != nil {
			recovery = strconv.Itoa(*item.Recovery)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n", item.ID, item.Date, item.Type, item.Summary, recovery)
	}
	_ = w.Flush()
	fmt.Fprintf(out, "\ntotal: %d\n", len(history))
}

func newWorkoutShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one workout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid workout id [%s]", args[0])
			}
			workout, err := a.session.Workout(id)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(cmd.OutOrStdout(), workout)
			}
			printWorkout(cmd.OutOrStdout(), workout)
			return nil
		},
	}
}

func printWorkout(out io.Writer, w tracker.Workout) {
	color.New(color.Bold).Fprintf(out, "%s workout on %s\n", w.Type, w.Date)
	if w.Recovery != nil {
		fmt.Fprintf(out, "recovery: %d/10\n", *w.Recovery)
	}
	if w.Notes != "" {
		fmt.Fprintf(out, "notes: %s\n", w.Notes)
	}

	if w.Cardio != nil {
		fmt.Fprintf(out, "%s\n", w.Summary())
		if w.Cardio.AvgHR != nil {
			fmt.Fprintf(out, "avg heart rate: %d bpm\n", *w.Cardio.AvgHR)
		}
		return
	}
	for _, ex := range w.Exercises {
		fmt.Fprintf(out, "  %s\n", ex.Name)
		for i, set := range ex.Sets {
			fmt.Fprintf(out, "    set %d: %d x %g\n", i+1, set.Reps, set.Weight)
		}
	}
}

func newWorkoutRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Remove a workout",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid workout id [%s]", args[0])
			}
			if _, err := a.session.DeleteWorkout(cmd.Context(), id); err != nil {
				return explain(err)
			}
			color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "removed workout %d\n", id)
			return nil
		},
	}
}
