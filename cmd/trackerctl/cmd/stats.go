package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/davidjes1/fitnesstracker/internal/tracker"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show workout totals and this week's progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := a.session.Stats()
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(cmd.OutOrStdout(), stats)
			}

			out := cmd.OutOrStdout()
			s := stats.Summary
			fmt.Fprintf(out, "total workouts:  %d\n", s.TotalWorkouts)
			fmt.Fprintf(out, "strength:        %d\n", s.StrengthCount)
			fmt.Fprintf(out, "cardio:          %d\n", s.CardioCount)
			fmt.Fprintf(out, "last 7 days:     %d\n", s.Last7DaysCount)
			fmt.Fprintf(out, "avg recovery:    %s\n", s.AvgRecovery)
			fmt.Fprintf(out, "current weight:  %s\n", s.CurrentWeight)
			fmt.Fprintln(out)
			printWeekly(out, stats.Weekly)
			return nil
		},
	}
}

func printWeekly(out io.Writer, weekly tracker.WeeklyBreakdown) {
	status := color.New(color.FgYellow).Sprintf("%d/%d", weekly.Strength, weekly.Goal)
	if weekly.GoalMet {
		status = color.New(color.FgGreen).Sprintf("%d/%d, goal met", weekly.Strength, weekly.Goal)
	}
	fmt.Fprintf(out, "this week: strength %s, cardio %d\n", status, weekly.Cardio)
}

func newProgressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show personal records and weight trend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			progress, err := a.session.Progress()
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(cmd.OutOrStdout(), progress)
			}

			out := cmd.OutOrStdout()
			color.New(color.Bold).Fprintln(out, "personal records")
			if len(progress.Records) == 0 {
				fmt.Fprintln(out, "  none yet")
			} else {
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				for _, pr := range progress.Records {
					fmt.Fprintf(w, "  %s\t%g x %d\t%s\t\n", pr.Exercise, pr.Weight, pr.Reps, pr.Date)
				}
				_ = w.Flush()
			}

			fmt.Fprintln(out)
			color.New(color.Bold).Fprintln(out, "weight")
			if len(progress.Weights.Recent) == 0 {
				fmt.Fprintln(out, "  no entries yet")
				return nil
			}
			for _, entry := range progress.Weights.Recent {
				fmt.Fprintf(out, "  %s  %g\n", entry.Date, entry.Weight)
			}
			fmt.Fprintf(out, "change: %s\n", progress.Weights.Change)
			return nil
		},
	}
}
