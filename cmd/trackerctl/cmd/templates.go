package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/davidjes1/fitnesstracker/internal/tracker"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newTemplatesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List workout templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			drafts := make(map[string]tracker.WorkoutDraft)
			for _, name := range tracker.TemplateNames() {
				draft, err := tracker.Template(name)
				if err != nil {
					return err
				}
				drafts[name] = draft
			}
			if a.jsonOutput {
				return a.printJSON(out, drafts)
			}

			for _, name := range tracker.TemplateNames() {
				color.New(color.Bold).Fprintln(out, name)
				for _, ex := range drafts[name].Exercises {
					reps := make([]string, 0, len(ex.Sets))
					for _, set := range ex.Sets {
						reps = append(reps, strconv.Itoa(*set.Reps))
					}
					fmt.Fprintf(out, "  %s: %s\n", ex.Name, strings.Join(reps, ", "))
				}
			}
			return nil
		},
	}
}
