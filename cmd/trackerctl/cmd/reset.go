package cmd

import (
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newResetCmd(a *app) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all workouts and weight entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return errors.New("this deletes all your data, run again with --yes")
			}
			if _, err := a.session.ResetData(cmd.Context()); err != nil {
				return explain(err)
			}
			color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "all data deleted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm deleting everything")
	return cmd
}
