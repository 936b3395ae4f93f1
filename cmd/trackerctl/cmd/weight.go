package cmd

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newWeightCmd(a *app) *cobra.Command {
	weightCmd := &cobra.Command{
		Use:   "weight",
		Short: "Log body weight",
	}
	weightCmd.AddCommand(&cobra.Command{
		Use:   "add WEIGHT",
		Short: "Log today's body weight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			weight, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid weight [%s]", args[0])
			}
			view, err := a.session.SubmitWeight(cmd.Context(), weight)
			if err != nil {
				return explain(err)
			}
			if a.jsonOutput {
				return a.printJSON(cmd.OutOrStdout(), view.Weights)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "logged %g for %s\n", weight, view.Today)
			if view.Weights.Change.Valid {
				fmt.Fprintf(cmd.OutOrStdout(), "change over last %d entries: %+.2f\n",
					len(view.Weights.Recent), view.Weights.Change.Value)
			}
			return nil
		},
	})
	return weightCmd
}
