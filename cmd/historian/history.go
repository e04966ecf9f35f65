package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history <player>",
		Short: "Show the name history of a player",
		Long:  "Shows every name a player was seen with, newest first. The player is an identity or a name.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				result, err := d.HistoryHandler.Handle(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("fetching history: %w", err)
				}
				if asJSON {
					return renderJSON(cmd.OutOrStdout(), result)
				}
				return renderHistory(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the history as JSON")

	return cmd
}
