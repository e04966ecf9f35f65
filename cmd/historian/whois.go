package main

import (
	"github.com/spf13/cobra"
)

func newWhoisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whois <name>",
		Short: "Find the identity behind a name",
		Long:  "Looks the name up in the local history first, then in the profile service if lookups are enabled.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				resolved, err := d.ResolveHandler.Handle(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return renderResolution(cmd.OutOrStdout(), args[0], resolved)
			})
		},
	}
}
