package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/name-historian/internal/application/handlers"
)

type importFlags struct {
	file   string
	format string
	all    bool
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import [identity...]",
		Short: "Import name histories",
		Long: "Imports name histories from the profile service and merges them into the local history. " +
			"With --file, one identity's history is read from a JSON or CSV export instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.file, "file", "", "Import from a name change export instead of the profile service")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.all, "all", false, "Import every identity in the local history")

	return cmd
}

func runImport(cmd *cobra.Command, args []string, flags importFlags) error {
	switch {
	case flags.file != "" && (flags.all || len(args) != 1):
		return errors.New("--file takes exactly one identity")
	case flags.file == "" && flags.all && len(args) > 0:
		return errors.New("--all takes no identities")
	case flags.file == "" && !flags.all && len(args) == 0:
		return errors.New("give at least one identity, or --all")
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	return withDeps(ctx, func(d *Deps) error {
		if flags.file != "" {
			imported, err := d.ImportHandler.HandleFile(ctx, args[0], flags.file, handlers.FileImportOptions{Format: flags.format})
			if err != nil {
				return fmt.Errorf("importing %s: %w", flags.file, err)
			}
			if !imported {
				fmt.Fprintf(out, "No name changes in %s\n", flags.file)
				return nil
			}
			fmt.Fprintf(out, "Imported history of %s from %s\n", args[0], flags.file)
			return nil
		}

		results, err := d.ImportHandler.HandleRemote(ctx, args, flags.all)
		if results != nil {
			renderImportResults(out, results)
		}
		if err != nil {
			return fmt.Errorf("importing histories: %w", err)
		}
		return nil
	})
}
