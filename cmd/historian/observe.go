package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/name-historian/internal/application/handlers"
)

func newObserveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "observe <identity> <name> [<identity> <name>...]",
		Short: "Record that players are using names now",
		Long: "Records one observation per identity/name pair, all at the current time. " +
			"Nothing is recorded if any pair is invalid.",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return errors.New("expected identity/name pairs")
			}
			return nil
		},
		RunE: runObserve,
	}
}

func runObserve(cmd *cobra.Command, args []string) error {
	inputs := pairsToInputs(args)

	return withDeps(cmd.Context(), func(d *Deps) error {
		n, err := d.ObserveHandler.Handle(cmd.Context(), inputs)
		if err != nil {
			return fmt.Errorf("recording observations: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d observations\n", n)
		return nil
	})
}

func pairsToInputs(args []string) []handlers.ObservationInput {
	inputs := make([]handlers.ObservationInput, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		inputs = append(inputs, handlers.ObservationInput{Identity: args[i], Name: args[i+1]})
	}
	return inputs
}
