package main

import (
	"os"

	"github.com/spf13/cobra"

	"appforge/internal/setup"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			w := &setup.Wizard{
				In:    os.Stdin,
				Out:   cmd.OutOrStdout(),
				Path:  cfgFile,
				Force: force,
			}
			_, err := w.Run(ctx)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}
