package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGridsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "grids",
		Short: "List the registered grids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			for _, name := range a.Service.Grids() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
