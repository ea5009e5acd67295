package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list GRID PARENT_ID",
		Short: "Print the stored order of a parent's rows",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid parent id %q: %w", args[1], err)
			}

			a, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			rows, err := a.Service.List(cmd.Context(), args[0], parentID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "POSITION\tROW")
			for _, row := range rows {
				fmt.Fprintf(w, "%d\t%d\n", row.Position, row.RowID)
			}
			return w.Flush()
		},
	}
}
