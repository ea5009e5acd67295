package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ammiranda/position_service/position"
)

func newReorderCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder GRID PARENT_ID [ROW_ID:SORT_KEY...]",
		Short: "Reorder a parent's rows",
		Long: `reorder gives the listed rows a new sort key and rewrites every row of the
parent to positions 0..N-1. Rows that are not listed keep their relative order.
Sort keys may be negative: "12:-1" moves row 12 to the front.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid parent id %q: %w", args[1], err)
			}
			updates, err := parseUpdates(args[2:])
			if err != nil {
				return err
			}

			a, err := opts.build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			errs, err := a.Service.Reorder(cmd.Context(), args[0], parentID, updates)
			if err != nil {
				return err
			}
			for _, e := range errs {
				fmt.Fprintln(cmd.ErrOrStderr(), e.Message())
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d of the rows could not be updated", len(errs))
			}

			fmt.Fprintln(cmd.OutOrStdout(), "positions updated")
			return nil
		},
	}
}

// parseUpdates reads ROW_ID:SORT_KEY pairs in order
func parseUpdates(args []string) ([]position.RowUpdate, error) {
	updates := make([]position.RowUpdate, 0, len(args))
	for _, arg := range args {
		rowPart, keyPart, ok := strings.Cut(arg, ":")
		if !ok {
			return nil, fmt.Errorf("invalid update %q: expected ROW_ID:SORT_KEY", arg)
		}
		rowID, err := strconv.ParseInt(rowPart, 10, 64)
		if err != nil || rowID <= 0 {
			return nil, fmt.Errorf("invalid row id in %q", arg)
		}
		key, err := strconv.Atoi(keyPart)
		if err != nil {
			return nil, fmt.Errorf("invalid sort key in %q", arg)
		}
		updates = append(updates, position.RowUpdate{RowID: rowID, NewPosition: key})
	}
	return updates, nil
}
