// Seed command: bulk-insert generated rows.
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed <grid-id> <count>",
	Short: "Insert generated rows honoring each column's type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid count %q", args[1])
		}
		if err := store.SeedRows(args[0], count); err != nil {
			return fmt.Errorf("seed rows: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d rows into grid %s\n", count, args[0])
		return nil
	},
}
