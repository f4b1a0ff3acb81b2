// Row and cell commands.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rowCmd = &cobra.Command{
	Use:   "row",
	Short: "Manage grid rows",
}

func init() {
	rowCmd.AddCommand(rowAddCmd)
}

var rowAddCmd = &cobra.Command{
	Use:   "add <grid-id>",
	Short: "Append an empty row",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		row, err := store.AddRow(args[0])
		if err != nil {
			return fmt.Errorf("add row: %w", err)
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), row)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added row %s\n", row.RowID)
		return nil
	},
}

var cellCmd = &cobra.Command{
	Use:   "cell",
	Short: "Manage individual cells",
}

func init() {
	cellCmd.AddCommand(cellSetCmd)
}

var cellSetCmd = &cobra.Command{
	Use:   "set <grid-id> <row-id> <column-id> <value>",
	Short: "Set one cell value",
	Long: `Set one cell of one row. The value is parsed as JSON when possible, so
numbers stay numbers; anything else is stored as a string.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		value := parseCellValue(args[3])
		if err := store.UpdateCell(args[0], args[1], args[2], value); err != nil {
			return fmt.Errorf("set cell: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set cell %s/%s\n", args[1], args[2])
		return nil
	},
}
