// Column commands: add, rename, delete.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var columnCmd = &cobra.Command{
	Use:   "column",
	Short: "Manage grid columns",
}

var flagColumnDefault string

func init() {
	columnAddCmd.Flags().StringVar(&flagColumnDefault, "default", "", "backfill value for existing rows")
	columnCmd.AddCommand(columnAddCmd)
	columnCmd.AddCommand(columnRenameCmd)
	columnCmd.AddCommand(columnDeleteCmd)
}

var columnAddCmd = &cobra.Command{
	Use:   "add <grid-id> <name> <TEXT|NUMBER>",
	Short: "Add a column and backfill existing rows",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var defaultValue any
		if flagColumnDefault != "" {
			defaultValue = parseCellValue(flagColumnDefault)
		}
		col, err := store.AddColumnAndPopulate(args[0], args[1], strings.ToUpper(args[2]), defaultValue)
		if err != nil {
			return fmt.Errorf("add column: %w", err)
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), col)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added column %s (%s, %s)\n", col.Name, col.ColumnID, col.Type)
		return nil
	},
}

var columnRenameCmd = &cobra.Command{
	Use:   "rename <column-id> <name>",
	Short: "Rename a column",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		col, err := store.RenameColumn(args[0], args[1])
		if err != nil {
			return fmt.Errorf("rename column: %w", err)
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), col)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed column %s to %s\n", col.ColumnID, col.Name)
		return nil
	},
}

var columnDeleteCmd = &cobra.Command{
	Use:   "delete <column-id>",
	Short: "Delete a column definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.DeleteColumn(args[0]); err != nil {
			return fmt.Errorf("delete column: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted column %s\n", args[0])
		return nil
	},
}
