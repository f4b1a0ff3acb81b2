// Grid commands: create, list, rename, delete.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Manage grids",
}

func init() {
	gridCmd.AddCommand(gridCreateCmd)
	gridCmd.AddCommand(gridListCmd)
	gridCmd.AddCommand(gridRenameCmd)
	gridCmd.AddCommand(gridDeleteCmd)
}

var gridCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a grid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		grid, err := store.CreateGrid(args[0])
		if err != nil {
			return fmt.Errorf("create grid: %w", err)
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), grid)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created grid %s (%s)\n", grid.Name, grid.GridID)
		return nil
	},
}

var gridListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all grids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		grids, err := store.ListGrids()
		if err != nil {
			return fmt.Errorf("list grids: %w", err)
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), grids)
		}
		w := newTable(cmd.OutOrStdout())
		fmt.Fprintln(w, "GRID ID\tNAME\tCREATED")
		for _, g := range grids {
			fmt.Fprintf(w, "%s\t%s\t%s\n", g.GridID, g.Name, g.CreatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var gridRenameCmd = &cobra.Command{
	Use:   "rename <grid-id> <name>",
	Short: "Rename a grid",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		grid, err := store.RenameGrid(args[0], args[1])
		if err != nil {
			return fmt.Errorf("rename grid: %w", err)
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), grid)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed grid %s to %s\n", grid.GridID, grid.Name)
		return nil
	},
}

var gridDeleteCmd = &cobra.Command{
	Use:   "delete <grid-id>",
	Short: "Delete a grid with its columns, rows, and views",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.DeleteGrid(args[0]); err != nil {
			return fmt.Errorf("delete grid: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted grid %s\n", args[0])
		return nil
	},
}
