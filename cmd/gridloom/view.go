// View commands: list, create, save.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridloom/pkg/types"
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Manage saved views",
}

var (
	flagViewSearch  string
	flagViewFilters []string
	flagViewSort    []string
	flagViewHidden  []string
)

func init() {
	viewSaveCmd.Flags().StringVar(&flagViewSearch, "search", "", "search text to save")
	viewSaveCmd.Flags().StringArrayVar(&flagViewFilters, "filter", nil, "filter condition field:TYPE:op[:value] (repeatable)")
	viewSaveCmd.Flags().StringArrayVar(&flagViewSort, "sort", nil, "sort key columnID[:asc|desc] (repeatable)")
	viewSaveCmd.Flags().StringArrayVar(&flagViewHidden, "hide", nil, "column id to hide (repeatable)")

	viewCmd.AddCommand(viewListCmd)
	viewCmd.AddCommand(viewCreateCmd)
	viewCmd.AddCommand(viewSaveCmd)
}

var viewListCmd = &cobra.Command{
	Use:   "list <grid-id>",
	Short: "List views of a grid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		views, err := store.GetViews(args[0])
		if err != nil {
			return fmt.Errorf("list views: %w", err)
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), views)
		}
		w := newTable(cmd.OutOrStdout())
		fmt.Fprintln(w, "VIEW ID\tNAME\tUPDATED")
		for _, v := range views {
			fmt.Fprintf(w, "%s\t%s\t%s\n", v.ViewID, v.Name, v.UpdatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var viewCreateCmd = &cobra.Command{
	Use:   "create <grid-id> <name>",
	Short: "Create an empty view",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := store.CreateView(args[0], args[1])
		if err != nil {
			return fmt.Errorf("create view: %w", err)
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), view)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created view %s (%s)\n", view.Name, view.ViewID)
		return nil
	},
}

var viewSaveCmd = &cobra.Command{
	Use:   "save <grid-id> <name>",
	Short: "Save a view configuration",
	Long: `Save creates or updates the named view with the given search, filters,
sort keys, and hidden columns. Saving a configuration identical to the
stored one is a no-op.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		config := types.ViewConfig{
			Search:        flagViewSearch,
			HiddenColumns: flagViewHidden,
		}
		for _, arg := range flagViewFilters {
			f, err := parseFilterArg(arg)
			if err != nil {
				return err
			}
			config.Filters = append(config.Filters, f)
		}
		for _, arg := range flagViewSort {
			k, err := parseSortArg(arg)
			if err != nil {
				return err
			}
			config.Sort = append(config.Sort, k)
		}

		view, err := store.SaveView(args[0], args[1], config)
		if err != nil {
			return fmt.Errorf("save view: %w", err)
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), view)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved view %s (%s)\n", view.Name, view.ViewID)
		return nil
	},
}
