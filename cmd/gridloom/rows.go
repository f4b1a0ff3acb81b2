// Rows command: query one page of rows under search, filters, sort, and
// cursor pagination.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/gridloom/pkg/types"
)

var (
	flagRowsSearch  string
	flagRowsFilters []string
	flagRowsSort    []string
	flagRowsLimit   int
	flagRowsCursor  string
)

var rowsCmd = &cobra.Command{
	Use:   "rows <grid-id>",
	Short: "List one page of rows",
	Long: `List queries one page of rows from a grid.

Filters take the form field:TYPE:op[:value] and are ANDed together.
TEXT ops: equals, contains, not_contains, is_empty, is_not_empty.
NUMBER ops: >, <, =, is_empty, is_not_empty.
Sort keys take the form columnID[:asc|desc]; earlier keys win.

Example:
  gridloom rows GRID --filter 'COL:TEXT:contains:apple' --sort 'COL:desc' --limit 20
  gridloom rows GRID --search apple --cursor ROW`,
	Args: cobra.ExactArgs(1),
	RunE: runRows,
}

func init() {
	rowsCmd.Flags().StringVar(&flagRowsSearch, "search", "", "match any column, case-insensitive")
	rowsCmd.Flags().StringArrayVar(&flagRowsFilters, "filter", nil, "filter condition field:TYPE:op[:value] (repeatable)")
	rowsCmd.Flags().StringArrayVar(&flagRowsSort, "sort", nil, "sort key columnID[:asc|desc] (repeatable)")
	rowsCmd.Flags().IntVar(&flagRowsLimit, "limit", 50, "page size")
	rowsCmd.Flags().StringVar(&flagRowsCursor, "cursor", "", "row id of the last row of the prior page")
}

func runRows(cmd *cobra.Command, args []string) error {
	gridID := args[0]

	spec := types.QuerySpec{
		Search: flagRowsSearch,
		Cursor: flagRowsCursor,
		Limit:  flagRowsLimit,
	}
	for _, arg := range flagRowsFilters {
		f, err := parseFilterArg(arg)
		if err != nil {
			return err
		}
		spec.Filters = append(spec.Filters, f)
	}
	for _, arg := range flagRowsSort {
		k, err := parseSortArg(arg)
		if err != nil {
			return err
		}
		spec.Sort = append(spec.Sort, k)
	}

	_, columns, err := store.GetGrid(gridID)
	if err != nil {
		return fmt.Errorf("get grid: %w", err)
	}
	page, err := store.GetRows(gridID, spec)
	if err != nil {
		return fmt.Errorf("get rows: %w", err)
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), page)
	}

	w := newTable(cmd.OutOrStdout())
	fmt.Fprint(w, "ROW ID")
	for _, col := range columns {
		fmt.Fprintf(w, "\t%s", col.Name)
	}
	fmt.Fprintln(w)
	for _, row := range page.Rows {
		fmt.Fprint(w, row.RowID)
		for _, col := range columns {
			fmt.Fprintf(w, "\t%s", types.CellString(row.Document[col.ColumnID]))
		}
		fmt.Fprintln(w)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if page.NextCursor != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "next cursor: %s\n", page.NextCursor)
	}
	return nil
}
