// Shared helpers for gridloom CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mesh-intelligence/gridloom/pkg/types"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// newTable returns a tabwriter for aligned column output.
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

// parseFilterArg parses a --filter value of the form
// field:TYPE:op[:value], e.g. "c1:TEXT:contains:apple" or
// "c2:NUMBER:is_empty". The value part may itself contain colons.
func parseFilterArg(arg string) (types.FilterCondition, error) {
	parts := strings.SplitN(arg, ":", 4)
	if len(parts) < 3 {
		return types.FilterCondition{}, fmt.Errorf("invalid filter %q (expected field:TYPE:op[:value])", arg)
	}
	f := types.FilterCondition{
		Field: parts[0],
		Type:  strings.ToUpper(parts[1]),
		Op:    parts[2],
	}
	if len(parts) == 4 {
		f.Value = parts[3]
	}
	return f, nil
}

// parseSortArg parses a --sort value of the form columnID[:asc|desc].
func parseSortArg(arg string) (types.SortKey, error) {
	parts := strings.SplitN(arg, ":", 2)
	key := types.SortKey{ColumnID: parts[0], Direction: types.SortAsc}
	if parts[0] == "" {
		return key, fmt.Errorf("invalid sort %q (expected columnID[:asc|desc])", arg)
	}
	if len(parts) == 2 {
		switch parts[1] {
		case types.SortAsc, types.SortDesc:
			key.Direction = parts[1]
		default:
			return key, fmt.Errorf("invalid sort direction %q", parts[1])
		}
	}
	return key, nil
}

// parseCellValue interprets a CLI cell value: valid JSON scalars keep their
// type (numbers stay numbers), everything else is a raw string.
func parseCellValue(raw string) any {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return raw
	}
	switch parsed.(type) {
	case string, float64, bool, nil:
		return parsed
	default:
		// Arrays and objects are not cell values; keep the raw text.
		return raw
	}
}
