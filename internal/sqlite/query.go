// Query compilation. Ordering is pushed into SQLite via json_extract so one
// bounded statement serves each fetch; filters and search are compiled to Go
// predicates and evaluated while streaming, because SQLite's CAST coerces
// non-numeric text to 0 and would silently match NUMBER conditions it must
// not match.
package sqlite

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/gridloom/pkg/types"
)

// rowPredicate reports whether a row document matches one compiled condition.
type rowPredicate func(doc map[string]any) bool

// GetRows executes the query spec against the grid and returns one page of
// rows plus a cursor for the next page. Returns ErrInvalidLimit for a
// non-positive limit and ErrNotFound when the grid or the cursor row does
// not exist.
func (s *Store) GetRows(gridID string, spec types.QuerySpec) (*types.RowPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	if gridID == "" {
		return nil, types.ErrInvalidID
	}
	if spec.Limit <= 0 {
		return nil, types.ErrInvalidLimit
	}
	if _, err := s.getGrid(gridID); err != nil {
		return nil, err
	}
	columns, err := s.getColumns(gridID)
	if err != nil {
		return nil, err
	}
	catalog := make(map[string]*types.Column, len(columns))
	for _, col := range columns {
		catalog[col.ColumnID] = col
	}

	if spec.Cursor != "" {
		var n int
		if err := s.db.QueryRow(
			"SELECT COUNT(*) FROM rows WHERE row_id = ? AND grid_id = ?",
			spec.Cursor, gridID).Scan(&n); err != nil {
			return nil, fmt.Errorf("checking cursor: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: cursor row %s", types.ErrNotFound, spec.Cursor)
		}
	}

	predicates := compileFilters(spec.ActiveFilters(), catalog)
	if p := compileSearch(spec.Search, columns); p != nil {
		predicates = append(predicates, p)
	}

	query := "SELECT row_id, document FROM rows WHERE grid_id = ? ORDER BY " +
		orderClause(spec.Sort, catalog)
	rows, err := s.db.Query(query, gridID)
	if err != nil {
		return nil, fmt.Errorf("querying rows: %w", err)
	}
	defer rows.Close()

	page := &types.RowPage{Rows: []*types.Row{}}
	// The cursor positions within the raw ordered stream, before predicates:
	// a cursor row that no longer matches the filters still marks the
	// resume point.
	skipping := spec.Cursor != ""
	for rows.Next() {
		var rowID, raw string
		if err := rows.Scan(&rowID, &raw); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if skipping {
			if rowID == spec.Cursor {
				skipping = false
			}
			continue
		}

		var doc map[string]any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("parsing row document %s: %w", rowID, err)
		}
		if !matchesAll(doc, predicates) {
			continue
		}

		page.Rows = append(page.Rows, &types.Row{RowID: rowID, GridID: gridID, Document: doc})
		if len(page.Rows) > spec.Limit {
			// One extra row proves a next page exists; it belongs to that page.
			page.Rows = page.Rows[:spec.Limit]
			page.NextCursor = page.Rows[spec.Limit-1].RowID
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return page, nil
}

// orderClause builds the ORDER BY expression for the sort keys. Keys naming
// columns outside the catalog are dropped; row_id is always the final
// tie-break, so any ordering is total and row ids alone can serve as
// pagination cursors.
func orderClause(sort []types.SortKey, catalog map[string]*types.Column) string {
	terms := make([]string, 0, len(sort)+1)
	for _, key := range sort {
		col, ok := catalog[key.ColumnID]
		if !ok {
			continue
		}
		// Column ids come from our own catalog, never from user text.
		expr := fmt.Sprintf(`json_extract(document, '$."%s"')`, col.ColumnID)
		if col.Type == types.ColumnNumber {
			expr = "CAST(" + expr + " AS REAL)"
		} else {
			expr += " COLLATE NOCASE"
		}
		if key.Descending() {
			expr += " DESC"
		} else {
			expr += " ASC"
		}
		terms = append(terms, expr)
	}
	terms = append(terms, "row_id ASC")
	return strings.Join(terms, ", ")
}

// compileFilters turns the active conditions into predicates. Conditions
// naming columns outside the catalog are dropped.
func compileFilters(filters []types.FilterCondition, catalog map[string]*types.Column) []rowPredicate {
	predicates := make([]rowPredicate, 0, len(filters))
	for _, f := range filters {
		if _, ok := catalog[f.Field]; !ok {
			continue
		}
		if p := compileCondition(f); p != nil {
			predicates = append(predicates, p)
		}
	}
	return predicates
}

// compileCondition compiles one non-inert condition into a predicate.
func compileCondition(f types.FilterCondition) rowPredicate {
	field := f.Field
	switch f.Op {
	case types.OpIsEmpty:
		return func(doc map[string]any) bool {
			return types.CellString(doc[field]) == ""
		}
	case types.OpIsNotEmpty:
		return func(doc map[string]any) bool {
			return types.CellString(doc[field]) != ""
		}
	}

	if f.Type == types.ColumnNumber {
		// A filter value that does not parse as a number matches nothing.
		// The condition stays in place and the caller sees an empty result
		// rather than an error.
		want, ok := types.CellNumber(f.Value)
		if !ok {
			return func(map[string]any) bool { return false }
		}
		var cmp func(float64) bool
		switch f.Op {
		case types.OpGreater:
			cmp = func(have float64) bool { return have > want }
		case types.OpLess:
			cmp = func(have float64) bool { return have < want }
		case types.OpNumberEqual:
			cmp = func(have float64) bool { return have == want }
		default:
			return nil
		}
		return func(doc map[string]any) bool {
			have, ok := types.CellNumber(doc[field])
			return ok && cmp(have)
		}
	}

	// TEXT comparisons are case-insensitive.
	want := strings.ToLower(types.CellString(f.Value))
	switch f.Op {
	case types.OpEquals:
		return func(doc map[string]any) bool {
			return strings.ToLower(types.CellString(doc[field])) == want
		}
	case types.OpContains:
		return func(doc map[string]any) bool {
			return strings.Contains(strings.ToLower(types.CellString(doc[field])), want)
		}
	case types.OpNotContains:
		return func(doc map[string]any) bool {
			return !strings.Contains(strings.ToLower(types.CellString(doc[field])), want)
		}
	}
	return nil
}

// compileSearch compiles the free-text search into a predicate matching any
// catalog column, case-insensitively. Returns nil for a blank search.
func compileSearch(search string, columns []*types.Column) rowPredicate {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return nil
	}
	ids := make([]string, len(columns))
	for i, col := range columns {
		ids[i] = col.ColumnID
	}
	return func(doc map[string]any) bool {
		for _, id := range ids {
			if strings.Contains(strings.ToLower(types.CellString(doc[id])), needle) {
				return true
			}
		}
		return false
	}
}

func matchesAll(doc map[string]any, predicates []rowPredicate) bool {
	for _, p := range predicates {
		if !p(doc) {
			return false
		}
	}
	return true
}
