package sqlite

import (
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/gridloom/pkg/types"
)

// AddRow appends a row with an empty document to the grid.
func (s *Store) AddRow(gridID string) (*types.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	if gridID == "" {
		return nil, types.ErrInvalidID
	}
	if _, err := s.getGrid(gridID); err != nil {
		return nil, err
	}

	row := &types.Row{
		RowID:    newUUID(),
		GridID:   gridID,
		Document: map[string]any{},
	}
	if _, err := s.db.Exec(
		"INSERT INTO rows (row_id, grid_id, document) VALUES (?, ?, ?)",
		row.RowID, row.GridID, "{}"); err != nil {
		return nil, fmt.Errorf("inserting row: %w", err)
	}

	if err := s.persistRowsJSONL(); err != nil {
		return nil, err
	}
	return row, nil
}

// UpdateCell sets one key of one row's document. The update goes through
// json_set so concurrent edits to different columns of the same row compose
// instead of overwriting the whole document. Returns ErrNotFound if the
// grid, row, or column does not exist.
func (s *Store) UpdateCell(gridID, rowID, columnID string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.ErrStoreDetached
	}
	if gridID == "" || rowID == "" || columnID == "" {
		return types.ErrInvalidID
	}

	var n int
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM columns WHERE column_id = ? AND grid_id = ?",
		columnID, gridID).Scan(&n); err != nil {
		return fmt.Errorf("checking column: %w", err)
	}
	if n == 0 {
		return types.ErrNotFound
	}

	// json_set needs a JSON-encoded value so strings, numbers, booleans, and
	// null all land in the document with their native JSON type.
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cell value: %w", err)
	}
	path := "$." + quoteJSONKey(columnID)
	res, err := s.db.Exec(
		"UPDATE rows SET document = json_set(document, ?, json(?)) WHERE row_id = ? AND grid_id = ?",
		path, string(encoded), rowID, gridID)
	if err != nil {
		return fmt.Errorf("updating cell: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return types.ErrNotFound
	}

	return s.persistRowsJSONL()
}

// quoteJSONKey wraps a document key for use in a SQLite JSON path, escaping
// embedded quotes. Column ids are UUIDs in practice, but the query engine
// never trusts that.
func quoteJSONKey(key string) string {
	quoted, _ := json.Marshal(key)
	return string(quoted)
}
