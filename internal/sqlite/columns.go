package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/gridloom/pkg/types"
)

// AddColumnAndPopulate creates a column and backfills every existing row's
// document with defaultValue under the new key, in one transaction. A nil
// defaultValue backfills the column type's zero value, so every row has the
// key the moment the column becomes visible.
func (s *Store) AddColumnAndPopulate(gridID, name, columnType string, defaultValue any) (*types.Column, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	if gridID == "" {
		return nil, types.ErrInvalidID
	}
	if strings.TrimSpace(name) == "" {
		return nil, types.ErrInvalidName
	}
	if !types.IsValidColumnType(columnType) {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidColumnType, columnType)
	}
	if _, err := s.getGrid(gridID); err != nil {
		return nil, err
	}

	if defaultValue == nil {
		defaultValue = types.DefaultCellValue(columnType)
	}
	encoded, err := json.Marshal(defaultValue)
	if err != nil {
		return nil, fmt.Errorf("encoding default value: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// MAX+1, not COUNT: after a deletion COUNT would reuse a live ordinal
	// and the new column could display before older ones.
	var ordinal int
	if err := tx.QueryRow(
		"SELECT COALESCE(MAX(ordinal) + 1, 0) FROM columns WHERE grid_id = ?", gridID).Scan(&ordinal); err != nil {
		return nil, fmt.Errorf("next column ordinal: %w", err)
	}

	col := &types.Column{
		ColumnID: newUUID(),
		GridID:   gridID,
		Name:     name,
		Type:     columnType,
		Ordinal:  ordinal,
	}
	if _, err := tx.Exec(
		"INSERT INTO columns (column_id, grid_id, name, col_type, ordinal) VALUES (?, ?, ?, ?, ?)",
		col.ColumnID, col.GridID, col.Name, col.Type, col.Ordinal); err != nil {
		return nil, fmt.Errorf("inserting column: %w", err)
	}

	path := "$." + quoteJSONKey(col.ColumnID)
	if _, err := tx.Exec(
		"UPDATE rows SET document = json_set(document, ?, json(?)) WHERE grid_id = ?",
		path, string(encoded), gridID); err != nil {
		return nil, fmt.Errorf("backfilling rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing column: %w", err)
	}

	if err := s.persistColumnsJSONL(); err != nil {
		return nil, err
	}
	if err := s.persistRowsJSONL(); err != nil {
		return nil, err
	}
	return col, nil
}

// RenameColumn changes a column's display name. The document key is the
// column id, so renaming never touches row documents.
func (s *Store) RenameColumn(columnID, name string) (*types.Column, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	if columnID == "" {
		return nil, types.ErrInvalidID
	}
	if strings.TrimSpace(name) == "" {
		return nil, types.ErrInvalidName
	}

	res, err := s.db.Exec("UPDATE columns SET name = ? WHERE column_id = ?", name, columnID)
	if err != nil {
		return nil, fmt.Errorf("renaming column: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, types.ErrNotFound
	}
	if err := s.persistColumnsJSONL(); err != nil {
		return nil, err
	}
	return s.getColumn(columnID)
}

// DeleteColumn removes the column definition. Row documents keep the
// orphaned key; filters and sorts referencing it simply stop matching the
// catalog and are dropped at query time.
func (s *Store) DeleteColumn(columnID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.ErrStoreDetached
	}
	if columnID == "" {
		return types.ErrInvalidID
	}

	res, err := s.db.Exec("DELETE FROM columns WHERE column_id = ?", columnID)
	if err != nil {
		return fmt.Errorf("deleting column: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return s.persistColumnsJSONL()
}

// getColumn fetches a single column. The caller must hold s.mu.
func (s *Store) getColumn(columnID string) (*types.Column, error) {
	row := s.db.QueryRow(
		"SELECT column_id, grid_id, name, col_type, ordinal FROM columns WHERE column_id = ?", columnID)
	var c types.Column
	err := row.Scan(&c.ColumnID, &c.GridID, &c.Name, &c.Type, &c.Ordinal)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading column: %w", err)
	}
	return &c, nil
}
