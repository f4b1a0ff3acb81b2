package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/gridloom/pkg/types"
)

// CreateGrid creates a grid with the given name. Every grid gets a default
// view so clients always have a saved configuration to load. Returns
// ErrInvalidName for an empty or whitespace-only name.
func (s *Store) CreateGrid(name string) (*types.Grid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	if strings.TrimSpace(name) == "" {
		return nil, types.ErrInvalidName
	}

	grid := &types.Grid{
		GridID:    newUUID(),
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO grids (grid_id, name, created_at) VALUES (?, ?, ?)",
		grid.GridID, grid.Name, grid.CreatedAt.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("inserting grid: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	cfg, err := json.Marshal(types.ViewConfig{})
	if err != nil {
		return nil, fmt.Errorf("marshaling default view config: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT INTO views (view_id, grid_id, name, config, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		newUUID(), grid.GridID, types.DefaultViewName, string(cfg), now, now); err != nil {
		return nil, fmt.Errorf("inserting default view: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing grid: %w", err)
	}

	if err := s.persistGridsJSONL(); err != nil {
		return nil, err
	}
	if err := s.persistViewsJSONL(); err != nil {
		return nil, err
	}
	return grid, nil
}

// GetGrid returns the grid and its column catalog ordered by ordinal.
// Returns ErrNotFound if the grid does not exist.
func (s *Store) GetGrid(gridID string) (*types.Grid, []*types.Column, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return nil, nil, types.ErrStoreDetached
	}
	if gridID == "" {
		return nil, nil, types.ErrInvalidID
	}

	grid, err := s.getGrid(gridID)
	if err != nil {
		return nil, nil, err
	}
	columns, err := s.getColumns(gridID)
	if err != nil {
		return nil, nil, err
	}
	return grid, columns, nil
}

// ListGrids returns all grids ordered by creation time.
func (s *Store) ListGrids() ([]*types.Grid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	return s.scanGrids("SELECT grid_id, name, created_at FROM grids ORDER BY created_at, grid_id")
}

// RenameGrid changes a grid's name. Returns ErrNotFound if the grid does not
// exist, ErrInvalidName for an empty name.
func (s *Store) RenameGrid(gridID, name string) (*types.Grid, error) {
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

	res, err := s.db.Exec("UPDATE grids SET name = ? WHERE grid_id = ?", name, gridID)
	if err != nil {
		return nil, fmt.Errorf("renaming grid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, types.ErrNotFound
	}
	if err := s.persistGridsJSONL(); err != nil {
		return nil, err
	}
	return s.getGrid(gridID)
}

// DeleteGrid removes a grid together with its columns, rows, and views.
func (s *Store) DeleteGrid(gridID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.ErrStoreDetached
	}
	if gridID == "" {
		return types.ErrInvalidID
	}

	if _, err := s.getGrid(gridID); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM views WHERE grid_id = ?",
		"DELETE FROM rows WHERE grid_id = ?",
		"DELETE FROM columns WHERE grid_id = ?",
		"DELETE FROM grids WHERE grid_id = ?",
	} {
		if _, err := tx.Exec(stmt, gridID); err != nil {
			return fmt.Errorf("deleting grid %s: %w", gridID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}

	if err := s.persistGridsJSONL(); err != nil {
		return err
	}
	if err := s.persistColumnsJSONL(); err != nil {
		return err
	}
	if err := s.persistRowsJSONL(); err != nil {
		return err
	}
	return s.persistViewsJSONL()
}

// getGrid fetches a single grid. The caller must hold s.mu.
func (s *Store) getGrid(gridID string) (*types.Grid, error) {
	row := s.db.QueryRow("SELECT grid_id, name, created_at FROM grids WHERE grid_id = ?", gridID)
	g, err := scanGridRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	return g, err
}

// getColumns fetches a grid's columns ordered by ordinal. The caller must
// hold s.mu.
func (s *Store) getColumns(gridID string) ([]*types.Column, error) {
	rows, err := s.db.Query(
		"SELECT column_id, grid_id, name, col_type, ordinal FROM columns WHERE grid_id = ? ORDER BY ordinal, column_id",
		gridID)
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	defer rows.Close()

	columns := []*types.Column{}
	for rows.Next() {
		var c types.Column
		if err := rows.Scan(&c.ColumnID, &c.GridID, &c.Name, &c.Type, &c.Ordinal); err != nil {
			return nil, fmt.Errorf("scanning column: %w", err)
		}
		columns = append(columns, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return columns, nil
}

// scanGrids runs a grid query and scans the results. The caller must hold
// s.mu.
func (s *Store) scanGrids(query string, args ...any) ([]*types.Grid, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading grids: %w", err)
	}
	defer rows.Close()

	grids := []*types.Grid{}
	for rows.Next() {
		g, err := scanGridRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		grids = append(grids, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return grids, nil
}

func scanGridRow(scan func(...any) error) (*types.Grid, error) {
	var g types.Grid
	var createdAt string
	if err := scan(&g.GridID, &g.Name, &createdAt); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing grid timestamp: %w", err)
	}
	g.CreatedAt = t
	return &g, nil
}
