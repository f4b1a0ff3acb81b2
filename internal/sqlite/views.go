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

// GetViews returns all views for the grid ordered by creation time.
func (s *Store) GetViews(gridID string) ([]*types.View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	if gridID == "" {
		return nil, types.ErrInvalidID
	}
	if _, err := s.getGrid(gridID); err != nil {
		return nil, err
	}
	return s.scanViews(
		"SELECT view_id, grid_id, name, config, created_at, updated_at FROM views WHERE grid_id = ? ORDER BY created_at, view_id",
		gridID)
}

// SaveView creates or updates the view named name. Saving a config equal to
// the stored one is a no-op: no write happens and UpdatedAt keeps its value.
func (s *Store) SaveView(gridID, name string, config types.ViewConfig) (*types.View, error) {
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
	if _, err := s.getGrid(gridID); err != nil {
		return nil, err
	}

	existing, err := s.getViewByName(gridID, name)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}

	encoded, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("encoding view config: %w", err)
	}
	// RFC3339 storage keeps whole seconds; returned timestamps must round
	// trip exactly.
	now := time.Now().UTC().Truncate(time.Second)

	if existing != nil {
		if existing.Config.Equal(config) {
			return existing, nil
		}
		if _, err := s.db.Exec(
			"UPDATE views SET config = ?, updated_at = ? WHERE view_id = ?",
			string(encoded), now.Format(time.RFC3339), existing.ViewID); err != nil {
			return nil, fmt.Errorf("updating view: %w", err)
		}
		existing.Config = config
		existing.UpdatedAt = now
		if err := s.persistViewsJSONL(); err != nil {
			return nil, err
		}
		return existing, nil
	}

	view := &types.View{
		ViewID:    newUUID(),
		GridID:    gridID,
		Name:      name,
		Config:    config,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.db.Exec(
		"INSERT INTO views (view_id, grid_id, name, config, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		view.ViewID, view.GridID, view.Name, string(encoded),
		now.Format(time.RFC3339), now.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("inserting view: %w", err)
	}
	if err := s.persistViewsJSONL(); err != nil {
		return nil, err
	}
	return view, nil
}

// CreateView creates a view with an empty config. Returns ErrConflict if a
// view with the same name already exists in the grid.
func (s *Store) CreateView(gridID, name string) (*types.View, error) {
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
	if _, err := s.getGrid(gridID); err != nil {
		return nil, err
	}

	if _, err := s.getViewByName(gridID, name); err == nil {
		return nil, fmt.Errorf("%w: view %q", types.ErrConflict, name)
	} else if !errors.Is(err, types.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	view := &types.View{
		ViewID:    newUUID(),
		GridID:    gridID,
		Name:      name,
		Config:    types.ViewConfig{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	encoded, err := json.Marshal(view.Config)
	if err != nil {
		return nil, fmt.Errorf("encoding view config: %w", err)
	}
	if _, err := s.db.Exec(
		"INSERT INTO views (view_id, grid_id, name, config, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		view.ViewID, view.GridID, view.Name, string(encoded),
		now.Format(time.RFC3339), now.Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("inserting view: %w", err)
	}
	if err := s.persistViewsJSONL(); err != nil {
		return nil, err
	}
	return view, nil
}

// getViewByName fetches one view by (grid, name). The caller must hold s.mu.
func (s *Store) getViewByName(gridID, name string) (*types.View, error) {
	row := s.db.QueryRow(
		"SELECT view_id, grid_id, name, config, created_at, updated_at FROM views WHERE grid_id = ? AND name = ?",
		gridID, name)
	v, err := scanViewRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	return v, err
}

// scanViews runs a view query and scans the results. The caller must hold
// s.mu.
func (s *Store) scanViews(query string, args ...any) ([]*types.View, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading views: %w", err)
	}
	defer rows.Close()

	views := []*types.View{}
	for rows.Next() {
		v, err := scanViewRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}

func scanViewRow(scan func(...any) error) (*types.View, error) {
	var v types.View
	var config, createdAt, updatedAt string
	if err := scan(&v.ViewID, &v.GridID, &v.Name, &config, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(config), &v.Config); err != nil {
		return nil, fmt.Errorf("parsing view config: %w", err)
	}
	var err error
	if v.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing view timestamp: %w", err)
	}
	if v.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing view timestamp: %w", err)
	}
	return &v, nil
}
