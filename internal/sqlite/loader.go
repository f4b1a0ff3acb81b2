// JSONL loading for startup. Loading is transactional: all files load or the
// database stays empty. Malformed lines were already dropped by readJSONL;
// unknown fields in records are ignored for forward compatibility.
package sqlite

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// loadAllJSONL reads each JSONL file from the data directory and inserts the
// records into the corresponding SQLite tables.
func (s *Store) loadAllJSONL() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disabling foreign keys for load: %w", err)
	}

	gridRecs, err := readJSONL(filepath.Join(s.dataDir, gridsFile))
	if err != nil {
		return err
	}
	for _, rec := range gridRecs {
		var g gridJSON
		if err := json.Unmarshal(rec, &g); err != nil {
			continue
		}
		if _, err := tx.Exec(
			"INSERT INTO grids (grid_id, name, created_at) VALUES (?, ?, ?)",
			g.GridID, g.Name, g.CreatedAt); err != nil {
			return fmt.Errorf("loading grid %s: %w", g.GridID, err)
		}
	}

	colRecs, err := readJSONL(filepath.Join(s.dataDir, columnsFile))
	if err != nil {
		return err
	}
	for _, rec := range colRecs {
		var c columnJSON
		if err := json.Unmarshal(rec, &c); err != nil {
			continue
		}
		if _, err := tx.Exec(
			"INSERT INTO columns (column_id, grid_id, name, col_type, ordinal) VALUES (?, ?, ?, ?, ?)",
			c.ColumnID, c.GridID, c.Name, c.ColType, c.Ordinal); err != nil {
			return fmt.Errorf("loading column %s: %w", c.ColumnID, err)
		}
	}

	rowRecs, err := readJSONL(filepath.Join(s.dataDir, rowsFile))
	if err != nil {
		return err
	}
	for _, rec := range rowRecs {
		var r rowJSON
		if err := json.Unmarshal(rec, &r); err != nil {
			continue
		}
		doc := string(r.Document)
		if doc == "" || doc == "null" {
			doc = "{}"
		}
		if _, err := tx.Exec(
			"INSERT INTO rows (row_id, grid_id, document) VALUES (?, ?, ?)",
			r.RowID, r.GridID, doc); err != nil {
			return fmt.Errorf("loading row %s: %w", r.RowID, err)
		}
	}

	viewRecs, err := readJSONL(filepath.Join(s.dataDir, viewsFile))
	if err != nil {
		return err
	}
	for _, rec := range viewRecs {
		var v viewJSON
		if err := json.Unmarshal(rec, &v); err != nil {
			continue
		}
		cfg, err := json.Marshal(v.Config)
		if err != nil {
			return fmt.Errorf("re-marshaling view config %s: %w", v.ViewID, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO views (view_id, grid_id, name, config, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			v.ViewID, v.GridID, v.Name, string(cfg), v.CreatedAt, v.UpdatedAt); err != nil {
			return fmt.Errorf("loading view %s: %w", v.ViewID, err)
		}
	}

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("re-enabling foreign keys: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}
