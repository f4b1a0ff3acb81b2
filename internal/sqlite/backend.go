package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/gridloom/pkg/types"
)

// Store implements types.Store using SQLite as the query engine and JSONL
// files as the source of truth.
type Store struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
}

// NewStore creates a new SQLite store instance. The store is not attached;
// call Attach with a Config to initialize.
func NewStore() *Store {
	return &Store{}
}

// Attach initializes the store with the given configuration. Creates DataDir
// if it does not exist, rebuilds the SQLite database from schema, and loads
// the JSONL files. Returns ErrAlreadyAttached if already attached.
func (s *Store) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	// The database is derived state; rebuild it fresh from JSONL each attach.
	dbPath := filepath.Join(dataDir, "gridloom.db")
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating indexes: %w", err)
		}
	}

	s.db = db
	s.config = config
	s.dataDir = dataDir

	if err := s.initJSONLFiles(); err != nil {
		db.Close()
		return err
	}
	if err := s.loadAllJSONL(); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	s.attached = true
	return nil
}

// Detach releases all resources held by the store. After Detach, all
// operations return ErrStoreDetached. Idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return err
		}
		s.db = nil
	}

	s.attached = false
	return nil
}

// initJSONLFiles creates empty JSONL files for any that do not yet exist.
func (s *Store) initJSONLFiles() error {
	for _, name := range jsonlFiles {
		path := filepath.Join(s.dataDir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("stat %s: %w", name, err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return fmt.Errorf("creating %s: %w", name, err)
		}
	}
	return nil
}

// newUUID generates a UUID v7 string. Entity ids are time-ordered, so
// ascending row id order is insertion order; the query engine relies on
// this for its default ordering and cursor semantics.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// JSONL persistence. Each method reads the full SQLite table and rewrites
// the corresponding JSONL file atomically (immediate sync). The caller must
// hold s.mu.

func (s *Store) persistGridsJSONL() error {
	grids, err := s.scanGrids("SELECT grid_id, name, created_at FROM grids ORDER BY created_at, grid_id")
	if err != nil {
		return err
	}
	var recs []json.RawMessage
	for _, g := range grids {
		rec, err := dehydrateGrid(g)
		if err != nil {
			return err
		}
		recs = append(recs, rec)
	}
	return writeJSONL(filepath.Join(s.dataDir, gridsFile), recs)
}

func (s *Store) persistColumnsJSONL() error {
	rows, err := s.db.Query("SELECT column_id, grid_id, name, col_type, ordinal FROM columns ORDER BY grid_id, ordinal, column_id")
	if err != nil {
		return fmt.Errorf("reading columns for JSONL: %w", err)
	}
	defer rows.Close()

	var recs []json.RawMessage
	for rows.Next() {
		var c types.Column
		if err := rows.Scan(&c.ColumnID, &c.GridID, &c.Name, &c.Type, &c.Ordinal); err != nil {
			return fmt.Errorf("scanning column for JSONL: %w", err)
		}
		rec, err := dehydrateColumn(&c)
		if err != nil {
			return err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(s.dataDir, columnsFile), recs)
}

func (s *Store) persistRowsJSONL() error {
	rows, err := s.db.Query("SELECT row_id, grid_id, document FROM rows ORDER BY grid_id, row_id")
	if err != nil {
		return fmt.Errorf("reading rows for JSONL: %w", err)
	}
	defer rows.Close()

	var recs []json.RawMessage
	for rows.Next() {
		var rowID, gridID, doc string
		if err := rows.Scan(&rowID, &gridID, &doc); err != nil {
			return fmt.Errorf("scanning row for JSONL: %w", err)
		}
		rec, err := dehydrateRow(rowID, gridID, []byte(doc))
		if err != nil {
			return err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(s.dataDir, rowsFile), recs)
}

func (s *Store) persistViewsJSONL() error {
	views, err := s.scanViews("SELECT view_id, grid_id, name, config, created_at, updated_at FROM views ORDER BY created_at, view_id")
	if err != nil {
		return err
	}
	var recs []json.RawMessage
	for _, v := range views {
		rec, err := dehydrateView(v)
		if err != nil {
			return err
		}
		recs = append(recs, rec)
	}
	return writeJSONL(filepath.Join(s.dataDir, viewsFile), recs)
}
