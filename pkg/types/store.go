package types

import "errors"

// RowPage is one page of query results. NextCursor is non-empty iff at least
// one more row exists beyond the returned page under the same ordering.
type RowPage struct {
	Rows       []*Row
	NextCursor string
}

// Store defines the interface for backend-agnostic grid storage. Callers
// attach to a backend, operate on grids, and detach when done. Query calls
// are read-only and idempotent for a fixed store snapshot.
type Store interface {
	// Attach connects the Store to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations return ErrStoreDetached.
	Detach() error

	// CreateGrid creates a grid and its default "Grid view".
	CreateGrid(name string) (*Grid, error)

	// GetGrid returns the grid and its column catalog in ordinal order.
	// Returns ErrNotFound if the grid does not exist.
	GetGrid(gridID string) (*Grid, []*Column, error)

	// ListGrids returns all grids in creation order.
	ListGrids() ([]*Grid, error)

	// RenameGrid updates the grid name.
	RenameGrid(gridID, name string) (*Grid, error)

	// DeleteGrid removes the grid with its columns, rows, and views.
	DeleteGrid(gridID string) error

	// GetRows compiles the spec into a single bounded fetch. The cursor, when
	// present, must be a row id previously returned for the same spec.
	GetRows(gridID string, spec QuerySpec) (*RowPage, error)

	// AddRow appends a row with an empty document.
	AddRow(gridID string) (*Row, error)

	// UpdateCell sets one key of one row's document as an atomic partial
	// update; concurrent edits to different columns of the same row cannot
	// lose each other.
	UpdateCell(gridID, rowID, columnID string, value any) error

	// SeedRows bulk-inserts count rows with generated values honoring each
	// column's declared type.
	SeedRows(gridID string, count int) error

	// AddColumnAndPopulate creates a column and backfills every existing
	// row's document with defaultValue at that key, atomically: a visible
	// column with no backfilled key is an inconsistent state this call
	// never produces.
	AddColumnAndPopulate(gridID, name, columnType string, defaultValue any) (*Column, error)

	// RenameColumn updates the column name.
	RenameColumn(columnID, name string) (*Column, error)

	// DeleteColumn removes the column definition. Existing row documents
	// keep the orphaned key; it is tolerated, not compacted.
	DeleteColumn(columnID string) error

	// GetViews returns all views for the grid.
	GetViews(gridID string) ([]*View, error)

	// SaveView creates or updates the view named name. A config equal to the
	// stored one is a no-op (no write).
	SaveView(gridID, name string, config ViewConfig) (*View, error)

	// CreateView creates an empty view; returns ErrConflict if (grid, name)
	// already exists.
	CreateView(gridID, name string) (*View, error)
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Operation errors.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrConflict          = errors.New("name already exists")
	ErrInvalidID         = errors.New("invalid entity ID")
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidColumnType = errors.New("invalid column type")
	ErrInvalidLimit      = errors.New("limit must be positive")
	ErrInvalidCount      = errors.New("count must be positive")
)
