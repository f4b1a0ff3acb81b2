// Package sqlite implements the SQLite storage backend for Gridloom:
// SQLite is the query engine, JSONL files are the source of truth.
package sqlite

// Schema DDL. Row documents live in a single JSON TEXT column so the query
// engine can address arbitrary per-grid columns without schema migration.
const (
	createGrids = `CREATE TABLE grids (
    grid_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createColumns = `CREATE TABLE columns (
    column_id TEXT PRIMARY KEY,
    grid_id TEXT NOT NULL,
    name TEXT NOT NULL,
    col_type TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    FOREIGN KEY (grid_id) REFERENCES grids(grid_id)
);`

	createRows = `CREATE TABLE rows (
    row_id TEXT PRIMARY KEY,
    grid_id TEXT NOT NULL,
    document TEXT NOT NULL,
    FOREIGN KEY (grid_id) REFERENCES grids(grid_id)
);`

	createViews = `CREATE TABLE views (
    view_id TEXT PRIMARY KEY,
    grid_id TEXT NOT NULL,
    name TEXT NOT NULL,
    config TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (grid_id) REFERENCES grids(grid_id)
);`
)

// Index DDL for common queries.
const (
	idxColumnsGrid   = `CREATE INDEX idx_columns_grid ON columns(grid_id, ordinal);`
	idxRowsGrid      = `CREATE INDEX idx_rows_grid ON rows(grid_id, row_id);`
	idxViewsUnique   = `CREATE UNIQUE INDEX idx_views_unique ON views(grid_id, name);`
	idxViewsGridName = `CREATE INDEX idx_views_grid ON views(grid_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createGrids,
	createColumns,
	createRows,
	createViews,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxColumnsGrid,
	idxRowsGrid,
	idxViewsUnique,
	idxViewsGridName,
}
