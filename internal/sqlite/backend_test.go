// Tests for the SQLite store: lifecycle, grid and column catalog operations,
// cell updates, views, and JSONL durability across attach cycles.
package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mesh-intelligence/gridloom/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}
	if err := s.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	t.Cleanup(func() { s.Detach() })
	return s
}

func TestStore_Attach(t *testing.T) {
	tmpDir := t.TempDir()

	s := NewStore()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: tmpDir,
	}

	err := s.Attach(config)
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	// Verify database file created
	dbPath := filepath.Join(tmpDir, "gridloom.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("gridloom.db not created")
	}

	// Verify JSONL files created
	for _, name := range jsonlFiles {
		if _, err := os.Stat(filepath.Join(tmpDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}

	// Verify double attach fails
	err = s.Attach(config)
	if err != types.ErrAlreadyAttached {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}

	s.Detach()
}

func TestStore_AttachBadConfig(t *testing.T) {
	s := NewStore()

	err := s.Attach(types.Config{DataDir: t.TempDir()})
	if err != types.ErrBackendEmpty {
		t.Errorf("expected ErrBackendEmpty, got %v", err)
	}

	err = s.Attach(types.Config{Backend: "postgres", DataDir: t.TempDir()})
	if !errors.Is(err, types.ErrBackendUnknown) {
		t.Errorf("expected ErrBackendUnknown, got %v", err)
	}
}

func TestStore_Detach(t *testing.T) {
	s := NewStore()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}
	s.Attach(config)

	err := s.Detach()
	if err != nil {
		t.Fatalf("Detach failed: %v", err)
	}

	// Verify idempotent
	err = s.Detach()
	if err != nil {
		t.Errorf("second Detach should not error, got %v", err)
	}

	// Verify operations fail after detach
	_, err = s.ListGrids()
	if err != types.ErrStoreDetached {
		t.Errorf("expected ErrStoreDetached, got %v", err)
	}
}

func TestStore_CreateGrid(t *testing.T) {
	s := newTestStore(t)

	grid, err := s.CreateGrid("Inventory")
	if err != nil {
		t.Fatalf("CreateGrid failed: %v", err)
	}
	if grid.GridID == "" {
		t.Error("grid id is empty")
	}
	if grid.Name != "Inventory" {
		t.Errorf("name = %q, want Inventory", grid.Name)
	}

	// Every new grid carries the default view.
	views, err := s.GetViews(grid.GridID)
	if err != nil {
		t.Fatalf("GetViews failed: %v", err)
	}
	if len(views) != 1 || views[0].Name != types.DefaultViewName {
		t.Errorf("expected single %q view, got %+v", types.DefaultViewName, views)
	}

	// Empty name rejected
	_, err = s.CreateGrid("  ")
	if err != types.ErrInvalidName {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}
}

func TestStore_ListGrids(t *testing.T) {
	s := newTestStore(t)

	first, _ := s.CreateGrid("first")
	second, _ := s.CreateGrid("second")

	grids, err := s.ListGrids()
	if err != nil {
		t.Fatalf("ListGrids failed: %v", err)
	}
	if len(grids) != 2 {
		t.Fatalf("expected 2 grids, got %d", len(grids))
	}
	if grids[0].GridID != first.GridID || grids[1].GridID != second.GridID {
		t.Error("grids not in creation order")
	}
}

func TestStore_RenameGrid(t *testing.T) {
	s := newTestStore(t)
	grid, _ := s.CreateGrid("before")

	renamed, err := s.RenameGrid(grid.GridID, "after")
	if err != nil {
		t.Fatalf("RenameGrid failed: %v", err)
	}
	if renamed.Name != "after" {
		t.Errorf("name = %q, want after", renamed.Name)
	}

	_, err = s.RenameGrid("no-such-grid", "x")
	if err != types.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_DeleteGrid(t *testing.T) {
	s := newTestStore(t)
	grid, _ := s.CreateGrid("doomed")
	s.AddColumnAndPopulate(grid.GridID, "col", types.ColumnText, nil)
	s.AddRow(grid.GridID)

	if err := s.DeleteGrid(grid.GridID); err != nil {
		t.Fatalf("DeleteGrid failed: %v", err)
	}

	_, _, err := s.GetGrid(grid.GridID)
	if err != types.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteGrid(grid.GridID); err != types.ErrNotFound {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStore_AddColumnAndPopulate(t *testing.T) {
	s := newTestStore(t)
	grid, _ := s.CreateGrid("g")
	row, _ := s.AddRow(grid.GridID)

	col, err := s.AddColumnAndPopulate(grid.GridID, "Price", types.ColumnNumber, 9.5)
	if err != nil {
		t.Fatalf("AddColumnAndPopulate failed: %v", err)
	}
	if col.Ordinal != 0 {
		t.Errorf("ordinal = %d, want 0", col.Ordinal)
	}

	// Existing rows got the backfill value.
	page, err := s.GetRows(grid.GridID, types.QuerySpec{Limit: 10})
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(page.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(page.Rows))
	}
	if got := page.Rows[0].Document[col.ColumnID]; got != 9.5 {
		t.Errorf("backfilled value = %v, want 9.5", got)
	}
	if page.Rows[0].RowID != row.RowID {
		t.Errorf("row id changed: %s vs %s", page.Rows[0].RowID, row.RowID)
	}

	// Second column gets the next ordinal; nil default backfills "".
	col2, err := s.AddColumnAndPopulate(grid.GridID, "Name", types.ColumnText, nil)
	if err != nil {
		t.Fatalf("AddColumnAndPopulate failed: %v", err)
	}
	if col2.Ordinal != 1 {
		t.Errorf("ordinal = %d, want 1", col2.Ordinal)
	}
	page, _ = s.GetRows(grid.GridID, types.QuerySpec{Limit: 10})
	if got := page.Rows[0].Document[col2.ColumnID]; got != "" {
		t.Errorf("default backfill = %v, want empty string", got)
	}

	// Bad type rejected
	_, err = s.AddColumnAndPopulate(grid.GridID, "x", "DATE", nil)
	if !errors.Is(err, types.ErrInvalidColumnType) {
		t.Errorf("expected ErrInvalidColumnType, got %v", err)
	}
}

func TestStore_ColumnOrdinalNotReusedAfterDelete(t *testing.T) {
	s := newTestStore(t)
	grid, _ := s.CreateGrid("g")

	first, _ := s.AddColumnAndPopulate(grid.GridID, "a", types.ColumnText, nil)
	second, _ := s.AddColumnAndPopulate(grid.GridID, "b", types.ColumnText, nil)
	if first.Ordinal != 0 || second.Ordinal != 1 {
		t.Fatalf("ordinals = %d, %d, want 0, 1", first.Ordinal, second.Ordinal)
	}

	if err := s.DeleteColumn(first.ColumnID); err != nil {
		t.Fatalf("DeleteColumn failed: %v", err)
	}

	// The freed slot stays freed: the new column sorts after the survivor.
	third, err := s.AddColumnAndPopulate(grid.GridID, "c", types.ColumnText, nil)
	if err != nil {
		t.Fatalf("AddColumnAndPopulate failed: %v", err)
	}
	if third.Ordinal != 2 {
		t.Errorf("ordinal = %d, want 2", third.Ordinal)
	}
}

func TestStore_RenameColumn(t *testing.T) {
	s := newTestStore(t)
	grid, _ := s.CreateGrid("g")
	s.AddRow(grid.GridID)
	col, _ := s.AddColumnAndPopulate(grid.GridID, "old", types.ColumnText, "v")

	renamed, err := s.RenameColumn(col.ColumnID, "new")
	if err != nil {
		t.Fatalf("RenameColumn failed: %v", err)
	}
	if renamed.Name != "new" {
		t.Errorf("name = %q, want new", renamed.Name)
	}

	// Renaming never touches documents: the key is the column id.
	page, _ := s.GetRows(grid.GridID, types.QuerySpec{Limit: 10})
	if got := page.Rows[0].Document[col.ColumnID]; got != "v" {
		t.Errorf("document value = %v, want v", got)
	}
}

func TestStore_DeleteColumn(t *testing.T) {
	s := newTestStore(t)
	grid, _ := s.CreateGrid("g")
	s.AddRow(grid.GridID)
	col, _ := s.AddColumnAndPopulate(grid.GridID, "c", types.ColumnText, "kept")

	if err := s.DeleteColumn(col.ColumnID); err != nil {
		t.Fatalf("DeleteColumn failed: %v", err)
	}

	_, columns, _ := s.GetGrid(grid.GridID)
	if len(columns) != 0 {
		t.Errorf("expected empty catalog, got %d columns", len(columns))
	}

	// The orphaned document key survives.
	page, _ := s.GetRows(grid.GridID, types.QuerySpec{Limit: 10})
	if got := page.Rows[0].Document[col.ColumnID]; got != "kept" {
		t.Errorf("orphaned key = %v, want kept", got)
	}

	if err := s.DeleteColumn(col.ColumnID); err != types.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateCell(t *testing.T) {
	s := newTestStore(t)
	grid, _ := s.CreateGrid("g")
	col, _ := s.AddColumnAndPopulate(grid.GridID, "c", types.ColumnText, nil)
	num, _ := s.AddColumnAndPopulate(grid.GridID, "n", types.ColumnNumber, nil)
	row, _ := s.AddRow(grid.GridID)

	if err := s.UpdateCell(grid.GridID, row.RowID, col.ColumnID, "hello"); err != nil {
		t.Fatalf("UpdateCell failed: %v", err)
	}
	if err := s.UpdateCell(grid.GridID, row.RowID, num.ColumnID, 42.0); err != nil {
		t.Fatalf("UpdateCell failed: %v", err)
	}

	page, _ := s.GetRows(grid.GridID, types.QuerySpec{Limit: 10})
	doc := page.Rows[0].Document
	if doc[col.ColumnID] != "hello" {
		t.Errorf("text cell = %v, want hello", doc[col.ColumnID])
	}
	if doc[num.ColumnID] != 42.0 {
		t.Errorf("number cell = %v, want 42", doc[num.ColumnID])
	}

	// Unknown row and unknown column both report not found.
	if err := s.UpdateCell(grid.GridID, "no-such-row", col.ColumnID, "x"); err != types.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateCell(grid.GridID, row.RowID, "no-such-col", "x"); err != types.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_SeedRows(t *testing.T) {
	s := newTestStore(t)
	grid, _ := s.CreateGrid("g")
	text, _ := s.AddColumnAndPopulate(grid.GridID, "t", types.ColumnText, nil)
	num, _ := s.AddColumnAndPopulate(grid.GridID, "n", types.ColumnNumber, nil)

	if err := s.SeedRows(grid.GridID, 25); err != nil {
		t.Fatalf("SeedRows failed: %v", err)
	}

	page, err := s.GetRows(grid.GridID, types.QuerySpec{Limit: 100})
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(page.Rows) != 25 {
		t.Fatalf("expected 25 rows, got %d", len(page.Rows))
	}
	for _, row := range page.Rows {
		if _, ok := row.Document[text.ColumnID].(string); !ok {
			t.Errorf("text cell has type %T", row.Document[text.ColumnID])
		}
		if _, ok := row.Document[num.ColumnID].(float64); !ok {
			t.Errorf("number cell has type %T", row.Document[num.ColumnID])
		}
	}

	if err := s.SeedRows(grid.GridID, 0); err != types.ErrInvalidCount {
		t.Errorf("expected ErrInvalidCount, got %v", err)
	}
}

func TestStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}

	s := NewStore()
	if err := s.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	grid, _ := s.CreateGrid("persisted")
	col, _ := s.AddColumnAndPopulate(grid.GridID, "c", types.ColumnText, nil)
	row, _ := s.AddRow(grid.GridID)
	s.UpdateCell(grid.GridID, row.RowID, col.ColumnID, "survives")
	s.SaveView(grid.GridID, "My view", types.ViewConfig{Search: "sur"})
	if err := s.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}

	// A fresh store over the same directory rebuilds everything from JSONL.
	s2 := NewStore()
	if err := s2.Attach(config); err != nil {
		t.Fatalf("re-Attach failed: %v", err)
	}
	defer s2.Detach()

	got, columns, err := s2.GetGrid(grid.GridID)
	if err != nil {
		t.Fatalf("GetGrid after reload failed: %v", err)
	}
	if got.Name != "persisted" {
		t.Errorf("grid name = %q", got.Name)
	}
	if len(columns) != 1 || columns[0].ColumnID != col.ColumnID {
		t.Errorf("column catalog not reloaded: %+v", columns)
	}

	page, err := s2.GetRows(grid.GridID, types.QuerySpec{Limit: 10})
	if err != nil {
		t.Fatalf("GetRows after reload failed: %v", err)
	}
	if len(page.Rows) != 1 || page.Rows[0].Document[col.ColumnID] != "survives" {
		t.Errorf("row not reloaded: %+v", page.Rows)
	}

	views, err := s2.GetViews(grid.GridID)
	if err != nil {
		t.Fatalf("GetViews after reload failed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected default view plus saved view, got %d", len(views))
	}
}
