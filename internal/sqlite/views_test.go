// Tests for view persistence: save-or-create semantics, the equal-config
// no-op guard, and name conflicts.
package sqlite

import (
	"errors"
	"testing"

	"github.com/mesh-intelligence/gridloom/pkg/types"
)

func TestSaveView_CreatesAndUpdates(t *testing.T) {
	s := newTestStore(t)
	grid, _ := s.CreateGrid("g")

	config := types.ViewConfig{Search: "apples"}
	view, err := s.SaveView(grid.GridID, "Fruit", config)
	if err != nil {
		t.Fatalf("SaveView failed: %v", err)
	}
	if view.Name != "Fruit" || view.Config.Search != "apples" {
		t.Errorf("unexpected view: %+v", view)
	}

	// Saving under the same name updates in place.
	config.Search = "pears"
	updated, err := s.SaveView(grid.GridID, "Fruit", config)
	if err != nil {
		t.Fatalf("SaveView failed: %v", err)
	}
	if updated.ViewID != view.ViewID {
		t.Error("update created a new view id")
	}
	if updated.Config.Search != "pears" {
		t.Errorf("config not updated: %+v", updated.Config)
	}

	views, _ := s.GetViews(grid.GridID)
	if len(views) != 2 { // default view + Fruit
		t.Errorf("expected 2 views, got %d", len(views))
	}
}

func TestSaveView_EqualConfigIsNoOp(t *testing.T) {
	s := newTestStore(t)
	grid, _ := s.CreateGrid("g")

	config := types.ViewConfig{
		Search: "x",
		Filters: []types.FilterCondition{
			{Field: "col", Type: types.ColumnNumber, Op: types.OpGreater, Value: 5},
		},
		HiddenColumns: []string{"b", "a"},
	}
	first, err := s.SaveView(grid.GridID, "v", config)
	if err != nil {
		t.Fatalf("SaveView failed: %v", err)
	}

	// The same config resaved, with hidden columns reordered and the filter
	// value as it comes back from a JSON round trip, must not write.
	resave := types.ViewConfig{
		Search: "x",
		Filters: []types.FilterCondition{
			{Field: "col", Type: types.ColumnNumber, Op: types.OpGreater, Value: 5.0},
		},
		HiddenColumns: []string{"a", "b"},
	}
	second, err := s.SaveView(grid.GridID, "v", resave)
	if err != nil {
		t.Fatalf("SaveView failed: %v", err)
	}
	if !second.UpdatedAt.Equal(first.UpdatedAt) {
		t.Errorf("no-op save touched UpdatedAt: %v vs %v", second.UpdatedAt, first.UpdatedAt)
	}

	// A genuinely different config does write.
	changed := resave
	changed.Search = "y"
	third, err := s.SaveView(grid.GridID, "v", changed)
	if err != nil {
		t.Fatalf("SaveView failed: %v", err)
	}
	if third.Config.Search != "y" {
		t.Errorf("changed config not saved: %+v", third.Config)
	}
}

func TestCreateView_Conflict(t *testing.T) {
	s := newTestStore(t)
	grid, _ := s.CreateGrid("g")

	view, err := s.CreateView(grid.GridID, "mine")
	if err != nil {
		t.Fatalf("CreateView failed: %v", err)
	}
	if view.Config.Search != "" || len(view.Config.Filters) != 0 {
		t.Errorf("new view config not empty: %+v", view.Config)
	}

	_, err = s.CreateView(grid.GridID, "mine")
	if !errors.Is(err, types.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	// The implicit default view name conflicts too.
	_, err = s.CreateView(grid.GridID, types.DefaultViewName)
	if !errors.Is(err, types.ErrConflict) {
		t.Errorf("expected ErrConflict for default view name, got %v", err)
	}

	_, err = s.CreateView("no-such-grid", "v")
	if err != types.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
