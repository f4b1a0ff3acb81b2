package types

import (
	"sort"
	"time"
)

// DefaultViewName is the view created implicitly with every grid.
const DefaultViewName = "Grid view"

// ViewConfig is the persisted shape of a QuerySpec (minus cursor and limit)
// plus column visibility. It is saved in place whenever the live editing
// state differs from the stored config.
type ViewConfig struct {
	Search        string            `json:"search"`
	Filters       []FilterCondition `json:"filters"`
	Sort          []SortKey         `json:"sort"`
	HiddenColumns []string          `json:"hiddenColumns"`
}

// View is a named, reusable view configuration, unique on (grid, name).
// Views are updated in place, never versioned, and never auto-deleted.
type View struct {
	ViewID    string
	GridID    string
	Name      string
	Config    ViewConfig
	CreatedAt time.Time
	UpdatedAt time.Time
}

// normalized returns a copy with nil slices made empty, conditions
// normalized, and hidden columns sorted, so that Equal compares by value
// rather than by accident of construction.
func (c ViewConfig) normalized() ViewConfig {
	out := ViewConfig{Search: c.Search}
	out.Filters = make([]FilterCondition, 0, len(c.Filters))
	for _, f := range c.Filters {
		out.Filters = append(out.Filters, f.Normalize())
	}
	out.Sort = make([]SortKey, 0, len(c.Sort))
	out.Sort = append(out.Sort, c.Sort...)
	out.HiddenColumns = make([]string, 0, len(c.HiddenColumns))
	out.HiddenColumns = append(out.HiddenColumns, c.HiddenColumns...)
	sort.Strings(out.HiddenColumns)
	return out
}

// Equal reports whether two configs describe the same view state. Save paths
// use this as an idempotence guard to suppress redundant writes.
func (c ViewConfig) Equal(other ViewConfig) bool {
	a, b := c.normalized(), other.normalized()
	if a.Search != b.Search {
		return false
	}
	if len(a.Filters) != len(b.Filters) || len(a.Sort) != len(b.Sort) ||
		len(a.HiddenColumns) != len(b.HiddenColumns) {
		return false
	}
	for i := range a.Filters {
		if !filterEqual(a.Filters[i], b.Filters[i]) {
			return false
		}
	}
	for i := range a.Sort {
		if a.Sort[i] != b.Sort[i] {
			return false
		}
	}
	for i := range a.HiddenColumns {
		if a.HiddenColumns[i] != b.HiddenColumns[i] {
			return false
		}
	}
	return true
}

// filterEqual compares conditions by rendered value so that a JSON round trip
// (which turns numbers into float64) does not defeat the no-op save guard.
func filterEqual(a, b FilterCondition) bool {
	return a.Field == b.Field && a.Type == b.Type && a.Op == b.Op &&
		CellString(a.Value) == CellString(b.Value)
}

// Spec builds the QuerySpec this config describes, with the given page
// limit and no cursor.
func (c ViewConfig) Spec(limit int) QuerySpec {
	return QuerySpec{
		Search:  c.Search,
		Filters: c.Filters,
		Sort:    c.Sort,
		Limit:   limit,
	}
}
