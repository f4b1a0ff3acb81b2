// Package gridcache implements the client-side row cache backing an
// incremental grid view: pages accumulate as the user scrolls, local edits
// overlay the server documents, and optimistic placeholders stand in for
// rows and columns whose creation is still in flight.
package gridcache

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/gridloom/pkg/types"
)

// optimisticPrefix marks temporary ids for rows and columns that exist only
// in the cache until the backend confirms them.
const optimisticPrefix = "__optimistic__"

// Cache accumulates fetched rows for one grid under one query spec. All
// methods are safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	generation uint64

	rowOrder   []string              // server rows in fetch order
	documents  map[string]map[string]any
	seen       map[string]bool
	nextCursor string
	exhausted  bool // true once a page arrived without a next cursor

	columns []*types.Column
	hidden  map[string]bool

	// localEdits overlays documents; it survives failed writes on purpose,
	// so the user keeps what they typed until the next refetch.
	localEdits map[string]map[string]any
	pending    map[string]bool // rowID+"\x00"+columnID of in-flight edits

	optimisticRows []string
	optimisticCols []*types.Column
	tempSeq        int

	logger *slog.Logger
}

// NewCache creates an empty cache. A nil logger falls back to slog's default.
func NewCache(logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		documents:  map[string]map[string]any{},
		seen:       map[string]bool{},
		hidden:     map[string]bool{},
		localEdits: map[string]map[string]any{},
		pending:    map[string]bool{},
		logger:     logger,
	}
}

// Generation returns the current cache generation. A fetch captures the
// generation before it starts; ApplyPage discards pages carrying a stale one.
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Invalidate discards all fetched pages, overlays, and placeholders, and
// bumps the generation so that in-flight responses for the old state are
// ignored when they land. Returns the new generation.
func (c *Cache) Invalidate() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.rowOrder = nil
	c.documents = map[string]map[string]any{}
	c.seen = map[string]bool{}
	c.nextCursor = ""
	c.exhausted = false
	c.localEdits = map[string]map[string]any{}
	c.pending = map[string]bool{}
	c.optimisticRows = nil
	c.optimisticCols = nil
	return c.generation
}

// ApplyPage appends a fetched page. A page whose generation does not match
// the cache's is stale and dropped; the return value reports whether the
// page was applied. A row id already present is rendered once and logged: the
// store's ordering contract makes duplicates an invariant violation, not a
// normal case.
func (c *Cache) ApplyPage(generation uint64, page *types.RowPage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return false
	}
	for _, row := range page.Rows {
		if c.seen[row.RowID] {
			c.logger.Warn("duplicate row in page", "row_id", row.RowID)
			continue
		}
		c.seen[row.RowID] = true
		c.rowOrder = append(c.rowOrder, row.RowID)
		c.documents[row.RowID] = row.Document
	}
	c.nextCursor = page.NextCursor
	c.exhausted = page.NextCursor == ""
	return true
}

// RowIDs returns the render order: server rows in fetch order, then
// optimistic placeholders. Placeholders always sort after real data because
// their final position under the active spec is unknown until the refetch.
func (c *Cache) RowIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.rowOrder)+len(c.optimisticRows))
	out = append(out, c.rowOrder...)
	out = append(out, c.optimisticRows...)
	return out
}

// CellValue resolves a cell with overlay precedence: local edit, then
// optimistic placeholder document, then the fetched server document. The
// second return reports whether the row is known at all.
func (c *Cache) CellValue(rowID, columnID string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	edits, hasEdits := c.localEdits[rowID]
	if hasEdits {
		if v, ok := edits[columnID]; ok {
			return v, true
		}
	}
	if doc, ok := c.documents[rowID]; ok {
		return doc[columnID], true
	}
	for _, id := range c.optimisticRows {
		if id == rowID {
			// Placeholder rows start empty; local edits above already won.
			return nil, true
		}
	}
	return nil, false
}

// SetLocalEdit records a local overlay value for one cell and marks it
// pending. The overlay wins over the server document until invalidation,
// whether or not the write settles cleanly.
func (c *Cache) SetLocalEdit(rowID, columnID string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.localEdits[rowID] == nil {
		c.localEdits[rowID] = map[string]any{}
	}
	c.localEdits[rowID][columnID] = value
	c.pending[pendingKey(rowID, columnID)] = true
}

// SettleEdit clears the pending marker for one cell. The overlay value stays
// either way; a failed write keeps what the user typed.
func (c *Cache) SettleEdit(rowID, columnID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, pendingKey(rowID, columnID))
}

// IsPending reports whether a cell has an unsettled write.
func (c *Cache) IsPending(rowID, columnID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[pendingKey(rowID, columnID)]
}

func pendingKey(rowID, columnID string) string {
	return rowID + "\x00" + columnID
}

// AddOptimisticRow appends a placeholder row and returns its temporary id.
func (c *Cache) AddOptimisticRow() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tempSeq++
	id := fmt.Sprintf("%s%d", optimisticPrefix, c.tempSeq)
	c.optimisticRows = append(c.optimisticRows, id)
	return id
}

// ResolveOptimisticRow replaces a placeholder with the confirmed row. The
// confirmed row keeps the placeholder's slot (after real data) until the
// next refetch slots it properly. Local edits made against the temporary id
// move to the real one.
func (c *Cache) ResolveOptimisticRow(tempID string, row *types.Row) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, id := range c.optimisticRows {
		if id != tempID {
			continue
		}
		c.optimisticRows[i] = row.RowID
		c.seen[row.RowID] = true
		doc := row.Document
		if doc == nil {
			doc = map[string]any{}
		}
		c.documents[row.RowID] = doc
		if edits, ok := c.localEdits[tempID]; ok {
			delete(c.localEdits, tempID)
			c.localEdits[row.RowID] = edits
		}
		return
	}
}

// RemoveOptimisticRow rolls back a placeholder whose creation failed.
func (c *Cache) RemoveOptimisticRow(tempID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, id := range c.optimisticRows {
		if id == tempID {
			c.optimisticRows = append(c.optimisticRows[:i], c.optimisticRows[i+1:]...)
			break
		}
	}
	delete(c.localEdits, tempID)
}

// SetColumns replaces the confirmed column catalog.
func (c *Cache) SetColumns(columns []*types.Column) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.columns = columns
}

// AddOptimisticColumn appends a placeholder column and returns its
// temporary id.
func (c *Cache) AddOptimisticColumn(name, columnType string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tempSeq++
	id := fmt.Sprintf("%s%d", optimisticPrefix, c.tempSeq)
	c.optimisticCols = append(c.optimisticCols, &types.Column{
		ColumnID: id,
		Name:     name,
		Type:     columnType,
		Ordinal:  len(c.columns) + len(c.optimisticCols),
	})
	return id
}

// ResolveOptimisticColumn replaces a placeholder column with the confirmed
// one and folds it into the catalog.
func (c *Cache) ResolveOptimisticColumn(tempID string, col *types.Column) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, oc := range c.optimisticCols {
		if oc.ColumnID == tempID {
			c.optimisticCols = append(c.optimisticCols[:i], c.optimisticCols[i+1:]...)
			c.columns = append(c.columns, col)
			return
		}
	}
}

// RemoveOptimisticColumn rolls back a placeholder column.
func (c *Cache) RemoveOptimisticColumn(tempID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, oc := range c.optimisticCols {
		if oc.ColumnID == tempID {
			c.optimisticCols = append(c.optimisticCols[:i], c.optimisticCols[i+1:]...)
			return
		}
	}
}

// Columns returns the visible render catalog: confirmed columns in ordinal
// order, then optimistic placeholders, minus hidden ids.
func (c *Cache) Columns() []*types.Column {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*types.Column, 0, len(c.columns)+len(c.optimisticCols))
	for _, col := range c.columns {
		if !c.hidden[col.ColumnID] {
			out = append(out, col)
		}
	}
	for _, col := range c.optimisticCols {
		if !c.hidden[col.ColumnID] {
			out = append(out, col)
		}
	}
	return out
}

// HideColumn hides a column from the render catalog. Used both for the
// hidden-columns view setting and as the optimistic half of column deletion.
func (c *Cache) HideColumn(columnID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hidden[columnID] = true
}

// UnhideColumn reverses HideColumn, rolling back a failed deletion.
func (c *Cache) UnhideColumn(columnID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.hidden, columnID)
}

// IsHidden reports whether a column is hidden.
func (c *Cache) IsHidden(columnID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hidden[columnID]
}

// NextCursor returns the cursor for the next unfetched page, or "" when none
// is known yet or the result set is exhausted.
func (c *Cache) NextCursor() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextCursor
}

// FetchState returns the generation and next cursor as one atomic snapshot.
// A fetch issued from this pair either belongs to the current state or is
// rejected by ApplyPage's generation check; the two values can never straddle
// an invalidation.
func (c *Cache) FetchState() (uint64, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, c.nextCursor
}

// ShouldFetchNext reports whether the viewport has scrolled close enough to
// the end of the fetched rows that the next page should load. visibleTo is
// the index of the last rendered row; lookahead is the fetch-ahead margin.
func (c *Cache) ShouldFetchNext(visibleTo, lookahead int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.exhausted || c.nextCursor == "" {
		return false
	}
	return visibleTo+lookahead >= len(c.rowOrder)-1
}

// RowCount returns the number of fetched server rows, placeholders excluded.
func (c *Cache) RowCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rowOrder)
}
