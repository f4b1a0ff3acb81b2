package gridcache

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mesh-intelligence/gridloom/pkg/types"
)

// Backend is the slice of the store a session needs. types.Store satisfies it.
type Backend interface {
	GetGrid(gridID string) (*types.Grid, []*types.Column, error)
	GetRows(gridID string, spec types.QuerySpec) (*types.RowPage, error)
	AddRow(gridID string) (*types.Row, error)
	UpdateCell(gridID, rowID, columnID string, value any) error
	AddColumnAndPopulate(gridID, name, columnType string, defaultValue any) (*types.Column, error)
	DeleteColumn(columnID string) error
}

// Session defaults.
const (
	DefaultPageLimit = 50
	DefaultLookahead = 10
	DefaultDebounce  = 300 * time.Millisecond
)

// Options tunes session behavior. Zero values take the defaults; a negative
// Debounce applies spec changes synchronously, which tests rely on.
type Options struct {
	PageLimit int
	Lookahead int
	Debounce  time.Duration
	Logger    *slog.Logger
}

// Session wires a Cache to a Backend for one grid. Mutations are
// fire-and-forget: they update the cache optimistically, run the backend
// call on a goroutine, and reconcile when it settles. Query state changes
// are debounced and refetch from the first page.
type Session struct {
	backend   Backend
	gridID    string
	cache     *Cache
	pageLimit int
	lookahead int
	debounce  time.Duration

	mu       sync.Mutex
	spec     types.QuerySpec // active spec; cursor field unused
	pendSpec *types.QuerySpec
	timer    *time.Timer
	inflight map[string]bool // fetch cursors currently in flight
	errs     []error

	wg sync.WaitGroup
}

// NewSession creates a session over one grid.
func NewSession(backend Backend, gridID string, opts Options) *Session {
	if opts.PageLimit <= 0 {
		opts.PageLimit = DefaultPageLimit
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = DefaultLookahead
	}
	if opts.Debounce == 0 {
		opts.Debounce = DefaultDebounce
	}
	return &Session{
		backend:   backend,
		gridID:    gridID,
		cache:     NewCache(opts.Logger),
		pageLimit: opts.PageLimit,
		lookahead: opts.Lookahead,
		debounce:  opts.Debounce,
		inflight:  map[string]bool{},
	}
}

// Cache exposes the session's cache for rendering.
func (s *Session) Cache() *Cache {
	return s.cache
}

// Load fetches the column catalog and the first page synchronously. It is
// the only blocking call in the session lifecycle.
func (s *Session) Load(spec types.QuerySpec) error {
	_, columns, err := s.backend.GetGrid(s.gridID)
	if err != nil {
		return err
	}
	s.cache.SetColumns(columns)

	s.mu.Lock()
	s.spec = spec
	s.mu.Unlock()

	return s.fetchPage(s.cache.Generation(), "")
}

// fetchPage runs one page fetch and applies the result unless the cache has
// moved on to a newer generation.
func (s *Session) fetchPage(generation uint64, cursor string) error {
	s.mu.Lock()
	spec := s.spec
	s.mu.Unlock()

	spec.Cursor = cursor
	spec.Limit = s.pageLimit
	page, err := s.backend.GetRows(s.gridID, spec)
	if err != nil {
		return err
	}
	s.cache.ApplyPage(generation, page)
	return nil
}

// MaybeFetchNext triggers a lookahead fetch when the viewport nears the end
// of the fetched rows. Idempotent under rapid scroll: at most one fetch per
// cursor is ever in flight, and repeat calls while it runs are no-ops.
func (s *Session) MaybeFetchNext(visibleTo int) {
	if !s.cache.ShouldFetchNext(visibleTo, s.lookahead) {
		return
	}
	// Generation and cursor are snapshotted together: a cursor read before
	// an invalidation paired with a generation read after it would let the
	// superseded page land next to the new state's first page.
	generation, cursor := s.cache.FetchState()
	if cursor == "" {
		return
	}

	s.mu.Lock()
	if s.inflight[cursor] {
		s.mu.Unlock()
		return
	}
	s.inflight[cursor] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.fetchPage(generation, cursor)
		s.mu.Lock()
		delete(s.inflight, cursor)
		if err != nil {
			s.errs = append(s.errs, fmt.Errorf("fetching page after %s: %w", cursor, err))
		}
		s.mu.Unlock()
	}()
}

// SetSpec schedules a query state change. Changes are debounced: rapid
// successive calls collapse into one refetch of the final state. The refetch
// invalidates the cache first, so responses to the old spec are discarded by
// generation when they land.
func (s *Session) SetSpec(spec types.QuerySpec) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendSpec = &spec
	if s.debounce < 0 {
		s.applySpecLocked()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.applySpecLocked()
	})
}

// applySpecLocked commits the pending spec and starts the refetch. The
// caller must hold s.mu.
func (s *Session) applySpecLocked() {
	if s.pendSpec == nil {
		return
	}
	s.spec = *s.pendSpec
	s.pendSpec = nil

	generation := s.cache.Invalidate()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.fetchPage(generation, ""); err != nil {
			s.mu.Lock()
			s.errs = append(s.errs, fmt.Errorf("refetching after spec change: %w", err))
			s.mu.Unlock()
		}
	}()
}

// refreshCatalogAndRefetch reloads the column catalog and restarts the row
// pages from page one. Run after any settled change to the grid's column
// shape: documents fetched under the old catalog are stale.
func (s *Session) refreshCatalogAndRefetch() error {
	_, columns, err := s.backend.GetGrid(s.gridID)
	if err != nil {
		return err
	}
	generation := s.cache.Invalidate()
	s.cache.SetColumns(columns)
	return s.fetchPage(generation, "")
}

// EditCell applies a cell edit optimistically and writes it through on a
// goroutine. An edit whose trimmed value matches the currently displayed
// value is a no-op. The optimistic value stays in place even when the write
// fails; the error is recorded and the pending marker cleared, nothing is
// rolled back. Last write wins per cell.
func (s *Session) EditCell(rowID, columnID string, value any) {
	if current, known := s.cache.CellValue(rowID, columnID); known {
		if strings.TrimSpace(types.CellString(value)) == strings.TrimSpace(types.CellString(current)) {
			return
		}
	}
	s.cache.SetLocalEdit(rowID, columnID, value)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := s.backend.UpdateCell(s.gridID, rowID, columnID, value)
		s.cache.SettleEdit(rowID, columnID)
		if err != nil {
			s.mu.Lock()
			s.errs = append(s.errs, fmt.Errorf("updating cell %s/%s: %w", rowID, columnID, err))
			s.mu.Unlock()
		}
	}()
}

// AddRow inserts an optimistic placeholder row and creates the real row on a
// goroutine. On success the placeholder resolves to the confirmed row; on
// failure it is removed.
func (s *Session) AddRow() string {
	tempID := s.cache.AddOptimisticRow()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		row, err := s.backend.AddRow(s.gridID)
		if err != nil {
			s.cache.RemoveOptimisticRow(tempID)
			s.mu.Lock()
			s.errs = append(s.errs, fmt.Errorf("adding row: %w", err))
			s.mu.Unlock()
			return
		}
		s.cache.ResolveOptimisticRow(tempID, row)
	}()
	return tempID
}

// AddColumn inserts an optimistic placeholder column and creates the real
// column on a goroutine, backfilling existing rows with the type's default.
// On confirmation the placeholder resolves and the cached pages refetch so
// every document carries the backfilled key.
func (s *Session) AddColumn(name, columnType string) string {
	tempID := s.cache.AddOptimisticColumn(name, columnType)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		col, err := s.backend.AddColumnAndPopulate(s.gridID, name, columnType, nil)
		if err != nil {
			s.cache.RemoveOptimisticColumn(tempID)
			s.mu.Lock()
			s.errs = append(s.errs, fmt.Errorf("adding column %q: %w", name, err))
			s.mu.Unlock()
			return
		}
		s.cache.ResolveOptimisticColumn(tempID, col)
		if err := s.refreshCatalogAndRefetch(); err != nil {
			s.mu.Lock()
			s.errs = append(s.errs, fmt.Errorf("refetching after column add: %w", err))
			s.mu.Unlock()
		}
	}()
	return tempID
}

// DeleteColumn hides the column immediately and deletes it on a goroutine.
// Success makes the hide permanent by refetching against the shrunken
// catalog; a failed deletion un-hides it.
func (s *Session) DeleteColumn(columnID string) {
	s.cache.HideColumn(columnID)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.backend.DeleteColumn(columnID); err != nil {
			s.cache.UnhideColumn(columnID)
			s.mu.Lock()
			s.errs = append(s.errs, fmt.Errorf("deleting column %s: %w", columnID, err))
			s.mu.Unlock()
			return
		}
		if err := s.refreshCatalogAndRefetch(); err != nil {
			s.mu.Lock()
			s.errs = append(s.errs, fmt.Errorf("refetching after column delete: %w", err))
			s.mu.Unlock()
			return
		}
		// The catalog no longer carries the column; the hide marker has
		// nothing left to mask.
		s.cache.UnhideColumn(columnID)
	}()
}

// Wait blocks until all in-flight backend calls have settled. A pending
// debounced spec change is applied first so its refetch is waited on too.
func (s *Session) Wait() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.applySpecLocked()
	s.mu.Unlock()

	s.wg.Wait()
}

// Errors returns the mutation and fetch failures recorded so far.
func (s *Session) Errors() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]error, len(s.errs))
	copy(out, s.errs)
	return out
}
