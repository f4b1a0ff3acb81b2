package types

import (
	"strconv"
	"strings"
	"time"
)

// Column types determine how the query engine interprets document values.
// Documents themselves are untyped; the catalog's declared type wins.
const (
	ColumnText   = "TEXT"
	ColumnNumber = "NUMBER"
)

// validColumnTypes is the set of recognized column types.
var validColumnTypes = map[string]bool{
	ColumnText:   true,
	ColumnNumber: true,
}

// IsValidColumnType reports whether the given string is a recognized column type.
func IsValidColumnType(ct string) bool {
	return validColumnTypes[ct]
}

// Grid is a user-defined table holding columns and rows.
type Grid struct {
	GridID    string    // UUID v7, generated on creation.
	Name      string    // Human-readable name (required, non-empty).
	CreatedAt time.Time // Timestamp of creation.
}

// Column is a typed entry in a grid's column catalog. The catalog supplies
// the type information the query engine needs to interpret otherwise-untyped
// document values.
type Column struct {
	ColumnID string // UUID v7; immutable once created.
	GridID   string // Owning grid.
	Name     string // Display name; mutable.
	Type     string // One of the column type constants.
	Ordinal  int    // Default display and tab-navigation order; mutable.
}

// Row holds an opaque key→value document keyed by column id. The document
// need not contain every current column id; a missing key reads as absent.
// Deleting a column does not strip its key from existing documents.
type Row struct {
	RowID    string         // UUID v7. Globally stable; the sole pagination cursor token.
	GridID   string         // Owning grid.
	Document map[string]any // Column id → value (string or number).
}

// DefaultCellValue returns the backfill value for a newly created column when
// the caller supplies none. Both column types default to the empty string;
// documents store what the user typed, not a typed zero.
func DefaultCellValue(columnType string) any {
	return ""
}

// CellString renders a document value the way the grid displays it: nil and
// missing values as "", numbers without a trailing ".0" when integral.
func CellString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// CellNumber interprets a document value as a number using the catalog's
// NUMBER semantics: real numbers pass through, numeric-looking strings are
// coerced, everything else (including "") reports false.
func CellNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
