package types

// Filter operators. The op domain depends on the condition's column type.
const (
	// TEXT operators.
	OpEquals      = "equals"
	OpContains    = "contains"
	OpNotContains = "not_contains"

	// NUMBER operators.
	OpGreater     = ">"
	OpLess        = "<"
	OpNumberEqual = "="

	// Shared operators; these carry no value.
	OpIsEmpty    = "is_empty"
	OpIsNotEmpty = "is_not_empty"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// textOps and numberOps define the op domain per column type.
var (
	textOps = map[string]bool{
		OpEquals:      true,
		OpContains:    true,
		OpNotContains: true,
		OpIsEmpty:     true,
		OpIsNotEmpty:  true,
	}
	numberOps = map[string]bool{
		OpGreater:     true,
		OpLess:        true,
		OpNumberEqual: true,
		OpIsEmpty:     true,
		OpIsNotEmpty:  true,
	}
)

// FilterCondition is one per-column filter. A condition still being edited
// (no field, no op, or a missing required value) is inert: it is silently
// excluded from query compilation rather than treated as an error.
type FilterCondition struct {
	Field string `json:"field"` // Column id the condition applies to.
	Type  string `json:"type"`  // TEXT or NUMBER; selects the op domain.
	Op    string `json:"op"`
	Value any    `json:"value"` // nil for is_empty / is_not_empty.
}

// NeedsValue reports whether the condition's operator requires a value.
func (f FilterCondition) NeedsValue() bool {
	return f.Op != OpIsEmpty && f.Op != OpIsNotEmpty
}

// IsInert reports whether the condition must be excluded from compilation:
// missing field or op, an op outside the column type's domain, or a required
// value that is nil or an empty string.
func (f FilterCondition) IsInert() bool {
	if f.Field == "" || f.Op == "" {
		return true
	}
	switch f.Type {
	case ColumnText:
		if !textOps[f.Op] {
			return true
		}
	case ColumnNumber:
		if !numberOps[f.Op] {
			return true
		}
	default:
		return true
	}
	if !f.NeedsValue() {
		return false
	}
	if f.Value == nil {
		return true
	}
	if s, ok := f.Value.(string); ok && s == "" {
		return true
	}
	return false
}

// Normalize returns the condition with its value forced to nil when the
// operator carries none. Persisted view configs store normalized conditions
// so equality checks are stable.
func (f FilterCondition) Normalize() FilterCondition {
	if !f.NeedsValue() {
		f.Value = nil
	}
	return f
}

// SortKey is one entry in a multi-column ordering. Sequence order is the
// tie-break precedence: the first key is primary. The compiler sorts by
// whatever sequence it is given, left to right, duplicates included.
type SortKey struct {
	ColumnID  string `json:"columnId"`
	Direction string `json:"direction"` // asc or desc; anything else reads as asc.
}

// Descending reports whether the key orders descending.
func (k SortKey) Descending() bool {
	return k.Direction == SortDesc
}

// QuerySpec is the single input to the query engine: free-form per-column
// filters, a multi-column sort, full-text search across all columns, and a
// keyset pagination cursor.
type QuerySpec struct {
	Search  string            `json:"search"`
	Filters []FilterCondition `json:"filters"`
	Sort    []SortKey         `json:"sort"`
	Cursor  string            `json:"cursor"` // Row id of the last row of the prior page; "" for the first page.
	Limit   int               `json:"limit"`  // Must be positive.
}

// ActiveFilters returns the non-inert conditions, normalized.
func (q QuerySpec) ActiveFilters() []FilterCondition {
	active := make([]FilterCondition, 0, len(q.Filters))
	for _, f := range q.Filters {
		if f.IsInert() {
			continue
		}
		active = append(active, f.Normalize())
	}
	return active
}
