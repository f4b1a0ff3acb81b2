// JSON record structures mirroring the JSONL file format.
package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/gridloom/pkg/types"
)

// gridJSON represents a grid in grids.jsonl.
type gridJSON struct {
	GridID    string `json:"grid_id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// columnJSON represents a column in columns.jsonl.
type columnJSON struct {
	ColumnID string `json:"column_id"`
	GridID   string `json:"grid_id"`
	Name     string `json:"name"`
	ColType  string `json:"col_type"`
	Ordinal  int    `json:"ordinal"`
}

// rowJSON represents a row in rows.jsonl. The document is kept as raw JSON
// so a round trip through the file never reshapes untyped values.
type rowJSON struct {
	RowID    string          `json:"row_id"`
	GridID   string          `json:"grid_id"`
	Document json.RawMessage `json:"document"`
}

// viewJSON represents a view in views.jsonl.
type viewJSON struct {
	ViewID    string           `json:"view_id"`
	GridID    string           `json:"grid_id"`
	Name      string           `json:"name"`
	Config    types.ViewConfig `json:"config"`
	CreatedAt string           `json:"created_at"`
	UpdatedAt string           `json:"updated_at"`
}

func dehydrateGrid(g *types.Grid) (json.RawMessage, error) {
	rec, err := json.Marshal(gridJSON{
		GridID:    g.GridID,
		Name:      g.Name,
		CreatedAt: g.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling grid %s: %w", g.GridID, err)
	}
	return rec, nil
}

func dehydrateColumn(c *types.Column) (json.RawMessage, error) {
	rec, err := json.Marshal(columnJSON{
		ColumnID: c.ColumnID,
		GridID:   c.GridID,
		Name:     c.Name,
		ColType:  c.Type,
		Ordinal:  c.Ordinal,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling column %s: %w", c.ColumnID, err)
	}
	return rec, nil
}

func dehydrateRow(rowID, gridID string, document []byte) (json.RawMessage, error) {
	rec, err := json.Marshal(rowJSON{
		RowID:    rowID,
		GridID:   gridID,
		Document: json.RawMessage(document),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling row %s: %w", rowID, err)
	}
	return rec, nil
}

func dehydrateView(v *types.View) (json.RawMessage, error) {
	rec, err := json.Marshal(viewJSON{
		ViewID:    v.ViewID,
		GridID:    v.GridID,
		Name:      v.Name,
		Config:    v.Config,
		CreatedAt: v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: v.UpdatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling view %s: %w", v.ViewID, err)
	}
	return rec, nil
}
