package sqlite

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/mesh-intelligence/gridloom/pkg/types"
)

// Word pools for seeded TEXT cells. Two-word phrases give substring search
// something to find without any external fake-data dependency.
var (
	seedAdjectives = []string{
		"amber", "brisk", "calm", "dusty", "eager", "faded", "gentle",
		"hollow", "ivory", "jagged", "keen", "lucid", "mellow", "noble",
		"opal", "pale", "quiet", "rustic", "solid", "tidy", "vivid", "warm",
	}
	seedNouns = []string{
		"anchor", "beacon", "canyon", "delta", "ember", "forge", "garnet",
		"harbor", "inlet", "juniper", "kestrel", "lantern", "meadow",
		"nimbus", "orchard", "prairie", "quarry", "ridge", "summit",
		"thicket", "willow", "zephyr",
	}
)

// SeedRows bulk-inserts count rows with generated values for every column in
// the grid's catalog. TEXT columns get a random two-word phrase, NUMBER
// columns a random value in [0, 1000). Returns ErrInvalidCount for a
// non-positive count.
func (s *Store) SeedRows(gridID string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.ErrStoreDetached
	}
	if gridID == "" {
		return types.ErrInvalidID
	}
	if count <= 0 {
		return types.ErrInvalidCount
	}
	if _, err := s.getGrid(gridID); err != nil {
		return err
	}
	columns, err := s.getColumns(gridID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO rows (row_id, grid_id, document) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < count; i++ {
		doc := make(map[string]any, len(columns))
		for _, col := range columns {
			doc[col.ColumnID] = seedValue(col.Type)
		}
		encoded, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encoding seed document: %w", err)
		}
		if _, err := stmt.Exec(newUUID(), gridID, string(encoded)); err != nil {
			return fmt.Errorf("inserting seed row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed rows: %w", err)
	}
	return s.persistRowsJSONL()
}

func seedValue(columnType string) any {
	if columnType == types.ColumnNumber {
		// One decimal place keeps values readable in CLI output.
		return float64(rand.Intn(10000)) / 10
	}
	return seedAdjectives[rand.Intn(len(seedAdjectives))] + " " + seedNouns[rand.Intn(len(seedNouns))]
}
