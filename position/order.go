package position

import (
	"sort"
)

// RowPosition is a row id paired with a position or sort key.
type RowPosition struct {
	RowID    int64 `json:"rowId"`
	Position int   `json:"position"`
}

// workingSet maps row ids to sort keys while remembering the order in
// which ids were first seen. Overwriting an id keeps its original slot.
type workingSet struct {
	index map[int64]int
	rows  []RowPosition
}

func newWorkingSet(current []RowPosition) *workingSet {
	w := &workingSet{
		index: make(map[int64]int, len(current)),
		rows:  make([]RowPosition, 0, len(current)),
	}
	for _, row := range current {
		w.set(row.RowID, row.Position)
	}
	return w
}

func (w *workingSet) set(rowID int64, position int) {
	if i, ok := w.index[rowID]; ok {
		w.rows[i].Position = position
		return
	}
	w.index[rowID] = len(w.rows)
	w.rows = append(w.rows, RowPosition{RowID: rowID, Position: position})
}

// mergeUpdates applies overrides in caller order, so a later entry for the
// same id wins.
func mergeUpdates(current []RowPosition, updates []RowUpdate) []RowPosition {
	w := newWorkingSet(current)
	for _, update := range updates {
		w.set(update.RowID, update.NewPosition)
	}
	return w.rows
}

// Resequence orders rows by Position, keeping input order among equal
// positions, and returns them with positions rewritten to 0..N-1.
// The input slice is not modified.
func Resequence(rows []RowPosition) []RowPosition {
	type indexed struct {
		row   RowPosition
		index int
	}

	sorted := make([]indexed, len(rows))
	for i, row := range rows {
		sorted[i] = indexed{row: row, index: i}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].row.Position != sorted[j].row.Position {
			return sorted[i].row.Position < sorted[j].row.Position
		}
		return sorted[i].index < sorted[j].index
	})

	result := make([]RowPosition, len(sorted))
	for i, entry := range sorted {
		result[i] = RowPosition{RowID: entry.row.RowID, Position: i}
	}
	return result
}
