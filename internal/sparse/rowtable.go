package sparse

import (
	"github.com/oxhq/driftsim/internal/core"
)

const initialRowCapacity = 16

type row struct {
	columns   []uint32
	distances []Distance
	strengths []Strength
}

// RowTable is the per-row-buffer variant for parallel building with
// unknown row sizes. Rows need not arrive in order, and distinct rows may
// be written from distinct goroutines, provided each goroutine owns its
// row outright; writes to one row are never safe concurrently.
type RowTable struct {
	rows         []row
	nrows, ncols uint32
	finished     bool
}

// NewRowTable allocates a table with the given dimensions.
func NewRowTable(nrows, ncols uint32) *RowTable {
	return &RowTable{rows: make([]row, nrows), nrows: nrows, ncols: ncols}
}

// NRows returns the row dimension.
func (t *RowTable) NRows() uint32 { return t.nrows }

// NNZ returns the number of stored entries across all rows.
func (t *RowTable) NNZ() int {
	total := 0
	for i := range t.rows {
		total += len(t.rows[i].columns)
	}
	return total
}

// Finished reports whether the table has been frozen for querying.
func (t *RowTable) Finished() bool { return t.finished }

// AddEntry appends one cell to its row's private buffer.
func (t *RowTable) AddEntry(rowIdx, col uint32, dist Distance, strength Strength) error {
	if t.finished {
		return core.NoposErrf(core.ErrInvariant, "AddEntry", "row table is finished; no further writes")
	}
	if rowIdx >= t.nrows {
		return core.NoposErrf(core.ErrRuntime, "AddEntry", "row %d beyond declared bound %d", rowIdx, t.nrows)
	}
	if col >= t.ncols {
		return core.NoposErrf(core.ErrRuntime, "AddEntry", "column %d beyond declared bound %d", col, t.ncols)
	}
	r := &t.rows[rowIdx]
	if len(r.columns) == cap(r.columns) {
		newCap := cap(r.columns) * 2
		if newCap == 0 {
			newCap = initialRowCapacity
		}
		r.columns = append(make([]uint32, 0, newCap), r.columns...)
		r.distances = append(make([]Distance, 0, newCap), r.distances...)
		r.strengths = append(make([]Strength, 0, newCap), r.strengths...)
	}
	r.columns = append(r.columns, col)
	r.distances = append(r.distances, dist)
	r.strengths = append(r.strengths, strength)
	return nil
}

// Finish freezes the table for querying.
func (t *RowTable) Finish() error {
	if t.finished {
		return core.NoposErrf(core.ErrInvariant, "Finish", "row table is already finished")
	}
	t.finished = true
	return nil
}

func (t *RowTable) checkQuery(where string, rowIdx uint32) error {
	if !t.finished {
		return core.NoposErrf(core.ErrInvariant, where, "row table is not finished")
	}
	if rowIdx >= t.nrows {
		return core.NoposErrf(core.ErrRuntime, where, "row %d beyond declared bound %d", rowIdx, t.nrows)
	}
	return nil
}

// Distance returns the distance at (row, col); absent cells read as +Inf.
func (t *RowTable) Distance(rowIdx, col uint32) (Distance, error) {
	if err := t.checkQuery("Distance", rowIdx); err != nil {
		return 0, err
	}
	r := &t.rows[rowIdx]
	for i, c := range r.columns {
		if c == col {
			return r.distances[i], nil
		}
	}
	return Infinity, nil
}

// Strength returns the strength at (row, col); absent cells read as 0.
func (t *RowTable) Strength(rowIdx, col uint32) (Strength, error) {
	if err := t.checkQuery("Strength", rowIdx); err != nil {
		return 0, err
	}
	r := &t.rows[rowIdx]
	for i, c := range r.columns {
		if c == col {
			return r.strengths[i], nil
		}
	}
	return 0, nil
}

// InteractionsForRow returns one row's columns, distances, and strengths
// in insertion order.
func (t *RowTable) InteractionsForRow(rowIdx uint32) (cols []uint32, dists []Distance, strengths []Strength, err error) {
	if err := t.checkQuery("InteractionsForRow", rowIdx); err != nil {
		return nil, nil, nil, err
	}
	r := &t.rows[rowIdx]
	return r.columns, r.distances, r.strengths, nil
}

// Reset zeroes every row's length while keeping its capacity.
func (t *RowTable) Reset() {
	for i := range t.rows {
		r := &t.rows[i]
		r.columns = r.columns[:0]
		r.distances = r.distances[:0]
		r.strengths = r.strengths[:0]
	}
	t.finished = false
}
