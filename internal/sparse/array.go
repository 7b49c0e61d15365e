// Package sparse provides the row-keyed sparse matrix of pairwise
// distances and interaction strengths built during each tick's interaction
// evaluation pass. Rows hold the interactions felt by one individual;
// columns are the individuals exerting them. Columns within a row are
// never sorted: queries scan the row linearly, and callers depend on
// insertion-order iteration.
package sparse

import (
	"math"

	"github.com/oxhq/driftsim/internal/core"
)

// Distances and strengths are float32 to halve the memory traffic; the
// precision is ample for interaction kernels.
type (
	Distance = float32
	Strength = float32
)

// Infinity is the distance reported for absent cells.
var Infinity = Distance(math.Inf(1))

const initialNNZCapacity = 1024

// Array is a CSR-form sparse matrix built strictly row-sequentially,
// either a whole row at a time or an entry at a time, then frozen with
// Finish before querying. Strengths may be patched in place after
// finishing; distances may not. Not safe for concurrent writes.
type Array struct {
	rowOffsets []uint32
	columns    []uint32
	distances  []Distance
	strengths  []Strength

	nrows, ncols uint32
	nrowsSet     uint32
	finished     bool
}

// New allocates an array with the given dimensions.
func New(nrows, ncols uint32) *Array {
	a := &Array{
		rowOffsets: make([]uint32, nrows+1),
		columns:    make([]uint32, 0, initialNNZCapacity),
		distances:  make([]Distance, 0, initialNNZCapacity),
		strengths:  make([]Strength, 0, initialNNZCapacity),
		nrows:      nrows,
		ncols:      ncols,
	}
	return a
}

// NRows returns the row dimension.
func (a *Array) NRows() uint32 { return a.nrows }

// NCols returns the column dimension.
func (a *Array) NCols() uint32 { return a.ncols }

// NNZ returns the number of stored entries.
func (a *Array) NNZ() int { return len(a.columns) }

// Finished reports whether the array has been frozen for querying.
func (a *Array) Finished() bool { return a.finished }

// Reset zeroes the row state while keeping the allocated buffers, so one
// array can be reused across ticks.
func (a *Array) Reset() {
	for i := range a.rowOffsets {
		a.rowOffsets[i] = 0
	}
	a.columns = a.columns[:0]
	a.distances = a.distances[:0]
	a.strengths = a.strengths[:0]
	a.nrowsSet = 0
	a.finished = false
}

// ResetDims is Reset with new dimensions.
func (a *Array) ResetDims(nrows, ncols uint32) {
	if int(nrows)+1 > cap(a.rowOffsets) {
		a.rowOffsets = make([]uint32, nrows+1)
	} else {
		a.rowOffsets = a.rowOffsets[:nrows+1]
	}
	a.nrows, a.ncols = nrows, ncols
	a.Reset()
}

func (a *Array) checkWritable(where string) error {
	if a.finished {
		return core.NoposErrf(core.ErrInvariant, where, "sparse array is finished; no further writes")
	}
	return nil
}

// AddRowDistances appends a whole row of distances with zero strengths.
// Rows must arrive in strict sequential order.
func (a *Array) AddRowDistances(row uint32, cols []uint32, dists []Distance) error {
	strengths := make([]Strength, len(cols))
	return a.AddRow(row, cols, dists, strengths)
}

// AddRow appends a whole row at once. The row index must equal the number
// of rows already set.
func (a *Array) AddRow(row uint32, cols []uint32, dists []Distance, strengths []Strength) error {
	if err := a.checkWritable("AddRow"); err != nil {
		return err
	}
	if row != a.nrowsSet {
		return core.NoposErrf(core.ErrRuntime, "AddRow",
			"row %d added out of order; next row is %d", row, a.nrowsSet)
	}
	if row >= a.nrows {
		return core.NoposErrf(core.ErrRuntime, "AddRow", "row %d beyond declared bound %d", row, a.nrows)
	}
	if len(cols) != len(dists) || len(cols) != len(strengths) {
		return core.NoposErrf(core.ErrRuntime, "AddRow", "mismatched column/distance/strength lengths")
	}
	for _, c := range cols {
		if c >= a.ncols {
			return core.NoposErrf(core.ErrRuntime, "AddRow", "column %d beyond declared bound %d", c, a.ncols)
		}
	}
	a.rowOffsets[row] = uint32(len(a.columns))
	a.columns = append(a.columns, cols...)
	a.distances = append(a.distances, dists...)
	a.strengths = append(a.strengths, strengths...)
	a.nrowsSet = row + 1
	a.rowOffsets[a.nrowsSet] = uint32(len(a.columns))
	return nil
}

// AddEntry appends one cell. The row index must be the current row or a
// later one; skipped rows collapse to zero-length offsets.
func (a *Array) AddEntry(row, col uint32, dist Distance, strength Strength) error {
	if err := a.checkWritable("AddEntry"); err != nil {
		return err
	}
	if a.nrowsSet > 0 && row < a.nrowsSet-1 {
		return core.NoposErrf(core.ErrRuntime, "AddEntry",
			"entry for row %d added out of order; current row is %d", row, a.nrowsSet-1)
	}
	if row >= a.nrows {
		return core.NoposErrf(core.ErrRuntime, "AddEntry", "row %d beyond declared bound %d", row, a.nrows)
	}
	if col >= a.ncols {
		return core.NoposErrf(core.ErrRuntime, "AddEntry", "column %d beyond declared bound %d", col, a.ncols)
	}
	for a.nrowsSet <= row {
		a.rowOffsets[a.nrowsSet] = uint32(len(a.columns))
		a.nrowsSet++
	}
	a.columns = append(a.columns, col)
	a.distances = append(a.distances, dist)
	a.strengths = append(a.strengths, strength)
	a.rowOffsets[a.nrowsSet] = uint32(len(a.columns))
	return nil
}

// Finish fills the offsets of any trailing unset rows and freezes the
// array for querying.
func (a *Array) Finish() error {
	if a.finished {
		return core.NoposErrf(core.ErrInvariant, "Finish", "sparse array is already finished")
	}
	nnz := uint32(len(a.columns))
	for r := a.nrowsSet; r <= a.nrows; r++ {
		a.rowOffsets[r] = nnz
	}
	a.nrowsSet = a.nrows
	a.finished = true
	return nil
}

func (a *Array) checkQuery(where string, row uint32) error {
	if !a.finished {
		return core.NoposErrf(core.ErrInvariant, where, "sparse array is not finished")
	}
	if row >= a.nrows {
		return core.NoposErrf(core.ErrRuntime, where, "row %d beyond declared bound %d", row, a.nrows)
	}
	return nil
}

// Distance returns the distance at (row, col); absent cells read as +Inf.
func (a *Array) Distance(row, col uint32) (Distance, error) {
	if err := a.checkQuery("Distance", row); err != nil {
		return 0, err
	}
	if col >= a.ncols {
		return 0, core.NoposErrf(core.ErrRuntime, "Distance", "column %d beyond declared bound %d", col, a.ncols)
	}
	for i := a.rowOffsets[row]; i < a.rowOffsets[row+1]; i++ {
		if a.columns[i] == col {
			return a.distances[i], nil
		}
	}
	return Infinity, nil
}

// Strength returns the strength at (row, col); absent cells read as 0.
func (a *Array) Strength(row, col uint32) (Strength, error) {
	if err := a.checkQuery("Strength", row); err != nil {
		return 0, err
	}
	if col >= a.ncols {
		return 0, core.NoposErrf(core.ErrRuntime, "Strength", "column %d beyond declared bound %d", col, a.ncols)
	}
	for i := a.rowOffsets[row]; i < a.rowOffsets[row+1]; i++ {
		if a.columns[i] == col {
			return a.strengths[i], nil
		}
	}
	return 0, nil
}

// ColumnsForRow returns the row's column indices in insertion order, as a
// view into the underlying storage.
func (a *Array) ColumnsForRow(row uint32) ([]uint32, error) {
	if err := a.checkQuery("ColumnsForRow", row); err != nil {
		return nil, err
	}
	return a.columns[a.rowOffsets[row]:a.rowOffsets[row+1]], nil
}

// DistancesForRow returns the row's distances in insertion order.
func (a *Array) DistancesForRow(row uint32) ([]Distance, error) {
	if err := a.checkQuery("DistancesForRow", row); err != nil {
		return nil, err
	}
	return a.distances[a.rowOffsets[row]:a.rowOffsets[row+1]], nil
}

// StrengthsForRow returns the row's strengths in insertion order. The
// returned slice aliases the array's storage; writing through it is the
// supported way to bulk-update a row's strengths.
func (a *Array) StrengthsForRow(row uint32) ([]Strength, error) {
	if err := a.checkQuery("StrengthsForRow", row); err != nil {
		return nil, err
	}
	return a.strengths[a.rowOffsets[row]:a.rowOffsets[row+1]], nil
}

// InteractionsForRow returns the row's columns, distances, and strengths
// together, in insertion order.
func (a *Array) InteractionsForRow(row uint32) (cols []uint32, dists []Distance, strengths []Strength, err error) {
	if err := a.checkQuery("InteractionsForRow", row); err != nil {
		return nil, nil, nil, err
	}
	lo, hi := a.rowOffsets[row], a.rowOffsets[row+1]
	return a.columns[lo:hi], a.distances[lo:hi], a.strengths[lo:hi], nil
}

// PatchStrength overwrites the strength of an existing cell; patching an
// absent cell is an error.
func (a *Array) PatchStrength(row, col uint32, strength Strength) error {
	if err := a.checkQuery("PatchStrength", row); err != nil {
		return err
	}
	for i := a.rowOffsets[row]; i < a.rowOffsets[row+1]; i++ {
		if a.columns[i] == col {
			a.strengths[i] = strength
			return nil
		}
	}
	return core.NoposErrf(core.ErrRuntime, "PatchStrength", "no entry at (%d, %d)", row, col)
}
