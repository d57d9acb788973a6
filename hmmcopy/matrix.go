package hmmcopy

import (
	"fmt"
	"math"
	"sort"

	"github.com/gmaffy/singlecell-whisperer/genome"
	"github.com/go-gota/gota/dataframe"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
)

// Column names of HMMcopy reads and metrics tables.
const (
	ColCellID      = "cell_id"
	ColChrom       = "chr"
	ColStart       = "start"
	ColEnd         = "end"
	ColState       = "state"
	ColTotalReads  = "total_mapped_reads"
	ColReadsPerBin = "median_hmmcopy_reads_per_bin"
	ColMAD         = "mad_neutral_state"
	ColCellCall    = "cell_call"
	ColOrder       = "order"
)

// Bin is a genomic interval, one column of a CopyNumberMatrix.
type Bin struct {
	Chrom string
	Start int
	End   int
}

func (b Bin) String() string {
	return fmt.Sprintf("%s:%d-%d", b.Chrom, b.Start, b.End)
}

// CopyNumberMatrix holds one row of bin values per cell. Missing values are
// NaN. Methods that reorder or subset return a new matrix.
type CopyNumberMatrix struct {
	cells []string
	bins  []Bin
	data  *mat.Dense // nil when there are no cells or no bins
}

// NewMatrix builds a matrix from row-major values. Cell ids must be unique and
// every row must have one value per bin.
func NewMatrix(cells []string, bins []Bin, values [][]float64) (*CopyNumberMatrix, error) {
	if len(values) != len(cells) {
		return nil, fmt.Errorf("matrix has %d rows for %d cells", len(values), len(cells))
	}
	if dup := lo.FindDuplicates(cells); len(dup) > 0 {
		return nil, fmt.Errorf("duplicate cell id %q", dup[0])
	}
	m := &CopyNumberMatrix{
		cells: append([]string(nil), cells...),
		bins:  append([]Bin(nil), bins...),
	}
	if len(cells) == 0 || len(bins) == 0 {
		return m, nil
	}
	flat := make([]float64, 0, len(cells)*len(bins))
	for i, row := range values {
		if len(row) != len(bins) {
			return nil, fmt.Errorf("row %s has %d values for %d bins", cells[i], len(row), len(bins))
		}
		flat = append(flat, row...)
	}
	m.data = mat.NewDense(len(cells), len(bins), flat)
	return m, nil
}

// BuildMatrix pivots a long-format reads table (one row per cell and bin)
// into a matrix of valueColumn. Bins are sorted by chromosome order, start and
// end; cells are sorted by id.
func BuildMatrix(reads dataframe.DataFrame, valueColumn string, order genome.Order) (*CopyNumberMatrix, error) {
	if reads.Err != nil {
		return nil, reads.Err
	}
	names := reads.Names()
	for _, col := range []string{ColCellID, ColChrom, ColStart, ColEnd, valueColumn} {
		if !lo.Contains(names, col) {
			return nil, missingColumn(col)
		}
	}

	cellIDs := reads.Col(ColCellID).Records()
	chroms := reads.Col(ColChrom).Records()
	starts := reads.Col(ColStart).Float()
	ends := reads.Col(ColEnd).Float()
	values := reads.Col(valueColumn).Float()

	rowBins := make([]Bin, len(cellIDs))
	for i := range cellIDs {
		if math.IsNaN(starts[i]) || math.IsNaN(ends[i]) {
			return nil, fmt.Errorf("row %d: bin %s has no start or end", i, chroms[i])
		}
		rowBins[i] = Bin{Chrom: chroms[i], Start: int(starts[i]), End: int(ends[i])}
	}

	bins := lo.Uniq(rowBins)
	sortBins(bins, order)
	binIndex := make(map[Bin]int, len(bins))
	for j, b := range bins {
		binIndex[b] = j
	}

	cells := lo.Uniq(cellIDs)
	sort.Strings(cells)
	cellIndex := make(map[string]int, len(cells))
	for i, c := range cells {
		cellIndex[c] = i
	}

	m := &CopyNumberMatrix{cells: cells, bins: bins}
	if len(cells) == 0 || len(bins) == 0 {
		return m, nil
	}

	flat := make([]float64, len(cells)*len(bins))
	seen := make([]bool, len(flat))
	for i := range flat {
		flat[i] = math.NaN()
	}
	for k, cell := range cellIDs {
		idx := cellIndex[cell]*len(bins) + binIndex[rowBins[k]]
		if seen[idx] {
			return nil, fmt.Errorf("repeated value for cell %s at bin %s", cell, rowBins[k])
		}
		seen[idx] = true
		flat[idx] = values[k]
	}
	m.data = mat.NewDense(len(cells), len(bins), flat)
	return m, nil
}

func sortBins(bins []Bin, order genome.Order) {
	sort.SliceStable(bins, func(i, j int) bool {
		a, b := bins[i], bins[j]
		if a.Chrom != b.Chrom {
			return order.Less(a.Chrom, b.Chrom)
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})
}

// NumCells returns the number of rows.
func (m *CopyNumberMatrix) NumCells() int { return len(m.cells) }

// NumBins returns the number of columns.
func (m *CopyNumberMatrix) NumBins() int { return len(m.bins) }

// Cells returns the cell ids in row order.
func (m *CopyNumberMatrix) Cells() []string {
	cells := make([]string, len(m.cells))
	copy(cells, m.cells)
	return cells
}

// Bins returns the bins in column order.
func (m *CopyNumberMatrix) Bins() []Bin { return append([]Bin(nil), m.bins...) }

// Row returns a copy of the values of row i.
func (m *CopyNumberMatrix) Row(i int) []float64 {
	if m.data == nil {
		return nil
	}
	return mat.Row(nil, i, m.data)
}

// At returns the value of cell row i at bin column j.
func (m *CopyNumberMatrix) At(i, j int) float64 {
	return m.data.At(i, j)
}

func (m *CopyNumberMatrix) rows() [][]float64 {
	out := make([][]float64, len(m.cells))
	for i := range m.cells {
		out[i] = m.Row(i)
		if out[i] == nil {
			out[i] = []float64{}
		}
	}
	return out
}

func (m *CopyNumberMatrix) withRows(idx []int) *CopyNumberMatrix {
	cells := make([]string, len(idx))
	rows := make([][]float64, len(idx))
	for k, i := range idx {
		cells[k] = m.cells[i]
		rows[k] = m.Row(i)
		if rows[k] == nil {
			rows[k] = []float64{}
		}
	}
	out, err := NewMatrix(cells, m.bins, rows)
	if err != nil {
		// rows come from a valid matrix
		panic(err)
	}
	return out
}

// SortRowsByProfile returns the matrix with rows stably sorted by their
// values in bin order, ascending, missing values last.
func (m *CopyNumberMatrix) SortRowsByProfile() *CopyNumberMatrix {
	rows := m.rows()
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return compareProfiles(rows[idx[a]], rows[idx[b]]) < 0
	})
	return m.withRows(idx)
}

func compareProfiles(a, b []float64) int {
	for j := range a {
		x, y := a[j], b[j]
		xNaN, yNaN := math.IsNaN(x), math.IsNaN(y)
		switch {
		case xNaN && yNaN:
			continue
		case xNaN:
			return 1
		case yNaN:
			return -1
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

// DropEmptyCells returns the matrix without rows whose values are all
// missing or infinite.
func (m *CopyNumberMatrix) DropEmptyCells() *CopyNumberMatrix {
	var idx []int
	for i := range m.cells {
		row := m.Row(i)
		if lo.SomeBy(row, func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }) {
			idx = append(idx, i)
		}
	}
	return m.withRows(idx)
}

// DropIncompleteCells returns the matrix without rows that miss a value in
// any bin.
func (m *CopyNumberMatrix) DropIncompleteCells() *CopyNumberMatrix {
	var idx []int
	for i := range m.cells {
		if !lo.SomeBy(m.Row(i), math.IsNaN) {
			idx = append(idx, i)
		}
	}
	return m.withRows(idx)
}

// Subset returns the rows of the given cells in the given order. Unknown
// and repeated cells are skipped.
func (m *CopyNumberMatrix) Subset(cells []string) *CopyNumberMatrix {
	pos := make(map[string]int, len(m.cells))
	for i, c := range m.cells {
		pos[c] = i
	}
	var idx []int
	taken := make(map[int]bool)
	for _, c := range cells {
		if i, ok := pos[c]; ok && !taken[i] {
			taken[i] = true
			idx = append(idx, i)
		}
	}
	return m.withRows(idx)
}
