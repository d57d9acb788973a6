package hmmcopy

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Thresholds selects the cells kept for plotting. A nil bound and an empty
// CellCalls list leave that metric unconstrained.
type Thresholds struct {
	MaxMAD         *float64
	MinReads       *float64
	MinReadsPerBin *float64
	CellCalls      []string
}

// NewThresholds treats zero and negative bounds as unset.
func NewThresholds(maxMAD, minReads, minReadsPerBin float64, cellCalls []string) Thresholds {
	bound := func(v float64) *float64 {
		if v <= 0 {
			return nil
		}
		return &v
	}
	return Thresholds{
		MaxMAD:         bound(maxMAD),
		MinReads:       bound(minReads),
		MinReadsPerBin: bound(minReadsPerBin),
		CellCalls:      cellCalls,
	}
}

// String lists the bounds, "-" standing for an unset one.
func (t Thresholds) String() string {
	bound := func(v *float64) string {
		if v == nil {
			return "-"
		}
		return strconv.FormatFloat(*v, 'g', -1, 64)
	}
	return fmt.Sprintf("%s<=%s %s>=%s %s>=%s %s=%s",
		ColMAD, bound(t.MaxMAD), ColTotalReads, bound(t.MinReads),
		ColReadsPerBin, bound(t.MinReadsPerBin), ColCellCall, strings.Join(t.CellCalls, "|"))
}

func (t Thresholds) columns() []string {
	cols := []string{ColCellID}
	if t.MaxMAD != nil {
		cols = append(cols, ColMAD)
	}
	if t.MinReads != nil {
		cols = append(cols, ColTotalReads)
	}
	if t.MinReadsPerBin != nil {
		cols = append(cols, ColReadsPerBin)
	}
	if len(t.CellCalls) > 0 {
		cols = append(cols, ColCellCall)
	}
	return cols
}

// FilterCells returns the cells of metrics that pass every configured
// threshold, in table order. A missing metric value fails its comparison.
// Only the columns a configured threshold refers to are required.
func FilterCells(metrics dataframe.DataFrame, t Thresholds) ([]string, error) {
	if metrics.Err != nil {
		return nil, metrics.Err
	}
	if err := requireColumns(metrics, t.columns()...); err != nil {
		return nil, err
	}

	cells := metrics.Col(ColCellID).Records()
	keep := make([]bool, len(cells))
	for i := range keep {
		keep[i] = true
	}

	// NaN fails every comparison below
	if t.MaxMAD != nil {
		for i, v := range metrics.Col(ColMAD).Float() {
			keep[i] = keep[i] && v <= *t.MaxMAD
		}
	}
	if t.MinReads != nil {
		for i, v := range metrics.Col(ColTotalReads).Float() {
			keep[i] = keep[i] && v >= *t.MinReads
		}
	}
	if t.MinReadsPerBin != nil {
		for i, v := range metrics.Col(ColReadsPerBin).Float() {
			keep[i] = keep[i] && v >= *t.MinReadsPerBin
		}
	}
	if len(t.CellCalls) > 0 {
		for i, v := range metrics.Col(ColCellCall).Records() {
			keep[i] = keep[i] && lo.Contains(t.CellCalls, v)
		}
	}

	good := make([]string, 0, len(cells))
	for i, c := range cells {
		if keep[i] {
			good = append(good, c)
		}
	}
	return lo.Uniq(good), nil
}

// MedianReads returns the median total mapped reads over cells, or NaN when
// none of them has a read count.
func MedianReads(metrics dataframe.DataFrame, cells []string) (float64, error) {
	counts, err := ReadCounts(metrics)
	if err != nil {
		return math.NaN(), err
	}
	reads := lo.FilterMap(cells, func(c string, _ int) (float64, bool) {
		v, ok := counts[c]
		return v, ok && !math.IsNaN(v)
	})
	if len(reads) == 0 {
		return math.NaN(), nil
	}
	sort.Float64s(reads)
	return stat.Quantile(0.5, stat.Empirical, reads, nil), nil
}
