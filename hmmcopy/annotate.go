package hmmcopy

import (
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// AllCells is the group name used when cells are not split by a column.
const AllCells = "all"

// AnnotateOrder sets the "order" column of metrics to each cell's position in
// order. Cells missing from order get a missing value.
func AnnotateOrder(metrics dataframe.DataFrame, order []string) (dataframe.DataFrame, error) {
	if err := requireColumns(metrics, ColCellID); err != nil {
		return metrics, err
	}
	pos := OrderIndex(order)
	values := lo.Map(metrics.Col(ColCellID).Records(), func(c string, _ int) string {
		if p, ok := pos[c]; ok {
			return strconv.Itoa(p)
		}
		return "NaN"
	})
	out := metrics.Mutate(series.New(values, series.Int, ColOrder))
	if out.Err != nil {
		return metrics, errors.Wrap(out.Err, "adding order column")
	}
	return out, nil
}

// JoinSampleInfo left-joins per-cell sample annotations onto metrics by cell id.
func JoinSampleInfo(metrics, info dataframe.DataFrame) (dataframe.DataFrame, error) {
	if err := requireColumns(metrics, ColCellID); err != nil {
		return metrics, err
	}
	if err := requireColumns(info, ColCellID); err != nil {
		return metrics, err
	}
	out := metrics.LeftJoin(info, ColCellID)
	if out.Err != nil {
		return metrics, errors.Wrap(out.Err, "joining sample info")
	}
	return out, nil
}

// SortCells returns goodCells sorted by the "order" column of metrics.
// Cells without an order value are dropped.
func SortCells(metrics dataframe.DataFrame, goodCells []string) ([]string, error) {
	if err := requireColumns(metrics, ColCellID, ColOrder); err != nil {
		return nil, err
	}
	cellOrder := make(map[string]float64, metrics.Nrow())
	orders := metrics.Col(ColOrder).Float()
	for i, c := range metrics.Col(ColCellID).Records() {
		if _, ok := cellOrder[c]; !ok && !math.IsNaN(orders[i]) {
			cellOrder[c] = orders[i]
		}
	}
	sorted := lo.Filter(lo.Uniq(goodCells), func(c string, _ int) bool {
		_, ok := cellOrder[c]
		return ok
	})
	sort.SliceStable(sorted, func(i, j int) bool { return cellOrder[sorted[i]] < cellOrder[sorted[j]] })
	return sorted, nil
}

// GroupOrder is the cluster order of the cells sharing one group value.
type GroupOrder struct {
	Group string
	Cells []string
}

// GroupOrders clusters the cells of m separately for each value of
// groupColumn in metrics, or all together when groupColumn is empty. Cells
// missing a value in any bin are left out, and groups with fewer than two
// remaining cells are skipped. Groups are returned sorted by name.
func GroupOrders(m *CopyNumberMatrix, metrics dataframe.DataFrame, groupColumn string, opts Options) ([]GroupOrder, error) {
	m = m.DropIncompleteCells()
	groups := map[string][]string{}
	if groupColumn == "" || groupColumn == AllCells {
		groups[AllCells] = m.Cells()
	} else {
		if err := requireColumns(metrics, ColCellID, groupColumn); err != nil {
			return nil, err
		}
		groupOf := map[string]string{}
		values := metrics.Col(groupColumn).Records()
		for i, c := range metrics.Col(ColCellID).Records() {
			if _, ok := groupOf[c]; !ok {
				groupOf[c] = values[i]
			}
		}
		for _, c := range m.Cells() {
			if g, ok := groupOf[c]; ok {
				groups[g] = append(groups[g], c)
			}
		}
	}

	var out []GroupOrder
	for _, g := range lo.Keys(groups) {
		if len(groups[g]) < 2 {
			continue
		}
		order, err := ClusterOrder(m.Subset(groups[g]), opts)
		if err != nil {
			return nil, err
		}
		out = append(out, GroupOrder{Group: g, Cells: order})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out, nil
}

// WriteGroupOrders writes "cell_id,<group>_heatmap_order" rows, numbering
// cells from zero within each group.
func WriteGroupOrders(w io.Writer, groupColumn string, groups []GroupOrder) error {
	if groupColumn == "" {
		groupColumn = AllCells
	}
	var cells, positions []string
	for _, g := range groups {
		for i, c := range g.Cells {
			cells = append(cells, c)
			positions = append(positions, strconv.Itoa(i))
		}
	}
	if len(cells) == 0 {
		_, err := io.WriteString(w, ColCellID+","+groupColumn+"_heatmap_order\n")
		return err
	}
	df := dataframe.New(
		series.New(cells, series.String, ColCellID),
		series.New(positions, series.Int, groupColumn+"_heatmap_order"),
	)
	return df.WriteCSV(w)
}
