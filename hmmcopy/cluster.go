package hmmcopy

// Options selects the distance and linkage of ClusterOrder.
type Options struct {
	Linkage Method
	Metric  Metric
}

func (o Options) String() string { return string(o.Linkage) + "/" + string(o.Metric) }

// DefaultOptions clusters with ward linkage over city-block distances.
func DefaultOptions() Options {
	return Options{Linkage: Ward, Metric: CityBlock}
}

// DefaultGroupOptions orders the cells of a group with average linkage over
// euclidean distances.
func DefaultGroupOptions() Options {
	return Options{Linkage: Average, Metric: Euclidean}
}

// ParseOptions validates linkage and metric names.
func ParseOptions(linkage, metric string) (Options, error) {
	method, err := ParseMethod(linkage)
	if err != nil {
		return Options{}, err
	}
	m, err := ParseMetric(metric)
	if err != nil {
		return Options{}, err
	}
	return Options{Linkage: method, Metric: m}, nil
}

// ClusterOrder returns the cells of m in the leaf order of a hierarchical
// clustering of their profiles. Missing values are replaced by
// MissingSentinel first. With fewer than two cells the row order is returned
// and no distances are computed. The result is a permutation of m.Cells()
// and depends only on the matrix and the options.
func ClusterOrder(m *CopyNumberMatrix, opts Options) ([]string, error) {
	if _, err := ParseOptions(string(opts.Linkage), string(opts.Metric)); err != nil {
		return nil, err
	}
	cells := m.Cells()
	if len(cells) < 2 {
		return cells, nil
	}

	rows := m.rows()
	for i := range rows {
		rows[i] = fillMissing(rows[i])
	}
	dendrogram, err := Linkage(PairwiseDistances(rows, opts.Metric), len(rows), opts.Linkage)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, len(cells))
	for _, leaf := range dendrogram.Leaves() {
		order = append(order, cells[leaf])
	}
	return order, nil
}

// OrderIndex maps each cell to its position in order.
func OrderIndex(order []string) map[string]int {
	idx := make(map[string]int, len(order))
	for i, c := range order {
		idx[c] = i
	}
	return idx
}
