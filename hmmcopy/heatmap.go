package hmmcopy

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/go-gota/gota/dataframe"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// HeatmapOptions configures RenderHeatmap. MaxCN caps the colour scale;
// values above it are drawn at MaxCN.
type HeatmapOptions struct {
	Title string
	MaxCN float64
}

var copyNumberColors = []string{
	"#3182BD", "#9ECAE1", "#CCCCCC", "#FDCC8A", "#FC8D59", "#E34A33",
	"#B30000", "#980043", "#DD1C77", "#DF65B0", "#C994C7", "#D4B9DA",
}

// ReadCounts maps each cell of metrics to its total mapped reads.
func ReadCounts(metrics dataframe.DataFrame) (map[string]float64, error) {
	if err := requireColumns(metrics, ColCellID, ColTotalReads); err != nil {
		return nil, err
	}
	reads := metrics.Col(ColTotalReads).Float()
	counts := make(map[string]float64, len(reads))
	for i, c := range metrics.Col(ColCellID).Records() {
		counts[c] = reads[i]
	}
	return counts, nil
}

// RenderHeatmap writes an HTML page with the matrix as a heatmap, one row per
// cell in matrix order. When readCounts is not nil a bar chart of the read
// count of every plotted cell follows the heatmap. An empty matrix renders a
// page without data.
func RenderHeatmap(w io.Writer, m *CopyNumberMatrix, readCounts map[string]float64, hOpts HeatmapOptions) error {
	maxCN := hOpts.MaxCN
	if maxCN <= 0 {
		maxCN = 20
	}
	title := hOpts.Title
	cells := m.Cells()
	if len(cells) == 0 || m.NumBins() == 0 {
		title += " (no data)"
	}
	title = fmt.Sprintf("%s n=%d", title, len(cells))

	binLabels := lo.Map(m.Bins(), func(b Bin, _ int) string { return b.String() })

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  "1600px",
			Height: fmt.Sprintf("%dpx", 200+12*len(cells)),
		}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "Bin", Data: binLabels}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: "Cell", Data: cells, Inverse: opts.Bool(true)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxCN),
			InRange:    &opts.VisualMapInRange{Color: copyNumberColors},
		}),
	)

	var data []opts.HeatMapData
	for i := range cells {
		for j, v := range m.Row(i) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{j, i, math.Min(v, maxCN)}})
		}
	}
	hm.SetXAxis(binLabels).AddSeries("copy number", data)

	page := components.NewPage()
	page.SetPageTitle(title)
	page.AddCharts(hm)

	if readCounts != nil {
		bar := charts.NewBar()
		bar.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros, Width: "1600px"}),
			charts.WithTitleOpts(opts.Title{Title: "Total mapped reads"}),
			charts.WithXAxisOpts(opts.XAxis{Name: "Cell"}),
			charts.WithYAxisOpts(opts.YAxis{Name: "Reads"}),
		)
		bars := lo.Map(cells, func(c string, _ int) opts.BarData {
			v := readCounts[c]
			if math.IsNaN(v) {
				v = 0
			}
			return opts.BarData{Value: v}
		})
		bar.SetXAxis(cells).AddSeries(ColTotalReads, bars)
		page.AddCharts(bar)
	}

	return errors.Wrap(page.Render(w), "rendering heatmap")
}
