package hmmcopy

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCounts(t *testing.T) {
	counts, err := ReadCounts(loadTestMetrics(t))
	require.NoError(t, err)
	assert.Len(t, counts, 5)
	assert.Equal(t, 1200000.0, counts["A01"])
	assert.Equal(t, 150000.0, counts["A03"])

	_, err = ReadCounts(loadTestMetrics(t).Select([]string{ColCellID}))
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRenderHeatmap(t *testing.T) {
	m, err := NewMatrix([]string{"CELL-7", "CELL-3"}, testBins(3), [][]float64{
		{2, math.NaN(), 40},
		{1, 2, 3},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = RenderHeatmap(&buf, m, map[string]float64{"CELL-7": 10, "CELL-3": 20}, HeatmapOptions{Title: "Copy number", MaxCN: 10})
	require.NoError(t, err)
	page := buf.String()
	assert.Contains(t, page, "CELL-7")
	assert.Contains(t, page, "CELL-3")
	assert.Contains(t, page, "copy number")
	assert.Contains(t, page, ColTotalReads)
	assert.NotContains(t, page, "no data")
	assert.NotContains(t, page, "Awesome go-echarts")
	assert.Contains(t, page, "Copy number n=2")
	assert.Contains(t, page, `"inverse":true`)
}

func TestRenderHeatmapEmpty(t *testing.T) {
	m, err := NewMatrix(nil, nil, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderHeatmap(&buf, m, nil, HeatmapOptions{Title: "Copy number"}))
	assert.Contains(t, buf.String(), "no data")
	assert.NotContains(t, buf.String(), ColTotalReads)
}
