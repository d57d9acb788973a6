package hmmcopy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCellTables(t *testing.T) {
	tables := CellTables("hmmcopy/{cell_id}/{multiplier}/reads.csv", []string{"A01", "A02"}, 2)
	assert.Equal(t, []CellTable{
		{CellID: "A01", Path: "hmmcopy/A01/2/reads.csv"},
		{CellID: "A02", Path: "hmmcopy/A02/2/reads.csv"},
	}, tables)
}

func TestMergeTables(t *testing.T) {
	dir := t.TempDir()
	cells := []string{"C3", "C1", "C2"}
	writeFile(t, filepath.Join(dir, "C1", "0", "reads.csv"), "chr,start,end,state\n1,1,500000,2\n1,500001,1000000,3\n")
	writeFile(t, filepath.Join(dir, "C2", "0", "reads.csv"), "chr,start,end,state\n1,1,500000,4\n")
	writeFile(t, filepath.Join(dir, "C3", "0", "reads.csv"), "cell_id,chr,start,end,state\nC3,1,1,500000,NA\n")

	inputs := CellTables(filepath.Join(dir, "{cell_id}", "{multiplier}", "reads.csv"), cells, 0)
	merged, err := MergeTables(context.Background(), inputs, MergeOptions{Concurrency: 2})
	require.NoError(t, err)

	assert.Equal(t, 4, merged.Nrow())
	assert.Equal(t, []string{"C3", "C1", "C1", "C2"}, merged.Col(ColCellID).Records())
	assert.Equal(t, []string{"1", "1", "1", "1"}, merged.Col(ColChrom).Records())
}

func TestMergeTablesTypes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.csv"), "cell_id,state\na,2\n")
	writeFile(t, filepath.Join(dir, "b.csv"), "cell_id,state\nb,2.5\n")
	merged, err := MergeTables(context.Background(), []CellTable{
		{CellID: "a", Path: filepath.Join(dir, "a.csv")},
		{CellID: "b", Path: filepath.Join(dir, "b.csv")},
	}, MergeOptions{Types: map[string]series.Type{ColState: series.Float}})
	require.NoError(t, err)
	assert.Equal(t, series.Float, merged.Col(ColState).Type())
	assert.Equal(t, []float64{2, 2.5}, merged.Col(ColState).Float())
}

func TestMergeTablesErrors(t *testing.T) {
	_, err := MergeTables(context.Background(), nil, MergeOptions{})
	assert.Error(t, err)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.csv"), "cell_id,state\na,2\n")
	_, err = MergeTables(context.Background(), []CellTable{
		{CellID: "a", Path: filepath.Join(dir, "a.csv")},
		{CellID: "gone", Path: filepath.Join(dir, "gone.csv")},
	}, MergeOptions{Concurrency: 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gone.csv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = MergeTables(ctx, []CellTable{{CellID: "a", Path: filepath.Join(dir, "a.csv")}}, MergeOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteTableRoundTripGzip(t *testing.T) {
	dir := t.TempDir()
	metrics := loadTestMetrics(t)
	path := filepath.Join(dir, "out", "metrics.csv.gz")
	require.NoError(t, WriteTable(path, metrics))

	back, err := LoadMetrics(path)
	require.NoError(t, err)
	assert.Equal(t, metrics.Nrow(), back.Nrow())
	assert.Equal(t, metrics.Col(ColCellID).Records(), back.Col(ColCellID).Records())

	good, err := FilterCells(back, Thresholds{MaxMAD: f64(0.12)})
	require.NoError(t, err)
	assert.Equal(t, []string{"A01", "A03", "A04"}, good)
}
