package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMetrics = `cell_id,total_mapped_reads,median_hmmcopy_reads_per_bin,mad_neutral_state,cell_call,experimental_condition
C01,900000,80.0,0.10,C1,A
C02,800000,70.0,0.12,C1,A
C03,10000,2.0,0.40,C1,B
C04,700000,60.0,0.11,C1,B
`

var testStates = map[string][]int{
	"C01": {2, 2, 2, 2},
	"C02": {2, 2, 3, 3},
	"C03": {2, 2, 2, 1},
	"C04": {2, 3, 3, 3},
}

func writeTestFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readsTable(cells ...string) string {
	var sb strings.Builder
	sb.WriteString("cell_id,chr,start,end,state\n")
	for _, c := range cells {
		for i, s := range testStates[c] {
			fmt.Fprintf(&sb, "%s,1,%d,%d,%d\n", c, i*500000+1, (i+1)*500000, s)
		}
	}
	return sb.String()
}

func execute(t *testing.T, args ...string) {
	t.Helper()
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
}

func lines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestFilterCellsCommand(t *testing.T) {
	dir := t.TempDir()
	metrics := writeTestFile(t, filepath.Join(dir, "metrics.csv"), testMetrics)
	out := filepath.Join(dir, "good.txt")

	execute(t, "filterCells", "-m", metrics, "-o", out, "--mad_threshold", "0.2", "--numreads_threshold", "750000")
	assert.Equal(t, []string{"C01", "C02"}, lines(t, out))
}

func TestClusterOrderCommand(t *testing.T) {
	dir := t.TempDir()
	reads := writeTestFile(t, filepath.Join(dir, "reads.csv"), readsTable("C01", "C02", "C03", "C04"))
	out := filepath.Join(dir, "order.csv")

	execute(t, "clusterOrder", "-R", reads, "-o", out, "--linkage", "average")
	got := lines(t, out)
	require.Len(t, got, 5)
	assert.Equal(t, "cell_id,order", got[0])
	cells := make([]string, 0, 4)
	for i, l := range got[1:] {
		parts := strings.Split(l, ",")
		require.Len(t, parts, 2)
		assert.Equal(t, fmt.Sprint(i), parts[1])
		cells = append(cells, parts[0])
	}
	assert.ElementsMatch(t, []string{"C01", "C02", "C03", "C04"}, cells)
}

func TestGroupOrderCommand(t *testing.T) {
	dir := t.TempDir()
	reads := writeTestFile(t, filepath.Join(dir, "reads.csv"), readsTable("C01", "C02", "C03", "C04"))
	metrics := writeTestFile(t, filepath.Join(dir, "metrics.csv"), testMetrics)
	out := filepath.Join(dir, "groups.csv")

	execute(t, "groupOrder", "-R", reads, "-m", metrics, "-o", out, "-g", "experimental_condition", "--numreads_threshold", "100000")
	got := lines(t, out)
	assert.Equal(t, "cell_id,experimental_condition_heatmap_order", got[0])
	assert.Len(t, got, 3, "group B keeps one cell and is skipped")
	var ids []string
	for _, l := range got[1:] {
		ids = append(ids, strings.Split(l, ",")[0])
	}
	assert.ElementsMatch(t, []string{"C01", "C02"}, ids)
}

func TestPlotHeatmapCommandEmpty(t *testing.T) {
	dir := t.TempDir()
	reads := writeTestFile(t, filepath.Join(dir, "reads.csv"), readsTable())
	metrics := writeTestFile(t, filepath.Join(dir, "metrics.csv"), strings.SplitN(testMetrics, "\n", 2)[0]+"\n")
	out := filepath.Join(dir, "heatmap.html")

	execute(t, "plotHeatmap", "-R", reads, "-m", metrics, "-o", out)
	page, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(page), "no data")
}

func TestMergeTablesAndPostprocessCommands(t *testing.T) {
	dir := t.TempDir()
	cells := []string{"C01", "C02", "C03", "C04"}
	for _, c := range cells {
		writeTestFile(t, filepath.Join(dir, "hmmcopy", c, "0", "reads.csv"), readsTable(c))
		var metricsRow string
		for _, l := range strings.Split(testMetrics, "\n") {
			if strings.HasPrefix(l, c+",") {
				metricsRow = l
			}
		}
		writeTestFile(t, filepath.Join(dir, "hmmcopy", c, "0", "metrics.csv"), strings.SplitN(testMetrics, "\n", 2)[0]+"\n"+metricsRow+"\n")
	}
	readsTemplate := filepath.Join(dir, "hmmcopy", "{cell_id}", "{multiplier}", "reads.csv")
	metricsTemplate := filepath.Join(dir, "hmmcopy", "{cell_id}", "{multiplier}", "metrics.csv")

	merged := filepath.Join(dir, "merged", "reads_{multiplier}.csv.gz")
	execute(t, "mergeTables", "-t", readsTemplate, "-o", merged, "--cells", strings.Join(cells, ","))
	assert.FileExists(t, filepath.Join(dir, "merged", "reads_0.csv.gz"))

	config := writeTestFile(t, filepath.Join(dir, "config.yaml"), fmt.Sprintf(
		"reads_template: %q\nmetrics_template: %q\ncells: [%s]\nnumreads_threshold: 100000\n",
		readsTemplate, metricsTemplate, strings.Join(cells, ", ")))
	t.Cleanup(func() { cfgFile = "" })

	outDir := filepath.Join(dir, "out")
	execute(t, "postprocess", "-c", config, "--out_dir", outDir)
	for _, name := range []string{"reads_0.csv.gz", "annotated_metrics_0.csv.gz", "good_cells_0.csv", "heatmap_order_0.csv", "heatmap_0.html", "postprocess.log"} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
	good := lines(t, filepath.Join(outDir, "good_cells_0.csv"))
	assert.Len(t, good, 4)
	assert.NotContains(t, strings.Join(good, "\n"), "C03")
}
