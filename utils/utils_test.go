package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configYAML = `reads_template: hmmcopy/{cell_id}/{multiplier}/reads.csv.gz
metrics_template: hmmcopy/{cell_id}/{multiplier}/metrics.csv.gz
cells: [SA1-R01-C01, SA1-R01-C02]
out_dir: results
multipliers: [1, 2]
mad_threshold: 0.15
numreads_threshold: 500000
cell_calls: [C1]
linkage: average
`

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("linkage", "ward", "")
	flags.String("out_dir", ".", "")
	flags.Float64("mad_threshold", 0, "")
	flags.StringSlice("cells", nil, "")
	flags.IntSlice("multipliers", []int{0}, "")
	flags.String("reference", "", "")
	flags.Bool("verbose", false, "")
	return flags
}

func TestReadConfigDefaults(t *testing.T) {
	cfg, err := ReadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, ".", cfg.OutDir)
	assert.Equal(t, []int{0}, cfg.Multipliers)
	assert.Equal(t, "state", cfg.ValueColumn)
	assert.Equal(t, "ward", cfg.Linkage)
	assert.Equal(t, "cityblock", cfg.Metric)
	assert.Equal(t, "average", cfg.GroupLinkage)
	assert.Equal(t, "euclidean", cfg.GroupMetric)
	assert.Equal(t, 20, cfg.MaxCN)
	assert.Equal(t, runtime.NumCPU(), cfg.Concurrency)
	assert.Zero(t, cfg.MadThreshold)
	assert.Empty(t, cfg.Cells)
}

func TestReadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0644))

	flags := testFlags()
	require.NoError(t, flags.Parse(nil))
	cfg, err := ReadConfig(path, flags)
	require.NoError(t, err)

	assert.Equal(t, []string{"SA1-R01-C01", "SA1-R01-C02"}, cfg.Cells)
	assert.Equal(t, "results", cfg.OutDir)
	assert.Equal(t, []int{1, 2}, cfg.Multipliers)
	assert.Equal(t, 0.15, cfg.MadThreshold)
	assert.Equal(t, 500000.0, cfg.NumReadsThreshold)
	assert.Zero(t, cfg.ReadsPerBinThreshold)
	assert.Equal(t, []string{"C1"}, cfg.CellCalls)
	assert.Equal(t, "average", cfg.Linkage, "unchanged flag defaults do not override the file")
}

func TestReadConfigFlagsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0644))

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{
		"--linkage", "complete",
		"--mad_threshold", "0.2",
		"--cells", "SA1-R02-C07",
		"--multipliers", "3",
		"--reference", "/refs/GRCh37.fa.gz",
		"--verbose",
	}))
	cfg, err := ReadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "complete", cfg.Linkage)
	assert.Equal(t, 0.2, cfg.MadThreshold)
	assert.Equal(t, []string{"SA1-R02-C07"}, cfg.Cells)
	assert.Equal(t, []int{3}, cfg.Multipliers)
	assert.Equal(t, "/refs/GRCh37.fa.gz", cfg.Reference)
	assert.Equal(t, "results", cfg.OutDir)
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.ErrorContains(t, err, "absent.yaml")
}
