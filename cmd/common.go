package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/gmaffy/singlecell-whisperer/genome"
	"github.com/gmaffy/singlecell-whisperer/hmmcopy"
	"github.com/gmaffy/singlecell-whisperer/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func loadConfig(cmd *cobra.Command) utils.Config {
	cfg, err := utils.ReadConfig(cfgFile, cmd.Flags())
	if err != nil {
		log.Fatalf("Error reading config: %v", err)
	}
	return cfg
}

func chromosomeOrder(cfg utils.Config) genome.Order {
	if cfg.Reference == "" {
		return genome.NewOrder(cfg.Chromosomes)
	}
	fmt.Printf("Reading chromosome names from %s ...\n", cfg.Reference)
	chroms, err := genome.ChromosomesFromFasta(cfg.Reference)
	if err != nil {
		log.Fatalf("Error reading reference: %v", err)
	}
	return genome.NewOrder(chroms)
}

func thresholds(cfg utils.Config) hmmcopy.Thresholds {
	return hmmcopy.NewThresholds(cfg.MadThreshold, cfg.NumReadsThreshold, cfg.ReadsPerBinThreshold, cfg.CellCalls)
}

func clusterOptions(cfg utils.Config) hmmcopy.Options {
	opts, err := hmmcopy.ParseOptions(cfg.Linkage, cfg.Metric)
	if err != nil {
		log.Fatalf("Invalid clustering options: %v", err)
	}
	return opts
}

func groupOptions(cfg utils.Config) hmmcopy.Options {
	opts, err := hmmcopy.ParseOptions(cfg.GroupLinkage, cfg.GroupMetric)
	if err != nil {
		log.Fatalf("Invalid group clustering options: %v", err)
	}
	return opts
}

// outputWriter opens path, or stdout when path is empty or "-".
func outputWriter(path string) io.WriteCloser {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}
	}
	w, err := utils.CreateWriter(path)
	if err != nil {
		log.Fatalf("Error creating output %s: %v", path, err)
	}
	return w
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func addThresholdFlags(fs *pflag.FlagSet) {
	fs.Float64("mad_threshold", 0, "maximum neutral-state MAD of a kept cell (0 = no limit)")
	fs.Float64("numreads_threshold", 0, "minimum total mapped reads of a kept cell (0 = no limit)")
	fs.Float64("median_hmmcopy_reads_per_bin_threshold", 0, "minimum median reads per bin of a kept cell (0 = no limit)")
	fs.StringSlice("cell_calls", nil, "cell_call values to keep (empty = all)")
}

func addClusterFlags(fs *pflag.FlagSet) {
	fs.String("linkage", "ward", "linkage method: ward, average, complete, weighted or single")
	fs.String("metric", "cityblock", "distance metric: cityblock or euclidean")
	fs.String("value_column", "state", "reads table column holding the copy-number value")
	fs.StringSlice("chromosomes", nil, "chromosome order (default 1-22, X, Y)")
}

func addGroupFlags(fs *pflag.FlagSet) {
	fs.StringP("group_column", "g", "", "metrics column to split heatmap orders by (default: all cells together)")
	fs.String("group_linkage", "average", "linkage method within each group")
	fs.String("group_metric", "euclidean", "distance metric within each group")
}
