/*
Copyright © 2025 Godwin Mafireyi (mafireyi@gmail.com)
*/
package cmd

import (
	"fmt"
	"log"

	"github.com/gmaffy/singlecell-whisperer/hmmcopy"
	"github.com/spf13/cobra"
)

// filterCellsCmd represents the filterCells command
var filterCellsCmd = &cobra.Command{
	Use:   "filterCells -m <metrics.csv> [thresholds]",
	Short: "Lists the cells that pass the quality thresholds",
	Long: `filterCells keeps a cell when its mad_neutral_state is at most --mad_threshold,
its total_mapped_reads is at least --numreads_threshold and its
median_hmmcopy_reads_per_bin is at least --median_hmmcopy_reads_per_bin_threshold.
Unset (zero) thresholds do not constrain. Cell ids are written one per line.`,
	Run: func(cmd *cobra.Command, args []string) {
		metricsFile, mErr := cmd.Flags().GetString("metrics")
		if mErr != nil {
			log.Fatalf("Error getting metrics flag: %v", mErr)
		}
		outFile, oErr := cmd.Flags().GetString("out")
		if oErr != nil {
			log.Fatalf("Error getting out flag: %v", oErr)
		}
		cfg := loadConfig(cmd)

		metrics, err := hmmcopy.LoadMetrics(metricsFile)
		if err != nil {
			log.Fatalf("Error loading metrics: %v", err)
		}
		good, err := hmmcopy.FilterCells(metrics, thresholds(cfg))
		if err != nil {
			log.Fatalf("Filtering failed: %v", err)
		}

		w := outputWriter(outFile)
		for _, c := range good {
			if _, err := fmt.Fprintln(w, c); err != nil {
				log.Fatalf("Error writing output: %v", err)
			}
		}
		if err := w.Close(); err != nil {
			log.Fatalf("Error closing output: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(filterCellsCmd)

	filterCellsCmd.Flags().StringP("metrics", "m", "", "per-cell metrics table (csv, optionally gzipped)")
	filterCellsCmd.Flags().StringP("out", "o", "", "output file (default stdout)")
	addThresholdFlags(filterCellsCmd.Flags())
	filterCellsCmd.MarkFlagRequired("metrics")
}
