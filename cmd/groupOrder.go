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

// groupOrderCmd represents the groupOrder command
var groupOrderCmd = &cobra.Command{
	Use:   "groupOrder -R <reads.csv> -m <metrics.csv> [args]",
	Short: "Orders cells separately within each group of a metrics column",
	Long: `groupOrder clusters the cells of every value of --group_column (for example
experimental_condition) on their own and writes "cell_id,<group_column>_heatmap_order"
rows. Cells that fail the quality thresholds are left out; groups with fewer than two
cells are skipped. Cells missing a value in any bin are not ordered. Each group is
clustered with --group_linkage and --group_metric (average, euclidean by default).`,
	Run: func(cmd *cobra.Command, args []string) {
		readsFile, rErr := cmd.Flags().GetString("reads")
		if rErr != nil {
			log.Fatalf("Error getting reads flag: %v", rErr)
		}
		metricsFile, mErr := cmd.Flags().GetString("metrics")
		if mErr != nil {
			log.Fatalf("Error getting metrics flag: %v", mErr)
		}
		outFile, oErr := cmd.Flags().GetString("out")
		if oErr != nil {
			log.Fatalf("Error getting out flag: %v", oErr)
		}
		cfg := loadConfig(cmd)
		opts := groupOptions(cfg)

		reads, err := hmmcopy.LoadTable(readsFile, nil)
		if err != nil {
			log.Fatalf("Error loading reads: %v", err)
		}
		metrics, err := hmmcopy.LoadMetrics(metricsFile)
		if err != nil {
			log.Fatalf("Error loading metrics: %v", err)
		}
		matrix, err := hmmcopy.BuildMatrix(reads, cfg.ValueColumn, chromosomeOrder(cfg))
		if err != nil {
			log.Fatalf("Error building matrix: %v", err)
		}
		good, err := hmmcopy.FilterCells(metrics, thresholds(cfg))
		if err != nil {
			log.Fatalf("Filtering failed: %v", err)
		}
		fmt.Printf("%d of %d cells pass the thresholds\n", len(good), matrix.NumCells())

		groups, err := hmmcopy.GroupOrders(matrix.Subset(good).SortRowsByProfile(), metrics, cfg.GroupColumn, opts)
		if err != nil {
			log.Fatalf("Clustering failed: %v", err)
		}
		w := outputWriter(outFile)
		if err := hmmcopy.WriteGroupOrders(w, cfg.GroupColumn, groups); err != nil {
			log.Fatalf("Error writing output: %v", err)
		}
		if err := w.Close(); err != nil {
			log.Fatalf("Error closing output: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(groupOrderCmd)

	groupOrderCmd.Flags().StringP("reads", "R", "", "merged reads table (csv, optionally gzipped)")
	groupOrderCmd.Flags().StringP("metrics", "m", "", "per-cell metrics table (csv, optionally gzipped)")
	groupOrderCmd.Flags().StringP("out", "o", "", "output file (default stdout)")
	addGroupFlags(groupOrderCmd.Flags())
	addClusterFlags(groupOrderCmd.Flags())
	addThresholdFlags(groupOrderCmd.Flags())
	groupOrderCmd.MarkFlagRequired("reads")
	groupOrderCmd.MarkFlagRequired("metrics")
}
