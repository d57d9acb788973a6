/*
Copyright © 2025 Godwin Mafireyi (mafireyi@gmail.com)
*/
package cmd

import (
	"fmt"
	"log"

	"github.com/gmaffy/singlecell-whisperer/hmmcopy"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// plotHeatmapCmd represents the plotHeatmap command
var plotHeatmapCmd = &cobra.Command{
	Use:   "plotHeatmap -R <reads.csv> -m <metrics.csv> -o <heatmap.html>",
	Short: "Renders an ordered copy-number heatmap of the cells that pass the thresholds",
	Long: `plotHeatmap filters cells on their metrics, orders them by the "order" column of
the metrics table when it has one (as written by postprocess) or by clustering
otherwise, and writes an interactive HTML heatmap.`,
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
		title, tErr := cmd.Flags().GetString("title")
		if tErr != nil {
			log.Fatalf("Error getting title flag: %v", tErr)
		}
		cfg := loadConfig(cmd)

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

		var ordered []string
		if lo.Contains(metrics.Names(), hmmcopy.ColOrder) {
			ordered, err = hmmcopy.SortCells(metrics, good)
		} else {
			ordered, err = hmmcopy.ClusterOrder(matrix.Subset(good).SortRowsByProfile(), clusterOptions(cfg))
		}
		if err != nil {
			log.Fatalf("Ordering cells failed: %v", err)
		}
		fmt.Printf("Plotting %d of %d cells ...\n", len(ordered), matrix.NumCells())

		counts, err := hmmcopy.ReadCounts(metrics)
		if err != nil {
			counts = nil
		}
		w := outputWriter(outFile)
		plotted := matrix.Subset(ordered).DropEmptyCells()
		if err := hmmcopy.RenderHeatmap(w, plotted, counts, hmmcopy.HeatmapOptions{Title: title, MaxCN: float64(cfg.MaxCN)}); err != nil {
			log.Fatalf("Plotting failed: %v", err)
		}
		if err := w.Close(); err != nil {
			log.Fatalf("Error closing output: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(plotHeatmapCmd)

	plotHeatmapCmd.Flags().StringP("reads", "R", "", "merged reads table (csv, optionally gzipped)")
	plotHeatmapCmd.Flags().StringP("metrics", "m", "", "per-cell metrics table (csv, optionally gzipped)")
	plotHeatmapCmd.Flags().StringP("out", "o", "heatmap.html", "output html file")
	plotHeatmapCmd.Flags().String("title", "Copy number", "plot title")
	plotHeatmapCmd.Flags().Int("max_cn", 20, "copy number at the top of the colour scale")
	addClusterFlags(plotHeatmapCmd.Flags())
	addThresholdFlags(plotHeatmapCmd.Flags())
	plotHeatmapCmd.MarkFlagRequired("reads")
	plotHeatmapCmd.MarkFlagRequired("metrics")
}
