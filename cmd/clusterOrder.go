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

// clusterOrderCmd represents the clusterOrder command
var clusterOrderCmd = &cobra.Command{
	Use:   "clusterOrder -R <reads.csv> [args]",
	Short: "Orders cells by hierarchical clustering of their copy-number profiles",
	Long: `clusterOrder pivots a long-format reads table (cell_id, chr, start, end, state)
into a cell by bin matrix, replaces missing values with -1, and writes the leaf
order of an agglomerative clustering (ward linkage over city-block distances by
default) as "cell_id,order" rows.`,
	Run: func(cmd *cobra.Command, args []string) {
		readsFile, rErr := cmd.Flags().GetString("reads")
		if rErr != nil {
			log.Fatalf("Error getting reads flag: %v", rErr)
		}
		outFile, oErr := cmd.Flags().GetString("out")
		if oErr != nil {
			log.Fatalf("Error getting out flag: %v", oErr)
		}
		cfg := loadConfig(cmd)
		opts := clusterOptions(cfg)

		reads, err := hmmcopy.LoadTable(readsFile, nil)
		if err != nil {
			log.Fatalf("Error loading reads: %v", err)
		}
		matrix, err := hmmcopy.BuildMatrix(reads, cfg.ValueColumn, chromosomeOrder(cfg))
		if err != nil {
			log.Fatalf("Error building matrix: %v", err)
		}
		fmt.Printf("Clustering %d cells over %d bins (%s linkage, %s distance) ...\n", matrix.NumCells(), matrix.NumBins(), opts.Linkage, opts.Metric)

		order, err := hmmcopy.ClusterOrder(matrix.SortRowsByProfile(), opts)
		if err != nil {
			log.Fatalf("Clustering failed: %v", err)
		}

		w := outputWriter(outFile)
		if _, err := fmt.Fprintf(w, "%s,%s\n", hmmcopy.ColCellID, hmmcopy.ColOrder); err != nil {
			log.Fatalf("Error writing output: %v", err)
		}
		for i, c := range order {
			if _, err := fmt.Fprintf(w, "%s,%d\n", c, i); err != nil {
				log.Fatalf("Error writing output: %v", err)
			}
		}
		if err := w.Close(); err != nil {
			log.Fatalf("Error closing output: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(clusterOrderCmd)

	clusterOrderCmd.Flags().StringP("reads", "R", "", "merged reads table (csv, optionally gzipped)")
	clusterOrderCmd.Flags().StringP("out", "o", "", "output file (default stdout)")
	addClusterFlags(clusterOrderCmd.Flags())
	clusterOrderCmd.MarkFlagRequired("reads")
}
