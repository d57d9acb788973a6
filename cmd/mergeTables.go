/*
Copyright © 2025 Godwin Mafireyi (mafireyi@gmail.com)
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gmaffy/singlecell-whisperer/hmmcopy"
	"github.com/gmaffy/singlecell-whisperer/utils"
	"github.com/spf13/cobra"
)

// mergeTablesCmd represents the mergeTables command
var mergeTablesCmd = &cobra.Command{
	Use:   "mergeTables -t <per-cell template> -o <output template> --cells a,b,c",
	Short: "Concatenates per-cell tables into one table per multiplier",
	Long: `mergeTables reads one table per cell and multiplier, located by a path template
with {cell_id} and {multiplier} placeholders, for example
  hmmcopy/{cell_id}/{multiplier}/reads.csv
and writes one merged table per multiplier to the output template
(for example merged/reads_{multiplier}.csv.gz). Tables without a cell_id column
get one.`,
	Run: func(cmd *cobra.Command, args []string) {
		template, tErr := cmd.Flags().GetString("template")
		if tErr != nil {
			log.Fatalf("Error getting template flag: %v", tErr)
		}
		outTemplate, oErr := cmd.Flags().GetString("out")
		if oErr != nil {
			log.Fatalf("Error getting out flag: %v", oErr)
		}
		cfg := loadConfig(cmd)
		if len(cfg.Cells) == 0 {
			log.Fatal("Please provide the cell ids with --cells or in the config file")
		}

		for _, m := range cfg.Multipliers {
			start := time.Now()
			inputs := hmmcopy.CellTables(template, cfg.Cells, m)
			merged, err := hmmcopy.MergeTables(context.Background(), inputs, hmmcopy.MergeOptions{Concurrency: cfg.Concurrency})
			if err != nil {
				log.Fatalf("Merging multiplier %d failed: %v", m, err)
			}
			out := utils.ExpandTemplate(outTemplate, map[string]string{"multiplier": strconv.Itoa(m)})
			if err := hmmcopy.WriteTable(out, merged); err != nil {
				log.Fatalf("Error writing %s: %v", out, err)
			}
			fmt.Printf("Merged %d tables (%d rows) into %s in %s\n", len(inputs), merged.Nrow(), out, time.Since(start))
		}
	},
}

func init() {
	rootCmd.AddCommand(mergeTablesCmd)

	mergeTablesCmd.Flags().StringP("template", "t", "", "per-cell table path template with {cell_id} and {multiplier}")
	mergeTablesCmd.Flags().StringP("out", "o", "", "output path template with {multiplier}")
	mergeTablesCmd.Flags().StringSlice("cells", nil, "cell ids")
	mergeTablesCmd.Flags().IntSlice("multipliers", []int{0}, "HMMcopy multipliers")
	mergeTablesCmd.Flags().Int("concurrency", 8, "number of tables read at once")
	mergeTablesCmd.MarkFlagRequired("template")
	mergeTablesCmd.MarkFlagRequired("out")
}
