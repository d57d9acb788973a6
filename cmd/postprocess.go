/*
Copyright © 2025 Godwin Mafireyi (mafireyi@gmail.com)
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gmaffy/singlecell-whisperer/hmmcopy"
	"github.com/gmaffy/singlecell-whisperer/utils"
	"github.com/spf13/cobra"
)

// postprocessCmd represents the postprocess command
var postprocessCmd = &cobra.Command{
	Use:   "postprocess -c <config.yaml> [args]",
	Short: "Runs the whole HMMcopy post-processing for every multiplier",
	Long: `postprocess merges the per-cell reads and metrics tables, orders all cells by
hierarchical clustering, annotates the metrics with that order, filters cells on
their metrics and renders a heatmap of the kept cells, once per multiplier.

Stages are recorded in <out_dir>/postprocess.log; re-running with the same
out_dir skips the stages that already completed with the same inputs and
settings; once a stage runs again, every later stage runs too.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)

		if err := utils.EnsureDir(cfg.OutDir); err != nil {
			log.Fatalf("Output directory: %v", err)
		}

		fmt.Println("Reading log file ...")
		logFilePath := filepath.Join(cfg.OutDir, "postprocess.log")
		logged, err := utils.ParseLogFile(logFilePath)
		if err != nil {
			log.Fatalf("Failed to read log file: %v", err)
		}
		logger, logFile, err := utils.NewLogger(logFilePath, os.Stderr)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer logFile.Close()

		pc := hmmcopy.PipelineConfig{
			Cells:           cfg.Cells,
			ReadsTemplate:   cfg.ReadsTemplate,
			MetricsTemplate: cfg.MetricsTemplate,
			SampleInfo:      cfg.SampleInfo,
			OutDir:          cfg.OutDir,
			Multipliers:     cfg.Multipliers,
			ValueColumn:     cfg.ValueColumn,
			GroupColumn:     cfg.GroupColumn,
			Chromosomes:     chromosomeOrder(cfg),
			Thresholds:      thresholds(cfg),
			Options:         clusterOptions(cfg),
			GroupOptions:    groupOptions(cfg),
			MaxCN:           float64(cfg.MaxCN),
			Concurrency:     cfg.Concurrency,
			Logged:          logged,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		start := time.Now()
		utils.LogStage(logger, hmmcopy.Tool, "INITIALISE", "ALL", utils.StatusStarted)
		if err := hmmcopy.Run(ctx, pc, logger); err != nil {
			logFile.Close()
			log.Fatalf("Post-processing failed: %v", err)
		}
		utils.LogStage(logger, hmmcopy.Tool, "INITIALISE", "ALL", utils.StatusCompleted)
		fmt.Printf("Post-processing took %s\n", time.Since(start))
	},
}

func init() {
	rootCmd.AddCommand(postprocessCmd)

	postprocessCmd.Flags().String("reads_template", "", "per-cell reads table template with {cell_id} and {multiplier}")
	postprocessCmd.Flags().String("metrics_template", "", "per-cell metrics table template with {cell_id} and {multiplier}")
	postprocessCmd.Flags().String("sample_info", "", "optional per-cell sample info table joined on cell_id")
	postprocessCmd.Flags().StringSlice("cells", nil, "cell ids")
	postprocessCmd.Flags().StringP("out_dir", "o", ".", "output directory")
	postprocessCmd.Flags().IntSlice("multipliers", []int{0}, "HMMcopy multipliers")
	addGroupFlags(postprocessCmd.Flags())
	postprocessCmd.Flags().Int("max_cn", 20, "copy number at the top of the colour scale")
	postprocessCmd.Flags().Int("concurrency", 8, "number of tables read at once")
	addClusterFlags(postprocessCmd.Flags())
	addThresholdFlags(postprocessCmd.Flags())
}
