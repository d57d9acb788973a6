package hmmcopy

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gmaffy/singlecell-whisperer/genome"
	"github.com/gmaffy/singlecell-whisperer/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/pkg/errors"
)

// Tool is the message of every stage record in the run log.
const Tool = "HMMCOPY_POSTPROCESS"

// Stage names recorded in the run log.
const (
	StageMergeReads   = "MERGE_READS"
	StageMergeMetrics = "MERGE_METRICS"
	StageAnnotate     = "ANNOTATE"
	StageGroupOrder   = "GROUP_ORDER"
	StageFilter       = "FILTER"
	StageHeatmap      = "HEATMAP"
)

// PipelineConfig describes one post-processing run. GroupOptions orders
// the cells within each group of GroupColumn; zero means DefaultGroupOptions.
type PipelineConfig struct {
	Cells           []string
	ReadsTemplate   string
	MetricsTemplate string
	SampleInfo      string
	OutDir          string
	Multipliers     []int
	ValueColumn     string
	GroupColumn     string
	Chromosomes     genome.Order
	Thresholds      Thresholds
	Options         Options
	GroupOptions    Options
	MaxCN           float64
	Concurrency     int
	// Logged holds the records of earlier runs. A completed stage is not run
	// again while its digest and outputs are unchanged.
	Logged []utils.LogEntry
}

// Outputs are the files written for one multiplier.
type Outputs struct {
	Reads            string
	Metrics          string
	AnnotatedMetrics string
	GroupOrder       string
	GoodCells        string
	Heatmap          string
}

// OutputsFor names the output files of multiplier under outDir.
func OutputsFor(outDir string, multiplier int) Outputs {
	name := func(format string) string { return filepath.Join(outDir, fmt.Sprintf(format, multiplier)) }
	return Outputs{
		Reads:            name("reads_%d.csv.gz"),
		Metrics:          name("metrics_%d.csv.gz"),
		AnnotatedMetrics: name("annotated_metrics_%d.csv.gz"),
		GroupOrder:       name("heatmap_order_%d.csv"),
		GoodCells:        name("good_cells_%d.csv"),
		Heatmap:          name("heatmap_%d.html"),
	}
}

type pipeline struct {
	cfg    PipelineConfig
	logger *slog.Logger
	// ran is set once a stage of the current multiplier runs; every later
	// stage then runs too.
	ran bool
}

// Run merges the per-cell reads and metrics tables, orders and filters the
// cells and renders a heatmap, once per multiplier.
func Run(ctx context.Context, cfg PipelineConfig, logger *slog.Logger) error {
	if len(cfg.Cells) == 0 {
		return &ConfigError{Option: "cells", Reason: "is empty"}
	}
	if cfg.ReadsTemplate == "" || cfg.MetricsTemplate == "" {
		return &ConfigError{Option: "reads_template/metrics_template", Reason: "must both be set"}
	}
	if cfg.ValueColumn == "" {
		cfg.ValueColumn = ColState
	}
	if len(cfg.Multipliers) == 0 {
		cfg.Multipliers = []int{0}
	}
	if cfg.Options == (Options{}) {
		cfg.Options = DefaultOptions()
	}
	if cfg.GroupOptions == (Options{}) {
		cfg.GroupOptions = DefaultGroupOptions()
	}
	if err := utils.EnsureDir(cfg.OutDir); err != nil {
		return err
	}
	p := &pipeline{cfg: cfg, logger: logger}
	for _, m := range cfg.Multipliers {
		if err := p.runMultiplier(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (p *pipeline) done(stage, multiplier, digest, output string) bool {
	if p.ran || !utils.StageHasCompleted(p.cfg.Logged, stage, multiplier, digest) || !utils.FileExists(output) {
		return false
	}
	utils.LogStage(p.logger, Tool, stage, multiplier, utils.StatusSkipped, "DIGEST", digest, "OUTPUT", output)
	return true
}

func (p *pipeline) stage(ctx context.Context, stage, multiplier, digest string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.ran = true
	utils.LogStage(p.logger, Tool, stage, multiplier, utils.StatusStarted, "DIGEST", digest)
	if err := fn(); err != nil {
		utils.LogStage(p.logger, Tool, stage, multiplier, utils.StatusFailed, "DIGEST", digest, "ERROR", err.Error())
		return errors.Wrapf(err, "%s (multiplier %s)", stage, multiplier)
	}
	utils.LogStage(p.logger, Tool, stage, multiplier, utils.StatusCompleted, "DIGEST", digest)
	return nil
}

func (p *pipeline) mergeStage(ctx context.Context, stage, ms, digest, template, output string, multiplier int) (dataframe.DataFrame, error) {
	if p.done(stage, ms, digest, output) {
		return LoadTable(output, nil)
	}
	var merged dataframe.DataFrame
	err := p.stage(ctx, stage, ms, digest, func() error {
		var err error
		merged, err = MergeTables(ctx, CellTables(template, p.cfg.Cells, multiplier), MergeOptions{Concurrency: p.cfg.Concurrency})
		if err != nil {
			return err
		}
		return WriteTable(output, merged)
	})
	return merged, err
}

// digests fingerprints every stage of one multiplier. Each digest covers the
// digests of the stages it reads from.
type digests struct {
	reads, metrics, annotate, filter, groupOrder, heatmap string
}

func (p *pipeline) digestsFor(ms string) digests {
	cfg := p.cfg
	cells := strings.Join(cfg.Cells, ",")
	matrix := []string{cfg.ValueColumn, strings.Join(cfg.Chromosomes.Names(), ",")}
	var d digests
	d.reads = utils.Digest(StageMergeReads, ms, cfg.ReadsTemplate, cells)
	d.metrics = utils.Digest(StageMergeMetrics, ms, cfg.MetricsTemplate, cells)
	d.annotate = utils.Digest(append([]string{StageAnnotate, d.reads, d.metrics, cfg.Options.String(), cfg.SampleInfo}, matrix...)...)
	d.filter = utils.Digest(StageFilter, d.annotate, cfg.Thresholds.String())
	d.groupOrder = utils.Digest(append([]string{StageGroupOrder, d.filter, cfg.GroupColumn, cfg.GroupOptions.String()}, matrix...)...)
	d.heatmap = utils.Digest(StageHeatmap, d.filter, strconv.FormatFloat(cfg.MaxCN, 'g', -1, 64))
	return d
}

func (p *pipeline) runMultiplier(ctx context.Context, multiplier int) error {
	ms := strconv.Itoa(multiplier)
	out := OutputsFor(p.cfg.OutDir, multiplier)
	d := p.digestsFor(ms)
	p.ran = false

	reads, err := p.mergeStage(ctx, StageMergeReads, ms, d.reads, p.cfg.ReadsTemplate, out.Reads, multiplier)
	if err != nil {
		return err
	}
	metrics, err := p.mergeStage(ctx, StageMergeMetrics, ms, d.metrics, p.cfg.MetricsTemplate, out.Metrics, multiplier)
	if err != nil {
		return err
	}

	matrix, err := BuildMatrix(reads, p.cfg.ValueColumn, p.cfg.Chromosomes)
	if err != nil {
		return errors.Wrapf(err, "building matrix for multiplier %s", ms)
	}
	if err := CheckCoverage(matrix, metrics); err != nil {
		return errors.Wrapf(err, "multiplier %s", ms)
	}

	var annotated dataframe.DataFrame
	if p.done(StageAnnotate, ms, d.annotate, out.AnnotatedMetrics) {
		if annotated, err = LoadMetrics(out.AnnotatedMetrics); err != nil {
			return err
		}
	} else {
		err = p.stage(ctx, StageAnnotate, ms, d.annotate, func() error {
			order, err := ClusterOrder(matrix.SortRowsByProfile(), p.cfg.Options)
			if err != nil {
				return err
			}
			if annotated, err = AnnotateOrder(metrics, order); err != nil {
				return err
			}
			if p.cfg.SampleInfo != "" {
				info, err := LoadTable(p.cfg.SampleInfo, nil)
				if err != nil {
					return err
				}
				if annotated, err = JoinSampleInfo(annotated, info); err != nil {
					return err
				}
			}
			return WriteTable(out.AnnotatedMetrics, annotated)
		})
		if err != nil {
			return err
		}
	}

	var ordered []string
	if p.done(StageFilter, ms, d.filter, out.GoodCells) {
		good, err := LoadTable(out.GoodCells, nil)
		if err != nil {
			return err
		}
		ordered = good.Col(ColCellID).Records()
	} else {
		err = p.stage(ctx, StageFilter, ms, d.filter, func() error {
			good, err := FilterCells(annotated, p.cfg.Thresholds)
			if err != nil {
				return err
			}
			if ordered, err = SortCells(annotated, good); err != nil {
				return err
			}
			attrs := []any{"STAGE", StageFilter, "MULTIPLIER", ms, "CELLS", matrix.NumCells(), "GOOD_CELLS", len(ordered)}
			if median, err := MedianReads(annotated, ordered); err == nil && !math.IsNaN(median) {
				attrs = append(attrs, "MEDIAN_READS", median)
			}
			p.logger.Info(Tool, attrs...)
			return writeOrderedCells(out.GoodCells, ordered)
		})
		if err != nil {
			return err
		}
	}
	plotted := matrix.Subset(ordered)

	if !p.done(StageGroupOrder, ms, d.groupOrder, out.GroupOrder) {
		err = p.stage(ctx, StageGroupOrder, ms, d.groupOrder, func() error {
			groups, err := GroupOrders(plotted.SortRowsByProfile(), annotated, p.cfg.GroupColumn, p.cfg.GroupOptions)
			if err != nil {
				return err
			}
			w, err := utils.CreateWriter(out.GroupOrder)
			if err != nil {
				return err
			}
			if err := WriteGroupOrders(w, p.cfg.GroupColumn, groups); err != nil {
				w.Close()
				return err
			}
			return w.Close()
		})
		if err != nil {
			return err
		}
	}

	if p.done(StageHeatmap, ms, d.heatmap, out.Heatmap) {
		return nil
	}
	return p.stage(ctx, StageHeatmap, ms, d.heatmap, func() error {
		counts, err := ReadCounts(annotated)
		if err != nil {
			counts = nil
		}
		w, err := utils.CreateWriter(out.Heatmap)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("Copy number (%s)", ms)
		if err := RenderHeatmap(w, plotted.DropEmptyCells(), counts, HeatmapOptions{Title: title, MaxCN: p.cfg.MaxCN}); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	})
}

func writeOrderedCells(path string, cells []string) error {
	w, err := utils.CreateWriter(path)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s,%s\n", ColCellID, ColOrder); err != nil {
		w.Close()
		return err
	}
	for i, c := range cells {
		if _, err := fmt.Fprintf(w, "%s,%d\n", c, i); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
