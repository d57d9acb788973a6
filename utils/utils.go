package utils

import (
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every setting the post-processing commands read from the
// config file or the command line. Flag names match the config keys.
type Config struct {
	ReadsTemplate   string
	MetricsTemplate string
	SampleInfo      string
	Cells           []string
	OutDir          string
	Reference       string
	Multipliers     []int
	Chromosomes     []string
	ValueColumn     string
	GroupColumn     string

	MadThreshold         float64
	NumReadsThreshold    float64
	ReadsPerBinThreshold float64
	CellCalls            []string

	Linkage      string
	Metric       string
	GroupLinkage string
	GroupMetric  string
	MaxCN        int
	Concurrency int
}

var configKeys = []string{
	"reads_template", "metrics_template", "sample_info", "cells", "out_dir", "reference",
	"multipliers", "chromosomes", "value_column", "group_column",
	"mad_threshold", "numreads_threshold", "median_hmmcopy_reads_per_bin_threshold", "cell_calls",
	"linkage", "metric", "group_linkage", "group_metric", "max_cn", "concurrency",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("out_dir", ".")
	v.SetDefault("multipliers", []int{0})
	v.SetDefault("value_column", "state")
	v.SetDefault("linkage", "ward")
	v.SetDefault("metric", "cityblock")
	v.SetDefault("group_linkage", "average")
	v.SetDefault("group_metric", "euclidean")
	v.SetDefault("max_cn", 20)
	v.SetDefault("concurrency", runtime.NumCPU())
}

// ReadConfig loads configPath (yaml, json or toml; skipped when empty) and
// overlays every flag in flags that was set explicitly on the command line.
func ReadConfig(configPath string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "reading config %s", configPath)
		}
	}

	if flags != nil {
		known := make(map[string]bool, len(configKeys))
		for _, k := range configKeys {
			known[k] = true
		}
		flags.Visit(func(f *pflag.Flag) {
			if !known[f.Name] {
				return
			}
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				v.Set(f.Name, sv.GetSlice())
				return
			}
			v.Set(f.Name, f.Value.String())
		})
	}

	cfg := Config{
		ReadsTemplate:   v.GetString("reads_template"),
		MetricsTemplate: v.GetString("metrics_template"),
		SampleInfo:      v.GetString("sample_info"),
		Cells:           v.GetStringSlice("cells"),
		OutDir:          v.GetString("out_dir"),
		Reference:       v.GetString("reference"),
		Multipliers:     v.GetIntSlice("multipliers"),
		Chromosomes:     v.GetStringSlice("chromosomes"),
		ValueColumn:     v.GetString("value_column"),
		GroupColumn:     v.GetString("group_column"),

		MadThreshold:         v.GetFloat64("mad_threshold"),
		NumReadsThreshold:    v.GetFloat64("numreads_threshold"),
		ReadsPerBinThreshold: v.GetFloat64("median_hmmcopy_reads_per_bin_threshold"),
		CellCalls:            v.GetStringSlice("cell_calls"),

		Linkage:      v.GetString("linkage"),
		Metric:       v.GetString("metric"),
		GroupLinkage: v.GetString("group_linkage"),
		GroupMetric:  v.GetString("group_metric"),
		MaxCN:        v.GetInt("max_cn"),
		Concurrency:  v.GetInt("concurrency"),
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg, nil
}
