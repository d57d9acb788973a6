package hmmcopy

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gmaffy/singlecell-whisperer/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// CellTable is one per-cell table on disk.
type CellTable struct {
	CellID string
	Path   string
}

// CellTables expands a path template with "{cell_id}" and "{multiplier}"
// placeholders for every cell.
func CellTables(template string, cells []string, multiplier int) []CellTable {
	return lo.Map(cells, func(c string, _ int) CellTable {
		return CellTable{
			CellID: c,
			Path: utils.ExpandTemplate(template, map[string]string{
				"cell_id":    c,
				"multiplier": strconv.Itoa(multiplier),
			}),
		}
	})
}

// MergeOptions controls MergeTables. Types forces column types; Concurrency
// bounds the number of tables read at once (at least one).
type MergeOptions struct {
	Types       map[string]series.Type
	Concurrency int
}

// MergeTables concatenates per-cell tables in input order. Tables are read
// concurrently; a table without a cell_id column gets one from its CellTable.
// The first read failure cancels the remaining reads.
func MergeTables(ctx context.Context, inputs []CellTable, opts MergeOptions) (dataframe.DataFrame, error) {
	if len(inputs) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("no tables to merge")
	}
	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}

	tables := make([]dataframe.DataFrame, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			df, err := LoadTable(in.Path, opts.Types)
			if err != nil {
				return errors.Wrapf(err, "cell %s", in.CellID)
			}
			if !lo.Contains(df.Names(), ColCellID) {
				ids := make([]string, df.Nrow())
				for k := range ids {
					ids[k] = in.CellID
				}
				df = df.Mutate(series.New(ids, series.String, ColCellID))
				if df.Err != nil {
					return errors.Wrapf(df.Err, "adding cell_id to %s", in.Path)
				}
			}
			tables[i] = df
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dataframe.DataFrame{}, err
	}

	merged := tables[0]
	for i, t := range tables[1:] {
		merged = merged.RBind(t)
		if merged.Err != nil {
			return dataframe.DataFrame{}, errors.Wrapf(merged.Err, "appending %s", inputs[i+1].Path)
		}
	}
	return merged, nil
}
