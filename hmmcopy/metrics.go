package hmmcopy

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gmaffy/singlecell-whisperer/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// stringColumns are always read as strings, so ids such as "1" or "X" are not
// turned into numbers by type detection.
var stringColumns = []string{ColCellID, ColChrom, ColCellCall, "sample_id", "sample_type", "experimental_condition"}

// ReadTable reads a CSV table. Columns listed in types get that type; the
// id-like columns are strings; the rest are detected. A table with a header
// and no rows has those columns and no rows.
func ReadTable(r io.Reader, types map[string]series.Type) (dataframe.DataFrame, error) {
	colTypes := make(map[string]series.Type, len(types)+len(stringColumns))
	for _, c := range stringColumns {
		colTypes[c] = series.String
	}
	for k, v := range types {
		colTypes[k] = v
	}
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, errors.Wrap(err, "parsing table")
	}
	if len(records) == 0 {
		return dataframe.DataFrame{}, errors.New("parsing table: no header")
	}
	if len(records) == 1 {
		return emptyTable(records[0], colTypes), nil
	}
	df := dataframe.LoadRecords(records, dataframe.WithTypes(colTypes))
	if df.Err != nil {
		return df, errors.Wrap(df.Err, "parsing table")
	}
	return df, nil
}

// emptyTable has the given columns and no rows. Columns without a known
// type are float.
func emptyTable(header []string, colTypes map[string]series.Type) dataframe.DataFrame {
	cols := lo.Map(header, func(name string, _ int) series.Series {
		t, ok := colTypes[name]
		if !ok {
			t = series.Float
		}
		return series.New([]string{}, t, name)
	})
	return dataframe.New(cols...)
}

// LoadTable reads a CSV table from path; ".gz" files are decompressed.
func LoadTable(path string, types map[string]series.Type) (dataframe.DataFrame, error) {
	f, err := utils.OpenReader(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer f.Close()
	df, err := ReadTable(f, types)
	if err != nil {
		return df, errors.Wrapf(err, "loading %s", path)
	}
	return df, nil
}

// ReadMetrics reads a per-cell metrics table. Numeric metric columns keep
// their detected type; FilterCells reads them as floats.
func ReadMetrics(r io.Reader) (dataframe.DataFrame, error) {
	return ReadTable(r, nil)
}

// LoadMetrics reads a per-cell metrics table from path.
func LoadMetrics(path string) (dataframe.DataFrame, error) {
	f, err := utils.OpenReader(path)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer f.Close()
	df, err := ReadMetrics(f)
	if err != nil {
		return df, errors.Wrapf(err, "loading metrics %s", path)
	}
	return df, nil
}

// WriteTable writes df as CSV to path, gzip-compressed for ".gz" names.
func WriteTable(path string, df dataframe.DataFrame) error {
	w, err := utils.CreateWriter(path)
	if err != nil {
		return err
	}
	if err := df.WriteCSV(w); err != nil {
		w.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	return errors.Wrapf(w.Close(), "closing %s", path)
}

func requireColumns(df dataframe.DataFrame, cols ...string) error {
	names := df.Names()
	for _, c := range cols {
		if !lo.Contains(names, c) {
			return missingColumn(c)
		}
	}
	return nil
}

// CheckCoverage verifies that every cell of the matrix has a metrics row.
func CheckCoverage(m *CopyNumberMatrix, metrics dataframe.DataFrame) error {
	if err := requireColumns(metrics, ColCellID); err != nil {
		return err
	}
	known := lo.SliceToMap(metrics.Col(ColCellID).Records(), func(c string) (string, bool) { return c, true })
	missing := lo.Filter(m.Cells(), func(c string, _ int) bool { return !known[c] })
	if len(missing) == 0 {
		return nil
	}
	shown := missing
	if len(shown) > 5 {
		shown = shown[:5]
	}
	return fmt.Errorf("%d cells have no metrics row: %s", len(missing), strings.Join(shown, ", "))
}
