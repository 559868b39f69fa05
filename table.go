/*
Copyright © 2020 the seaice authors.
This file is part of seaice.

seaice is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

seaice is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with seaice.  If not, see <http://www.gnu.org/licenses/>.
*/

package seaice

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/tealeg/xlsx"
)

// StatsFileName returns the output table file name for a threshold
// sweep, with the sweep bounds embedded as integer percentages.
func StatsFileName(lower, upper float64) string {
	return fmt.Sprintf("stats_%d_to_%d_sic.csv", int(100*lower), int(100*upper))
}

// A TableWriter writes area records as delimited text with one row per
// (date, product, threshold), flushing after every completed date so
// that interrupting a run keeps all completed dates on disk.
//
// Derived columns are expressions over the variables a<percent>, where
// a10 is the area at the 0.10 threshold. For example, the marginal ice
// zone band is "a10 - a80". Derived values are written as extra rows
// with the column name in place of the threshold.
type TableWriter struct {
	w           *csv.Writer
	derived     []derivedColumn
	wroteHeader bool
}

type derivedColumn struct {
	name string
	expr *govaluate.EvaluableExpression
}

// NewTableWriter creates a TableWriter writing to w. derived maps
// derived column names to their expressions; it may be nil.
func NewTableWriter(w io.Writer, derived map[string]string) (*TableWriter, error) {
	t := &TableWriter{w: csv.NewWriter(w)}
	names := make([]string, 0, len(derived))
	for name := range derived {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		expr, err := govaluate.NewEvaluableExpression(derived[name])
		if err != nil {
			return nil, fmt.Errorf("seaice: parsing derived column %s: %v", name, err)
		}
		t.derived = append(t.derived, derivedColumn{name: name, expr: expr})
	}
	return t, nil
}

// areaVar is the expression variable name for the area at threshold t.
func areaVar(t float64) string {
	return fmt.Sprintf("a%d", int(math.Round(100*t)))
}

// WriteDate appends the records for one (date, product) combination,
// evaluates any derived columns against them, and flushes.
func (t *TableWriter) WriteDate(date time.Time, records []Record) error {
	if !t.wroteHeader {
		if err := t.w.Write([]string{"date", "product", "threshold", "area"}); err != nil {
			return fmt.Errorf("seaice: writing table header: %v", err)
		}
		t.wroteHeader = true
	}
	params := make(map[string]interface{}, len(records))
	product := ""
	for _, r := range records {
		product = r.Product
		params[areaVar(r.Threshold)] = r.Area
		row := []string{
			r.Date.Format(inDateFormat),
			r.Product,
			strconv.FormatFloat(r.Threshold, 'g', -1, 64),
			strconv.FormatFloat(r.Area, 'g', -1, 64),
		}
		if err := t.w.Write(row); err != nil {
			return fmt.Errorf("seaice: writing table row: %v", err)
		}
	}
	for _, d := range t.derived {
		v, err := d.expr.Evaluate(params)
		if err != nil {
			return fmt.Errorf("seaice: evaluating derived column %s: %v", d.name, err)
		}
		val, ok := v.(float64)
		if !ok {
			return fmt.Errorf("seaice: derived column %s is not numeric", d.name)
		}
		row := []string{
			date.Format(inDateFormat),
			product,
			d.name,
			strconv.FormatFloat(val, 'g', -1, 64),
		}
		if err := t.w.Write(row); err != nil {
			return fmt.Errorf("seaice: writing derived row: %v", err)
		}
	}
	t.w.Flush()
	return t.w.Error()
}

// ReadTable reads back a table written by a TableWriter, skipping
// derived-column rows (rows whose threshold field is not numeric).
func ReadTable(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("seaice: reading area table: %v", err)
	}
	var records []Record
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "date" {
			continue
		}
		if len(row) != 4 {
			return nil, fmt.Errorf("seaice: area table row %d has %d fields instead of 4", i, len(row))
		}
		date, err := time.Parse(inDateFormat, row[0])
		if err != nil {
			return nil, fmt.Errorf("seaice: area table row %d: %v", i, err)
		}
		threshold, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			continue // derived column
		}
		area, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("seaice: area table row %d: %v", i, err)
		}
		records = append(records, Record{
			Date:      date,
			Product:   row[1],
			Threshold: threshold,
			Area:      area,
		})
	}
	return records, nil
}

// WriteXLSX writes the given records as a spreadsheet with one sheet
// holding the same columns as the delimited table.
func WriteXLSX(filename string, records []Record) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("areas")
	if err != nil {
		return fmt.Errorf("seaice: creating xlsx sheet: %v", err)
	}
	header := sheet.AddRow()
	for _, name := range []string{"date", "product", "threshold", "area"} {
		header.AddCell().Value = name
	}
	for _, r := range records {
		row := sheet.AddRow()
		row.AddCell().Value = r.Date.Format(inDateFormat)
		row.AddCell().Value = r.Product
		row.AddCell().SetFloat(r.Threshold)
		row.AddCell().SetFloat(r.Area)
	}
	if err := f.Save(filename); err != nil {
		return fmt.Errorf("seaice: saving xlsx file: %v", err)
	}
	return nil
}

// OpenTableFile creates the output table file for a sweep with the
// given bounds in dir, creating dir if necessary.
func OpenTableFile(dir string, lower, upper float64) (*os.File, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("seaice: creating output directory: %v", err)
	}
	f, err := os.Create(filepath.Join(dir, StatsFileName(lower, upper)))
	if err != nil {
		return nil, fmt.Errorf("seaice: creating output table: %v", err)
	}
	return f, nil
}
