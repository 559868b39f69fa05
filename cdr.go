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
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// cdrVar is the NetCDF variable holding the daily sea ice
// concentration in the CDR files.
const cdrVar = "seaice_conc_cdr"

// cdrEpoch is the reference time for the CDR 'time' variable,
// which counts days since 1601-01-01.
var cdrEpoch = time.Date(1601, time.January, 1, 0, 0, 0, 0, time.UTC)

// cdrCutover is the date the CDR daily files moved from the final
// G02202 record (sensor f17) to the near-real-time G10016 record
// (sensor f18), changing both directory tree and file name.
var cdrCutover = time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)

// CDRFileName returns the remote directory and file name holding the
// daily CDR concentration grid for the given date and hemisphere.
func CDRFileName(date time.Time, h Hemisphere) (dir, file string, err error) {
	if err := h.Check(); err != nil {
		return "", "", err
	}
	if date.Before(cdrCutover) {
		dir = fmt.Sprintf("https://sidads.colorado.edu/pub/DATASETS/NOAA/G02202_V3/%s/daily/%s/",
			h, date.Format("2006"))
		file = fmt.Sprintf("seaice_conc_daily_%sh_f17_%s_v03r01.nc",
			h.letter(), date.Format(inDateFormat))
		return dir, file, nil
	}
	dir = fmt.Sprintf("https://sidads.colorado.edu/pub/DATASETS/NOAA/G10016/%s/daily/%s/",
		h, date.Format("2006"))
	file = fmt.Sprintf("seaice_conc_daily_icdr_%sh_f18_%s_v01r00.nc",
		h.letter(), date.Format(inDateFormat))
	return dir, file, nil
}

// A CDRSource loads daily CDR concentration grids from NetCDF files
// stored in a local directory.
type CDRSource struct {
	// Dir is the directory holding the daily NetCDF files.
	Dir string

	// Hemi selects the analysis hemisphere.
	Hemi Hemisphere

	geometry *GridGeometry // captured from the first successful load
}

// Product implements the GridSource interface.
func (s *CDRSource) Product() string { return "cdr" }

// CellArea implements the GridSource interface. Geometry must have
// been called (or a grid loaded) first.
func (s *CDRSource) CellArea() float64 {
	if s.geometry == nil {
		panic("seaice: CDRSource cell area requested before grid geometry is known")
	}
	return s.geometry.CellArea()
}

// Grid implements the GridSource interface, reading the file for the
// given date and converting fill and flag values to the missing-data
// sentinel.
func (s *CDRSource) Grid(date time.Time) (*sparse.DenseArray, error) {
	_, file, err := CDRFileName(date, s.Hemi)
	if err != nil {
		return nil, err
	}
	conc, g, err := ReadCDR(filepath.Join(s.Dir, file))
	if err != nil {
		return nil, &MissingGridError{Product: s.Product(), Date: date, Err: err}
	}
	if s.geometry == nil {
		s.geometry = g
	}
	return conc, nil
}

// Geometry returns the shared grid geometry, probing dates in
// [start, end) until a readable file is found.
func (s *CDRSource) Geometry(start, end time.Time) (*GridGeometry, error) {
	if s.geometry != nil {
		return s.geometry, nil
	}
	for date := start; date.Before(end); date = date.AddDate(0, 0, 1) {
		if _, err := s.Grid(date); err == nil {
			return s.geometry, nil
		}
	}
	return nil, fmt.Errorf("seaice: no readable CDR file between %s and %s to take grid geometry from",
		start.Format(inDateFormat), end.Format(inDateFormat))
}

// ReadCDR reads a daily CDR NetCDF file, returning the concentration
// grid and the grid geometry from the file's projection metadata.
// Fill values and concentration flags (values outside [0, 1]) become
// the missing-data sentinel.
func ReadCDR(filename string) (*sparse.DenseArray, *GridGeometry, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, nil, fmt.Errorf("opening NetCDF file %s: %v", filename, err)
	}
	conc, err := readGrid(ff, cdrVar)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s from %s: %v", cdrVar, filename, err)
	}
	for i, v := range conc.Elements {
		if v < 0 || v > 1 || math.IsNaN(v) {
			conc.Elements[i] = missingFill
		}
	}
	g, err := readGeometry(ff, conc.Shape)
	if err != nil {
		return nil, nil, fmt.Errorf("reading grid geometry from %s: %v", filename, err)
	}
	return conc, g, nil
}

// CDRDate returns the observation date stored in a daily CDR file.
func CDRDate(filename string) (time.Time, error) {
	f, err := os.Open(filename)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return time.Time{}, fmt.Errorf("opening NetCDF file %s: %v", filename, err)
	}
	t, err := readGrid(ff, "time")
	if err != nil {
		return time.Time{}, fmt.Errorf("reading time from %s: %v", filename, err)
	}
	if len(t.Elements) != 1 {
		return time.Time{}, fmt.Errorf("time variable in %s has %d values instead of 1",
			filename, len(t.Elements))
	}
	return cdrEpoch.AddDate(0, 0, int(t.Elements[0])), nil
}

// readGrid reads the whole of variable v from ff into a dense array,
// squeezing any leading length-1 dimensions (the daily files carry a
// single time step) and applying the scale_factor attribute if the
// variable carries one.
func readGrid(ff *cdf.File, v string) (*sparse.DenseArray, error) {
	dims := ff.Header.Lengths(v)
	if len(dims) == 0 {
		return nil, fmt.Errorf("variable %s is not in file", v)
	}
	for len(dims) > 1 && dims[0] == 1 {
		dims = dims[1:]
	}
	r := ff.Reader(v, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("reading variable %s: %v", v, err)
	}
	data := sparse.ZerosDense(dims...)
	switch b := buf.(type) {
	case []float32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []float64:
		copy(data.Elements, b)
	case []int32:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []int16:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	case []uint8:
		for i, v := range b {
			data.Elements[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("variable %s has unsupported type %T", v, buf)
	}
	if scale := attrFloat(ff.Header.GetAttribute(v, "scale_factor")); scale != 0 && scale != 1 {
		for i := range data.Elements {
			data.Elements[i] *= scale
		}
	}
	return data, nil
}

// readGeometry extracts the shared grid description from the CDR
// projection metadata: the proj4 projection text, the projected
// upper-left corner, and the cell size taken from the GeoTransform
// attribute (fields 1 and 5 of the space-delimited GDAL form).
func readGeometry(ff *cdf.File, shape []int) (*GridGeometry, error) {
	if len(shape) != 2 {
		return nil, fmt.Errorf("concentration grid has %d dimensions instead of 2", len(shape))
	}
	proj4 := attrString(ff.Header.GetAttribute("projection", "proj4text"))
	if proj4 == "" {
		return nil, fmt.Errorf("projection variable has no proj4text attribute")
	}
	transform := attrString(ff.Header.GetAttribute("projection", "GeoTransform"))
	fields := strings.Fields(transform)
	if len(fields) < 6 {
		return nil, fmt.Errorf("malformed GeoTransform attribute '%s'", transform)
	}
	dx, err := strconv.ParseFloat(strings.TrimSuffix(fields[1], ","), 64)
	if err != nil {
		return nil, fmt.Errorf("malformed GeoTransform attribute '%s': %v", transform, err)
	}
	dy, err := strconv.ParseFloat(strings.TrimSuffix(fields[5], ","), 64)
	if err != nil {
		return nil, fmt.Errorf("malformed GeoTransform attribute '%s': %v", transform, err)
	}
	return &GridGeometry{
		Proj4: proj4,
		X0:    attrFloat(ff.Header.GetAttribute("projection", "grid_boundary_left_projected_x")),
		Y0:    attrFloat(ff.Header.GetAttribute("projection", "grid_boundary_top_projected_y")),
		Dx:    math.Abs(dx),
		Dy:    math.Abs(dy),
		Ny:    shape[0],
		Nx:    shape[1],
	}, nil
}

// attrString converts a NetCDF attribute value to a string.
func attrString(attr interface{}) string {
	s, _ := attr.(string)
	return s
}

// attrFloat converts a single-valued numeric NetCDF attribute to a
// float64, returning 0 if the attribute is absent or empty.
func attrFloat(attr interface{}) float64 {
	switch a := attr.(type) {
	case []float32:
		if len(a) > 0 {
			return float64(a[0])
		}
	case []float64:
		if len(a) > 0 {
			return a[0]
		}
	case []int32:
		if len(a) > 0 {
			return float64(a[0])
		}
	case []int16:
		if len(a) > 0 {
			return float64(a[0])
		}
	}
	return 0
}
